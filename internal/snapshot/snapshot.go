// Package snapshot provides an in-memory, ETag-versioned cache of the last
// applied ClientFeatures document and owns the single shared *engine.State
// the rest of the process evaluates against.
//
// Snapshot Lifecycle:
//  1. Application Startup:
//     - Load a ClientFeatures document from store.Store
//     - Apply it via Update(), which both installs it into the shared engine
//       state and publishes its ETag to any SSE listeners
//  2. Runtime Operations:
//     - Reads: Load() returns the current snapshot (atomic, thread-safe, O(1))
//     - Writes: admin apply-state calls trigger Update() with a new document
//  3. SSE Notifications:
//     - Update() automatically broadcasts the new ETag to connected clients
//
// Global State Management:
// This package uses package-level global variables for performance and
// simplicity:
//   - `current`: atomic pointer to the current snapshot
//   - `engineState`: the single shared *engine.State every evaluation call
//     reads through
package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/rs/zerolog/log"
	"github.com/ygg-project/yggcore/internal/engine"
	"github.com/ygg-project/yggcore/internal/model"
)

// Snapshot is an immutable point-in-time view of the last applied features
// document, carrying an ETag for cache validation.
type Snapshot struct {
	ETag      string              `json:"etag"`
	Features  model.ClientFeatures `json:"features"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

var (
	// current holds an atomic pointer to the current snapshot. Modified
	// only via atomic.StorePointer/LoadPointer.
	current unsafe.Pointer

	// engineState is the single shared evaluation engine every request
	// reads through; Update installs new state into it.
	engineState = engine.NewState()

	// updateMu serializes Update so the installed engine state and the
	// visible snapshot always come from the same document.
	updateMu sync.Mutex
)

// State returns the shared engine state that every evaluation call reads
// through. It is never nil, even before the first Update.
func State() *engine.State {
	return engineState
}

// Load atomically reads the current snapshot from memory. Returns an empty
// snapshot (no features applied yet) if Update has never been called.
func Load() *Snapshot {
	pointer := atomic.LoadPointer(&current)
	if pointer == nil {
		return &Snapshot{
			ETag:      "",
			Features:  model.ClientFeatures{},
			UpdatedAt: time.Now().UTC(),
		}
	}
	return (*Snapshot)(pointer)
}

func storeSnapshot(s *Snapshot) {
	atomic.StorePointer(&current, unsafe.Pointer(s))
}

// Update compiles and installs a new features document into the shared
// engine state, replaces the visible snapshot, and notifies SSE listeners
// of the new ETag. It returns the metric bucket harvested from whatever
// state was previously installed (nil on the very first call).
func Update(features model.ClientFeatures) (*model.MetricBucket, error) {
	updateMu.Lock()
	defer updateMu.Unlock()
	bucket, err := engineState.ApplyState(features)
	if err != nil {
		return nil, err
	}

	old := Load()
	next := &Snapshot{
		ETag:      computeETag(features),
		Features:  features,
		UpdatedAt: time.Now().UTC(),
	}
	storeSnapshot(next)

	log.Info().
		Int("toggles", len(features.Features)).
		Str("old_etag", old.ETag).
		Str("new_etag", next.ETag).
		Msg("snapshot updated")

	publishUpdate(next.ETag)
	return bucket, nil
}

// computeETag generates a weak ETag from the features document using
// SHA-256. Same content produces the same ETag; any change to the document
// changes it.
func computeETag(features model.ClientFeatures) string {
	serialized, _ := json.Marshal(features)
	hash := sha256.Sum256(serialized)
	return `W/"` + hex.EncodeToString(hash[:]) + `"`
}
