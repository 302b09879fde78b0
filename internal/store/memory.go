package store

import (
	"context"
	"sort"
	"sync"

	"github.com/ygg-project/yggcore/internal/model"
)

// MemoryStore is an in-memory implementation of the Store interface.
// It uses a map for storage and RWMutex for thread-safe concurrent access.
// This implementation is suitable for development, testing, or single-instance deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	features map[string]model.ClientFeatures // env -> document
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		features: make(map[string]model.ClientFeatures),
	}
}

// GetFeatures retrieves the stored document for env, or an empty document
// if none has been stored yet.
func (m *MemoryStore) GetFeatures(ctx context.Context, env string) (model.ClientFeatures, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.features[env], nil
}

// PutFeatures stores features as the current document for env.
func (m *MemoryStore) PutFeatures(ctx context.Context, env string, features model.ClientFeatures) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.features[env] = features
	return nil
}

// ListEnvironments returns every environment with a stored document, sorted
// for deterministic output.
func (m *MemoryStore) ListEnvironments(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	envs := make([]string, 0, len(m.features))
	for env := range m.features {
		envs = append(envs, env)
	}
	sort.Strings(envs)
	return envs, nil
}

// Close is a no-op for MemoryStore as there are no resources to release.
func (m *MemoryStore) Close() error {
	return nil
}
