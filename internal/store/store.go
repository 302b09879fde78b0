// Package store persists ClientFeatures documents, one per environment, and
// provides the factory that picks an in-memory or PostgreSQL-backed
// implementation.
package store

import (
	"context"

	"github.com/ygg-project/yggcore/internal/model"
)

// Store defines the interface for features-document persistence.
// Implementations must be thread-safe and support concurrent access.
type Store interface {
	// GetFeatures retrieves the last stored document for env. Returns an
	// empty ClientFeatures (not an error) if none has ever been stored.
	GetFeatures(ctx context.Context, env string) (model.ClientFeatures, error)

	// PutFeatures persists features as the current document for env,
	// replacing whatever was stored before.
	PutFeatures(ctx context.Context, env string, features model.ClientFeatures) error

	// ListEnvironments returns every environment with a stored document.
	ListEnvironments(ctx context.Context) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}
