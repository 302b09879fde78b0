package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// APIKey is one provisioned API key, stored hashed.
type APIKey struct {
	ID         uuid.UUID
	KeyHash    string
	Role       Role
	Enabled    bool
	ExpiresAt  *time.Time
	LastUsedAt *time.Time
}

// MemoryKeyStore is an in-memory KeyStore. It replaces the Postgres-backed
// api_keys table: API-key authentication is still a legitimate ambient
// concern for the HTTP driver, but the generated query layer it depended on
// is not part of this tree.
type MemoryKeyStore struct {
	mu   sync.RWMutex
	keys map[uuid.UUID]APIKey
}

// NewMemoryKeyStore builds an empty key store.
func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{keys: make(map[uuid.UUID]APIKey)}
}

// CreateKey provisions a new key hash under the given role and returns its
// ID.
func (m *MemoryKeyStore) CreateKey(role Role, keyHash string, expiresAt *time.Time) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New()
	m.keys[id] = APIKey{
		ID:        id,
		KeyHash:   keyHash,
		Role:      role,
		Enabled:   true,
		ExpiresAt: expiresAt,
	}
	return id
}

// RevokeKey disables a key so it can no longer authenticate.
func (m *MemoryKeyStore) RevokeKey(id uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	k, ok := m.keys[id]
	if !ok {
		return false
	}
	k.Enabled = false
	m.keys[id] = k
	return true
}

// ListAPIKeys returns every provisioned key, enabled or not.
func (m *MemoryKeyStore) ListAPIKeys(ctx context.Context) ([]APIKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]APIKey, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, k)
	}
	return out, nil
}

// UpdateAPIKeyLastUsed stamps a key's last-used time to now.
func (m *MemoryKeyStore) UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k, ok := m.keys[id]
	if !ok {
		return nil
	}
	now := time.Now().UTC()
	k.LastUsedAt = &now
	m.keys[id] = k
	return nil
}
