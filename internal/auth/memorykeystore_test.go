package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestMemoryKeyStore_CreateAndList(t *testing.T) {
	store := NewMemoryKeyStore()

	id := store.CreateKey(RoleAdmin, "hash-1", nil)
	require.NotEqual(t, uuid.Nil, id)

	keys, err := store.ListAPIKeys(context.Background())
	require.NoError(t, err)
	require.Len(t, keys, 1)
	require.Equal(t, id, keys[0].ID)
	require.Equal(t, RoleAdmin, keys[0].Role)
	require.True(t, keys[0].Enabled)
}

func TestMemoryKeyStore_RevokeKey(t *testing.T) {
	store := NewMemoryKeyStore()
	id := store.CreateKey(RoleReadonly, "hash-1", nil)

	require.True(t, store.RevokeKey(id))

	keys, err := store.ListAPIKeys(context.Background())
	require.NoError(t, err)
	require.Len(t, keys, 1)
	require.False(t, keys[0].Enabled)
}

func TestMemoryKeyStore_RevokeUnknownKeyReturnsFalse(t *testing.T) {
	store := NewMemoryKeyStore()
	require.False(t, store.RevokeKey(uuid.New()))
}

func TestMemoryKeyStore_UpdateAPIKeyLastUsed(t *testing.T) {
	store := NewMemoryKeyStore()
	id := store.CreateKey(RoleAdmin, "hash-1", nil)

	require.NoError(t, store.UpdateAPIKeyLastUsed(context.Background(), id))

	keys, err := store.ListAPIKeys(context.Background())
	require.NoError(t, err)
	require.NotNil(t, keys[0].LastUsedAt)
	require.WithinDuration(t, time.Now().UTC(), *keys[0].LastUsedAt, 5*time.Second)
}

func TestMemoryKeyStore_UpdateLastUsedOnUnknownKeyIsNoop(t *testing.T) {
	store := NewMemoryKeyStore()
	require.NoError(t, store.UpdateAPIKeyLastUsed(context.Background(), uuid.New()))
}

func TestMemoryKeyStore_ExpiresAtIsPreserved(t *testing.T) {
	store := NewMemoryKeyStore()
	expiry := time.Now().Add(time.Hour)
	id := store.CreateKey(RoleAdmin, "hash-1", &expiry)

	keys, err := store.ListAPIKeys(context.Background())
	require.NoError(t, err)
	require.Len(t, keys, 1)
	require.Equal(t, id, keys[0].ID)
	require.NotNil(t, keys[0].ExpiresAt)
	require.WithinDuration(t, expiry, *keys[0].ExpiresAt, time.Second)
}
