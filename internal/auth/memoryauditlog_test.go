package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestMemoryAuditLogger_CreateAuditLog(t *testing.T) {
	logger := NewMemoryAuditLogger()
	id := uuid.New()

	err := logger.CreateAuditLog(context.Background(), id, "toggle_update", "/toggles/foo", "203.0.113.1", "curl/8.0", 200, map[string]any{"enabled": true})
	require.NoError(t, err)

	entries := logger.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, id, entries[0].APIKeyID)
	require.Equal(t, "toggle_update", entries[0].Action)
	require.Equal(t, 200, entries[0].Status)
	require.Equal(t, true, entries[0].Details["enabled"])
	require.False(t, entries[0].CreatedAt.IsZero())
}

func TestMemoryAuditLogger_EntriesAreAppendedInOrder(t *testing.T) {
	logger := NewMemoryAuditLogger()

	require.NoError(t, logger.CreateAuditLog(context.Background(), uuid.New(), "a", "/x", "", "", 200, nil))
	require.NoError(t, logger.CreateAuditLog(context.Background(), uuid.New(), "b", "/y", "", "", 201, nil))

	entries := logger.Entries()
	require.Len(t, entries, 2)
	require.Equal(t, "a", entries[0].Action)
	require.Equal(t, "b", entries[1].Action)
}

func TestMemoryAuditLogger_EntriesReturnsACopy(t *testing.T) {
	logger := NewMemoryAuditLogger()
	require.NoError(t, logger.CreateAuditLog(context.Background(), uuid.New(), "a", "/x", "", "", 200, nil))

	entries := logger.Entries()
	entries[0].Action = "mutated"

	fresh := logger.Entries()
	require.Equal(t, "a", fresh[0].Action)
}
