package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AuditLogEntry is one recorded audit event.
type AuditLogEntry struct {
	APIKeyID  uuid.UUID
	Action    string
	Resource  string
	IPAddress string
	UserAgent string
	Status    int
	Details   map[string]any
	CreatedAt time.Time
}

// MemoryAuditLogger is an in-memory AuditLogger, replacing the
// Postgres-backed audit_logs table.
type MemoryAuditLogger struct {
	mu      sync.Mutex
	entries []AuditLogEntry
}

// NewMemoryAuditLogger builds an empty audit logger.
func NewMemoryAuditLogger() *MemoryAuditLogger {
	return &MemoryAuditLogger{}
}

// CreateAuditLog appends an entry.
func (l *MemoryAuditLogger) CreateAuditLog(ctx context.Context, apiKeyID uuid.UUID, action, resource, ipAddress, userAgent string, status int, details map[string]any) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, AuditLogEntry{
		APIKeyID:  apiKeyID,
		Action:    action,
		Resource:  resource,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Status:    status,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

// Entries returns a copy of every recorded entry, most recent last.
func (l *MemoryAuditLogger) Entries() []AuditLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]AuditLogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
