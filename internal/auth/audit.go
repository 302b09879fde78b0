package auth

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// AuditLogger defines the interface for audit logging operations
type AuditLogger interface {
	CreateAuditLog(ctx context.Context, apiKeyID uuid.UUID, action, resource, ipAddress, userAgent string, status int, details map[string]any) error
}

// AuditEntry represents an audit log entry
type AuditEntry struct {
	APIKeyID  uuid.UUID
	Action    string
	Resource  string
	IPAddress string
	UserAgent string
	Status    int
	Details   map[string]any
}

// LogAudit logs an audit entry
func LogAudit(ctx context.Context, logger AuditLogger, entry AuditEntry) error {
	details := entry.Details
	if details == nil {
		details = map[string]any{}
	}

	return logger.CreateAuditLog(
		ctx,
		entry.APIKeyID,
		entry.Action,
		entry.Resource,
		entry.IPAddress,
		entry.UserAgent,
		entry.Status,
		details,
	)
}

// GetIPAddress extracts the IP address from the request
func GetIPAddress(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
