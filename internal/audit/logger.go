package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"timetrack-auth/internal/audit/domain"
	auditrepo "timetrack-auth/internal/audit/repository"
	"timetrack-auth/internal/authctx"
)

// Actions recorded by the auth code paths.
const (
	ActionLogin            = "login"
	ActionLoginFailure     = "login_failure"
	ActionLogout           = "logout"
	ActionRefresh          = "refresh"
	ActionDeviceCodeIssued = "device_code_issued"
	ActionDeviceCodeUsed   = "device_code_exchanged"
	ActionDeviceRevoked    = "device_revoked"
	ActionSessionRevoked   = "session_revoked"
)

// IPExtractor returns the client IP recorded with each event. The default
// reads the value stored by the HTTP middleware via authctx.WithClientIP.
type IPExtractor func(context.Context) string

// AuditLogger writes a single audit event with explicit action/resource.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, tenantID, userID *int64, action, resource, metadata string)
}

// Logger implements AuditLogger using the audit repository and an optional IP extractor.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
}

// NewLogger returns an AuditLogger that persists to repo.
// ipExtractor may be nil; then the IP stored on the request context is used.
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor) *Logger {
	if ipExtractor == nil {
		ipExtractor = func(ctx context.Context) string {
			if ip, ok := authctx.GetClientIP(ctx); ok {
				return ip
			}
			return "unknown"
		}
	}
	return &Logger{repo: repo, ipExtractor: ipExtractor}
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not returned.
// tenantID and userID may be nil for events without a resolved subject (e.g. login_failure).
func (l *Logger) LogEvent(ctx context.Context, tenantID, userID *int64, action, resource, metadata string) {
	if l == nil || l.repo == nil {
		return
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		IP:        l.ipExtractor(ctx),
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		log.Printf("audit: failed to log event %s/%s: %v", action, resource, err)
	}
}
