package domain

import "time"

// AuditLog is one recorded auth event. TenantID is nil for platform-level
// events (super admin logins, failed logins with no resolved account).
type AuditLog struct {
	ID        string
	TenantID  *int64
	UserID    *int64
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
