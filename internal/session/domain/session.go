package domain

import "time"

// ClientType identifies which kind of client opened the session.
type ClientType string

const (
	ClientTypeWeb     ClientType = "WEB"
	ClientTypeDesktop ClientType = "DESKTOP"
	ClientTypeAgent   ClientType = "AGENT"
)

// Session is the durable record of an issued refresh token. The refresh token
// itself is never stored, only its bcrypt digest. TenantID is nil for
// platform-level (super admin) sessions.
type Session struct {
	ID               string
	UserID           int64
	TenantID         *int64
	DeviceID         string
	DeviceName       string
	UserAgent        string
	IPAddress        string
	RefreshTokenHash string
	ClientType       ClientType
	ExpiresAt        time.Time
	LastSeenAt       *time.Time
	RevokedAt        *time.Time // nil when not revoked
	CreatedAt        time.Time
}

// IsValid reports whether the session may still redeem its refresh token at now.
func (s *Session) IsValid(now time.Time) bool {
	return s.RevokedAt == nil && s.ExpiresAt.After(now)
}
