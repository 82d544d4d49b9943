package domain

import "time"

// CodeTTL is the lifetime of an authorization code.
const CodeTTL = 10 * time.Minute

// AuthorizationCode binds a device to a user and tenant for one exchange.
// The row is Created, then either consumed (UsedAt set, terminal) or it ages
// out past ExpiresAt; expiry is checked at read time, never scheduled.
// UserID and TenantID stay nil until the browser authorize step completes.
type AuthorizationCode struct {
	ID          string
	Code        string
	DeviceID    string
	UserID      *int64
	TenantID    *int64
	RedirectURI string
	DeviceName  string
	ExpiresAt   time.Time
	UsedAt      *time.Time
	CreatedAt   time.Time
}

// IsExpired reports whether the code's window has passed at now.
func (c *AuthorizationCode) IsExpired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}
