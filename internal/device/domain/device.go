package domain

import "time"

// Device is a registered agent installation. DeviceID is the agent-chosen
// identifier, unique per tenant and user; ID is the row key. Revocation flips
// IsAuthorized rather than deleting, so history is kept.
type Device struct {
	ID           int64
	DeviceID     string
	UserID       int64
	TenantID     int64
	Name         string
	IsAuthorized bool
	LastSeenAt   *time.Time
	CreatedAt    time.Time
}
