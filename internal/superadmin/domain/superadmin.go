package domain

import "time"

// SuperAdmin is a platform-level account with no tenant. Always carries the
// SUPER_ADMIN role and bypasses tenant scoping.
type SuperAdmin struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}
