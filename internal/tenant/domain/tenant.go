package domain

import "time"

// TenantStatus is the lifecycle state of a tenant.
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
	TenantStatusInactive  TenantStatus = "inactive"
)

// Tenant is the organizational scope non-platform identities are confined to.
// Tenant CRUD lives elsewhere; the auth core only reads id and status.
type Tenant struct {
	ID        int64
	Name      string
	Status    TenantStatus
	CreatedAt time.Time
}

// IsActive reports whether identities of this tenant may authenticate.
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}
