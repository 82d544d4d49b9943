package domain

import "time"

// Role is a tenant-scoped (or platform) role name.
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleOwner      Role = "OWNER"
	RoleAdmin      Role = "ADMIN"
	RoleEmployee   Role = "EMPLOYEE"
)

// CanManageTenant reports whether the role may view tenant-wide resources
// (e.g. every session in the tenant).
func (r Role) CanManageTenant() bool {
	return r == RoleOwner || r == RoleAdmin || r == RoleSuperAdmin
}

// User is a tenant-scoped account. User CRUD lives elsewhere; the auth core
// reads users for credential checks and identity resolution only.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	TenantID     int64
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
}
