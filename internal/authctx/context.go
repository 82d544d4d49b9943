// Package authctx carries the resolved caller identity and the active tenant
// scope through a request. Both are plain context values; nothing here is
// process-global.
package authctx

import (
	"context"

	"timetrack-auth/internal/user/domain"
)

// Kind tags the identity variants an AuthContext can hold.
type Kind int

const (
	KindUser Kind = iota
	KindSuperAdmin
	KindDevice
)

// UserIdentity is a resolved, active tenant user.
type UserIdentity struct {
	ID       int64
	Email    string
	Name     string
	TenantID int64
	Role     domain.Role
}

// SuperAdminIdentity is a resolved platform account.
type SuperAdminIdentity struct {
	ID    int64
	Email string
	Name  string
}

// DeviceIdentity is a resolved, authorized agent device.
type DeviceIdentity struct {
	DeviceRowID int64
	DeviceID    string
	UserID      int64
	TenantID    int64
}

// AuthContext is the tagged union a guard produces for downstream handlers.
// Exactly the field matching Kind is non-nil.
type AuthContext struct {
	Kind       Kind
	User       *UserIdentity
	SuperAdmin *SuperAdminIdentity
	Device     *DeviceIdentity
	// Token is the raw bearer credential the identity was resolved from; used
	// by logout to blacklist exactly what the caller presented.
	Token string
}

// TenantID returns the tenant the identity is confined to, or false for
// platform-level identities.
func (a *AuthContext) TenantID() (int64, bool) {
	switch a.Kind {
	case KindUser:
		return a.User.TenantID, true
	case KindDevice:
		return a.Device.TenantID, true
	default:
		return 0, false
	}
}

// Role returns the effective role name for the identity.
func (a *AuthContext) Role() domain.Role {
	switch a.Kind {
	case KindUser:
		return a.User.Role
	case KindSuperAdmin:
		return domain.RoleSuperAdmin
	default:
		return ""
	}
}

// SubjectID returns the user id behind the identity: the user itself, the
// admin account, or the device's owning user.
func (a *AuthContext) SubjectID() int64 {
	switch a.Kind {
	case KindUser:
		return a.User.ID
	case KindSuperAdmin:
		return a.SuperAdmin.ID
	case KindDevice:
		return a.Device.UserID
	default:
		return 0
	}
}

type contextKey struct{ name string }

var (
	authKey     = contextKey{"auth"}
	tenantKey   = contextKey{"tenant_id"}
	clientIPKey = contextKey{"client_ip"}
)

// WithAuth returns a context carrying the resolved identity.
func WithAuth(ctx context.Context, a *AuthContext) context.Context {
	return context.WithValue(ctx, authKey, a)
}

// GetAuth returns the resolved identity and true if set; otherwise nil, false.
func GetAuth(ctx context.Context) (*AuthContext, bool) {
	v, ok := ctx.Value(authKey).(*AuthContext)
	return v, ok
}

// WithTenant returns a context scoped to the given tenant id.
func WithTenant(ctx context.Context, tenantID int64) context.Context {
	return context.WithValue(ctx, tenantKey, tenantID)
}

// GetTenant returns the active tenant id and true if set; otherwise 0, false.
func GetTenant(ctx context.Context) (int64, bool) {
	v, ok := ctx.Value(tenantKey).(int64)
	return v, ok
}

// ClearTenant returns a context with no tenant scope, shadowing any outer value.
func ClearTenant(ctx context.Context) context.Context {
	return context.WithValue(ctx, tenantKey, nil)
}

// WithClientIP returns a context carrying the request's client IP for audit.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// GetClientIP returns the client IP and true if set; otherwise "", false.
func GetClientIP(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(clientIPKey).(string)
	return v, ok
}
