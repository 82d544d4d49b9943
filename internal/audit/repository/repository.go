package repository

import (
	"context"

	"timetrack-auth/internal/audit/domain"
)

// Repository defines persistence for audit logs.
type Repository interface {
	Create(ctx context.Context, a *domain.AuditLog) error
	// ListByTenant returns audit logs for the tenant, newest first, paginated.
	ListByTenant(ctx context.Context, tenantID int64, limit, offset int32) ([]*domain.AuditLog, error)
}
