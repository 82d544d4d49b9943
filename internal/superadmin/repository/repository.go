package repository

import (
	"context"

	"timetrack-auth/internal/superadmin/domain"
)

// Repository defines persistence for super admin accounts.
// Create exists for cmd/seed only; super admins are not managed over HTTP here.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.SuperAdmin, error)
	GetByEmail(ctx context.Context, email string) (*domain.SuperAdmin, error)
	Create(ctx context.Context, a *domain.SuperAdmin) (int64, error)
}
