package repository

import (
	"context"

	"timetrack-auth/internal/tenant/domain"
)

// Repository defines the tenant reads the auth core needs.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.Tenant, error)
}
