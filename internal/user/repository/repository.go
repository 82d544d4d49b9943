package repository

import (
	"context"

	"timetrack-auth/internal/user/domain"
)

// Repository defines the user reads the auth core needs.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}
