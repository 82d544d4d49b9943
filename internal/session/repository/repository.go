package repository

import (
	"context"
	"time"

	"timetrack-auth/internal/session/domain"
)

// Repository defines persistence for sessions. Sessions are never hard-deleted
// here; revocation sets revoked_at and garbage collection is an external concern.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	Create(ctx context.Context, s *domain.Session) error
	// ListActiveByUser returns the user's non-revoked sessions expiring after now, newest first.
	ListActiveByUser(ctx context.Context, userID int64, now time.Time) ([]*domain.Session, error)
	// ListByUser returns all of the user's sessions, newest first.
	ListByUser(ctx context.Context, userID int64) ([]*domain.Session, error)
	// ListByTenant returns all sessions scoped to the tenant, newest first.
	ListByTenant(ctx context.Context, tenantID int64) ([]*domain.Session, error)
	// Revoke sets revoked_at for the session unless already set.
	Revoke(ctx context.Context, id string, at time.Time) error
	// RevokeAllByUser sets revoked_at for every unrevoked session of the user.
	RevokeAllByUser(ctx context.Context, userID int64, at time.Time) error
	UpdateLastSeen(ctx context.Context, id string, at time.Time) error
}
