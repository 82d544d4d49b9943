package repository

import (
	"context"
	"time"

	"timetrack-auth/internal/deviceauth/domain"
)

// Repository defines persistence for device authorization codes.
type Repository interface {
	Create(ctx context.Context, c *domain.AuthorizationCode) error
	// GetByCodeAndDevice returns the code row for (code, deviceID), or nil if absent.
	GetByCodeAndDevice(ctx context.Context, code, deviceID string) (*domain.AuthorizationCode, error)
	// MarkUsed sets used_at only if it is still unset. Returns true when this
	// call won the update; false when the code was already consumed. This is
	// the single check-and-set the exchange race depends on.
	MarkUsed(ctx context.Context, id string, at time.Time) (bool, error)
	// DeleteExpired bulk-deletes rows past expiry and returns the count.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
