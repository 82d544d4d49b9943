package repository

import (
	"context"
	"time"

	"timetrack-auth/internal/device/domain"
)

// Repository defines persistence for devices.
type Repository interface {
	// GetByOwner returns the device for (tenantID, userID, deviceID), or nil if absent.
	GetByOwner(ctx context.Context, tenantID, userID int64, deviceID string) (*domain.Device, error)
	// GetAuthorizedByDeviceID returns the authorized device for deviceID, or nil
	// if the device is absent or not authorized.
	GetAuthorizedByDeviceID(ctx context.Context, deviceID string) (*domain.Device, error)
	GetByID(ctx context.Context, id int64, tenantID int64) (*domain.Device, error)
	Create(ctx context.Context, d *domain.Device) (int64, error)
	// Update persists name, authorization flag, and last-seen for the row id.
	Update(ctx context.Context, d *domain.Device) error
	UpdateLastSeen(ctx context.Context, id int64, at time.Time) error
	SetAuthorized(ctx context.Context, id int64, authorized bool) error
	ListByOwner(ctx context.Context, tenantID, userID int64) ([]*domain.Device, error)
}
