// Package device owns the device registry rows the auth core shares with
// device registration: the authorization flag and last-seen timestamp.
package device

import (
	"context"
	"errors"
	"time"

	"timetrack-auth/internal/device/domain"
	"timetrack-auth/internal/device/repository"
)

// ErrDeviceNotFound is returned when a device row does not exist in the caller's tenant.
var ErrDeviceNotFound = errors.New("device not found")

// Service implements registry operations over the device repository.
type Service struct {
	repo repository.Repository
	nowF func() time.Time
}

// NewService returns a device Service over repo.
func NewService(repo repository.Repository) *Service {
	return &Service{
		repo: repo,
		nowF: func() time.Time { return time.Now().UTC() },
	}
}

// RegisterOrAuthorize creates the device row if absent, otherwise authorizes it
// and refreshes last-seen. Idempotent: repeating the call leaves the same
// authorized row. A non-empty name overwrites the stored one.
func (s *Service) RegisterOrAuthorize(ctx context.Context, userID, tenantID int64, deviceID, name string) (*domain.Device, error) {
	now := s.nowF()
	dev, err := s.repo.GetByOwner(ctx, tenantID, userID, deviceID)
	if err != nil {
		return nil, err
	}
	if dev == nil {
		dev = &domain.Device{
			DeviceID:     deviceID,
			UserID:       userID,
			TenantID:     tenantID,
			Name:         name,
			IsAuthorized: true,
			LastSeenAt:   &now,
			CreatedAt:    now,
		}
		id, err := s.repo.Create(ctx, dev)
		if err != nil {
			return nil, err
		}
		dev.ID = id
		return dev, nil
	}
	dev.IsAuthorized = true
	dev.LastSeenAt = &now
	if name != "" {
		dev.Name = name
	}
	if err := s.repo.Update(ctx, dev); err != nil {
		return nil, err
	}
	return dev, nil
}

// GetAuthorized returns the authorized device for deviceID, or nil when the
// device is absent or revoked.
func (s *Service) GetAuthorized(ctx context.Context, deviceID string) (*domain.Device, error) {
	return s.repo.GetAuthorizedByDeviceID(ctx, deviceID)
}

// Get returns the device row by id within the tenant, or nil if not found.
func (s *Service) Get(ctx context.Context, id, tenantID int64) (*domain.Device, error) {
	return s.repo.GetByID(ctx, id, tenantID)
}

// TouchLastSeen records device activity.
func (s *Service) TouchLastSeen(ctx context.Context, id int64) error {
	return s.repo.UpdateLastSeen(ctx, id, s.nowF())
}

// Revoke flips isAuthorized off for the device row in the tenant. The row and
// its history are kept. Returns ErrDeviceNotFound for rows outside the tenant.
func (s *Service) Revoke(ctx context.Context, id, tenantID int64) error {
	dev, err := s.repo.GetByID(ctx, id, tenantID)
	if err != nil {
		return err
	}
	if dev == nil {
		return ErrDeviceNotFound
	}
	return s.repo.SetAuthorized(ctx, dev.ID, false)
}

// ListForOwner returns the user's devices in the tenant, newest first.
func (s *Service) ListForOwner(ctx context.Context, tenantID, userID int64) ([]*domain.Device, error) {
	return s.repo.ListByOwner(ctx, tenantID, userID)
}
