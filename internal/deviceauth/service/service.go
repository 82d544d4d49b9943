// Package service implements the device authorization flow: a browser-mediated
// login mints a single-use code that a headless agent exchanges exactly once
// for a long-lived device token.
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	devicedomain "timetrack-auth/internal/device/domain"
	"timetrack-auth/internal/deviceauth/domain"
	"timetrack-auth/internal/deviceauth/repository"
	"timetrack-auth/internal/security"
)

// Sentinel errors for the device authorization flow; handlers map them to HTTP statuses.
var (
	ErrCodeNotFound       = errors.New("invalid authorization code")
	ErrCodeExpired        = errors.New("authorization code has expired")
	ErrCodeAlreadyUsed    = errors.New("authorization code has already been used")
	ErrMissingAssociation = errors.New("authorization code is not associated with a user")
	ErrInvalidRedirectURI = errors.New("invalid redirect URI; only localhost is allowed")
)

// DefaultRedirectURI is used when the authorize request omits redirectUri.
const DefaultRedirectURI = "http://localhost:8080/callback"

// ValidateRedirectURI rejects any redirect target that is not a localhost URL.
// Checked before any state is created so codes cannot leak to attacker hosts.
func ValidateRedirectURI(uri string) error {
	if strings.HasPrefix(uri, "http://localhost:") || strings.HasPrefix(uri, "https://localhost:") {
		return nil
	}
	return ErrInvalidRedirectURI
}

// DeviceRegistry is the slice of the device service the exchange step needs.
type DeviceRegistry interface {
	RegisterOrAuthorize(ctx context.Context, userID, tenantID int64, deviceID, name string) (*devicedomain.Device, error)
}

// ExchangeResult is the agent-facing outcome of a successful code exchange.
type ExchangeResult struct {
	AccessToken string
	DeviceID    string
	ExpiresIn   int64 // seconds until the device token expires
	Device      *devicedomain.Device
}

// Service issues and redeems authorization codes.
type Service struct {
	codes   repository.Repository
	devices DeviceRegistry
	tokens  *security.TokenProvider
	nowF    func() time.Time
}

// NewService returns a device authorization Service.
func NewService(codes repository.Repository, devices DeviceRegistry, tokens *security.TokenProvider) *Service {
	return &Service{
		codes:   codes,
		devices: devices,
		tokens:  tokens,
		nowF:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateCode mints a high-entropy single-use code binding deviceID to the
// user and tenant, valid for ten minutes.
func (s *Service) CreateCode(ctx context.Context, deviceID string, userID, tenantID *int64, redirectURI, deviceName string) (string, error) {
	if redirectURI == "" {
		redirectURI = DefaultRedirectURI
	}
	if err := ValidateRedirectURI(redirectURI); err != nil {
		return "", err
	}
	code, err := generateCode()
	if err != nil {
		return "", err
	}
	now := s.nowF()
	row := &domain.AuthorizationCode{
		ID:          uuid.New().String(),
		Code:        code,
		DeviceID:    deviceID,
		UserID:      userID,
		TenantID:    tenantID,
		RedirectURI: redirectURI,
		DeviceName:  deviceName,
		ExpiresAt:   now.Add(domain.CodeTTL),
		CreatedAt:   now,
	}
	if err := s.codes.Create(ctx, row); err != nil {
		return "", err
	}
	return code, nil
}

// Exchange redeems the code for a device token. Exactly one exchange may
// succeed per code: the used_at check-and-set decides the winner, and the
// loser observes ErrCodeAlreadyUsed.
func (s *Service) Exchange(ctx context.Context, code, deviceID string) (*ExchangeResult, error) {
	row, err := s.codes.GetByCodeAndDevice(ctx, code, deviceID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrCodeNotFound
	}
	now := s.nowF()
	if row.IsExpired(now) {
		return nil, ErrCodeExpired
	}
	if row.UsedAt != nil {
		return nil, ErrCodeAlreadyUsed
	}
	if row.UserID == nil || row.TenantID == nil {
		return nil, ErrMissingAssociation
	}

	// Registration is idempotent, so a racing loser leaves no stray state.
	dev, err := s.devices.RegisterOrAuthorize(ctx, *row.UserID, *row.TenantID, deviceID, row.DeviceName)
	if err != nil {
		return nil, err
	}

	won, err := s.codes.MarkUsed(ctx, row.ID, now)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, ErrCodeAlreadyUsed
	}

	token, expiresAt, err := s.tokens.IssueDevice(security.DevicePayload{
		DeviceID: deviceID,
		UserID:   *row.UserID,
		TenantID: *row.TenantID,
	})
	if err != nil {
		return nil, err
	}
	return &ExchangeResult{
		AccessToken: token,
		DeviceID:    deviceID,
		ExpiresIn:   int64(expiresAt.Sub(now).Seconds()),
		Device:      dev,
	}, nil
}

// CleanupExpiredCodes bulk-deletes codes past expiry. Invoked by cmd/worker,
// never by request handlers.
func (s *Service) CleanupExpiredCodes(ctx context.Context) (int64, error) {
	return s.codes.DeleteExpired(ctx, s.nowF())
}

// generateCode returns 32 random bytes hex-encoded (64 characters).
func generateCode() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
