// Package session tracks issued refresh tokens. The Store hashes refresh
// tokens with the password-hashing primitive before persisting, so storage
// never holds a redeemable credential.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"timetrack-auth/internal/security"
	"timetrack-auth/internal/session/domain"
	"timetrack-auth/internal/session/repository"
)

// CreateParams describes a session to persist. RefreshToken is the plaintext
// token; it is hashed before storage and never retained.
type CreateParams struct {
	UserID       int64
	TenantID     *int64
	RefreshToken string
	ExpiresAt    time.Time
	DeviceID     string
	DeviceName   string
	UserAgent    string
	IPAddress    string
	ClientType   domain.ClientType
}

// Store persists and validates refresh sessions.
type Store struct {
	repo   repository.Repository
	hasher *security.Hasher
	nowF   func() time.Time
}

// NewStore returns a Store over the given repository and hasher.
func NewStore(repo repository.Repository, hasher *security.Hasher) *Store {
	return &Store{
		repo:   repo,
		hasher: hasher,
		nowF:   func() time.Time { return time.Now().UTC() },
	}
}

// Create hashes the refresh token and persists a new session row.
// The returned session carries the hash, never the plaintext.
func (s *Store) Create(ctx context.Context, p CreateParams) (*domain.Session, error) {
	hash, err := s.hasher.HashToken(p.RefreshToken)
	if err != nil {
		return nil, err
	}
	clientType := p.ClientType
	if clientType == "" {
		clientType = domain.ClientTypeWeb
	}
	sess := &domain.Session{
		ID:               uuid.New().String(),
		UserID:           p.UserID,
		TenantID:         p.TenantID,
		DeviceID:         p.DeviceID,
		DeviceName:       p.DeviceName,
		UserAgent:        p.UserAgent,
		IPAddress:        p.IPAddress,
		RefreshTokenHash: hash,
		ClientType:       clientType,
		ExpiresAt:        p.ExpiresAt,
		CreatedAt:        s.nowF(),
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// FindValid returns the user's session whose stored hash matches refreshToken,
// or nil if no active session matches. This scans every active session and
// compares hashes one by one; O(n) in the user's session count.
func (s *Store) FindValid(ctx context.Context, userID int64, refreshToken string) (*domain.Session, error) {
	sessions, err := s.repo.ListActiveByUser(ctx, userID, s.nowF())
	if err != nil {
		return nil, err
	}
	for _, sess := range sessions {
		if sess.RefreshTokenHash == "" {
			continue
		}
		if s.hasher.CompareToken(sess.RefreshTokenHash, refreshToken) == nil {
			return sess, nil
		}
	}
	return nil, nil
}

// Revoke marks one session revoked. Revoking twice is a no-op the second time.
func (s *Store) Revoke(ctx context.Context, id string) error {
	return s.repo.Revoke(ctx, id, s.nowF())
}

// RevokeAllForUser marks every unrevoked session of the user as revoked.
func (s *Store) RevokeAllForUser(ctx context.Context, userID int64) error {
	return s.repo.RevokeAllByUser(ctx, userID, s.nowF())
}

// TouchLastSeen records refresh activity on the session.
func (s *Store) TouchLastSeen(ctx context.Context, id string) error {
	return s.repo.UpdateLastSeen(ctx, id, s.nowF())
}

// GetByID returns the session for id, or nil if not found.
func (s *Store) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	return s.repo.GetByID(ctx, id)
}

// ListForUser returns all of the user's sessions, newest first.
func (s *Store) ListForUser(ctx context.Context, userID int64) ([]*domain.Session, error) {
	return s.repo.ListByUser(ctx, userID)
}

// ListForTenant returns all sessions scoped to the tenant, newest first.
func (s *Store) ListForTenant(ctx context.Context, tenantID int64) ([]*domain.Session, error) {
	return s.repo.ListByTenant(ctx, tenantID)
}
