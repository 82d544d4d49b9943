package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"timetrack-auth/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const sessionColumns = `id, user_id, tenant_id, device_id, device_name, user_agent, ip_address,
	refresh_token_hash, client_type, expires_at, last_seen_at, revoked_at, created_at`

// GetByID returns the session for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM user_sessions WHERE id = $1`, id)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// Create persists the session to the database. The session must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	const q = `INSERT INTO user_sessions
		(id, user_id, tenant_id, device_id, device_name, user_agent, ip_address,
		 refresh_token_hash, client_type, expires_at, last_seen_at, revoked_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.db.ExecContext(ctx, q,
		s.ID, s.UserID, nullInt64(s.TenantID),
		nullString(s.DeviceID), nullString(s.DeviceName), nullString(s.UserAgent), nullString(s.IPAddress),
		s.RefreshTokenHash, string(s.ClientType), s.ExpiresAt,
		nullTime(s.LastSeenAt), nullTime(s.RevokedAt), s.CreatedAt,
	)
	return err
}

// ListActiveByUser returns the user's non-revoked sessions expiring after now, newest first.
func (r *PostgresRepository) ListActiveByUser(ctx context.Context, userID int64, now time.Time) ([]*domain.Session, error) {
	const q = `SELECT ` + sessionColumns + ` FROM user_sessions
		WHERE user_id = $1 AND revoked_at IS NULL AND expires_at > $2
		ORDER BY created_at DESC`
	return r.list(ctx, q, userID, now)
}

// ListByUser returns all sessions for the user, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Session, error) {
	const q = `SELECT ` + sessionColumns + ` FROM user_sessions WHERE user_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, q, userID)
}

// ListByTenant returns all sessions for the tenant, newest first.
func (r *PostgresRepository) ListByTenant(ctx context.Context, tenantID int64) ([]*domain.Session, error) {
	const q = `SELECT ` + sessionColumns + ` FROM user_sessions WHERE tenant_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, q, tenantID)
}

// Revoke marks the session as revoked at the given time. Revoking an already
// revoked session keeps the original timestamp, so the call is idempotent.
func (r *PostgresRepository) Revoke(ctx context.Context, id string, at time.Time) error {
	const q = `UPDATE user_sessions SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL`
	_, err := r.db.ExecContext(ctx, q, id, at)
	return err
}

// RevokeAllByUser marks every unrevoked session of the user as revoked.
func (r *PostgresRepository) RevokeAllByUser(ctx context.Context, userID int64, at time.Time) error {
	const q = `UPDATE user_sessions SET revoked_at = $2 WHERE user_id = $1 AND revoked_at IS NULL`
	_, err := r.db.ExecContext(ctx, q, userID, at)
	return err
}

// UpdateLastSeen sets the session's last-seen timestamp. Returns an error if the update fails.
func (r *PostgresRepository) UpdateLastSeen(ctx context.Context, id string, at time.Time) error {
	const q = `UPDATE user_sessions SET last_seen_at = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id, at)
	return err
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Session, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var (
		s          domain.Session
		tenantID   sql.NullInt64
		deviceID   sql.NullString
		deviceName sql.NullString
		userAgent  sql.NullString
		ipAddress  sql.NullString
		lastSeenAt sql.NullTime
		revokedAt  sql.NullTime
		clientType string
	)
	err := row.Scan(&s.ID, &s.UserID, &tenantID, &deviceID, &deviceName, &userAgent, &ipAddress,
		&s.RefreshTokenHash, &clientType, &s.ExpiresAt, &lastSeenAt, &revokedAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	if tenantID.Valid {
		v := tenantID.Int64
		s.TenantID = &v
	}
	s.DeviceID = deviceID.String
	s.DeviceName = deviceName.String
	s.UserAgent = userAgent.String
	s.IPAddress = ipAddress.String
	s.ClientType = domain.ClientType(clientType)
	if lastSeenAt.Valid {
		v := lastSeenAt.Time
		s.LastSeenAt = &v
	}
	if revokedAt.Valid {
		v := revokedAt.Time
		s.RevokedAt = &v
	}
	return &s, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
