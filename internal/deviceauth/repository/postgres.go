package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"timetrack-auth/internal/deviceauth/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an authorization code repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the authorization code row. The code must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, c *domain.AuthorizationCode) error {
	const q = `INSERT INTO device_authorization_codes
		(id, code, device_id, user_id, tenant_id, redirect_uri, device_name, expires_at, used_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(ctx, q,
		c.ID, c.Code, c.DeviceID, nullInt64(c.UserID), nullInt64(c.TenantID),
		c.RedirectURI, nullString(c.DeviceName), c.ExpiresAt, nullTime(c.UsedAt), c.CreatedAt,
	)
	return err
}

// GetByCodeAndDevice returns the code row for (code, deviceID), or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByCodeAndDevice(ctx context.Context, code, deviceID string) (*domain.AuthorizationCode, error) {
	const q = `SELECT id, code, device_id, user_id, tenant_id, redirect_uri, device_name, expires_at, used_at, created_at
		FROM device_authorization_codes WHERE code = $1 AND device_id = $2`
	var (
		c          domain.AuthorizationCode
		userID     sql.NullInt64
		tenantID   sql.NullInt64
		deviceName sql.NullString
		usedAt     sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, q, code, deviceID).Scan(
		&c.ID, &c.Code, &c.DeviceID, &userID, &tenantID, &c.RedirectURI, &deviceName, &c.ExpiresAt, &usedAt, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if userID.Valid {
		v := userID.Int64
		c.UserID = &v
	}
	if tenantID.Valid {
		v := tenantID.Int64
		c.TenantID = &v
	}
	c.DeviceName = deviceName.String
	if usedAt.Valid {
		v := usedAt.Time
		c.UsedAt = &v
	}
	return &c, nil
}

// MarkUsed sets used_at atomically. The WHERE clause rejects rows already
// consumed, so two racing exchanges observe exactly one winner.
func (r *PostgresRepository) MarkUsed(ctx context.Context, id string, at time.Time) (bool, error) {
	const q = `UPDATE device_authorization_codes SET used_at = $2 WHERE id = $1 AND used_at IS NULL`
	res, err := r.db.ExecContext(ctx, q, id, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// DeleteExpired bulk-deletes codes past expiry and returns how many were removed.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const q = `DELETE FROM device_authorization_codes WHERE expires_at < $1`
	res, err := r.db.ExecContext(ctx, q, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
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
