package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"timetrack-auth/internal/device/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a device repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const deviceColumns = `id, device_id, user_id, tenant_id, name, is_authorized, last_seen_at, created_at`

// GetByOwner returns the device for (tenantID, userID, deviceID), or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByOwner(ctx context.Context, tenantID, userID int64, deviceID string) (*domain.Device, error) {
	const q = `SELECT ` + deviceColumns + ` FROM devices WHERE tenant_id = $1 AND user_id = $2 AND device_id = $3`
	return r.getOne(ctx, q, tenantID, userID, deviceID)
}

// GetAuthorizedByDeviceID returns the authorized device for deviceID, or nil
// when the device is absent or has been revoked.
func (r *PostgresRepository) GetAuthorizedByDeviceID(ctx context.Context, deviceID string) (*domain.Device, error) {
	const q = `SELECT ` + deviceColumns + ` FROM devices WHERE device_id = $1 AND is_authorized = TRUE`
	return r.getOne(ctx, q, deviceID)
}

// GetByID returns the device row for (id, tenantID), or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64, tenantID int64) (*domain.Device, error) {
	const q = `SELECT ` + deviceColumns + ` FROM devices WHERE id = $1 AND tenant_id = $2`
	return r.getOne(ctx, q, id, tenantID)
}

// Create persists the device and returns the generated row id.
func (r *PostgresRepository) Create(ctx context.Context, d *domain.Device) (int64, error) {
	const q = `INSERT INTO devices (device_id, user_id, tenant_id, name, is_authorized, last_seen_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	var id int64
	err := r.db.QueryRowContext(ctx, q,
		d.DeviceID, d.UserID, d.TenantID, nullString(d.Name), d.IsAuthorized, nullTime(d.LastSeenAt), d.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Update persists name, authorization flag, and last-seen for the row id.
func (r *PostgresRepository) Update(ctx context.Context, d *domain.Device) error {
	const q = `UPDATE devices SET name = $2, is_authorized = $3, last_seen_at = $4 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, d.ID, nullString(d.Name), d.IsAuthorized, nullTime(d.LastSeenAt))
	return err
}

// UpdateLastSeen sets the device's last-seen timestamp.
func (r *PostgresRepository) UpdateLastSeen(ctx context.Context, id int64, at time.Time) error {
	const q = `UPDATE devices SET last_seen_at = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id, at)
	return err
}

// SetAuthorized flips the device's authorization flag.
func (r *PostgresRepository) SetAuthorized(ctx context.Context, id int64, authorized bool) error {
	const q = `UPDATE devices SET is_authorized = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id, authorized)
	return err
}

// ListByOwner returns the user's devices in the tenant, newest first.
func (r *PostgresRepository) ListByOwner(ctx context.Context, tenantID, userID int64) ([]*domain.Device, error) {
	const q = `SELECT ` + deviceColumns + ` FROM devices WHERE tenant_id = $1 AND user_id = $2 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, tenantID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Device, error) {
	d, err := scanDevice(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return d, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(row rowScanner) (*domain.Device, error) {
	var (
		d          domain.Device
		name       sql.NullString
		lastSeenAt sql.NullTime
	)
	err := row.Scan(&d.ID, &d.DeviceID, &d.UserID, &d.TenantID, &name, &d.IsAuthorized, &lastSeenAt, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	d.Name = name.String
	if lastSeenAt.Valid {
		v := lastSeenAt.Time
		d.LastSeenAt = &v
	}
	return &d, nil
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
