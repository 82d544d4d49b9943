package repository

import (
	"context"
	"database/sql"

	"timetrack-auth/internal/audit/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit log repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the audit log to the database. The audit log must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	const q = `INSERT INTO audit_logs (id, tenant_id, user_id, action, resource, ip, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, q,
		a.ID, nullInt64(a.TenantID), nullInt64(a.UserID), a.Action, a.Resource, a.IP,
		sql.NullString{String: a.Metadata, Valid: a.Metadata != ""}, a.CreatedAt,
	)
	return err
}

// ListByTenant returns audit logs for the given tenant, newest first, paginated by limit and offset.
func (r *PostgresRepository) ListByTenant(ctx context.Context, tenantID int64, limit, offset int32) ([]*domain.AuditLog, error) {
	const q = `SELECT id, tenant_id, user_id, action, resource, ip, metadata, created_at
		FROM audit_logs WHERE tenant_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, q, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.AuditLog
	for rows.Next() {
		var (
			a        domain.AuditLog
			tid, uid sql.NullInt64
			meta     sql.NullString
		)
		if err := rows.Scan(&a.ID, &tid, &uid, &a.Action, &a.Resource, &a.IP, &meta, &a.CreatedAt); err != nil {
			return nil, err
		}
		if tid.Valid {
			v := tid.Int64
			a.TenantID = &v
		}
		if uid.Valid {
			v := uid.Int64
			a.UserID = &v
		}
		a.Metadata = meta.String
		out = append(out, &a)
	}
	return out, rows.Err()
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
