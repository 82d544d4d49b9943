package repository

import (
	"context"
	"database/sql"
	"errors"

	"timetrack-auth/internal/superadmin/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a super admin repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const adminColumns = `id, email, name, password_hash, created_at`

// GetByID returns the super admin for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.SuperAdmin, error) {
	return r.getOne(ctx, `SELECT `+adminColumns+` FROM super_admins WHERE id = $1`, id)
}

// GetByEmail returns the super admin for email, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.SuperAdmin, error) {
	return r.getOne(ctx, `SELECT `+adminColumns+` FROM super_admins WHERE email = $1`, email)
}

// Create persists the super admin and returns the generated id.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.SuperAdmin) (int64, error) {
	const q = `INSERT INTO super_admins (email, name, password_hash, created_at)
		VALUES ($1, $2, $3, $4) RETURNING id`
	var id int64
	err := r.db.QueryRowContext(ctx, q, a.Email, a.Name, a.PasswordHash, a.CreatedAt).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*domain.SuperAdmin, error) {
	var a domain.SuperAdmin
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}
