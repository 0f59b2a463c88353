package repo

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-construction-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-construction-go/pkg/database"
)

const userColumns = `id, email, hashed_password, is_active, is_admin, created_at`

// UserRepo provides data access for users table using sqlx.
// Lookups that match nothing return sql.ErrNoRows.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts u (id assigned by the caller) and fills CreatedAt.
// A duplicate email yields entity.ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	const q = `INSERT INTO users (id, email, hashed_password, is_active, is_admin)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at`
	err := r.db.QueryRowxContext(ctx, q, u.ID, u.Email, u.HashedPassword, u.IsActive, u.IsAdmin).Scan(&u.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return entity.ErrEmailExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID fetches a full user row.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	var u entity.User
	if err := r.db.GetContext(ctx, &u, q, id); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail returns the user with exactly this email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	var u entity.User
	if err := r.db.GetContext(ctx, &u, q, email); err != nil {
		return nil, err
	}
	return &u, nil
}

// Update applies c in a single statement and returns the stored row.
func (r *UserRepo) Update(ctx context.Context, id int64, c entity.Changes) (*entity.User, error) {
	const q = `UPDATE users SET
			hashed_password = COALESCE($2, hashed_password),
			is_active = COALESCE($3, is_active),
			is_admin = COALESCE($4, is_admin)
		WHERE id=$1 RETURNING ` + userColumns
	var u entity.User
	if err := r.db.GetContext(ctx, &u, q, id, c.HashedPassword, c.IsActive, c.IsAdmin); err != nil {
		return nil, err
	}
	return &u, nil
}

// HasAdmin reports whether at least one admin account exists.
func (r *UserRepo) HasAdmin(ctx context.Context) (bool, error) {
	var ok bool
	if err := r.db.GetContext(ctx, &ok, `SELECT EXISTS (SELECT 1 FROM users WHERE is_admin)`); err != nil {
		return false, err
	}
	return ok, nil
}
