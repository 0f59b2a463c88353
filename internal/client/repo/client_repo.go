package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-construction-go/internal/client/entity"
)

// ClientRepo provides data access for the clients table.
// Lookups that match nothing return sql.ErrNoRows.
type ClientRepo struct {
	db *sqlx.DB
}

func NewClientRepo(db *sqlx.DB) *ClientRepo { return &ClientRepo{db: db} }

// Create inserts c (id assigned by the caller) and fills CreatedAt.
func (r *ClientRepo) Create(ctx context.Context, c *entity.Client) error {
	const q = `INSERT INTO clients (id, name) VALUES (:id, :name) RETURNING created_at`
	rows, err := r.db.NamedQueryContext(ctx, q, c)
	if err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		return rows.Scan(&c.CreatedAt)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	return errors.New("insert client: no row returned")
}

func (r *ClientRepo) GetByID(ctx context.Context, id int64) (*entity.Client, error) {
	var c entity.Client
	if err := r.db.GetContext(ctx, &c, `SELECT id, name, created_at FROM clients WHERE id=$1`, id); err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns clients ordered by name.
func (r *ClientRepo) List(ctx context.Context, skip, limit int) ([]entity.Client, error) {
	const q = `SELECT id, name, created_at FROM clients ORDER BY name, id OFFSET $1 LIMIT $2`
	out := []entity.Client{}
	if err := r.db.SelectContext(ctx, &out, q, skip, limit); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ClientRepo) Update(ctx context.Context, id int64, c entity.Changes) (*entity.Client, error) {
	const q = `UPDATE clients SET name = COALESCE($2, name) WHERE id=$1 RETURNING id, name, created_at`
	var out entity.Client
	if err := r.db.GetContext(ctx, &out, q, id, c.Name); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a client; its projects go with it via ON DELETE CASCADE.
// It reports whether a row was deleted.
func (r *ClientRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
