package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-construction-go/internal/project/entity"
	"github.com/ovaphlow/pitchfork/service-construction-go/pkg/database"
)

const projectColumns = `id, name, client_id, created_at`

// ProjectRepo provides data access for the projects table.
// Lookups that match nothing return sql.ErrNoRows.
type ProjectRepo struct {
	db *sqlx.DB
}

func NewProjectRepo(db *sqlx.DB) *ProjectRepo { return &ProjectRepo{db: db} }

// Create inserts p and fills CreatedAt. A dangling client_id yields
// entity.ErrClientMissing.
func (r *ProjectRepo) Create(ctx context.Context, p *entity.Project) error {
	const q = `INSERT INTO projects (id, name, client_id) VALUES ($1, $2, $3) RETURNING created_at`
	err := r.db.QueryRowxContext(ctx, q, p.ID, p.Name, p.ClientID).Scan(&p.CreatedAt)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return entity.ErrClientMissing
		}
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (r *ProjectRepo) GetByID(ctx context.Context, id int64) (*entity.Project, error) {
	var p entity.Project
	if err := r.db.GetContext(ctx, &p, `SELECT `+projectColumns+` FROM projects WHERE id=$1`, id); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns projects ordered by name, optionally for one client.
func (r *ProjectRepo) List(ctx context.Context, f entity.Filter) ([]entity.Project, error) {
	var (
		where []string
		args  []any
	)
	if f.ClientID != nil {
		args = append(args, *f.ClientID)
		where = append(where, fmt.Sprintf("client_id = $%d", len(args)))
	}
	q := `SELECT ` + projectColumns + ` FROM projects`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, f.Skip, f.Limit)
	q += fmt.Sprintf(` ORDER BY name, id OFFSET $%d LIMIT $%d`, len(args)-1, len(args))

	out := []entity.Project{}
	if err := r.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByClient returns every project of a client ordered by name.
func (r *ProjectRepo) ListByClient(ctx context.Context, clientID int64) ([]entity.Project, error) {
	out := []entity.Project{}
	q := `SELECT ` + projectColumns + ` FROM projects WHERE client_id=$1 ORDER BY name, id`
	if err := r.db.SelectContext(ctx, &out, q, clientID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ProjectRepo) Update(ctx context.Context, id int64, c entity.Changes) (*entity.Project, error) {
	const q = `UPDATE projects SET
			name = COALESCE($2, name),
			client_id = COALESCE($3, client_id)
		WHERE id=$1 RETURNING ` + projectColumns
	var p entity.Project
	if err := r.db.GetContext(ctx, &p, q, id, c.Name, c.ClientID); err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, entity.ErrClientMissing
		}
		return nil, err
	}
	return &p, nil
}

// Delete reports whether a row was deleted.
func (r *ProjectRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
