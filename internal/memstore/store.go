// Package memstore is an in-process implementation of the user, client and
// project repositories. It backs tests and DATABASE_URL=memory://.
package memstore

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	cliententity "github.com/ovaphlow/pitchfork/service-construction-go/internal/client/entity"
	projectentity "github.com/ovaphlow/pitchfork/service-construction-go/internal/project/entity"
	userentity "github.com/ovaphlow/pitchfork/service-construction-go/internal/user/entity"
)

// Store holds all rows behind one lock so that cross-table rules (email
// uniqueness, project foreign keys, cascade delete) stay consistent.
type Store struct {
	mu       sync.RWMutex
	users    map[int64]userentity.User
	emails   map[string]int64
	clients  map[int64]cliententity.Client
	projects map[int64]projectentity.Project
	now      func() time.Time
}

func New() *Store {
	return &Store{
		users:    map[int64]userentity.User{},
		emails:   map[string]int64{},
		clients:  map[int64]cliententity.Client{},
		projects: map[int64]projectentity.Project{},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Users() *Users       { return &Users{s: s} }
func (s *Store) Clients() *Clients   { return &Clients{s: s} }
func (s *Store) Projects() *Projects { return &Projects{s: s} }

// Users implements user.Repository.
type Users struct{ s *Store }

func (r *Users) Create(ctx context.Context, u *userentity.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.emails[u.Email]; ok {
		return userentity.ErrEmailExists
	}
	u.CreatedAt = r.s.now()
	r.s.users[u.ID] = *u
	r.s.emails[u.Email] = u.ID
	return nil
}

func (r *Users) GetByID(ctx context.Context, id int64) (*userentity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &u, nil
}

func (r *Users) GetByEmail(ctx context.Context, email string) (*userentity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.emails[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	u := r.s.users[id]
	return &u, nil
}

func (r *Users) Update(ctx context.Context, id int64, c userentity.Changes) (*userentity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	c.Apply(&u)
	r.s.users[id] = u
	return &u, nil
}

func (r *Users) HasAdmin(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.IsAdmin {
			return true, nil
		}
	}
	return false, nil
}

// Clients implements client.Repository.
type Clients struct{ s *Store }

func (r *Clients) Create(ctx context.Context, c *cliententity.Client) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.CreatedAt = r.s.now()
	r.s.clients[c.ID] = *c
	return nil
}

func (r *Clients) GetByID(ctx context.Context, id int64) (*cliententity.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.clients[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (r *Clients) List(ctx context.Context, skip, limit int) ([]cliententity.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	out := make([]cliententity.Client, 0, len(r.s.clients))
	for _, c := range r.s.clients {
		out = append(out, c)
	}
	r.s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return window(out, skip, limit), nil
}

func (r *Clients) Update(ctx context.Context, id int64, ch cliententity.Changes) (*cliententity.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.clients[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	ch.Apply(&c)
	r.s.clients[id] = c
	return &c, nil
}

// Delete removes the client and every project that references it.
func (r *Clients) Delete(ctx context.Context, id int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.clients[id]; !ok {
		return false, nil
	}
	delete(r.s.clients, id)
	for pid, p := range r.s.projects {
		if p.ClientID == id {
			delete(r.s.projects, pid)
		}
	}
	return true, nil
}

// Projects implements project.Repository.
type Projects struct{ s *Store }

func (r *Projects) Create(ctx context.Context, p *projectentity.Project) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.clients[p.ClientID]; !ok {
		return projectentity.ErrClientMissing
	}
	p.CreatedAt = r.s.now()
	r.s.projects[p.ID] = *p
	return nil
}

func (r *Projects) GetByID(ctx context.Context, id int64) (*projectentity.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.projects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

func (r *Projects) List(ctx context.Context, f projectentity.Filter) ([]projectentity.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := r.collect(func(p projectentity.Project) bool {
		return f.ClientID == nil || p.ClientID == *f.ClientID
	})
	return window(out, f.Skip, f.Limit), nil
}

func (r *Projects) ListByClient(ctx context.Context, clientID int64) ([]projectentity.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.collect(func(p projectentity.Project) bool { return p.ClientID == clientID }), nil
}

func (r *Projects) collect(keep func(projectentity.Project) bool) []projectentity.Project {
	r.s.mu.RLock()
	out := []projectentity.Project{}
	for _, p := range r.s.projects {
		if keep(p) {
			out = append(out, p)
		}
	}
	r.s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *Projects) Update(ctx context.Context, id int64, c projectentity.Changes) (*projectentity.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.projects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if c.ClientID != nil {
		if _, ok := r.s.clients[*c.ClientID]; !ok {
			return nil, projectentity.ErrClientMissing
		}
	}
	c.Apply(&p)
	r.s.projects[id] = p
	return &p, nil
}

func (r *Projects) Delete(ctx context.Context, id int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.projects[id]; !ok {
		return false, nil
	}
	delete(r.s.projects, id)
	return true, nil
}

func window[T any](rows []T, skip, limit int) []T {
	if skip >= len(rows) {
		return rows[:0]
	}
	rows = rows[skip:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}
