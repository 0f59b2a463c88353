package project

import (
	"context"
	"database/sql"
	"errors"

	cliententity "github.com/ovaphlow/pitchfork/service-construction-go/internal/client/entity"
	"github.com/ovaphlow/pitchfork/service-construction-go/internal/project/entity"
	"github.com/ovaphlow/pitchfork/service-construction-go/pkg/utilities"
)

// Repository is the persistence contract for projects. Lookups that match
// nothing return sql.ErrNoRows; writes naming a missing client return
// entity.ErrClientMissing.
type Repository interface {
	Create(ctx context.Context, p *entity.Project) error
	GetByID(ctx context.Context, id int64) (*entity.Project, error)
	List(ctx context.Context, f entity.Filter) ([]entity.Project, error)
	Update(ctx context.Context, id int64, c entity.Changes) (*entity.Project, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// ClientLookup resolves the owning client of a project.
type ClientLookup interface {
	GetByID(ctx context.Context, id int64) (*cliententity.Client, error)
}

var (
	ErrNotFound       = errors.New("project not found")
	ErrClientNotFound = errors.New("client not found")
)

type ProjectService struct {
	repo    Repository
	clients ClientLookup
	ids     utilities.IDSource
}

func NewProjectService(r Repository, clients ClientLookup, ids utilities.IDSource) *ProjectService {
	return &ProjectService{repo: r, clients: clients, ids: ids}
}

// Create stores a project for an existing client.
func (s *ProjectService) Create(ctx context.Context, in Input) (*entity.Project, error) {
	if _, err := s.client(ctx, in.ClientID); err != nil {
		return nil, err
	}
	p := &entity.Project{ID: s.ids.NextID(), Name: in.Name, ClientID: in.ClientID}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, clientMissing(err)
	}
	return p, nil
}

func (s *ProjectService) Get(ctx context.Context, id int64) (*entity.Project, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// GetWithClient returns the project with its owning client embedded.
func (s *ProjectService) GetWithClient(ctx context.Context, id int64) (*entity.WithClient, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c, err := s.clients.GetByID(ctx, p.ClientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// the client went away between the two reads; the cascade took
			// the project with it
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &entity.WithClient{Project: *p, Client: c}, nil
}

// List returns projects ordered by name, optionally only those of clientID.
func (s *ProjectService) List(ctx context.Context, page utilities.Page, clientID *int64) ([]entity.Project, error) {
	return s.repo.List(ctx, entity.Filter{Skip: page.Skip, Limit: page.Limit, ClientID: clientID})
}

// Update applies p. A client_id naming no client yields ErrClientNotFound.
func (s *ProjectService) Update(ctx context.Context, id int64, p Patch) (*entity.Project, error) {
	cur, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ch := p.Changes()
	if ch.Empty() {
		return cur, nil
	}
	if ch.ClientID != nil && *ch.ClientID != cur.ClientID {
		if _, err := s.client(ctx, *ch.ClientID); err != nil {
			return nil, err
		}
	}
	out, err := s.repo.Update(ctx, id, ch)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, clientMissing(err)
	}
	return out, nil
}

func (s *ProjectService) Delete(ctx context.Context, id int64) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *ProjectService) client(ctx context.Context, id int64) (*cliententity.Client, error) {
	c, err := s.clients.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return c, nil
}

func clientMissing(err error) error {
	if errors.Is(err, entity.ErrClientMissing) {
		return ErrClientNotFound
	}
	return err
}
