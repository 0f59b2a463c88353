package client

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ovaphlow/pitchfork/service-construction-go/internal/client/entity"
	projectentity "github.com/ovaphlow/pitchfork/service-construction-go/internal/project/entity"
	"github.com/ovaphlow/pitchfork/service-construction-go/pkg/utilities"
)

// Repository is the persistence contract for clients. Lookups that match
// nothing return sql.ErrNoRows.
type Repository interface {
	Create(ctx context.Context, c *entity.Client) error
	GetByID(ctx context.Context, id int64) (*entity.Client, error)
	List(ctx context.Context, skip, limit int) ([]entity.Client, error)
	Update(ctx context.Context, id int64, c entity.Changes) (*entity.Client, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// ProjectLister loads the projects owned by a client.
type ProjectLister interface {
	ListByClient(ctx context.Context, clientID int64) ([]projectentity.Project, error)
}

var ErrNotFound = errors.New("client not found")

// WithProjects is a client together with every project it owns.
type WithProjects struct {
	entity.Client
	Projects []projectentity.Project `json:"projects"`
}

type ClientService struct {
	repo     Repository
	projects ProjectLister
	ids      utilities.IDSource
}

func NewClientService(r Repository, projects ProjectLister, ids utilities.IDSource) *ClientService {
	return &ClientService{repo: r, projects: projects, ids: ids}
}

func (s *ClientService) Create(ctx context.Context, in Input) (*entity.Client, error) {
	c := &entity.Client{ID: s.ids.NextID(), Name: in.Name}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ClientService) Get(ctx context.Context, id int64) (*entity.Client, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

// GetWithProjects returns the client and its projects ordered by name.
func (s *ClientService) GetWithProjects(ctx context.Context, id int64) (*WithProjects, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ps, err := s.projects.ListByClient(ctx, id)
	if err != nil {
		return nil, err
	}
	return &WithProjects{Client: *c, Projects: ps}, nil
}

func (s *ClientService) List(ctx context.Context, page utilities.Page) ([]entity.Client, error) {
	return s.repo.List(ctx, page.Skip, page.Limit)
}

// Update applies p; an empty patch returns the stored client unchanged.
func (s *ClientService) Update(ctx context.Context, id int64, p Patch) (*entity.Client, error) {
	ch := p.Changes()
	if ch.Empty() {
		return s.Get(ctx, id)
	}
	c, err := s.repo.Update(ctx, id, ch)
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

// Delete removes the client and, through the store, all of its projects.
func (s *ClientService) Delete(ctx context.Context, id int64) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
