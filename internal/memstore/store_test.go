package memstore

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cliententity "github.com/ovaphlow/pitchfork/service-construction-go/internal/client/entity"
	projectentity "github.com/ovaphlow/pitchfork/service-construction-go/internal/project/entity"
	userentity "github.com/ovaphlow/pitchfork/service-construction-go/internal/user/entity"
)

func TestUsers_EmailUnique(t *testing.T) {
	ctx := context.Background()
	users := New().Users()

	require.NoError(t, users.Create(ctx, &userentity.User{ID: 1, Email: "a@x.com"}))
	err := users.Create(ctx, &userentity.User{ID: 2, Email: "a@x.com"})
	assert.ErrorIs(t, err, userentity.ErrEmailExists)

	_, err = users.GetByID(ctx, 2)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUsers_UpdateAndHasAdmin(t *testing.T) {
	ctx := context.Background()
	users := New().Users()
	require.NoError(t, users.Create(ctx, &userentity.User{ID: 1, Email: "a@x.com", IsActive: true}))

	ok, err := users.HasAdmin(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	yes := true
	u, err := users.Update(ctx, 1, userentity.Changes{IsAdmin: &yes})
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)
	assert.True(t, u.IsActive)

	ok, err = users.HasAdmin(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = users.Update(ctx, 9, userentity.Changes{IsAdmin: &yes})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestClients_ListOrderedAndWindowed(t *testing.T) {
	ctx := context.Background()
	clients := New().Clients()
	for i, name := range []string{"Zeta", "Acme", "Mid"} {
		require.NoError(t, clients.Create(ctx, &cliententity.Client{ID: int64(i + 1), Name: name}))
	}

	all, err := clients.List(ctx, 0, 100)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"Acme", "Mid", "Zeta"}, []string{all[0].Name, all[1].Name, all[2].Name})

	page, err := clients.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Mid", page[0].Name)

	empty, err := clients.List(ctx, 10, 5)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestProjects_RequireClientAndCascade(t *testing.T) {
	ctx := context.Background()
	s := New()
	clients, projects := s.Clients(), s.Projects()

	err := projects.Create(ctx, &projectentity.Project{ID: 10, Name: "Orphan", ClientID: 1})
	assert.ErrorIs(t, err, projectentity.ErrClientMissing)

	require.NoError(t, clients.Create(ctx, &cliententity.Client{ID: 1, Name: "Acme"}))
	require.NoError(t, projects.Create(ctx, &projectentity.Project{ID: 10, Name: "Tower", ClientID: 1}))
	require.NoError(t, projects.Create(ctx, &projectentity.Project{ID: 11, Name: "Bridge", ClientID: 1}))

	byClient, err := projects.ListByClient(ctx, 1)
	require.NoError(t, err)
	require.Len(t, byClient, 2)
	assert.Equal(t, "Bridge", byClient[0].Name)

	missing := int64(99)
	_, err = projects.Update(ctx, 10, projectentity.Changes{ClientID: &missing})
	assert.ErrorIs(t, err, projectentity.ErrClientMissing)

	deleted, err := clients.Delete(ctx, 1)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = projects.GetByID(ctx, 10)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	deleted, err = clients.Delete(ctx, 1)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestProjects_ListFilter(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Clients().Create(ctx, &cliententity.Client{ID: 1, Name: "A"}))
	require.NoError(t, s.Clients().Create(ctx, &cliententity.Client{ID: 2, Name: "B"}))
	require.NoError(t, s.Projects().Create(ctx, &projectentity.Project{ID: 10, Name: "P1", ClientID: 1}))
	require.NoError(t, s.Projects().Create(ctx, &projectentity.Project{ID: 11, Name: "P2", ClientID: 2}))

	cid := int64(2)
	got, err := s.Projects().List(ctx, projectentity.Filter{Limit: 100, ClientID: &cid})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(11), got[0].ID)

	got, err = s.Projects().List(ctx, projectentity.Filter{Limit: 100})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Users().GetByEmail(ctx, "a@x.com")
	assert.ErrorIs(t, err, context.Canceled)
}
