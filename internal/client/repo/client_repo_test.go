package repo

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-construction-go/internal/client/entity"
)

var clientCols = []string{"id", "name", "created_at"}

func newRepoWithMock(t *testing.T) (*ClientRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewClientRepo(sqlx.NewDb(db, "postgres")), mock
}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	created := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`INSERT\s+INTO\s+clients\s*\(id,\s*name\)\s+VALUES\s*\(\$1,\s*\$2\)\s+RETURNING\s+created_at`).
		WithArgs(int64(3), "Acme").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	c := &entity.Client{ID: 3, Name: "Acme"}
	require.NoError(t, repo.Create(context.Background(), c))
	assert.Equal(t, created, c.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_OrderedWindow(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`FROM\s+clients\s+ORDER\s+BY\s+name,\s*id\s+OFFSET\s+\$1\s+LIMIT\s+\$2`).
		WithArgs(10, 5).
		WillReturnRows(sqlmock.NewRows(clientCols).AddRow(int64(1), "Acme", now).AddRow(int64(2), "Beta", now))

	cs, err := repo.List(context.Background(), 10, 5)
	require.NoError(t, err)
	require.Len(t, cs, 2)
	assert.Equal(t, "Beta", cs[1].Name)
}

func TestUpdate_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	name := "X"

	mock.ExpectQuery(`UPDATE\s+clients\s+SET\s+name\s*=\s*COALESCE\(\$2,\s*name\)`).
		WithArgs(int64(9), "X").
		WillReturnRows(sqlmock.NewRows(clientCols))

	_, err := repo.Update(context.Background(), 9, entity.Changes{Name: &name})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`DELETE\s+FROM\s+clients\s+WHERE\s+id=\$1`).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE\s+FROM\s+clients`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Delete(context.Background(), 4)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Delete(context.Background(), 5)
	require.NoError(t, err)
	assert.False(t, ok)
}
