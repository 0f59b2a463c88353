package project

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	userentity "github.com/ovaphlow/pitchfork/service-construction-go/internal/user/entity"
)

var admin = &userentity.User{ID: 1, Email: "admin@x.com", IsActive: true, IsAdmin: true}

func TestHandler_CreateUnknownClient(t *testing.T) {
	svc, _ := newService(t)
	h := NewHandler(svc, zap.NewNop().Sugar())

	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/projects",
		strings.NewReader(`{"name":"Tower","client_id":42}`)), admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Client not found"}`, rec.Body.String())
}

func TestHandler_UpdateInvalidClient(t *testing.T) {
	svc, _ := newService(t)
	h := NewHandler(svc, zap.NewNop().Sugar())

	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/projects",
		strings.NewReader(`{"name":"Tower","client_id":1}`)), admin)
	require.Equal(t, http.StatusCreated, rec.Code)

	req := httptest.NewRequest(http.MethodPut, "/projects/x", strings.NewReader(`{"client_id":42}`))
	req.SetPathValue("id", "1001")
	rec = httptest.NewRecorder()
	h.Update(rec, req, admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Project not found or invalid client_id"}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodPut, "/projects/x", strings.NewReader(`{"client_id":0}`))
	req.SetPathValue("id", "1001")
	rec = httptest.NewRecorder()
	h.Update(rec, req, admin)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"client_id"`)

	req = httptest.NewRequest(http.MethodGet, "/projects/x", nil)
	req.SetPathValue("id", "1001")
	rec = httptest.NewRecorder()
	h.Get(rec, req, admin)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"client":{"id":1,"name":"Acme"`)
}

func TestHandler_ListBadClientFilter(t *testing.T) {
	svc, _ := newService(t)
	h := NewHandler(svc, zap.NewNop().Sugar())

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/projects?client_id=-1", nil), admin)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/projects?client_id=1", nil), admin)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}
