package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-construction-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-construction-go/internal/memstore"
	"github.com/ovaphlow/pitchfork/service-construction-go/internal/metrics"
	"github.com/ovaphlow/pitchfork/service-construction-go/internal/security"
	"github.com/ovaphlow/pitchfork/service-construction-go/internal/user"
	"github.com/ovaphlow/pitchfork/service-construction-go/internal/user/entity"
)

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) NextID() int64 { return s.n.Add(1) }

type fixture struct {
	users   *user.UserService
	codec   *security.TokenCodec
	svc     *Service
	authn   *Authenticator
	handler *Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users, err := user.NewUserService(memstore.New().Users(), security.NewBcryptHasher(bcrypt.MinCost), &seqIDs{})
	require.NoError(t, err)
	codec, err := security.NewTokenCodec(config.JWT{Secret: "test-secret", Algorithm: "HS256", TTL: 30 * time.Minute})
	require.NoError(t, err)
	svc := NewService(users, codec)
	log := zap.NewNop().Sugar()
	return &fixture{
		users:   users,
		codec:   codec,
		svc:     svc,
		authn:   NewAuthenticator(codec, users, log),
		handler: NewHandler(svc, metrics.New(), log),
	}
}

func (f *fixture) mustUser(t *testing.T, email string, admin bool) *entity.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), email, "secret123", admin)
	require.NoError(t, err)
	return u
}

func (f *fixture) tokenFor(t *testing.T, u *entity.User) string {
	t.Helper()
	tok, err := f.codec.Issue(strconv.FormatInt(u.ID, 10), nil, 0)
	require.NoError(t, err)
	return tok
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	u := f.mustUser(t, "a@x.com", true)
	ctx := context.Background()

	tok, err := f.svc.Login(ctx, Credentials{Email: "a@x.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", tok.TokenType)

	claims, err := f.codec.Decode(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(u.ID, 10), claims.Subject)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.True(t, claims.IsAdmin)

	_, err = f.svc.Login(ctx, Credentials{Email: "a@x.com", Password: "nope-nope"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.svc.Login(ctx, Credentials{Email: "b@x.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_InactiveLooksLikeBadPassword(t *testing.T) {
	f := newFixture(t)
	u := f.mustUser(t, "a@x.com", false)
	_, err := f.users.SetActive(context.Background(), u, false)
	require.NoError(t, err)

	_, err = f.svc.Login(context.Background(), Credentials{Email: "a@x.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.svc.Register(ctx, Registration{Email: "a@x.com", Password: "secret123"})
	require.NoError(t, err)
	assert.True(t, u.IsActive)
	assert.False(t, u.IsAdmin)

	_, err = f.svc.Register(ctx, Registration{Email: "a@x.com", Password: "another-1", IsAdmin: true})
	assert.ErrorIs(t, err, ErrEmailTaken)

	got, err := f.users.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.False(t, got.IsAdmin)
}

func TestRegister_ConcurrentSameEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 16
	var ok, taken atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Register(ctx, Registration{Email: "race@x.com", Password: "secret123"})
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, ErrEmailTaken):
				taken.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, ok.Load())
	assert.EqualValues(t, n-1, taken.Load())
}

func TestRegistrationValidate(t *testing.T) {
	assert.Error(t, Registration{Email: "bad", Password: "secret123"}.Validate())
	assert.Error(t, Registration{Email: "a@x.com", Password: "short"}.Validate())
	assert.Error(t, Registration{Email: "a@x.com"}.Validate())
	assert.NoError(t, Registration{Email: "a@x.com", Password: "secret123"}.Validate())
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.mustUser(t, "a@x.com", false)
	tok := f.tokenFor(t, u)

	got, err := f.authn.Authenticate(ctx, "Bearer "+tok)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got, err = f.authn.Authenticate(ctx, "bearer "+tok)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	badSubject, err := f.codec.Issue("not-a-number", nil, 0)
	require.NoError(t, err)
	unknown, err := f.codec.Issue("424242", nil, 0)
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing":        "",
		"wrong scheme":   "Basic " + tok,
		"no token":       "Bearer ",
		"garbage":        "Bearer abc.def.ghi",
		"non-numeric":    "Bearer " + badSubject,
		"unknown user":   "Bearer " + unknown,
		"tampered token": "Bearer " + tok + "x",
	} {
		_, err := f.authn.Authenticate(ctx, header)
		assert.ErrorIs(t, err, ErrUnauthenticated, name)
	}
}

func TestAuthenticate_DeactivatedAfterIssue(t *testing.T) {
	f := newFixture(t)
	u := f.mustUser(t, "a@x.com", false)
	tok := f.tokenFor(t, u)

	_, err := f.users.SetActive(context.Background(), u, false)
	require.NoError(t, err)

	_, err = f.authn.Authenticate(context.Background(), "Bearer "+tok)
	assert.ErrorIs(t, err, ErrInactive)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	f.authn.User(f.handler.Me)(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	assert.JSONEq(t, `{"error":"User account is inactive"}`, rec.Body.String())
}

func TestGates(t *testing.T) {
	f := newFixture(t)
	regular := f.mustUser(t, "u@x.com", false)
	admin := f.mustUser(t, "root@x.com", true)

	var seen *entity.User
	h := func(w http.ResponseWriter, _ *http.Request, u *entity.User) {
		seen = u
		w.WriteHeader(http.StatusNoContent)
	}
	call := func(gate func(HandlerFunc) http.HandlerFunc, header string) *httptest.ResponseRecorder {
		seen = nil
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		gate(h)(rec, req)
		return rec
	}

	rec := call(f.authn.Admin, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Could not validate credentials"}`, rec.Body.String())
	assert.Nil(t, seen)

	rec = call(f.authn.Admin, "Bearer "+f.tokenFor(t, regular))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"Admin privileges required"}`, rec.Body.String())
	assert.Nil(t, seen)

	rec = call(f.authn.User, "Bearer "+f.tokenFor(t, regular))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, regular.ID, seen.ID)

	rec = call(f.authn.Admin, "Bearer "+f.tokenFor(t, admin))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, admin.ID, seen.ID)
}

func TestHandler_LoginFormAndJSON(t *testing.T) {
	f := newFixture(t)
	f.mustUser(t, "a@x.com", false)

	form := url.Values{"username": {"a@x.com"}, "password": {"secret123"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.handler.Login(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var tok Token
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	assert.Equal(t, "bearer", tok.TokenType)
	assert.NotEmpty(t, tok.AccessToken)

	req = httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@x.com","password":"secret123"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	f.handler.Login(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@x.com","password":"wrong-one"}`))
	rec = httptest.NewRecorder()
	f.handler.Login(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	assert.JSONEq(t, `{"error":"Incorrect email or password"}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@x.com"}`))
	rec = httptest.NewRecorder()
	f.handler.Login(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandler_Register(t *testing.T) {
	f := newFixture(t)
	admin := f.mustUser(t, "root@x.com", true)

	body := `{"email":"new@x.com","password":"secret123","is_admin":false}`
	rec := httptest.NewRecorder()
	f.handler.Register(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body)), admin)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "hashed_password")
	assert.NotContains(t, rec.Body.String(), "secret123")

	rec = httptest.NewRecorder()
	f.handler.Register(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body)), admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Email already registered"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	f.handler.Register(rec, httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"email":"x@x.com","password":"short"}`)), admin)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"password"`)
}
