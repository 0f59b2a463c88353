package auth

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-construction-go/internal/security"
	"github.com/ovaphlow/pitchfork/service-construction-go/internal/user"
	"github.com/ovaphlow/pitchfork/service-construction-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-construction-go/pkg/utilities"
)

var (
	ErrUnauthenticated = errors.New("could not validate credentials")
	ErrInactive        = errors.New("user account is inactive")
	ErrForbidden       = errors.New("admin privileges required")
)

// TokenDecoder verifies access tokens.
type TokenDecoder interface {
	Decode(token string) (*security.Claims, error)
}

// UserLookup loads the identity named by a token subject.
type UserLookup interface {
	FindByID(ctx context.Context, id int64) (*entity.User, error)
}

// HandlerFunc is an HTTP handler that runs on behalf of an authenticated user.
type HandlerFunc func(w http.ResponseWriter, r *http.Request, u *entity.User)

// Authenticator resolves bearer tokens to active users and gates handlers.
type Authenticator struct {
	tokens TokenDecoder
	users  UserLookup
	logger *zap.SugaredLogger
}

func NewAuthenticator(tokens TokenDecoder, users UserLookup, logger *zap.SugaredLogger) *Authenticator {
	return &Authenticator{tokens: tokens, users: users, logger: logger}
}

// Authenticate returns the active user for an Authorization header value.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (*entity.User, error) {
	raw, ok := bearerToken(header)
	if !ok {
		return nil, ErrUnauthenticated
	}
	claims, err := a.tokens.Decode(raw)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	u, err := a.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrInactive
	}
	return u, nil
}

// Authorize checks role requirements of an already authenticated user.
func Authorize(u *entity.User, requireAdmin bool) error {
	if requireAdmin && !u.IsAdmin {
		return ErrForbidden
	}
	return nil
}

// User wraps h so it only runs for an authenticated, active user.
func (a *Authenticator) User(h HandlerFunc) http.HandlerFunc {
	return a.gate(h, false)
}

// Admin wraps h so it only runs for an authenticated, active admin.
func (a *Authenticator) Admin(h HandlerFunc) http.HandlerFunc {
	return a.gate(h, true)
}

func (a *Authenticator) gate(h HandlerFunc, requireAdmin bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := a.Authenticate(r.Context(), r.Header.Get("Authorization"))
		if err == nil {
			err = Authorize(u, requireAdmin)
		}
		switch {
		case err == nil:
			h(w, r, u)
		case errors.Is(err, ErrUnauthenticated):
			unauthorized(w, "Could not validate credentials")
		case errors.Is(err, ErrInactive):
			unauthorized(w, "User account is inactive")
		case errors.Is(err, ErrForbidden):
			a.logger.Infow("admin route denied", "user", u.ID, "path", r.URL.Path)
			utilities.WriteError(w, http.StatusForbidden, "Admin privileges required")
		default:
			a.logger.Errorw("authenticate request", "err", err)
			utilities.WriteError(w, http.StatusInternalServerError, "internal error")
		}
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	utilities.WriteError(w, http.StatusUnauthorized, msg)
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
