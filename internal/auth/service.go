package auth

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/ovaphlow/pitchfork/service-construction-go/internal/user"
	"github.com/ovaphlow/pitchfork/service-construction-go/internal/user/entity"
)

var (
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrEmailTaken         = user.ErrEmailTaken
)

// IdentityStore is the part of the user service the auth flow needs.
type IdentityStore interface {
	Authenticate(ctx context.Context, email, password string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	Create(ctx context.Context, email, password string, isAdmin bool) (*entity.User, error)
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(subject string, extra map[string]any, ttl time.Duration) (string, error)
}

// Token is the login response body.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Credentials is a login request. The form variant names the email "username".
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c Credentials) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Email, validation.Required),
		validation.Field(&c.Password, validation.Required),
	)
}

// Registration is the body of POST /auth/register.
type Registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"is_admin"`
}

func (r *Registration) Normalize() { r.Email = strings.TrimSpace(r.Email) }

func (r Registration) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, user.EmailRules()...),
		validation.Field(&r.Password, append([]validation.Rule{validation.Required}, user.PasswordRules()...)...),
	)
}

// Service runs the login and registration flows.
type Service struct {
	store  IdentityStore
	tokens TokenIssuer
}

func NewService(store IdentityStore, tokens TokenIssuer) *Service {
	return &Service{store: store, tokens: tokens}
}

// Login verifies credentials and issues an access token. Unknown email,
// wrong password and inactive account all yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, c Credentials) (*Token, error) {
	u, err := s.store.Authenticate(ctx, c.Email, c.Password)
	if err != nil {
		if errors.Is(err, user.ErrBadCredentials) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrInvalidCredentials
	}
	tok, err := s.tokens.Issue(strconv.FormatInt(u.ID, 10), map[string]any{
		"email":    u.Email,
		"is_admin": u.IsAdmin,
	}, 0)
	if err != nil {
		return nil, err
	}
	return &Token{AccessToken: tok, TokenType: "bearer"}, nil
}

// Register creates an account. An existing email yields ErrEmailTaken, both
// from the pre-check and from the store's uniqueness constraint.
func (s *Service) Register(ctx context.Context, r Registration) (*entity.User, error) {
	if _, err := s.store.FindByEmail(ctx, r.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, user.ErrUserNotFound) {
		return nil, err
	}
	return s.store.Create(ctx, r.Email, r.Password, r.IsAdmin)
}
