package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ovaphlow/pitchfork/service-construction-go/internal/security"
	"github.com/ovaphlow/pitchfork/service-construction-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-construction-go/pkg/utilities"
)

// Repository is the persistence contract for users. Lookups that match
// nothing return sql.ErrNoRows; a duplicate email on Create returns
// entity.ErrEmailExists.
type Repository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, id int64, c entity.Changes) (*entity.User, error)
	HasAdmin(ctx context.Context) (bool, error)
}

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrBadCredentials = errors.New("invalid credentials")
	ErrEmailTaken     = entity.ErrEmailExists
)

// UserService is the identity store: lookups, creation, credential checks
// and account mutations.
type UserService struct {
	repo   Repository
	hasher security.PasswordHasher
	ids    utilities.IDSource
	// dummyHash is compared against when the email is unknown so both
	// failure paths pay for one bcrypt comparison.
	dummyHash string
}

func NewUserService(r Repository, hasher security.PasswordHasher, ids utilities.IDSource) (*UserService, error) {
	dummy, err := hasher.Hash("construction-api-timing-equalizer")
	if err != nil {
		return nil, fmt.Errorf("user service: dummy hash: %w", err)
	}
	return &UserService{repo: r, hasher: hasher, ids: ids, dummyHash: dummy}, nil
}

func normalizeEmail(email string) string { return strings.TrimSpace(email) }

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUserNotFound
	}
	return err
}

// FindByID returns ErrUserNotFound when no such user exists.
func (s *UserService) FindByID(ctx context.Context, id int64) (*entity.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// FindByEmail returns ErrUserNotFound when no such user exists.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// Create hashes the password and stores a new active user.
func (s *UserService) Create(ctx context.Context, email, password string, isAdmin bool) (*entity.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	u := &entity.User{
		ID:             s.ids.NextID(),
		Email:          normalizeEmail(email),
		HashedPassword: hash,
		IsActive:       true,
		IsAdmin:        isAdmin,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate checks email and password. Unknown email and wrong password
// both yield ErrBadCredentials. Activity is not checked here.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.hasher.Verify(s.dummyHash, password)
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if !s.hasher.Verify(u.HashedPassword, password) {
		return nil, ErrBadCredentials
	}
	return u, nil
}

// SetActive enables or disables an account.
func (s *UserService) SetActive(ctx context.Context, u *entity.User, active bool) (*entity.User, error) {
	return s.update(ctx, u.ID, entity.Changes{IsActive: &active})
}

// SetAdmin grants or revokes admin privileges.
func (s *UserService) SetAdmin(ctx context.Context, u *entity.User, admin bool) (*entity.User, error) {
	return s.update(ctx, u.ID, entity.Changes{IsAdmin: &admin})
}

// UpdatePassword replaces the stored hash.
func (s *UserService) UpdatePassword(ctx context.Context, u *entity.User, password string) (*entity.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, u.ID, entity.Changes{HashedPassword: &hash})
}

// Patch applies p to user id in one write. The password, if any, is hashed
// before the store is touched.
func (s *UserService) Patch(ctx context.Context, id int64, p Patch) (*entity.User, error) {
	c := entity.Changes{IsActive: p.IsActive, IsAdmin: p.IsAdmin}
	if p.Password != nil {
		hash, err := s.hasher.Hash(*p.Password)
		if err != nil {
			return nil, err
		}
		c.HashedPassword = &hash
	}
	if c.Empty() {
		return s.FindByID(ctx, id)
	}
	return s.update(ctx, id, c)
}

func (s *UserService) update(ctx context.Context, id int64, c entity.Changes) (*entity.User, error) {
	u, err := s.repo.Update(ctx, id, c)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// EnsureAdmin creates an admin account unless one already exists.
// It reports whether an account was created.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	exists, err := s.repo.HasAdmin(ctx)
	if err != nil {
		return false, fmt.Errorf("check admin: %w", err)
	}
	if exists {
		return false, nil
	}
	if _, err := s.FindByEmail(ctx, email); err == nil {
		return false, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return false, err
	}
	if _, err := s.Create(ctx, email, password, true); err != nil {
		return false, err
	}
	return true, nil
}
