package entity

import (
	"errors"
	"time"
)

// ErrEmailExists is returned by stores when the email uniqueness constraint
// rejects a write.
var ErrEmailExists = errors.New("email already registered")

// User represents an account row in the `users` table.
// HashedPassword never leaves the process in any JSON representation.
type User struct {
	ID             int64     `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	HashedPassword string    `db:"hashed_password" json:"-"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	IsAdmin        bool      `db:"is_admin" json:"is_admin"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Changes is the storage-level patch for a user. Nil fields are left as is.
type Changes struct {
	HashedPassword *string
	IsActive       *bool
	IsAdmin        *bool
}

// Empty reports whether no field is set.
func (c Changes) Empty() bool {
	return c.HashedPassword == nil && c.IsActive == nil && c.IsAdmin == nil
}

// Apply copies the set fields onto u.
func (c Changes) Apply(u *User) {
	if c.HashedPassword != nil {
		u.HashedPassword = *c.HashedPassword
	}
	if c.IsActive != nil {
		u.IsActive = *c.IsActive
	}
	if c.IsAdmin != nil {
		u.IsAdmin = *c.IsAdmin
	}
}
