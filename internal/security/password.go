package security

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes and verifies plaintext passwords.
type PasswordHasher interface {
	Hash(pw string) (string, error)
	Verify(hash, pw string) bool
}

// BcryptHasher implementation. A zero Cost means bcrypt.DefaultCost.
type BcryptHasher struct{ Cost int }

func NewBcryptHasher(cost int) BcryptHasher { return BcryptHasher{Cost: cost} }

func (b BcryptHasher) Hash(pw string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt hash: %w", err)
	}
	return string(h), nil
}

// Verify never errors: a malformed digest is just a mismatch.
func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
