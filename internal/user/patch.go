package user

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// bcrypt only looks at the first 72 bytes of its input.
const maxPasswordBytes = 72

// EmailRules validates an account email. The format check does not resolve
// the domain.
func EmailRules() []validation.Rule {
	return []validation.Rule{validation.Required, validation.Length(3, 255), is.Email}
}

// PasswordRules validates a new plaintext password when present.
// Callers that need one add validation.Required.
func PasswordRules() []validation.Rule {
	return []validation.Rule{
		validation.Length(8, 128),
		validation.By(func(v interface{}) error {
			v, isNil := validation.Indirect(v)
			if isNil {
				return nil
			}
			s, _ := v.(string)
			if s == "" {
				return errors.New("cannot be blank")
			}
			if len(s) > maxPasswordBytes {
				return errors.New("must be at most 72 bytes")
			}
			return nil
		}),
	}
}

// Patch is an admin update of an account. Nil fields are left unchanged.
type Patch struct {
	Password *string `json:"password"`
	IsActive *bool   `json:"is_active"`
	IsAdmin  *bool   `json:"is_admin"`
}

func (p Patch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Password, PasswordRules()...),
	)
}
