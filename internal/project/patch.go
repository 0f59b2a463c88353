package project

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/ovaphlow/pitchfork/service-construction-go/internal/project/entity"
	"github.com/ovaphlow/pitchfork/service-construction-go/pkg/utilities"
)

// Input is the body of POST /projects.
type Input struct {
	Name     string `json:"name"`
	ClientID int64  `json:"client_id"`
}

func (in *Input) Normalize() { in.Name = strings.TrimSpace(in.Name) }

func (in Input) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.ClientID, validation.Required, validation.Min(int64(1))),
	)
}

// Patch is the body of PUT /projects/{id}. Absent fields are left unchanged.
type Patch struct {
	Name     *string `json:"name"`
	ClientID *int64  `json:"client_id"`
}

func (p *Patch) Normalize() {
	if p.Name != nil {
		n := strings.TrimSpace(*p.Name)
		p.Name = &n
	}
}

func (p Patch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, utilities.NotBlank, validation.Length(1, 255)),
		validation.Field(&p.ClientID, validation.By(positiveID)),
	)
}

// positiveID rejects a present client_id below 1. Min skips zero values, so
// it cannot tell an explicit 0 from an absent field.
func positiveID(value interface{}) error {
	id, ok := value.(*int64)
	if !ok || id == nil {
		return nil
	}
	if *id < 1 {
		return errors.New("must be no less than 1")
	}
	return nil
}

func (p Patch) Changes() entity.Changes {
	return entity.Changes{Name: p.Name, ClientID: p.ClientID}
}
