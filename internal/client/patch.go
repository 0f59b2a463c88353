package client

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/ovaphlow/pitchfork/service-construction-go/internal/client/entity"
	"github.com/ovaphlow/pitchfork/service-construction-go/pkg/utilities"
)

// Input is the body of POST /clients.
type Input struct {
	Name string `json:"name"`
}

func (in *Input) Normalize() { in.Name = strings.TrimSpace(in.Name) }

func (in Input) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 255)),
	)
}

// Patch is the body of PUT /clients/{id}. Absent fields are left unchanged.
type Patch struct {
	Name *string `json:"name"`
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
	)
}

func (p Patch) Changes() entity.Changes { return entity.Changes{Name: p.Name} }
