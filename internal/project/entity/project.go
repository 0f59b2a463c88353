package entity

import (
	"errors"
	"time"

	clientent "github.com/ovaphlow/pitchfork/service-construction-go/internal/client/entity"
)

// ErrClientMissing is returned by stores when a project references a client
// that does not exist.
var ErrClientMissing = errors.New("referenced client does not exist")

// Project is a construction project belonging to exactly one client.
type Project struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	ClientID  int64     `db:"client_id" json:"client_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// WithClient is a project with its owning client embedded.
type WithClient struct {
	Project
	Client *clientent.Client `json:"client"`
}

// Filter narrows a project listing.
type Filter struct {
	Skip     int
	Limit    int
	ClientID *int64
}

// Changes is the storage-level patch for a project.
type Changes struct {
	Name     *string
	ClientID *int64
}

func (c Changes) Empty() bool { return c.Name == nil && c.ClientID == nil }

func (c Changes) Apply(p *Project) {
	if c.Name != nil {
		p.Name = *c.Name
	}
	if c.ClientID != nil {
		p.ClientID = *c.ClientID
	}
}
