package entity

import "time"

// Client is a customer of the company; it owns zero or more projects.
type Client struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Changes is the storage-level patch for a client.
type Changes struct {
	Name *string
}

func (c Changes) Empty() bool { return c.Name == nil }

func (c Changes) Apply(cl *Client) {
	if c.Name != nil {
		cl.Name = *c.Name
	}
}
