package shop

import (
	"errors"
	"time"
)

// Shop is a tenant. Slug is globally unique; inactive shops keep their data
// but are hidden from signup and shop selection.
type Shop struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

var (
	ErrNotFound        = errors.New("shop: not found")
	ErrSlugTaken       = errors.New("shop: slug already taken")
	ErrInvalidArgument = errors.New("shop: invalid argument")
)
