package invite

import (
	"errors"
	"time"
)

// Invite lets one person join a shop as a TRAINER.
type Invite struct {
	ID        string     `json:"id"`
	ShopID    string     `json:"shopId"`
	Token     string     `json:"-"`
	Email     string     `json:"email"`
	CreatedBy string     `json:"createdBy"`
	ExpiresAt time.Time  `json:"expiresAt"`
	UsedAt    *time.Time `json:"usedAt,omitempty"`
	UsedBy    string     `json:"usedBy,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (i Invite) Used() bool { return i.UsedAt != nil }

var (
	ErrNotFound        = errors.New("invite: not found")
	ErrUsed            = errors.New("invite: already used")
	ErrExpired         = errors.New("invite: expired")
	ErrInvalidArgument = errors.New("invite: invalid argument")
	// ErrConflict means the invited email belongs to an account that cannot
	// take the TRAINER role in this shop.
	ErrConflict = errors.New("invite: email belongs to another account")
)
