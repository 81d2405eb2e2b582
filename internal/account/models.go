package account

import (
	"errors"
	"time"

	"github.com/jwc684/ptmaster-sub001/internal/auth"
	"github.com/jwc684/ptmaster-sub001/internal/role"
)

// Account is a login identity. ShopID is empty only for platform admins and
// for members that have not picked a shop yet.
type Account struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash string    `json:"-"`
	Roles        role.Set  `json:"roles"`
	ShopID       string    `json:"shopId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (a Account) Identity() auth.Identity {
	return auth.Identity{
		AccountID: a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Roles:     a.Roles.Clone(),
		ShopID:    a.ShopID,
	}
}

// Member is a member account joined with its PT profile.
type Member struct {
	AccountID         string `json:"accountId"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	Phone             string `json:"phone,omitempty"`
	ShopID            string `json:"shopId"`
	TrainerID         string `json:"trainerId,omitempty"`
	RemainingSessions int    `json:"remainingSessions"`
}

var (
	ErrNotFound           = errors.New("account: not found")
	ErrEmailTaken         = errors.New("account: email already registered")
	ErrInvalidArgument    = errors.New("account: invalid argument")
	ErrInvalidCredentials = errors.New("account: invalid email or password")
	ErrRateLimited        = errors.New("account: too many login attempts")
	ErrShopAlreadySet     = errors.New("account: shop already selected")
	ErrShopUnavailable    = errors.New("account: shop not available")
	ErrNoSessionsLeft     = errors.New("account: no remaining sessions")
)
