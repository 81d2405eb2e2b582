package invite

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwc684/ptmaster-sub001/internal/account"
	"github.com/jwc684/ptmaster-sub001/internal/auth"
	"github.com/jwc684/ptmaster-sub001/internal/role"
	"github.com/jwc684/ptmaster-sub001/internal/tenancy"
	"github.com/jwc684/ptmaster-sub001/pkg/utils"
)

const DefaultTTL = 7 * 24 * time.Hour

type Accounts interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	HashPassword(password string) (string, error)
}

type Service struct {
	repo     Repository
	accounts Accounts
	ttl      time.Duration
	clock    func() time.Time
}

func NewService(repo Repository, accounts Accounts) *Service {
	return &Service{
		repo:     repo,
		accounts: accounts,
		ttl:      DefaultTTL,
		clock:    time.Now,
	}
}

// WithClock overrides the time source (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.clock = now
	return s
}

type CreateInput struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

// Create issues an invite into the effective shop. sc must be resolved in
// verified mode since the shop id is persisted.
func (s *Service) Create(ctx context.Context, sc tenancy.Context, in CreateInput) (Invite, error) {
	if !sc.Roles.HasAny(role.Admin, role.SuperAdmin) {
		return Invite{}, auth.ErrForbidden
	}
	shopID, err := sc.RequireShop()
	if err != nil {
		return Invite{}, err
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := utils.ValidateStruct(in); err != nil {
		return Invite{}, ErrInvalidArgument
	}

	token, err := newToken()
	if err != nil {
		return Invite{}, err
	}
	now := s.clock().UTC()
	inv := Invite{
		ID:        uuid.NewString(),
		ShopID:    shopID,
		Token:     token,
		Email:     in.Email,
		CreatedBy: sc.AccountID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.repo.Create(ctx, inv); err != nil {
		return Invite{}, err
	}
	return inv, nil
}

func (s *Service) List(ctx context.Context, f tenancy.Filter) ([]Invite, error) {
	return s.repo.List(ctx, f)
}

type RedeemInput struct {
	Token    string `json:"token" validate:"required"`
	Name     string `json:"name" validate:"required,max=100"`
	Phone    string `json:"phone" validate:"omitempty,max=30"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Redeem consumes an invite. A new TRAINER account is created for the invited
// email, or TRAINER is added to an existing account of the same shop.
func (s *Service) Redeem(ctx context.Context, in RedeemInput) (account.Account, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := utils.ValidateStruct(in); err != nil {
		return account.Account{}, ErrInvalidArgument
	}

	inv, err := s.repo.GetByToken(ctx, in.Token)
	if err != nil {
		return account.Account{}, err
	}
	now := s.clock().UTC()
	if inv.Used() {
		return account.Account{}, ErrUsed
	}
	if !now.Before(inv.ExpiresAt) {
		return account.Account{}, ErrExpired
	}

	red := Redemption{InviteID: inv.ID, ShopID: inv.ShopID, UsedAt: now}

	existing, err := s.accounts.GetByEmail(ctx, inv.Email)
	switch {
	case err == nil:
		if existing.ShopID != inv.ShopID || existing.Roles.IsPlatformAdmin() {
			return account.Account{}, ErrConflict
		}
		red.ExistingAccountID = existing.ID
		existing.Roles = existing.Roles.With(role.Trainer)
		if err := s.repo.Redeem(ctx, red); err != nil {
			return account.Account{}, err
		}
		return existing, nil
	case errors.Is(err, account.ErrNotFound):
	default:
		return account.Account{}, err
	}

	hash, err := s.accounts.HashPassword(in.Password)
	if err != nil {
		return account.Account{}, err
	}
	a := account.Account{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        inv.Email,
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: hash,
		Roles:        role.Set{role.Trainer},
		ShopID:       inv.ShopID,
		CreatedAt:    now,
	}
	red.NewAccount = &a
	if err := s.repo.Redeem(ctx, red); err != nil {
		return account.Account{}, err
	}
	return a, nil
}

// newToken returns 32 random bytes, URL-safe.
func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
