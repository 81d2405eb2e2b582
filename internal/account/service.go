package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwc684/ptmaster-sub001/internal/auth"
	"github.com/jwc684/ptmaster-sub001/internal/role"
	"github.com/jwc684/ptmaster-sub001/internal/shop"
	"github.com/jwc684/ptmaster-sub001/internal/tenancy"
	"github.com/jwc684/ptmaster-sub001/pkg/logger"
	"github.com/jwc684/ptmaster-sub001/pkg/utils"
)

// Shops is the subset of the shop service accounts depend on.
type Shops interface {
	ActiveBySlug(ctx context.Context, slug string) (shop.Shop, error)
	Active(ctx context.Context, id string) (shop.Shop, error)
}

type Service struct {
	repo    Repository
	shops   Shops
	limiter Limiter
	clock   func() time.Time
	cost    int
}

func NewService(repo Repository, shops Shops, limiter Limiter) *Service {
	return &Service{
		repo:    repo,
		shops:   shops,
		limiter: limiter,
		clock:   time.Now,
		cost:    bcrypt.DefaultCost,
	}
}

// WithHashCost lowers the bcrypt cost (tests).
func (s *Service) WithHashCost(cost int) *Service {
	s.cost = cost
	return s
}

type SignupInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Phone    string `json:"phone" validate:"omitempty,max=30"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	ShopSlug string `json:"shopSlug" validate:"omitempty,max=50"`
}

// Signup registers a MEMBER. Without a shop slug the member is pending shop
// selection.
func (s *Service) Signup(ctx context.Context, in SignupInput) (Account, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := utils.ValidateStruct(in); err != nil {
		return Account{}, ErrInvalidArgument
	}

	var shopID string
	if in.ShopSlug != "" {
		sh, err := s.shops.ActiveBySlug(ctx, in.ShopSlug)
		if errors.Is(err, shop.ErrNotFound) {
			return Account{}, ErrShopUnavailable
		}
		if err != nil {
			return Account{}, err
		}
		shopID = sh.ID
	}

	return s.create(ctx, in.Name, in.Email, in.Phone, in.Password, role.Set{role.Member}, shopID)
}

type PlatformAdminInput struct {
	Name     string `validate:"required,max=100"`
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,min=12,max=72"`
}

// CreatePlatformAdmin bootstraps a SUPER_ADMIN. There is no HTTP path to this.
func (s *Service) CreatePlatformAdmin(ctx context.Context, in PlatformAdminInput) (Account, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := utils.ValidateStruct(in); err != nil {
		return Account{}, ErrInvalidArgument
	}
	return s.create(ctx, in.Name, in.Email, "", in.Password, role.Set{role.SuperAdmin}, "")
}

type AdminInput struct {
	Name     string `validate:"required,max=100"`
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,min=8,max=72"`
	ShopID   string `validate:"required,uuid"`
}

// CreateShopAdmin creates the ADMIN of a shop (operator bootstrap).
func (s *Service) CreateShopAdmin(ctx context.Context, in AdminInput) (Account, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := utils.ValidateStruct(in); err != nil {
		return Account{}, ErrInvalidArgument
	}
	if _, err := s.shops.Active(ctx, in.ShopID); err != nil {
		return Account{}, ErrShopUnavailable
	}
	return s.create(ctx, in.Name, in.Email, "", in.Password, role.Set{role.Admin}, in.ShopID)
}

func (s *Service) create(ctx context.Context, name, email, phone, password string, roles role.Set, shopID string) (Account, error) {
	if err := roles.Validate(); err != nil {
		return Account{}, ErrInvalidArgument
	}
	hash, err := s.HashPassword(password)
	if err != nil {
		return Account{}, err
	}
	a := Account{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(phone),
		PasswordHash: hash,
		Roles:        roles,
		ShopID:       shopID,
		CreatedAt:    s.clock().UTC(),
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return Account{}, err
	}
	return a, nil
}

func (s *Service) HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Login verifies credentials. Attempts are limited per email and client IP;
// a limiter outage does not block logins.
func (s *Service) Login(ctx context.Context, email, password, clientIP string) (Account, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return Account{}, ErrInvalidCredentials
	}

	key := email + "|" + clientIP
	if s.limiter != nil {
		ok, err := s.limiter.Allow(ctx, key)
		if err != nil {
			logger.From(ctx).Warn("login limiter unavailable", "err", err)
		} else if !ok {
			return Account{}, ErrRateLimited
		}
	}

	a, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return Account{}, ErrInvalidCredentials
	}
	if err != nil {
		return Account{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) != nil {
		return Account{}, ErrInvalidCredentials
	}
	if len(a.Roles) == 0 {
		return Account{}, ErrInvalidCredentials
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, key); err != nil {
			logger.From(ctx).Warn("login limiter reset failed", "err", err)
		}
	}
	return a, nil
}

// SelectShop lets a pending account pick an active shop, once.
func (s *Service) SelectShop(ctx context.Context, accountID, shopID string) (Account, error) {
	a, err := s.repo.Get(ctx, accountID)
	if err != nil {
		return Account{}, err
	}
	if a.Roles.IsPlatformAdmin() || a.ShopID != "" {
		return Account{}, ErrShopAlreadySet
	}
	sh, err := s.shops.Active(ctx, shopID)
	if err != nil {
		return Account{}, ErrShopUnavailable
	}
	if err := s.repo.SetShop(ctx, accountID, sh.ID); err != nil {
		return Account{}, err
	}
	a.ShopID = sh.ID
	return a, nil
}

func (s *Service) Get(ctx context.Context, id string) (Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Account{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (Account, error) {
	return s.repo.GetByEmail(ctx, normalizeEmail(email))
}

// LookupIdentity implements auth.AccountLookup.
func (s *Service) LookupIdentity(ctx context.Context, accountID string) (auth.Identity, bool, error) {
	a, err := s.Get(ctx, accountID)
	if errors.Is(err, ErrNotFound) {
		return auth.Identity{}, false, nil
	}
	if err != nil {
		return auth.Identity{}, false, err
	}
	return a.Identity(), true, nil
}

func (s *Service) FirstAdmin(ctx context.Context, shopID string) (Account, error) {
	if _, err := uuid.Parse(shopID); err != nil {
		return Account{}, ErrNotFound
	}
	return s.repo.FirstAdmin(ctx, shopID)
}

// IsTrainer reports whether trainerID is a trainer of shopID.
func (s *Service) IsTrainer(ctx context.Context, shopID, trainerID string) (bool, error) {
	if _, err := uuid.Parse(trainerID); err != nil {
		return false, nil
	}
	return s.repo.IsTrainer(ctx, shopID, trainerID)
}

func (s *Service) Member(ctx context.Context, shopID, memberID string) (Member, error) {
	return s.repo.GetMember(ctx, shopID, memberID)
}

func (s *Service) Members(ctx context.Context, f tenancy.Filter) ([]Member, error) {
	return s.repo.ListMembers(ctx, f)
}

// TrainerMembers lists members currently assigned to trainerID.
func (s *Service) TrainerMembers(ctx context.Context, shopID, trainerID string) ([]Member, error) {
	if shopID == "" {
		return nil, tenancy.ErrShopRequired
	}
	return s.repo.ListTrainerMembers(ctx, shopID, trainerID)
}

func (s *Service) AssignTrainer(ctx context.Context, shopID, memberID, trainerID string) error {
	if shopID == "" {
		return tenancy.ErrShopRequired
	}
	if _, err := uuid.Parse(memberID); err != nil {
		return ErrNotFound
	}
	if _, err := uuid.Parse(trainerID); err != nil {
		return ErrInvalidArgument
	}
	return s.repo.AssignTrainer(ctx, shopID, memberID, trainerID)
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
