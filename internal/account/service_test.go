package account

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/jwc684/ptmaster-sub001/internal/role"
	"github.com/jwc684/ptmaster-sub001/internal/shop"
	"github.com/jwc684/ptmaster-sub001/internal/tenancy"
)

const (
	shopA      = "2c9f1f7e-7d1a-4a0e-8f3e-00000000000a"
	shopClosed = "2c9f1f7e-7d1a-4a0e-8f3e-00000000000c"
	trainerID  = "2c9f1f7e-7d1a-4a0e-8f3e-0000000000f1"
)

type fakeLimiter struct {
	allow  bool
	err    error
	resets int
}

func (f *fakeLimiter) Allow(context.Context, string) (bool, error) { return f.allow, f.err }
func (f *fakeLimiter) Reset(context.Context, string) error {
	f.resets++
	return nil
}

func newTestService(t *testing.T, lim Limiter) (*Service, *MemoryRepo) {
	t.Helper()
	shops := shop.NewService(shop.NewMemoryRepo(
		shop.Shop{ID: shopA, Name: "A", Slug: "a", Active: true},
		shop.Shop{ID: shopClosed, Name: "C", Slug: "closed", Active: false},
	))
	repo := NewMemoryRepo()
	return NewService(repo, shops, lim).WithHashCost(bcrypt.MinCost), repo
}

func TestSignup_PendingWithoutShop(t *testing.T) {
	svc, _ := newTestService(t, nil)
	a, err := svc.Signup(context.Background(), SignupInput{Name: "Park", Email: " Park@Example.com ", Password: "password1"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if a.ShopID != "" || !a.Roles.Has(role.Member) || a.Email != "park@example.com" {
		t.Fatalf("unexpected account: %+v", a)
	}
	if a.PasswordHash == "password1" {
		t.Fatalf("password must be hashed")
	}
}

func TestSignup_WithShopSlug(t *testing.T) {
	svc, repo := newTestService(t, nil)
	a, err := svc.Signup(context.Background(), SignupInput{Name: "Park", Email: "p@example.com", Password: "password1", ShopSlug: "a"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if a.ShopID != shopA {
		t.Fatalf("expected shop A, got %q", a.ShopID)
	}
	if _, err := repo.GetMember(context.Background(), shopA, a.ID); err != nil {
		t.Fatalf("expected member profile: %v", err)
	}

	if _, err := svc.Signup(context.Background(), SignupInput{Name: "X", Email: "x@example.com", Password: "password1", ShopSlug: "closed"}); !errors.Is(err, ErrShopUnavailable) {
		t.Fatalf("inactive shop must be rejected, got %v", err)
	}
}

func TestSignup_RejectsDuplicateAndInvalid(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	if _, err := svc.Signup(ctx, SignupInput{Name: "P", Email: "p@example.com", Password: "password1"}); err != nil {
		t.Fatalf("signup: %v", err)
	}
	if _, err := svc.Signup(ctx, SignupInput{Name: "P", Email: "P@example.com", Password: "password1"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if _, err := svc.Signup(ctx, SignupInput{Name: "P", Email: "bad", Password: "short"}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	lim := &fakeLimiter{allow: true}
	svc, _ := newTestService(t, lim)
	ctx := context.Background()
	if _, err := svc.Signup(ctx, SignupInput{Name: "P", Email: "p@example.com", Password: "password1", ShopSlug: "a"}); err != nil {
		t.Fatalf("signup: %v", err)
	}

	if _, err := svc.Login(ctx, "p@example.com", "wrong-password", "1.2.3.4"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "password1", "1.2.3.4"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email must look like a bad password, got %v", err)
	}
	a, err := svc.Login(ctx, "P@example.com", "password1", "1.2.3.4")
	if err != nil || a.ShopID != shopA {
		t.Fatalf("login: %+v %v", a, err)
	}
	if lim.resets != 1 {
		t.Fatalf("expected limiter reset after success, got %d", lim.resets)
	}
}

func TestLogin_RateLimitedAndFailOpen(t *testing.T) {
	lim := &fakeLimiter{allow: false}
	svc, _ := newTestService(t, lim)
	ctx := context.Background()
	_, _ = svc.Signup(ctx, SignupInput{Name: "P", Email: "p@example.com", Password: "password1"})

	if _, err := svc.Login(ctx, "p@example.com", "password1", "ip"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	lim.err = errors.New("redis down")
	if _, err := svc.Login(ctx, "p@example.com", "password1", "ip"); err != nil {
		t.Fatalf("limiter outage must not block login, got %v", err)
	}
}

func TestSelectShop(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	a, _ := svc.Signup(ctx, SignupInput{Name: "P", Email: "p@example.com", Password: "password1"})

	if _, err := svc.SelectShop(ctx, a.ID, shopClosed); !errors.Is(err, ErrShopUnavailable) {
		t.Fatalf("expected ErrShopUnavailable, got %v", err)
	}
	got, err := svc.SelectShop(ctx, a.ID, shopA)
	if err != nil || got.ShopID != shopA {
		t.Fatalf("select: %+v %v", got, err)
	}
	if _, err := svc.SelectShop(ctx, a.ID, shopA); !errors.Is(err, ErrShopAlreadySet) {
		t.Fatalf("expected ErrShopAlreadySet, got %v", err)
	}
}

func TestLookupIdentity_DeletedAccount(t *testing.T) {
	svc, repo := newTestService(t, nil)
	ctx := context.Background()
	a, _ := svc.Signup(ctx, SignupInput{Name: "P", Email: "p@example.com", Password: "password1", ShopSlug: "a"})

	id, found, err := svc.LookupIdentity(ctx, a.ID)
	if err != nil || !found || id.ShopID != shopA || !id.Roles.Has(role.Member) {
		t.Fatalf("lookup: %+v %v %v", id, found, err)
	}

	repo.Delete(a.ID)
	if _, found, err := svc.LookupIdentity(ctx, a.ID); found || err != nil {
		t.Fatalf("deleted account must not be found: %v %v", found, err)
	}
}

func TestFirstAdminAndTrainerMembers(t *testing.T) {
	svc, repo := newTestService(t, nil)
	ctx := context.Background()

	admin, err := svc.CreateShopAdmin(ctx, AdminInput{Name: "Lee", Email: "lee@example.com", Password: "password1", ShopID: shopA})
	if err != nil {
		t.Fatalf("admin: %v", err)
	}
	got, err := svc.FirstAdmin(ctx, shopA)
	if err != nil || got.ID != admin.ID {
		t.Fatalf("first admin: %+v %v", got, err)
	}
	if _, err := svc.FirstAdmin(ctx, "not-a-uuid"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("malformed shop id: expected ErrNotFound, got %v", err)
	}

	trainer := Account{ID: trainerID, Name: "Coach", Email: "coach@example.com", Roles: role.Set{role.Trainer}, ShopID: shopA}
	if err := repo.Create(ctx, trainer); err != nil {
		t.Fatalf("trainer: %v", err)
	}
	m, _ := svc.Signup(ctx, SignupInput{Name: "P", Email: "p@example.com", Password: "password1", ShopSlug: "a"})

	if err := svc.AssignTrainer(ctx, shopA, m.ID, trainerID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	list, err := svc.TrainerMembers(ctx, shopA, trainerID)
	if err != nil || len(list) != 1 || list[0].AccountID != m.ID {
		t.Fatalf("trainer members: %v %v", list, err)
	}
	if _, err := svc.TrainerMembers(ctx, "", trainerID); !errors.Is(err, tenancy.ErrShopRequired) {
		t.Fatalf("expected ErrShopRequired, got %v", err)
	}
}

func TestIsTrainer(t *testing.T) {
	svc, repo := newTestService(t, nil)
	ctx := context.Background()

	trainer := Account{ID: trainerID, Name: "Coach", Email: "coach@example.com", Roles: role.Set{role.Trainer}, ShopID: shopA}
	if err := repo.Create(ctx, trainer); err != nil {
		t.Fatalf("trainer: %v", err)
	}
	m, _ := svc.Signup(ctx, SignupInput{Name: "P", Email: "p@example.com", Password: "password1", ShopSlug: "a"})

	cases := []struct {
		name   string
		shopID string
		id     string
		want   bool
	}{
		{"trainer of shop", shopA, trainerID, true},
		{"other shop", shopClosed, trainerID, false},
		{"member", shopA, m.ID, false},
		{"malformed", shopA, "t-1", false},
	}
	for _, tc := range cases {
		got, err := svc.IsTrainer(ctx, tc.shopID, tc.id)
		if err != nil || got != tc.want {
			t.Fatalf("%s: expected %v, got %v %v", tc.name, tc.want, got, err)
		}
	}
}

func TestCreatePlatformAdmin(t *testing.T) {
	svc, _ := newTestService(t, nil)
	a, err := svc.CreatePlatformAdmin(context.Background(), PlatformAdminInput{Name: "Root", Email: "root@example.com", Password: "long-password-1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !a.Roles.IsPlatformAdmin() || a.ShopID != "" {
		t.Fatalf("unexpected platform admin: %+v", a)
	}
}
