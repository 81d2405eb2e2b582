package invite

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jwc684/ptmaster-sub001/internal/account"
	"github.com/jwc684/ptmaster-sub001/internal/auth"
	"github.com/jwc684/ptmaster-sub001/internal/role"
	"github.com/jwc684/ptmaster-sub001/internal/tenancy"
)

const (
	shop1 = "5d7a1b2c-3333-4e5f-8a9b-000000000001"
	shop2 = "5d7a1b2c-3333-4e5f-8a9b-000000000002"
)

var now = time.Unix(1700000000, 0).UTC()

func newTestService(t *testing.T) (*Service, *account.MemoryRepo) {
	t.Helper()
	accounts := account.NewMemoryRepo()
	accSvc := account.NewService(accounts, nil, nil).WithHashCost(bcrypt.MinCost)
	svc := NewService(NewMemoryRepo(accounts), accSvc).WithClock(func() time.Time { return now })
	return svc, accounts
}

func TestCreate_UsesEffectiveShop(t *testing.T) {
	svc, _ := newTestService(t)
	sc := tenancy.Context{ShopID: shop2, IsPlatformAdmin: true, AccountID: "pa-1", Roles: role.Set{role.SuperAdmin}, Overridden: true}

	inv, err := svc.Create(context.Background(), sc, CreateInput{Email: "Coach@Example.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inv.ShopID != shop2 || inv.Email != "coach@example.com" || inv.Token == "" {
		t.Fatalf("unexpected invite: %+v", inv)
	}
	if !inv.ExpiresAt.Equal(now.Add(DefaultTTL)) {
		t.Fatalf("unexpected expiry %s", inv.ExpiresAt)
	}
}

func TestCreate_PlatformAdminWithoutShop(t *testing.T) {
	svc, _ := newTestService(t)
	sc := tenancy.Context{IsPlatformAdmin: true, AccountID: "pa-1", Roles: role.Set{role.SuperAdmin}}
	if _, err := svc.Create(context.Background(), sc, CreateInput{Email: "c@example.com"}); !errors.Is(err, tenancy.ErrShopRequired) {
		t.Fatalf("expected ErrShopRequired, got %v", err)
	}
}

func TestCreate_TrainerForbidden(t *testing.T) {
	svc, _ := newTestService(t)
	sc := tenancy.Context{ShopID: shop1, AccountID: "t-1", Roles: role.Set{role.Trainer}}
	if _, err := svc.Create(context.Background(), sc, CreateInput{Email: "c@example.com"}); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRedeem_CreatesTrainerOnce(t *testing.T) {
	svc, accounts := newTestService(t)
	ctx := context.Background()
	sc := tenancy.Context{ShopID: shop1, AccountID: "adm-1", Roles: role.Set{role.Admin}}
	inv, _ := svc.Create(ctx, sc, CreateInput{Email: "coach@example.com"})

	a, err := svc.Redeem(ctx, RedeemInput{Token: inv.Token, Name: "Coach", Password: "password1"})
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if !a.Roles.Has(role.Trainer) || a.ShopID != shop1 {
		t.Fatalf("unexpected account: %+v", a)
	}
	if _, err := accounts.GetByEmail(ctx, "coach@example.com"); err != nil {
		t.Fatalf("account not stored: %v", err)
	}

	if _, err := svc.Redeem(ctx, RedeemInput{Token: inv.Token, Name: "Coach", Password: "password1"}); !errors.Is(err, ErrUsed) {
		t.Fatalf("expected ErrUsed, got %v", err)
	}
}

func TestRedeem_AddsTrainerToSameShopAccount(t *testing.T) {
	svc, accounts := newTestService(t)
	ctx := context.Background()
	_ = accounts.Create(ctx, account.Account{ID: "adm-2", Name: "Lee", Email: "lee@example.com", Roles: role.Set{role.Admin}, ShopID: shop1})

	inv, _ := svc.Create(ctx, tenancy.Context{ShopID: shop1, AccountID: "adm-1", Roles: role.Set{role.Admin}}, CreateInput{Email: "lee@example.com"})
	a, err := svc.Redeem(ctx, RedeemInput{Token: inv.Token, Name: "Lee", Password: "password1"})
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if a.ID != "adm-2" || !a.Roles.Has(role.Admin) || !a.Roles.Has(role.Trainer) {
		t.Fatalf("expected ADMIN+TRAINER, got %+v", a)
	}
	stored, _ := accounts.Get(ctx, "adm-2")
	if !stored.Roles.Has(role.Trainer) || len(stored.Roles) != 2 {
		t.Fatalf("stored roles: %v", stored.Roles)
	}
}

func TestRedeem_OtherShopAccountConflicts(t *testing.T) {
	svc, accounts := newTestService(t)
	ctx := context.Background()
	_ = accounts.Create(ctx, account.Account{ID: "m-9", Name: "Kim", Email: "kim@example.com", Roles: role.Set{role.Member}, ShopID: shop2})

	inv, _ := svc.Create(ctx, tenancy.Context{ShopID: shop1, AccountID: "adm-1", Roles: role.Set{role.Admin}}, CreateInput{Email: "kim@example.com"})
	if _, err := svc.Redeem(ctx, RedeemInput{Token: inv.Token, Name: "Kim", Password: "password1"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestRedeem_Expired(t *testing.T) {
	svc, accounts := newTestService(t)
	ctx := context.Background()
	inv, _ := svc.Create(ctx, tenancy.Context{ShopID: shop1, AccountID: "adm-1", Roles: role.Set{role.Admin}}, CreateInput{Email: "c@example.com"})

	late := NewService(svc.repo, account.NewService(accounts, nil, nil)).
		WithClock(func() time.Time { return now.Add(DefaultTTL) })
	if _, err := late.Redeem(ctx, RedeemInput{Token: inv.Token, Name: "C", Password: "password1"}); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	if _, err := svc.Redeem(ctx, RedeemInput{Token: "missing", Name: "C", Password: "password1"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
