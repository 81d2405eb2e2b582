package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jwc684/ptmaster-sub001/internal/account"
	"github.com/jwc684/ptmaster-sub001/internal/auth"
	"github.com/jwc684/ptmaster-sub001/internal/payment"
	"github.com/jwc684/ptmaster-sub001/internal/role"
	"github.com/jwc684/ptmaster-sub001/internal/schedule"
	"github.com/jwc684/ptmaster-sub001/internal/tenancy"
)

const (
	shop1 = "7e3b9c10-4444-4a6b-9c8d-000000000001"
	shop2 = "7e3b9c10-4444-4a6b-9c8d-000000000002"
)

func seeded() *MemoryRepo {
	now := time.Unix(1700000000, 0).UTC()
	repo := NewMemoryRepo()
	repo.Shops = []string{shop1, shop2}
	repo.Members = []account.Member{
		{AccountID: "m1", ShopID: shop1}, {AccountID: "m2", ShopID: shop1}, {AccountID: "m3", ShopID: shop2},
	}
	repo.Trainers = map[string]string{"t1": shop1, "t2": shop2}
	repo.Payments = []payment.Payment{
		{ID: "p1", ShopID: shop1, Amount: decimal.RequireFromString("550000.00"), SessionCount: 10, PaidAt: now},
		{ID: "p2", ShopID: shop1, Amount: decimal.RequireFromString("60000.50"), SessionCount: 1, PaidAt: now},
		{ID: "p3", ShopID: shop2, Amount: decimal.RequireFromString("100000"), SessionCount: 2, PaidAt: now},
		{ID: "old", ShopID: shop1, Amount: decimal.RequireFromString("1"), SessionCount: 1, PaidAt: now.Add(-48 * time.Hour)},
	}
	repo.Schedules = []schedule.Schedule{
		{ID: "s1", ShopID: shop1, Status: schedule.StatusAttended, StartsAt: now},
		{ID: "s2", ShopID: shop1, Status: schedule.StatusScheduled, StartsAt: now},
		{ID: "s3", ShopID: shop2, Status: schedule.StatusScheduled, StartsAt: now},
	}
	return repo
}

func window() TimeRange {
	now := time.Unix(1700000000, 0).UTC()
	return TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)}
}

func TestSummary_ShopAdminSeesOwnShop(t *testing.T) {
	svc := NewService(seeded())
	sc := tenancy.Context{ShopID: shop1, AccountID: "a", Roles: role.Set{role.Admin}}

	out, err := svc.Summary(context.Background(), sc, window())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(out.Shops) != 1 || out.Shops[0].ShopID != shop1 {
		t.Fatalf("expected only %s, got %+v", shop1, out.Shops)
	}
	got := out.Shops[0]
	if got.Members != 2 || got.Trainers != 1 || got.Payments != 2 || got.SessionsSold != 11 {
		t.Fatalf("unexpected counts: %+v", got)
	}
	if got.Revenue.StringFixed(2) != "610000.50" {
		t.Fatalf("unexpected revenue: %s", got.Revenue.StringFixed(2))
	}
	if got.Scheduled != 1 || got.Attended != 1 {
		t.Fatalf("unexpected slots: %+v", got)
	}
}

func TestSummary_PlatformAdminSeesAllShops(t *testing.T) {
	svc := NewService(seeded())
	sc := tenancy.Context{AccountID: "root", Roles: role.Set{role.SuperAdmin}, IsPlatformAdmin: true}

	out, err := svc.Summary(context.Background(), sc, window())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(out.Shops) != 2 {
		t.Fatalf("expected 2 shops, got %d", len(out.Shops))
	}
	if out.Total.Members != 3 || out.Total.Revenue.StringFixed(2) != "710000.50" {
		t.Fatalf("unexpected total: %+v", out.Total)
	}

	sc.ShopID, sc.Overridden = shop2, true
	out, err = svc.Summary(context.Background(), sc, window())
	if err != nil || len(out.Shops) != 1 || out.Shops[0].ShopID != shop2 {
		t.Fatalf("override: unexpected %+v (%v)", out.Shops, err)
	}
}

func TestSummary_Rejects(t *testing.T) {
	svc := NewService(seeded())
	ctx := context.Background()

	trainer := tenancy.Context{ShopID: shop1, AccountID: "t1", Roles: role.Set{role.Trainer}}
	if _, err := svc.Summary(ctx, trainer, window()); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	pending := tenancy.Context{AccountID: "a", Roles: role.Set{role.Admin}}
	if _, err := svc.Summary(ctx, pending, window()); !errors.Is(err, tenancy.ErrShopRequired) {
		t.Fatalf("expected ErrShopRequired, got %v", err)
	}
	admin := tenancy.Context{ShopID: shop1, AccountID: "a", Roles: role.Set{role.Admin}}
	w := window()
	if _, err := svc.Summary(ctx, admin, TimeRange{From: w.To, To: w.From}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}
