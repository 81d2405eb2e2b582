package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jwc684/ptmaster-sub001/internal/account"
	"github.com/jwc684/ptmaster-sub001/internal/auth"
	"github.com/jwc684/ptmaster-sub001/internal/role"
	"github.com/jwc684/ptmaster-sub001/internal/tenancy"
)

const (
	shop1    = "7e3b9c10-4444-4a6b-9c8d-000000000001"
	shop2    = "7e3b9c10-4444-4a6b-9c8d-000000000002"
	memberID = "7e3b9c10-5555-4a6b-9c8d-000000000001"
)

func setup(t *testing.T) (*Service, *account.MemoryRepo) {
	t.Helper()
	accounts := account.NewMemoryRepo()
	if err := accounts.Create(context.Background(), account.Account{
		ID: memberID, Name: "Park", Email: "p@example.com", Roles: role.Set{role.Member}, ShopID: shop1,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	svc := NewService(NewMemoryRepo(accounts))
	svc.clock = func() time.Time { return time.Unix(1700000000, 0) }
	return svc, accounts
}

func adminCtx(shopID string) tenancy.Context {
	return tenancy.Context{ShopID: shopID, AccountID: "adm-1", Roles: role.Set{role.Admin}}
}

func TestRecord_CreditsSessions(t *testing.T) {
	svc, accounts := setup(t)
	ctx := context.Background()

	p, err := svc.Record(ctx, adminCtx(shop1), RecordInput{MemberID: memberID, Amount: "550000", SessionCount: 10, Method: "CARD"})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if p.Amount.StringFixed(2) != "550000.00" || p.Method != MethodCard || p.ShopID != shop1 {
		t.Fatalf("unexpected payment: %+v", p)
	}
	m, _ := accounts.GetMember(ctx, shop1, memberID)
	if m.RemainingSessions != 10 {
		t.Fatalf("expected 10 sessions, got %d", m.RemainingSessions)
	}
}

func TestRecord_RejectsBadInput(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	cases := []RecordInput{
		{MemberID: memberID, Amount: "-1", SessionCount: 1, Method: MethodCash},
		{MemberID: memberID, Amount: "10.005", SessionCount: 1, Method: MethodCash},
		{MemberID: memberID, Amount: "abc", SessionCount: 1, Method: MethodCash},
		{MemberID: memberID, Amount: "10", SessionCount: 0, Method: MethodCash},
		{MemberID: memberID, Amount: "10", SessionCount: 1, Method: "crypto"},
		{MemberID: "nope", Amount: "10", SessionCount: 1, Method: MethodCash},
	}
	for _, in := range cases {
		if _, err := svc.Record(ctx, adminCtx(shop1), in); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("%+v: expected ErrInvalidArgument, got %v", in, err)
		}
	}
}

func TestRecord_MemberOfOtherShop(t *testing.T) {
	svc, _ := setup(t)
	_, err := svc.Record(context.Background(), adminCtx(shop2), RecordInput{MemberID: memberID, Amount: "10", SessionCount: 1, Method: MethodCash})
	if !errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}
}

func TestRecord_RolesAndShop(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	in := RecordInput{MemberID: memberID, Amount: "10", SessionCount: 1, Method: MethodCash}

	trainer := tenancy.Context{ShopID: shop1, AccountID: "t-1", Roles: role.Set{role.Trainer}}
	if _, err := svc.Record(ctx, trainer, in); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	platform := tenancy.Context{IsPlatformAdmin: true, AccountID: "pa-1", Roles: role.Set{role.SuperAdmin}}
	if _, err := svc.Record(ctx, platform, in); !errors.Is(err, tenancy.ErrShopRequired) {
		t.Fatalf("expected ErrShopRequired, got %v", err)
	}
}

func TestList_ScopedByFilter(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	in := RecordInput{MemberID: memberID, Amount: "10", SessionCount: 1, Method: MethodCash}
	if _, err := svc.Record(ctx, adminCtx(shop1), in); err != nil {
		t.Fatalf("record: %v", err)
	}

	if got, _ := svc.List(ctx, adminCtx(shop1), ""); len(got) != 1 {
		t.Fatalf("expected 1 payment in shop1, got %d", len(got))
	}
	if got, _ := svc.List(ctx, adminCtx(shop2), ""); len(got) != 0 {
		t.Fatalf("expected no payments in shop2, got %d", len(got))
	}
	platform := tenancy.Context{IsPlatformAdmin: true, AccountID: "pa-1", Roles: role.Set{role.SuperAdmin}}
	if got, _ := svc.List(ctx, platform, ""); len(got) != 1 {
		t.Fatalf("expected unrestricted platform view, got %d", len(got))
	}

	other := tenancy.Context{ShopID: shop1, AccountID: "someone-else", Roles: role.Set{role.Member}}
	if got, _ := svc.List(ctx, other, memberID); len(got) != 0 {
		t.Fatalf("members only see their own payments")
	}
}
