package tenancy

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jwc684/ptmaster-sub001/internal/auth"
	"github.com/jwc684/ptmaster-sub001/internal/role"
)

const (
	shop1 = "0b5c0d8e-8a3c-4a53-9d2b-1f1f1f1f0001"
	shop2 = "0b5c0d8e-8a3c-4a53-9d2b-1f1f1f1f0002"
	shop3 = "0b5c0d8e-8a3c-4a53-9d2b-1f1f1f1f0003"
)

type fakeShops map[string]bool

func (f fakeShops) ShopExists(_ context.Context, id string) (bool, error) { return f[id], nil }

func ctxFor(roles role.Set, shopID string) context.Context {
	id := auth.Identity{AccountID: "acc-1", Roles: roles, ShopID: shopID}
	return auth.WithPrincipal(context.Background(), auth.Principal{Identity: id, Real: id})
}

func TestResolve_Unauthenticated(t *testing.T) {
	r := NewResolver(fakeShops{})
	req := httptest.NewRequest(http.MethodGet, "/api/payments", nil)
	if _, err := r.Resolve(context.Background(), req, Trusted); !errors.Is(err, auth.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestResolve_AdminIgnoresOverride(t *testing.T) {
	r := NewResolver(fakeShops{shop1: true, shop2: true})
	req := httptest.NewRequest(http.MethodGet, "/api/payments", nil)
	req.Header.Set(auth.HeaderShopOverride, shop2)
	req.AddCookie(&http.Cookie{Name: auth.CookieShopOverride, Value: shop2})

	sc, err := r.Resolve(ctxFor(role.Set{role.Admin}, shop1), req, Trusted)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if sc.ShopID != shop1 || sc.Overridden {
		t.Fatalf("override must be ignored for shop admins, got %+v", sc)
	}
	if id, ok := sc.Filter().ShopID(); !ok || id != shop1 {
		t.Fatalf("expected filter on shop1, got %q", id)
	}
}

func TestResolve_PlatformAdminNoOverrideIsUnrestricted(t *testing.T) {
	r := NewResolver(fakeShops{})
	req := httptest.NewRequest(http.MethodGet, "/api/super-admin/shops", nil)
	sc, err := r.Resolve(ctxFor(role.Set{role.SuperAdmin}, ""), req, Trusted)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !sc.IsPlatformAdmin || !sc.Filter().Unrestricted() {
		t.Fatalf("expected unrestricted platform view, got %+v", sc)
	}
	if _, err := sc.RequireShop(); !errors.Is(err, ErrShopRequired) {
		t.Fatalf("expected ErrShopRequired, got %v", err)
	}
}

func TestResolve_HeaderBeatsCookie(t *testing.T) {
	r := NewResolver(fakeShops{shop2: true, shop3: true})
	req := httptest.NewRequest(http.MethodGet, "/api/payments", nil)
	req.Header.Set(auth.HeaderShopOverride, shop3)
	req.AddCookie(&http.Cookie{Name: auth.CookieShopOverride, Value: shop2})

	sc, err := r.Resolve(ctxFor(role.Set{role.SuperAdmin}, ""), req, Trusted)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if sc.ShopID != shop3 || !sc.Overridden {
		t.Fatalf("expected header override, got %+v", sc)
	}
}

func TestResolve_VerifiedCookieOverride(t *testing.T) {
	r := NewResolver(fakeShops{shop2: true})
	req := httptest.NewRequest(http.MethodPost, "/api/admin/invites", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieShopOverride, Value: shop2})

	sc, err := r.Resolve(ctxFor(role.Set{role.SuperAdmin}, ""), req, Verified)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got, _ := sc.RequireShop(); got != shop2 {
		t.Fatalf("expected shop2, got %q", got)
	}
}

func TestResolve_VerifiedRejectsUnknownShop(t *testing.T) {
	r := NewResolver(fakeShops{})
	req := httptest.NewRequest(http.MethodPost, "/api/admin/invites", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieShopOverride, Value: shop2})

	if _, err := r.Resolve(ctxFor(role.Set{role.SuperAdmin}, ""), req, Verified); !errors.Is(err, ErrShopNotFound) {
		t.Fatalf("expected ErrShopNotFound, got %v", err)
	}
	// Trusted mode skips the lookup.
	if sc, err := r.Resolve(ctxFor(role.Set{role.SuperAdmin}, ""), req, Trusted); err != nil || sc.ShopID != shop2 {
		t.Fatalf("trusted mode should accept the override: %+v %v", sc, err)
	}
}

func TestResolve_MalformedOverride(t *testing.T) {
	r := NewResolver(fakeShops{})
	req := httptest.NewRequest(http.MethodGet, "/api/payments", nil)
	req.Header.Set(auth.HeaderShopOverride, "not-a-shop")
	if _, err := r.Resolve(ctxFor(role.Set{role.SuperAdmin}, ""), req, Trusted); !errors.Is(err, ErrShopNotFound) {
		t.Fatalf("expected ErrShopNotFound, got %v", err)
	}
}

func TestResolve_ImpersonatingAdminUsesTargetShop(t *testing.T) {
	realID := auth.Identity{AccountID: "pa-1", Roles: role.Set{role.SuperAdmin}}
	target := auth.Identity{AccountID: "adm-1", Roles: role.Set{role.Admin}, ShopID: shop1}
	ctx := auth.WithPrincipal(context.Background(), auth.Principal{Identity: target, Real: realID, Impersonating: true})

	req := httptest.NewRequest(http.MethodGet, "/api/payments", nil)
	req.Header.Set(auth.HeaderShopOverride, shop2)

	sc, err := NewResolver(fakeShops{}).Resolve(ctx, req, Trusted)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if sc.ShopID != shop1 || sc.IsPlatformAdmin || sc.AccountID != "adm-1" {
		t.Fatalf("expected target's context, got %+v", sc)
	}
}
