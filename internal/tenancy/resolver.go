package tenancy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jwc684/ptmaster-sub001/internal/auth"
	"github.com/jwc684/ptmaster-sub001/internal/role"
)

var (
	// ErrShopRequired means a tenant-scoped write has no effective shop.
	ErrShopRequired = errors.New("tenancy: select a shop first")
	ErrShopNotFound = errors.New("tenancy: shop not found")
)

// Mode selects how a platform admin's shop override is accepted.
type Mode int

const (
	// Trusted accepts the override as-is. Read paths only.
	Trusted Mode = iota
	// Verified confirms the override names an existing shop. Required before
	// persisting rows that embed the shop id.
	Verified
)

// ShopVerifier confirms a shop id exists.
type ShopVerifier interface {
	ShopExists(ctx context.Context, shopID string) (bool, error)
}

// Context is the effective tenant context of one request.
type Context struct {
	ShopID          string
	IsPlatformAdmin bool
	AccountID       string
	Roles           role.Set

	// Overridden is true when ShopID came from a platform admin override.
	Overridden bool
}

// Filter is the row predicate for this context.
func (c Context) Filter() Filter { return BuildFilter(c.ShopID, c.IsPlatformAdmin) }

// RequireShop returns the effective shop or ErrShopRequired.
func (c Context) RequireShop() (string, error) {
	if c.ShopID == "" {
		return "", ErrShopRequired
	}
	return c.ShopID, nil
}

type Resolver struct {
	shops ShopVerifier
}

func NewResolver(shops ShopVerifier) *Resolver {
	return &Resolver{shops: shops}
}

// Resolve builds the shop context for the authenticated caller in ctx.
// Without a session it returns auth.ErrUnauthenticated (or ErrSessionInvalidated),
// which every handler checks first.
func (r *Resolver) Resolve(ctx context.Context, req *http.Request, mode Mode) (Context, error) {
	p, err := auth.Authenticated(ctx)
	if err != nil {
		return Context{}, err
	}

	out := Context{
		ShopID:          p.ShopID,
		IsPlatformAdmin: p.IsPlatformAdmin(),
		AccountID:       p.AccountID,
		Roles:           p.Roles,
	}
	if !out.IsPlatformAdmin {
		return out, nil
	}

	override := overrideFrom(req)
	if override == "" {
		return out, nil
	}
	if _, err := uuid.Parse(override); err != nil {
		return Context{}, ErrShopNotFound
	}
	if mode == Verified {
		if r.shops == nil {
			return Context{}, errors.New("tenancy: shop verifier not configured")
		}
		ok, err := r.shops.ShopExists(ctx, override)
		if err != nil {
			return Context{}, fmt.Errorf("verify shop: %w", err)
		}
		if !ok {
			return Context{}, ErrShopNotFound
		}
	}
	out.ShopID = override
	out.Overridden = true
	return out, nil
}

// overrideFrom reads the header first (programmatic calls), then the cookie.
func overrideFrom(req *http.Request) string {
	if req == nil {
		return ""
	}
	if v := strings.TrimSpace(req.Header.Get(auth.HeaderShopOverride)); v != "" {
		return v
	}
	if ck, err := req.Cookie(auth.CookieShopOverride); err == nil {
		return strings.TrimSpace(ck.Value)
	}
	return ""
}
