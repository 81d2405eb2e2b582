package auth

import (
	"context"
	"errors"

	"github.com/jwc684/ptmaster-sub001/internal/role"
)

var (
	ErrUnauthenticated    = errors.New("auth: unauthenticated")
	ErrForbidden          = errors.New("auth: forbidden")
	ErrSessionInvalidated = errors.New("auth: session invalidated")
	ErrInvalidToken       = errors.New("auth: invalid token")
	ErrInvalidGrant       = errors.New("auth: invalid impersonation grant")
)

// Identity is who an account is, as carried by a token or loaded from storage.
type Identity struct {
	AccountID string   `json:"accountId"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Roles     role.Set `json:"roles"`
	ShopID    string   `json:"shopId,omitempty"`
}

func (i Identity) IsPlatformAdmin() bool { return i.Roles.IsPlatformAdmin() }

// Principal is the per-request caller. Identity is the effective identity; while
// impersonating it is the target and Real is the platform admin behind it.
type Principal struct {
	Identity

	Real          Identity
	Impersonating bool

	// Invalidated marks a verified session whose account no longer exists.
	Invalidated bool
}

// RealIsPlatformAdmin reports whether the underlying session belongs to a platform admin,
// independent of any active impersonation.
func (p Principal) RealIsPlatformAdmin() bool { return p.Real.IsPlatformAdmin() }

type ctxKey int

const ctxPrincipal ctxKey = iota

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxPrincipal, p)
}

// PrincipalFrom returns the caller. ok is false when the request carries no valid session.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxPrincipal).(Principal)
	if !ok || p.AccountID == "" {
		return Principal{}, false
	}
	return p, true
}

// Authenticated returns the caller or the error every handler must check first.
func Authenticated(ctx context.Context) (Principal, error) {
	p, ok := PrincipalFrom(ctx)
	if !ok {
		return Principal{}, ErrUnauthenticated
	}
	if p.Invalidated || len(p.Roles) == 0 {
		return Principal{}, ErrSessionInvalidated
	}
	return p, nil
}

func AccountID(ctx context.Context) (string, error) {
	p, err := Authenticated(ctx)
	if err != nil {
		return "", err
	}
	return p.AccountID, nil
}

func Roles(ctx context.Context) (role.Set, error) {
	p, err := Authenticated(ctx)
	if err != nil {
		return nil, err
	}
	return p.Roles, nil
}
