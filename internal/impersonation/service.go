package impersonation

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/jwc684/ptmaster-sub001/internal/account"
	"github.com/jwc684/ptmaster-sub001/internal/audit"
	"github.com/jwc684/ptmaster-sub001/internal/auth"
	"github.com/jwc684/ptmaster-sub001/internal/role"
	"github.com/jwc684/ptmaster-sub001/pkg/logger"
)

var (
	ErrInvalidArgument  = errors.New("impersonation: accountId or shopId required")
	ErrTargetNotFound   = errors.New("impersonation: target not found")
	ErrPlatformTarget   = errors.New("impersonation: platform accounts cannot be impersonated")
	ErrNotImpersonating = errors.New("impersonation: no active impersonation")
)

// Mode is how a grant is handed over.
type Mode string

const (
	// ModeImmediate sets the grant cookie in the issuing response.
	ModeImmediate Mode = "immediate"
	// ModeURL returns a redemption link, e.g. for a new browser tab.
	ModeURL Mode = "url"
)

// RedeemPath is the page that exchanges a grant for the impersonation cookie.
const RedeemPath = "/impersonate"

type Accounts interface {
	Get(ctx context.Context, id string) (account.Account, error)
	FirstAdmin(ctx context.Context, shopID string) (account.Account, error)
}

type Auditor interface {
	LogImpersonationStart(ctx context.Context, actor audit.Actor, targetID, targetShopID, mode string) error
	LogImpersonationStop(ctx context.Context, actor audit.Actor, targetID, targetShopID string) error
}

// Service drives the grant lifecycle: Idle, Granted (token issued), Active
// (cookie layered on the admin session) and Ended (cookie removed or expired).
type Service struct {
	tokens   *auth.Manager
	accounts Accounts
	audit    Auditor
	baseURL  string
	clock    func() time.Time
}

func NewService(tokens *auth.Manager, accounts Accounts, auditor Auditor, baseURL string) *Service {
	return &Service{
		tokens:   tokens,
		accounts: accounts,
		audit:    auditor,
		baseURL:  strings.TrimRight(baseURL, "/"),
		clock:    time.Now,
	}
}

// WithClock overrides the time source (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.clock = now
	return s
}

type StartInput struct {
	AccountID string `json:"accountId"`
	ShopID    string `json:"shopId"`
	Mode      Mode   `json:"mode"`
}

type Started struct {
	Grant auth.Grant
	Mode  Mode
	// URL is set in ModeURL.
	URL string
}

// Start issues a grant for a target account, or for the first ADMIN of a shop.
// Only a real platform admin may start, and never against a platform account.
func (s *Service) Start(ctx context.Context, p auth.Principal, in StartInput) (Started, error) {
	if !p.RealIsPlatformAdmin() {
		return Started{}, auth.ErrForbidden
	}
	if in.Mode == "" {
		in.Mode = ModeImmediate
	}
	if in.Mode != ModeImmediate && in.Mode != ModeURL {
		return Started{}, ErrInvalidArgument
	}
	if (in.AccountID == "") == (in.ShopID == "") {
		return Started{}, ErrInvalidArgument
	}

	target, err := s.target(ctx, in)
	if err != nil {
		return Started{}, err
	}
	if target.Roles.Has(role.SuperAdmin) {
		return Started{}, ErrPlatformTarget
	}

	grant, err := s.tokens.IssueImpersonation(s.clock(), p.Real.AccountID, target.Identity())
	if err != nil {
		return Started{}, err
	}

	out := Started{Grant: grant, Mode: in.Mode}
	if in.Mode == ModeURL {
		out.URL = s.baseURL + RedeemPath + "?token=" + url.QueryEscape(grant.Token)
	}

	if err := s.audit.LogImpersonationStart(ctx, actorOf(p), target.ID, target.ShopID, string(in.Mode)); err != nil {
		logger.From(ctx).Error("audit impersonation start failed", "target_id", target.ID, "err", err)
	}
	return out, nil
}

func (s *Service) target(ctx context.Context, in StartInput) (account.Account, error) {
	var (
		a   account.Account
		err error
	)
	if in.AccountID != "" {
		a, err = s.accounts.Get(ctx, in.AccountID)
	} else {
		a, err = s.accounts.FirstAdmin(ctx, in.ShopID)
	}
	if errors.Is(err, account.ErrNotFound) {
		return account.Account{}, ErrTargetNotFound
	}
	return a, err
}

// Redeem validates a grant presented by URL. The caller's own session must be
// the platform admin that issued it; anything else is an invalid grant and the
// caller's session is left untouched.
func (s *Service) Redeem(ctx context.Context, token string) (auth.Grant, error) {
	g, err := s.tokens.VerifyImpersonation(token, s.clock())
	if err != nil {
		return auth.Grant{}, err
	}
	p, err := auth.Authenticated(ctx)
	if err != nil {
		return auth.Grant{}, auth.ErrInvalidGrant
	}
	if !p.RealIsPlatformAdmin() || p.Real.AccountID != g.IssuerID {
		return auth.Grant{}, auth.ErrInvalidGrant
	}
	return g, nil
}

// Stop ends an active impersonation and records who ended it and for whom.
// The caller removes the grant cookie regardless of the audit outcome.
func (s *Service) Stop(ctx context.Context, p auth.Principal) error {
	if !p.Impersonating || !p.RealIsPlatformAdmin() {
		return ErrNotImpersonating
	}
	return s.audit.LogImpersonationStop(ctx, actorOf(p), p.AccountID, p.ShopID)
}

// actorOf names the real account behind p.
func actorOf(p auth.Principal) audit.Actor {
	return audit.Actor{ID: p.Real.AccountID, Role: string(p.Real.Roles.Primary())}
}
