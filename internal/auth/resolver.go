package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwc684/ptmaster-sub001/pkg/logger"
)

// AccountLookup loads the current identity of an account from storage.
// found is false when the account no longer exists.
type AccountLookup interface {
	LookupIdentity(ctx context.Context, accountID string) (id Identity, found bool, err error)
}

// Resolver turns request credentials into a Principal. It never rejects a
// request itself; the edge gate and handlers decide what an absent or
// invalidated principal means for their route.
type Resolver struct {
	tokens   *Manager
	cookies  Cookies
	accounts AccountLookup
	now      func() time.Time
}

func NewResolver(tokens *Manager, cookies Cookies, accounts AccountLookup) *Resolver {
	return &Resolver{tokens: tokens, cookies: cookies, accounts: accounts, now: time.Now}
}

// WithClock overrides the time source (tests).
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// Resolution is the outcome of resolving one request.
type Resolution struct {
	Principal Principal
	Found     bool

	// RefreshedSession is a re-issued session token to hand back to the browser.
	RefreshedSession string
	// DropImpersonation is set when a presented grant must be discarded.
	DropImpersonation bool
}

// Resolve reads the bearer header first, then the session cookie.
func (r *Resolver) Resolve(ctx context.Context, req *http.Request) Resolution {
	now := r.now()

	tok := bearerToken(req)
	fromCookie := false
	if tok == "" {
		tok = cookieValue(req, CookieSession)
		fromCookie = tok != ""
	}
	if tok == "" {
		sessionResolutions.WithLabelValues(outcomeAnonymous).Inc()
		return Resolution{}
	}

	claimed, issuedAt, err := r.tokens.VerifySession(tok, now)
	if err != nil {
		sessionResolutions.WithLabelValues(outcomeInvalid).Inc()
		logger.From(ctx).Debug("session rejected", "err", err)
		return Resolution{}
	}

	session, ok := r.current(ctx, claimed)
	if !ok {
		sessionResolutions.WithLabelValues(outcomeInvalidated).Inc()
		return Resolution{
			Principal: Principal{Identity: Identity{AccountID: claimed.AccountID}, Real: Identity{AccountID: claimed.AccountID}, Invalidated: true},
			Found:     true,
		}
	}
	sessionResolutions.WithLabelValues(outcomeOK).Inc()

	res := Resolution{Principal: Principal{Identity: session, Real: session}, Found: true}

	if fromCookie && r.tokens.NeedsRefresh(issuedAt, now) {
		fresh, err := r.tokens.IssueSession(now, session)
		if err != nil {
			logger.From(ctx).Error("session refresh failed", "account_id", session.AccountID, "err", err)
		} else {
			res.RefreshedSession = fresh
			sessionRefreshes.Inc()
		}
	}

	if raw := cookieValue(req, CookieImpersonation); raw != "" {
		target, ok := r.layer(ctx, raw, session, now)
		if ok {
			res.Principal.Identity = target
			res.Principal.Impersonating = true
		} else {
			res.DropImpersonation = true
		}
	}
	return res
}

// current refreshes a token identity from storage so role and shop changes take
// effect without re-login. A storage error keeps the token's view.
func (r *Resolver) current(ctx context.Context, claimed Identity) (Identity, bool) {
	if r.accounts == nil {
		return claimed, len(claimed.Roles) > 0
	}
	id, found, err := r.accounts.LookupIdentity(ctx, claimed.AccountID)
	if err != nil {
		logger.From(ctx).Warn("account lookup failed; using token claims", "account_id", claimed.AccountID, "err", err)
		return claimed, len(claimed.Roles) > 0
	}
	if !found || len(id.Roles) == 0 {
		return Identity{}, false
	}
	return id, true
}

// layer applies an impersonation grant on top of a real session. The grant is
// honored only for the platform admin that issued it, and only while valid.
func (r *Resolver) layer(ctx context.Context, raw string, session Identity, now time.Time) (Identity, bool) {
	if !session.IsPlatformAdmin() {
		impersonationLayered.WithLabelValues(outcomeIgnored).Inc()
		return Identity{}, false
	}
	g, err := r.tokens.VerifyImpersonation(raw, now)
	if err != nil {
		impersonationLayered.WithLabelValues(outcomeStale).Inc()
		return Identity{}, false
	}
	if g.IssuerID != session.AccountID {
		impersonationLayered.WithLabelValues(outcomeIgnored).Inc()
		logger.From(ctx).Warn("impersonation grant presented by another account", "account_id", session.AccountID, "issuer_id", g.IssuerID)
		return Identity{}, false
	}

	target, ok := r.current(ctx, g.Target)
	if !ok || target.IsPlatformAdmin() {
		impersonationLayered.WithLabelValues(outcomeIgnored).Inc()
		return Identity{}, false
	}
	impersonationLayered.WithLabelValues(outcomeActive).Inc()
	return target, true
}

// Middleware resolves the caller and stores it in the request context.
func (r *Resolver) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		res := r.Resolve(c.Request.Context(), c.Request)

		if res.RefreshedSession != "" {
			r.cookies.SetSession(c, res.RefreshedSession)
		}
		if res.DropImpersonation {
			r.cookies.ClearImpersonation(c)
		}
		if res.Found {
			c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), res.Principal))
			c.Set(logger.GinAccountIDKey, res.Principal.AccountID)
			if res.Principal.ShopID != "" {
				c.Set(logger.GinShopIDKey, res.Principal.ShopID)
			}
			if res.Principal.Impersonating {
				c.Set(logger.GinImpersonatorIDKey, res.Principal.Real.AccountID)
			}
		}
		c.Next()
	}
}

// FromGin is PrincipalFrom for a gin handler.
func FromGin(c *gin.Context) (Principal, bool) {
	return PrincipalFrom(c.Request.Context())
}
