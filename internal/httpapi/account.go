package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwc684/ptmaster-sub001/internal/account"
	"github.com/jwc684/ptmaster-sub001/internal/audit"
	"github.com/jwc684/ptmaster-sub001/internal/auth"
	"github.com/jwc684/ptmaster-sub001/internal/impersonation"
	"github.com/jwc684/ptmaster-sub001/internal/tenancy"
	"github.com/jwc684/ptmaster-sub001/pkg/logger"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials, sets the session cookie and returns the token
// for programmatic clients.
func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and password required")
		return
	}
	ctx := c.Request.Context()
	a, err := h.Accounts.Login(ctx, req.Email, req.Password, c.ClientIP())
	if err != nil {
		writeError(c, err)
		return
	}
	token, err := h.Tokens.IssueSession(h.now(), a.Identity())
	if err != nil {
		writeError(c, err)
		return
	}
	h.Cookies.SetSession(c, token)

	actor := audit.Actor{ID: a.ID, Role: string(a.Roles.Primary())}
	if err := h.Audit.LogLogin(ctx, actor, a.ShopID); err != nil {
		logger.FromGin(c).Error("audit login failed", "account_id", a.ID, "err", err)
	}
	c.JSON(http.StatusOK, gin.H{"account": a, "home": a.Roles.Home(), "token": token})
}

// Signup registers a MEMBER. The caller logs in afterwards.
func (h Handlers) Signup(c *gin.Context) {
	var req account.SignupInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	a, err := h.Accounts.Signup(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"account": a})
}

// Logout clears every auth cookie. An active impersonation is closed in the
// access log first.
func (h Handlers) Logout(c *gin.Context) {
	if p, err := auth.Authenticated(c.Request.Context()); err == nil && p.Impersonating {
		if err := h.Impersonation.Stop(c.Request.Context(), p); err != nil && !errors.Is(err, impersonation.ErrNotImpersonating) {
			logger.FromGin(c).Error("audit impersonation stop failed", "err", err)
		}
	}
	h.Cookies.ClearAll(c)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type meResponse struct {
	auth.Identity
	Home            string         `json:"home"`
	EffectiveShopID string         `json:"effectiveShopId,omitempty"`
	ShopOverridden  bool           `json:"shopOverridden"`
	Impersonating   bool           `json:"impersonating"`
	RealAccount     *auth.Identity `json:"realAccount,omitempty"`
}

func (h Handlers) me(c *gin.Context) (meResponse, bool) {
	p, ok := h.principal(c)
	if !ok {
		return meResponse{}, false
	}
	out := meResponse{
		Identity:      p.Identity,
		Home:          p.Roles.Home(),
		Impersonating: p.Impersonating,
	}
	if p.Impersonating {
		realAccount := p.Real
		out.RealAccount = &realAccount
	}
	sc, err := h.Tenancy.Resolve(c.Request.Context(), c.Request, tenancy.Trusted)
	switch {
	case err == nil:
		out.EffectiveShopID, out.ShopOverridden = sc.ShopID, sc.Overridden
	case errors.Is(err, tenancy.ErrShopNotFound):
		// A stale override cookie; report the session shop.
		out.EffectiveShopID = p.ShopID
	default:
		writeError(c, err)
		return meResponse{}, false
	}
	return out, true
}

func (h Handlers) Me(c *gin.Context) {
	out, ok := h.me(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) ActiveShops(c *gin.Context) {
	shops, err := h.Shops.ListActive(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shops": shops})
}

type selectShopRequest struct {
	ShopID string `json:"shopId" binding:"required"`
}

// SelectShop binds a pending account to a shop and reissues its session so the
// new shop takes effect immediately.
func (h Handlers) SelectShop(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	if p.Impersonating {
		writeError(c, auth.ErrForbidden)
		return
	}
	var req selectShopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "shopId required")
		return
	}
	a, err := h.Accounts.SelectShop(c.Request.Context(), p.AccountID, req.ShopID)
	if err != nil {
		writeError(c, err)
		return
	}
	token, err := h.Tokens.IssueSession(h.now(), a.Identity())
	if err != nil {
		writeError(c, err)
		return
	}
	h.Cookies.SetSession(c, token)
	c.JSON(http.StatusOK, gin.H{"account": a, "home": a.Roles.Home()})
}
