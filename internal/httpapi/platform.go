package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwc684/ptmaster-sub001/internal/auth"
	"github.com/jwc684/ptmaster-sub001/internal/impersonation"
	"github.com/jwc684/ptmaster-sub001/internal/reporting"
	"github.com/jwc684/ptmaster-sub001/internal/rbac"
	"github.com/jwc684/ptmaster-sub001/internal/shop"
	"github.com/jwc684/ptmaster-sub001/internal/tenancy"
	"github.com/jwc684/ptmaster-sub001/pkg/logger"
)

// platformAdmin returns the caller when its effective roles include
// SUPER_ADMIN.
func (h Handlers) platformAdmin(c *gin.Context) (auth.Principal, bool) {
	p, ok := h.principal(c)
	if !ok {
		return auth.Principal{}, false
	}
	if !p.IsPlatformAdmin() {
		writeError(c, auth.ErrForbidden)
		return auth.Principal{}, false
	}
	return p, true
}

type shopContextRequest struct {
	ShopID string `json:"shopId" binding:"required"`
}

// SetShopContext stores the platform admin's shop override after checking
// the shop exists.
func (h Handlers) SetShopContext(c *gin.Context) {
	p, ok := h.platformAdmin(c)
	if !ok {
		return
	}
	var req shopContextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "shopId required")
		return
	}
	ctx := c.Request.Context()
	sh, err := h.Shops.Get(ctx, req.ShopID)
	if err != nil {
		if errors.Is(err, shop.ErrNotFound) {
			writeError(c, tenancy.ErrShopNotFound)
			return
		}
		writeError(c, err)
		return
	}
	h.Cookies.SetShopOverride(c, sh.ID)
	if err := h.Audit.LogShopOverride(ctx, actorOf(p), sh.ID); err != nil {
		logger.FromGin(c).Error("audit shop override failed", "shop_id", sh.ID, "err", err)
	}
	c.JSON(http.StatusOK, gin.H{"shop": sh})
}

func (h Handlers) ClearShopContext(c *gin.Context) {
	p, ok := h.platformAdmin(c)
	if !ok {
		return
	}
	h.Cookies.ClearShopOverride(c)
	if err := h.Audit.LogShopOverride(c.Request.Context(), actorOf(p), ""); err != nil {
		logger.FromGin(c).Error("audit shop override failed", "err", err)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type shopView struct {
	shop.Shop
	Stats *reporting.ShopSummary `json:"stats,omitempty"`
}

// PlatformShops lists shops with their activity summary. An override narrows
// the list to one shop.
func (h Handlers) PlatformShops(c *gin.Context) {
	if _, ok := h.platformAdmin(c); !ok {
		return
	}
	sc, ok := h.shopContext(c, tenancy.Trusted)
	if !ok {
		return
	}
	from, to, ok := h.queryRange(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	shops, err := h.Shops.List(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	sum, err := h.Reports.Summary(ctx, sc, reporting.TimeRange{From: from, To: to})
	if err != nil {
		writeError(c, err)
		return
	}
	stats := make(map[string]reporting.ShopSummary, len(sum.Shops))
	for _, s := range sum.Shops {
		stats[s.ShopID] = s
	}

	f := sc.Filter()
	out := make([]shopView, 0, len(shops))
	for _, sh := range shops {
		if !f.Matches(sh.ID) {
			continue
		}
		v := shopView{Shop: sh}
		if s, ok := stats[sh.ID]; ok {
			v.Stats = &s
		}
		out = append(out, v)
	}
	c.JSON(http.StatusOK, gin.H{"shops": out, "total": sum.Total, "range": sum.Range})
}

func (h Handlers) CreateShop(c *gin.Context) {
	if _, ok := h.platformAdmin(c); !ok {
		return
	}
	var req shop.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	sh, err := h.Shops.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"shop": sh})
}

func (h Handlers) AccessLogs(c *gin.Context) {
	if _, ok := h.platformAdmin(c); !ok {
		return
	}
	sc, ok := h.shopContext(c, tenancy.Trusted)
	if !ok {
		return
	}
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			badRequest(c, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	entries, err := h.Audit.List(c.Request.Context(), sc.Filter(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// StartImpersonation issues a grant. Immediate mode sets the grant cookie on
// this response; URL mode returns a one-hour link for the same admin session.
func (h Handlers) StartImpersonation(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req impersonation.StartInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	started, err := h.Impersonation.Start(c.Request.Context(), p, req)
	if err != nil {
		writeError(c, err)
		return
	}
	body := gin.H{
		"mode":      started.Mode,
		"target":    started.Grant.Target,
		"expiresAt": started.Grant.ExpiresAt,
	}
	switch started.Mode {
	case impersonation.ModeURL:
		body["url"] = started.URL
	default:
		h.Cookies.SetImpersonation(c, started.Grant.Token)
		body["home"] = started.Grant.Target.Roles.Home()
	}
	c.JSON(http.StatusOK, body)
}

// RedeemImpersonation handles GET /impersonate?token=. Invalid grants send the
// browser to the login page without touching the current session.
func (h Handlers) RedeemImpersonation(c *gin.Context) {
	g, err := h.Impersonation.Redeem(c.Request.Context(), c.Query("token"))
	if err != nil {
		logger.FromGin(c).Info("impersonation redeem rejected", "err", err)
		c.Redirect(http.StatusFound, rbac.LoginPath)
		return
	}
	h.Cookies.SetImpersonation(c, g.Token)
	c.Redirect(http.StatusFound, g.Target.Roles.Home())
}

// StopImpersonation always removes the grant cookie; the audit entry is best
// effort.
func (h Handlers) StopImpersonation(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	h.Cookies.ClearImpersonation(c)
	err := h.Impersonation.Stop(c.Request.Context(), p)
	switch {
	case errors.Is(err, impersonation.ErrNotImpersonating):
		writeError(c, err)
		return
	case err != nil:
		logger.FromGin(c).Error("audit impersonation stop failed", "target_id", p.AccountID, "err", err)
	}
	c.JSON(http.StatusOK, gin.H{"home": p.Real.Roles.Home()})
}
