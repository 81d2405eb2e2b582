package httpapi

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/jwc684/ptmaster-sub001/internal/invite"
	"github.com/jwc684/ptmaster-sub001/internal/payment"
	"github.com/jwc684/ptmaster-sub001/internal/rbac"
	"github.com/jwc684/ptmaster-sub001/internal/reporting"
	"github.com/jwc684/ptmaster-sub001/internal/role"
	"github.com/jwc684/ptmaster-sub001/internal/schedule"
	"github.com/jwc684/ptmaster-sub001/internal/tenancy"
)

// --- Invites ---

func (h Handlers) CreateInvite(c *gin.Context) {
	sc, ok := h.shopContext(c, tenancy.Verified)
	if !ok {
		return
	}
	var req invite.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	inv, err := h.Invites.Create(c.Request.Context(), sc, req)
	if err != nil {
		writeError(c, err)
		return
	}
	link := h.BaseURL + "/invite/" + url.PathEscape(inv.Token)
	c.JSON(http.StatusCreated, gin.H{"invite": inv, "url": link})
}

func (h Handlers) ListInvites(c *gin.Context) {
	if _, err := rbac.Check(c.Request.Context(), role.Admin, role.SuperAdmin); err != nil {
		writeError(c, err)
		return
	}
	sc, ok := h.shopContext(c, tenancy.Trusted)
	if !ok {
		return
	}
	if !sc.IsPlatformAdmin {
		if _, err := sc.RequireShop(); err != nil {
			writeError(c, err)
			return
		}
	}
	invites, err := h.Invites.List(c.Request.Context(), sc.Filter())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invites": invites})
}

// RedeemInvite is public: the token is the credential.
func (h Handlers) RedeemInvite(c *gin.Context) {
	var req invite.RedeemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	a, err := h.Invites.Redeem(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"account": a, "home": a.Roles.Home()})
}

// --- Payments ---

func (h Handlers) RecordPayment(c *gin.Context) {
	sc, ok := h.shopContext(c, tenancy.Verified)
	if !ok {
		return
	}
	var req payment.RecordInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	p, err := h.Payments.Record(c.Request.Context(), sc, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"payment": p})
}

// ListPayments serves both /api/payments and the member's own view; the
// service narrows members to their own rows.
func (h Handlers) ListPayments(c *gin.Context) {
	sc, ok := h.shopContext(c, tenancy.Trusted)
	if !ok {
		return
	}
	out, err := h.Payments.List(c.Request.Context(), sc, c.Query("memberId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": out})
}

// --- Schedules ---

func (h Handlers) CreateSchedule(c *gin.Context) {
	sc, ok := h.shopContext(c, tenancy.Verified)
	if !ok {
		return
	}
	var req schedule.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	s, err := h.Schedules.Create(c.Request.Context(), sc, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"schedule": s})
}

func (h Handlers) AttendSchedule(c *gin.Context) {
	sc, ok := h.shopContext(c, tenancy.Verified)
	if !ok {
		return
	}
	s, err := h.Schedules.Attend(c.Request.Context(), sc, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedule": s})
}

func (h Handlers) DeleteSchedule(c *gin.Context) {
	sc, ok := h.shopContext(c, tenancy.Verified)
	if !ok {
		return
	}
	if err := h.Schedules.Delete(c.Request.Context(), sc, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h Handlers) ListSchedules(c *gin.Context) {
	sc, ok := h.shopContext(c, tenancy.Trusted)
	if !ok {
		return
	}
	from, to, ok := h.queryRange(c)
	if !ok {
		return
	}
	out, err := h.Schedules.List(c.Request.Context(), sc, from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedules": out})
}

// --- Members ---

// MyMembers lists the members assigned to the calling trainer.
func (h Handlers) MyMembers(c *gin.Context) {
	if _, err := rbac.Check(c.Request.Context(), role.Trainer); err != nil {
		writeError(c, err)
		return
	}
	sc, ok := h.shopContext(c, tenancy.Trusted)
	if !ok {
		return
	}
	out, err := h.Accounts.TrainerMembers(c.Request.Context(), sc.ShopID, sc.AccountID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": out})
}

func (h Handlers) AdminMembers(c *gin.Context) {
	if _, err := rbac.Check(c.Request.Context(), role.Admin, role.SuperAdmin); err != nil {
		writeError(c, err)
		return
	}
	sc, ok := h.shopContext(c, tenancy.Trusted)
	if !ok {
		return
	}
	if !sc.IsPlatformAdmin {
		if _, err := sc.RequireShop(); err != nil {
			writeError(c, err)
			return
		}
	}
	out, err := h.Accounts.Members(c.Request.Context(), sc.Filter())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": out})
}

type assignTrainerRequest struct {
	TrainerID string `json:"trainerId" binding:"required"`
}

func (h Handlers) AssignTrainer(c *gin.Context) {
	if _, err := rbac.Check(c.Request.Context(), role.Admin, role.SuperAdmin); err != nil {
		writeError(c, err)
		return
	}
	sc, ok := h.shopContext(c, tenancy.Verified)
	if !ok {
		return
	}
	var req assignTrainerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "trainerId required")
		return
	}
	if err := h.Accounts.AssignTrainer(c.Request.Context(), sc.ShopID, c.Param("id"), req.TrainerID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// --- Reports ---

func (h Handlers) ShopSummary(c *gin.Context) {
	sc, ok := h.shopContext(c, tenancy.Trusted)
	if !ok {
		return
	}
	from, to, ok := h.queryRange(c)
	if !ok {
		return
	}
	out, err := h.Reports.Summary(c.Request.Context(), sc, reporting.TimeRange{From: from, To: to})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
