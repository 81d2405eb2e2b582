package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/jwc684/ptmaster-sub001/internal/rbac"
	"github.com/jwc684/ptmaster-sub001/internal/role"
)

// Register wires every page and API route. The edge gate has already run; the
// role groups below repeat the coarse check for direct API calls and handlers
// still do their own per-operation checks.
func (h Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Home)
	r.GET("/login", PublicPage("login"))
	r.GET("/signup", PublicPage("signup"))
	r.GET("/invite/:token", PublicPage("invite"))
	r.GET("/impersonate", h.RedeemImpersonation)
	r.GET("/select-shop", h.Page("select-shop"))
	r.GET("/super-admin", h.Page("super-admin"))
	r.GET("/admin", h.Page("admin"))
	r.GET("/trainer", h.Page("trainer"))
	r.GET("/my-members", h.Page("my-members"))
	r.GET("/member", h.Page("member"))

	api := r.Group("/api")
	{
		api.POST("/auth/login", h.Login)
		api.POST("/auth/signup", h.Signup)
		api.POST("/auth/logout", h.Logout)
		api.GET("/shops/active", h.ActiveShops)
		api.POST("/invites/redeem", h.RedeemInvite)

		api.GET("/me", h.Me)
		api.POST("/account/select-shop", h.SelectShop)

		api.POST("/payments", h.RecordPayment)
		api.GET("/payments", h.ListPayments)

		api.POST("/schedules", h.CreateSchedule)
		api.GET("/schedules", h.ListSchedules)
		api.POST("/schedules/:id/attend", h.AttendSchedule)
		api.DELETE("/schedules/:id", h.DeleteSchedule)

		api.GET("/my-members", rbac.RequireAnyRole(role.Trainer), h.MyMembers)

		api.GET("/member/payments", h.ListPayments)
		api.GET("/member/schedules", h.ListSchedules)

		admin := api.Group("/admin", rbac.RequireAnyRole(role.Admin, role.SuperAdmin))
		admin.POST("/invites", h.CreateInvite)
		admin.GET("/invites", h.ListInvites)
		admin.GET("/members", h.AdminMembers)
		admin.PUT("/members/:id/trainer", h.AssignTrainer)
		admin.GET("/reports/summary", h.ShopSummary)

		// Real identity, so impersonation can still be stopped.
		platform := api.Group("/super-admin", rbac.RequirePlatformAdmin())
		platform.GET("/shops", h.PlatformShops)
		platform.POST("/shops", h.CreateShop)
		platform.POST("/shop-context", h.SetShopContext)
		platform.DELETE("/shop-context", h.ClearShopContext)
		platform.GET("/access-logs", h.AccessLogs)
		platform.POST("/impersonate", h.StartImpersonation)
		platform.POST("/impersonate/stop", h.StopImpersonation)
	}
}
