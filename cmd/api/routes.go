package main

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/jwc684/ptmaster-sub001/internal/account"
	"github.com/jwc684/ptmaster-sub001/internal/audit"
	"github.com/jwc684/ptmaster-sub001/internal/auth"
	"github.com/jwc684/ptmaster-sub001/internal/config"
	"github.com/jwc684/ptmaster-sub001/internal/httpapi"
	"github.com/jwc684/ptmaster-sub001/internal/impersonation"
	"github.com/jwc684/ptmaster-sub001/internal/invite"
	"github.com/jwc684/ptmaster-sub001/internal/payment"
	"github.com/jwc684/ptmaster-sub001/internal/rbac"
	"github.com/jwc684/ptmaster-sub001/internal/reporting"
	"github.com/jwc684/ptmaster-sub001/internal/schedule"
	"github.com/jwc684/ptmaster-sub001/internal/shop"
	"github.com/jwc684/ptmaster-sub001/internal/tenancy"
	"github.com/jwc684/ptmaster-sub001/pkg/logger"
	"github.com/jwc684/ptmaster-sub001/pkg/utils"
)

// newRouter builds services and wires the middleware chain:
// logging, client IP, session resolution, edge gate, then handlers.
// Keep this file free of business logic.
func newRouter(cfg config.Config, log *slog.Logger, db *sql.DB, rdb *redis.Client) (*gin.Engine, error) {
	tokens, err := auth.NewManager(cfg.Auth)
	if err != nil {
		return nil, err
	}
	table, err := rbac.NewRouteTable()
	if err != nil {
		return nil, err
	}
	cookies := auth.Cookies{
		Secure:           cfg.Auth.CookieSecure,
		SessionTTL:       tokens.SessionTTL(),
		ImpersonationTTL: tokens.ImpersonationTTL(),
	}

	shops := shop.NewService(shop.NewPostgresRepo(db))
	limiter := account.NewRedisLimiter(rdb, cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindow)
	accounts := account.NewService(account.NewPostgresRepo(db), shops, limiter)
	auditor := audit.NewService(audit.NewPostgresRepo(db))

	h := httpapi.Handlers{
		Tokens:        tokens,
		Cookies:       cookies,
		Tenancy:       tenancy.NewResolver(shops),
		Accounts:      accounts,
		Shops:         shops,
		Audit:         auditor,
		Impersonation: impersonation.NewService(tokens, accounts, auditor, cfg.App.BaseURL),
		Invites:       invite.NewService(invite.NewPostgresRepo(db), accounts),
		Payments:      payment.NewService(payment.NewPostgresRepo(db)),
		Schedules:     schedule.NewService(schedule.NewPostgresRepo(db), accounts),
		Reports:       reporting.NewService(reporting.NewPostgresRepo(db)),
		BaseURL:       cfg.App.BaseURL,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	// Probes sit in front of the session chain.
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), db, 2*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	app := r.Group("/")
	app.Use(httpapi.ClientIP())
	app.Use(auth.NewResolver(tokens, cookies, accounts).Middleware())
	app.Use(rbac.Gate(table, cookies))
	h.Register(app)

	return r, nil
}
