package rbac

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwc684/ptmaster-sub001/internal/auth"
	"github.com/jwc684/ptmaster-sub001/pkg/logger"
	"github.com/jwc684/ptmaster-sub001/pkg/utils"
)

const LoginPath = "/login"

// Gate is the coarse edge check. It runs after the session resolver and
// before any handler; handlers still do their own fine-grained checks.
//
// Pages are redirected (login, select-shop or the caller's home), API calls
// get 401/403 JSON.
func Gate(table *RouteTable, cookies auth.Cookies) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := CleanPath(c.Request.URL.Path)
		api := auth.IsAPIPath(p)

		if table.IsPublic(p) {
			gateDecisions.WithLabelValues(decisionPublic).Inc()
			c.Next()
			return
		}

		principal, err := auth.Authenticated(c.Request.Context())
		if err != nil {
			if errors.Is(err, auth.ErrSessionInvalidated) {
				gateDecisions.WithLabelValues(decisionInvalidated).Inc()
				logger.FromGin(c).Info("session invalidated", "path", p)
				cookies.ClearAll(c)
			} else {
				gateDecisions.WithLabelValues(decisionUnauth).Inc()
			}
			deny(c, api, http.StatusUnauthorized, utils.CodeUnauthenticated, "authentication required", LoginPath)
			return
		}

		if principal.Impersonating && principal.RealIsPlatformAdmin() && HasPrefixSegment(p, ImpersonationControlPrefix) {
			gateDecisions.WithLabelValues(decisionImpersonating).Inc()
			c.Next()
			return
		}

		if !principal.IsPlatformAdmin() && principal.ShopID == "" && !isPendingRoute(p) {
			gateDecisions.WithLabelValues(decisionPendingShop).Inc()
			deny(c, api, http.StatusForbidden, utils.CodeShopRequired, "select a shop first", SelectShopPath)
			return
		}

		if !table.Allowed(principal.Roles, p) {
			gateDecisions.WithLabelValues(decisionForbidden).Inc()
			deny(c, api, http.StatusForbidden, utils.CodeForbidden, "forbidden", principal.Roles.Home())
			return
		}

		gateDecisions.WithLabelValues(decisionAllowed).Inc()
		c.Next()
	}
}

func deny(c *gin.Context, api bool, status int, code, message, redirect string) {
	if api {
		utils.AbortError(c, status, code, message)
		return
	}
	c.Redirect(http.StatusFound, redirect)
	c.Abort()
}
