package rbac

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwc684/ptmaster-sub001/internal/auth"
	"github.com/jwc684/ptmaster-sub001/internal/role"
	"github.com/jwc684/ptmaster-sub001/pkg/utils"
)

// Check is the handler-level role check: the caller must hold at least one of
// allowed, regardless of what else it holds.
func Check(ctx context.Context, allowed ...role.Role) (auth.Principal, error) {
	p, err := auth.Authenticated(ctx)
	if err != nil {
		return auth.Principal{}, err
	}
	if !p.Roles.HasAny(allowed...) {
		return auth.Principal{}, auth.ErrForbidden
	}
	return p, nil
}

// RequireAnyRole is Check as gin middleware for API groups.
func RequireAnyRole(allowed ...role.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := Check(c.Request.Context(), allowed...); err != nil {
			AbortAuthError(c, err)
			return
		}
		c.Next()
	}
}

// RequirePlatformAdmin guards actions that act on behalf of the real platform
// admin, which stays true while impersonating.
func RequirePlatformAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := auth.Authenticated(c.Request.Context())
		if err != nil {
			AbortAuthError(c, err)
			return
		}
		if !p.RealIsPlatformAdmin() {
			AbortAuthError(c, auth.ErrForbidden)
			return
		}
		c.Next()
	}
}

// AbortAuthError maps auth errors onto the JSON envelope.
func AbortAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated), errors.Is(err, auth.ErrSessionInvalidated):
		utils.AbortError(c, http.StatusUnauthorized, utils.CodeUnauthenticated, "authentication required")
	default:
		utils.AbortError(c, http.StatusForbidden, utils.CodeForbidden, "forbidden")
	}
}
