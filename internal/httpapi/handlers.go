package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwc684/ptmaster-sub001/internal/account"
	"github.com/jwc684/ptmaster-sub001/internal/audit"
	"github.com/jwc684/ptmaster-sub001/internal/auth"
	"github.com/jwc684/ptmaster-sub001/internal/impersonation"
	"github.com/jwc684/ptmaster-sub001/internal/invite"
	"github.com/jwc684/ptmaster-sub001/internal/payment"
	"github.com/jwc684/ptmaster-sub001/internal/reporting"
	"github.com/jwc684/ptmaster-sub001/internal/schedule"
	"github.com/jwc684/ptmaster-sub001/internal/shop"
	"github.com/jwc684/ptmaster-sub001/internal/tenancy"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse input, resolve the shop context, call a service,
// return JSON.
type Handlers struct {
	Tokens        *auth.Manager
	Cookies       auth.Cookies
	Tenancy       *tenancy.Resolver
	Accounts      *account.Service
	Shops         *shop.Service
	Audit         *audit.Service
	Impersonation *impersonation.Service
	Invites       *invite.Service
	Payments      *payment.Service
	Schedules     *schedule.Service
	Reports       *reporting.Service

	// BaseURL prefixes links handed out in responses (invite URLs).
	BaseURL string
	Clock   func() time.Time
}

func (h Handlers) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now()
}

// principal returns the authenticated caller or writes the error.
func (h Handlers) principal(c *gin.Context) (auth.Principal, bool) {
	p, err := auth.Authenticated(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return auth.Principal{}, false
	}
	return p, true
}

// shopContext resolves the effective shop. Reads use trusted mode; anything
// that persists the shop id uses verified mode.
func (h Handlers) shopContext(c *gin.Context, mode tenancy.Mode) (tenancy.Context, bool) {
	sc, err := h.Tenancy.Resolve(c.Request.Context(), c.Request, mode)
	if err != nil {
		writeError(c, err)
		return tenancy.Context{}, false
	}
	return sc, true
}

// queryRange reads from/to (RFC 3339) with a default of the last 30 days.
func (h Handlers) queryRange(c *gin.Context) (time.Time, time.Time, bool) {
	to := h.now().UTC()
	from := to.AddDate(0, 0, -30)
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			badRequest(c, "from must be RFC 3339")
			return time.Time{}, time.Time{}, false
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			badRequest(c, "to must be RFC 3339")
			return time.Time{}, time.Time{}, false
		}
		to = t
	}
	return from, to, true
}

func actorOf(p auth.Principal) audit.Actor {
	return audit.Actor{ID: p.Real.AccountID, Role: string(p.Real.Roles.Primary())}
}
