package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	CookieSession       = "pt_session"
	CookieImpersonation = "pt_impersonation"
	CookieShopOverride  = "pt_shop_override"

	// HeaderShopOverride lets a platform admin pick the effective shop on API calls.
	HeaderShopOverride = "X-Shop-Id"

	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
)

// Cookies writes the credential cookies. All of them are httpOnly and path-wide.
type Cookies struct {
	Secure           bool
	SessionTTL       time.Duration
	ImpersonationTTL time.Duration
}

func (k Cookies) SetSession(c *gin.Context, token string) {
	k.set(c, CookieSession, token, k.SessionTTL)
}

func (k Cookies) ClearSession(c *gin.Context) { k.clear(c, CookieSession) }

func (k Cookies) SetImpersonation(c *gin.Context, token string) {
	k.set(c, CookieImpersonation, token, k.ImpersonationTTL)
}

func (k Cookies) ClearImpersonation(c *gin.Context) { k.clear(c, CookieImpersonation) }

// SetShopOverride lives as long as the session; the override is only honored for platform admins.
func (k Cookies) SetShopOverride(c *gin.Context, shopID string) {
	k.set(c, CookieShopOverride, shopID, k.SessionTTL)
}

func (k Cookies) ClearShopOverride(c *gin.Context) { k.clear(c, CookieShopOverride) }

// ClearAll removes every credential cookie (logout, invalidated session).
func (k Cookies) ClearAll(c *gin.Context) {
	k.ClearSession(c)
	k.ClearImpersonation(c)
	k.ClearShopOverride(c)
}

func (k Cookies) set(c *gin.Context, name, value string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, int(ttl.Seconds()), "/", "", k.Secure, true)
}

func (k Cookies) clear(c *gin.Context, name string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, "", -1, "/", "", k.Secure, true)
}

// IsAPIPath separates JSON endpoints (401/403 bodies) from pages (redirects).
func IsAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}

// bearerToken returns the Authorization bearer value, if any.
func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get(authorizationHeader))
	if !strings.HasPrefix(raw, bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(raw, bearerPrefix))
}

func cookieValue(r *http.Request, name string) string {
	ck, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return ck.Value
}
