package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/jwc684/ptmaster-sub001/internal/audit"
)

// ClientIP stores the caller address on the request context for access log
// entries.
func ClientIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := audit.WithClientIP(c.Request.Context(), c.ClientIP())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
