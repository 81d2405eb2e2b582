package logger

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-Id"

	ginLoggerKey = "logger"

	// Keys set by the auth layer; read here so request summaries name the caller.
	GinAccountIDKey      = "account_id"
	GinShopIDKey         = "shop_id"
	GinImpersonatorIDKey = "impersonator_id"
)

// Middleware injects request_id, stores a request-scoped logger and logs one summary per request.
func Middleware(l *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rid := c.GetHeader(HeaderRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Writer.Header().Set(HeaderRequestID, rid)

		reqLogger := l.With("request_id", rid)
		c.Set(ginLoggerKey, reqLogger)
		c.Request = c.Request.WithContext(With(c.Request.Context(), reqLogger))

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration_ms", float64(time.Since(start).Milliseconds()),
			"client_ip", c.ClientIP(),
		}
		if v := c.GetString(GinAccountIDKey); v != "" {
			attrs = append(attrs, "account_id", v)
		}
		if v := c.GetString(GinShopIDKey); v != "" {
			attrs = append(attrs, "shop_id", v)
		}
		if v := c.GetString(GinImpersonatorIDKey); v != "" {
			attrs = append(attrs, "impersonator_id", v)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
			reqLogger.Error("request", attrs...)
			return
		}
		reqLogger.Info("request", attrs...)
	}
}

// FromGin pulls the request-scoped logger from Gin context.
func FromGin(c *gin.Context) *slog.Logger {
	if v, ok := c.Get(ginLoggerKey); ok {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}
