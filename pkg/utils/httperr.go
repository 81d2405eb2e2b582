package utils

import "github.com/gin-gonic/gin"

// Error codes shared by every JSON endpoint.
const (
	CodeUnauthenticated = "unauthenticated"
	CodeForbidden       = "forbidden"
	CodeShopRequired    = "shop_required"
	CodeInvalidArgument = "invalid_argument"
	CodeNotFound        = "not_found"
	CodeConflict        = "conflict"
	CodeRateLimited     = "rate_limited"
	CodeInternal        = "internal"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AbortError writes the JSON error envelope {"error":{"code","message"}} and aborts.
func AbortError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": errorBody{Code: code, Message: message}})
}
