package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Page renders the JSON context of a signed-in page. The browser UI is
// served elsewhere.
func (h Handlers) Page(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		me, ok := h.me(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"page": name, "me": me})
	}
}

// PublicPage renders a page that needs no session.
func PublicPage(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{"page": name}
		if token := c.Param("token"); token != "" {
			body["token"] = token
		}
		c.JSON(http.StatusOK, body)
	}
}

// Home sends the caller to the page of its highest-priority role.
func (h Handlers) Home(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	c.Redirect(http.StatusFound, p.Roles.Home())
}
