package rbac

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/jwc684/ptmaster-sub001/internal/auth"
	"github.com/jwc684/ptmaster-sub001/internal/role"
)

func TestCheck_AnyHeldRoleSuffices(t *testing.T) {
	ctx := auth.WithPrincipal(context.Background(), *principal(role.Set{role.Admin, role.Trainer}, "shop-1"))
	if _, err := Check(ctx, role.Trainer); err != nil {
		t.Fatalf("expected trainer check to pass, got %v", err)
	}
	if _, err := Check(ctx, role.Member); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCheck_Unauthenticated(t *testing.T) {
	if _, err := Check(context.Background(), role.Admin); !errors.Is(err, auth.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestRequirePlatformAdmin_UsesRealIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	realID := auth.Identity{AccountID: "pa-1", Roles: role.Set{role.SuperAdmin}}
	target := auth.Identity{AccountID: "adm-1", Roles: role.Set{role.Admin}, ShopID: "shop-1"}

	cases := []struct {
		name string
		p    auth.Principal
		want int
	}{
		{"impersonating admin", auth.Principal{Identity: target, Real: realID, Impersonating: true}, http.StatusOK},
		{"shop admin", auth.Principal{Identity: target, Real: target}, http.StatusForbidden},
	}
	for _, tc := range cases {
		r := gin.New()
		r.POST("/x", func(c *gin.Context) {
			c.Request = c.Request.WithContext(auth.WithPrincipal(c.Request.Context(), tc.p))
			c.Next()
		}, RequirePlatformAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
		if w.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, w.Code)
		}
	}
}
