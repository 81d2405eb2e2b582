package rbac

import (
	"fmt"
	"path"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/jwc684/ptmaster-sub001/internal/role"
)

// Pseudo subjects in the route table next to the real role names.
const (
	subjectPublic        = "PUBLIC"
	subjectAuthenticated = "AUTHENTICATED"
)

// ImpersonationControlPrefix stays reachable for the real platform admin while
// an impersonation is active, so it can always be stopped.
const ImpersonationControlPrefix = "/api/super-admin/impersonate"

// SelectShopPath is where non-admin accounts without a shop are sent.
const SelectShopPath = "/select-shop"

// Prefix matching is per path segment: "/admin" covers "/admin" and "/admin/x",
// never "/administrator".
const routeModel = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && keyMatch(r.obj, p.obj)
`

// RoutePrefixes is the static route access table.
var RoutePrefixes = map[string][]string{
	string(role.SuperAdmin): {"/super-admin", "/api/super-admin", "/admin", "/api/admin", "/api/payments", "/api/schedules"},
	string(role.Admin):      {"/admin", "/api/admin", "/api/payments", "/api/schedules"},
	string(role.Trainer):    {"/trainer", "/my-members", "/api/my-members", "/api/schedules"},
	string(role.Member):     {"/member", "/api/member"},
	subjectAuthenticated:    {"/", "/api/me", "/api/auth/logout", SelectShopPath, "/api/account"},
	subjectPublic: {
		"/login", "/signup", "/invite", "/impersonate", "/healthz", "/metrics",
		"/api/auth/login", "/api/auth/signup", "/api/invites/redeem", "/api/shops/active",
	},
}

// pendingPrefixes are the only routes a non-admin account without a shop may use.
var pendingPrefixes = []string{"/", "/api/me", "/api/auth/logout", SelectShopPath, "/api/account"}

// RouteTable answers "may this role set open this path" at the edge.
type RouteTable struct {
	enforcer *casbin.SyncedEnforcer
}

func NewRouteTable() (*RouteTable, error) {
	return NewRouteTableFrom(RoutePrefixes)
}

// NewRouteTableFrom builds a table from subject → prefixes.
func NewRouteTableFrom(prefixes map[string][]string) (*RouteTable, error) {
	m, err := model.NewModelFromString(routeModel)
	if err != nil {
		return nil, fmt.Errorf("route model: %w", err)
	}
	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("route enforcer: %w", err)
	}
	for sub, list := range prefixes {
		for _, p := range list {
			for _, obj := range policyObjects(p) {
				if _, err := e.AddPolicy(sub, obj); err != nil {
					return nil, fmt.Errorf("add policy %s %s: %w", sub, obj, err)
				}
			}
		}
	}
	return &RouteTable{enforcer: e}, nil
}

func policyObjects(prefix string) []string {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		// Root is an exact match only.
		return []string{"/"}
	}
	return []string{prefix, prefix + "/*"}
}

// IsPublic reports whether path needs no session at all.
func (t *RouteTable) IsPublic(p string) bool {
	return t.enforce(subjectPublic, p)
}

// Allowed is the OR across every held role plus the routes open to any
// authenticated account.
func (t *RouteTable) Allowed(roles role.Set, p string) bool {
	if t.enforce(subjectAuthenticated, p) {
		return true
	}
	for _, r := range roles {
		if t.enforce(string(r), p) {
			return true
		}
	}
	return false
}

func (t *RouteTable) enforce(sub, p string) bool {
	ok, err := t.enforcer.Enforce(sub, CleanPath(p))
	if err != nil {
		return false
	}
	return ok
}

// CleanPath normalizes a request path before matching.
func CleanPath(p string) string {
	if p == "" {
		return "/"
	}
	return path.Clean("/" + p)
}

// HasPrefixSegment is segment-aware prefix matching for fixed lists.
func HasPrefixSegment(p, prefix string) bool {
	p = CleanPath(p)
	if prefix == "/" {
		return p == "/"
	}
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

func isPendingRoute(p string) bool {
	for _, prefix := range pendingPrefixes {
		if HasPrefixSegment(p, prefix) {
			return true
		}
	}
	return false
}
