package tenancy

import (
	"fmt"
	"regexp"
)

var hasWhere = regexp.MustCompile(`(?i)\sWHERE\s`)

// Filter scopes tenant-owned rows. The zero value is unrestricted.
type Filter struct {
	shopID string
}

// BuildFilter maps an effective shop id and the platform-admin flag onto a
// row predicate:
//
//   - platform admin without a shop: unrestricted (cross-shop views)
//   - any caller with a shop: only rows of that shop
//   - non-admin without a shop: unrestricted as well; the edge gate keeps such
//     accounts on shop selection routes and handlers require a shop before
//     querying
func BuildFilter(shopID string, isPlatformAdmin bool) Filter {
	switch {
	case isPlatformAdmin && shopID == "":
		return Filter{}
	case shopID != "":
		return Filter{shopID: shopID}
	default:
		return Filter{}
	}
}

func (f Filter) Unrestricted() bool { return f.shopID == "" }

// ShopID returns the restricting shop, if any.
func (f Filter) ShopID() (string, bool) { return f.shopID, f.shopID != "" }

// Matches applies the predicate to a row's shop id in memory.
func (f Filter) Matches(rowShopID string) bool {
	return f.shopID == "" || rowShopID == f.shopID
}

// Where renders the predicate for a SQL query. The returned clause is empty
// when unrestricted; otherwise it references placeholder $argPos.
func (f Filter) Where(column string, argPos int) (string, []any) {
	if f.shopID == "" {
		return "", nil
	}
	return fmt.Sprintf("%s = $%d", column, argPos), []any{f.shopID}
}

// AppendWhere joins the predicate onto a query that may already have a WHERE.
// query must not contain subqueries with their own WHERE.
func (f Filter) AppendWhere(query, column string, args []any) (string, []any) {
	clause, extra := f.Where(column, len(args)+1)
	if clause == "" {
		return query, args
	}
	joiner := " WHERE "
	if hasWhere.MatchString(query) {
		joiner = " AND "
	}
	return query + joiner + clause, append(args, extra...)
}
