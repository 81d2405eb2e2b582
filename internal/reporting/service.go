package reporting

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jwc684/ptmaster-sub001/internal/auth"
	"github.com/jwc684/ptmaster-sub001/internal/role"
	"github.com/jwc684/ptmaster-sub001/internal/tenancy"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// maxRange bounds a single summary query.
const maxRange = 366 * 24 * time.Hour

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

// Summary aggregates activity per shop under the caller's shop filter.
// A shop admin sees their shop; a platform admin sees every shop unless an
// override narrows the context to one.
func (s *Service) Summary(ctx context.Context, sc tenancy.Context, r TimeRange) (Summary, error) {
	if !sc.IsPlatformAdmin && !sc.Roles.Has(role.Admin) {
		return Summary{}, auth.ErrForbidden
	}
	if !sc.IsPlatformAdmin {
		if _, err := sc.RequireShop(); err != nil {
			return Summary{}, err
		}
	}
	if r.From.IsZero() || r.To.IsZero() || !r.To.After(r.From) || r.To.Sub(r.From) > maxRange {
		return Summary{}, ErrInvalidRequest
	}
	f := sc.Filter()

	heads, err := s.repo.Headcounts(ctx, f)
	if err != nil {
		return Summary{}, err
	}
	pays, err := s.repo.PaymentTotals(ctx, f, r.From, r.To)
	if err != nil {
		return Summary{}, err
	}
	slots, err := s.repo.ScheduleTotals(ctx, f, r.From, r.To)
	if err != nil {
		return Summary{}, err
	}

	by := map[string]*ShopSummary{}
	get := func(shopID string) *ShopSummary {
		if x, ok := by[shopID]; ok {
			return x
		}
		x := &ShopSummary{ShopID: shopID, Revenue: decimal.Zero}
		by[shopID] = x
		return x
	}
	for _, h := range heads {
		x := get(h.ShopID)
		x.Members, x.Trainers = h.Members, h.Trainers
	}
	for _, p := range pays {
		x := get(p.ShopID)
		x.Payments, x.Revenue, x.SessionsSold = p.Count, p.Amount, p.SessionCount
	}
	for _, t := range slots {
		x := get(t.ShopID)
		x.Scheduled, x.Attended = t.Scheduled, t.Attended
	}

	out := Summary{Range: r, Shops: make([]ShopSummary, 0, len(by)), Total: ShopSummary{Revenue: decimal.Zero}}
	for _, x := range by {
		out.Shops = append(out.Shops, *x)
		out.Total.Members += x.Members
		out.Total.Trainers += x.Trainers
		out.Total.Payments += x.Payments
		out.Total.Revenue = out.Total.Revenue.Add(x.Revenue)
		out.Total.SessionsSold += x.SessionsSold
		out.Total.Scheduled += x.Scheduled
		out.Total.Attended += x.Attended
	}
	sort.Slice(out.Shops, func(i, j int) bool { return out.Shops[i].ShopID < out.Shops[j].ShopID })
	return out, nil
}
