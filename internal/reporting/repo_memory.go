package reporting

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jwc684/ptmaster-sub001/internal/account"
	"github.com/jwc684/ptmaster-sub001/internal/payment"
	"github.com/jwc684/ptmaster-sub001/internal/schedule"
	"github.com/jwc684/ptmaster-sub001/internal/tenancy"
)

// MemoryRepo aggregates seeded rows for tests.
type MemoryRepo struct {
	mu sync.Mutex

	Shops     []string
	Members   []account.Member
	Trainers  map[string]string // trainer id -> shop id
	Payments  []payment.Payment
	Schedules []schedule.Schedule
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{Trainers: map[string]string{}} }

func (r *MemoryRepo) Headcounts(_ context.Context, f tenancy.Filter) ([]Headcount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	by := map[string]*Headcount{}
	for _, id := range r.Shops {
		if f.Matches(id) {
			by[id] = &Headcount{ShopID: id}
		}
	}
	for _, m := range r.Members {
		if h, ok := by[m.ShopID]; ok {
			h.Members++
		}
	}
	for _, shopID := range r.Trainers {
		if h, ok := by[shopID]; ok {
			h.Trainers++
		}
	}
	out := make([]Headcount, 0, len(by))
	for _, h := range by {
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ShopID < out[j].ShopID })
	return out, nil
}

func (r *MemoryRepo) PaymentTotals(_ context.Context, f tenancy.Filter, from, to time.Time) ([]PaymentTotal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	by := map[string]*PaymentTotal{}
	for _, p := range r.Payments {
		if !f.Matches(p.ShopID) || p.PaidAt.Before(from) || !p.PaidAt.Before(to) {
			continue
		}
		t, ok := by[p.ShopID]
		if !ok {
			t = &PaymentTotal{ShopID: p.ShopID, Amount: decimal.Zero}
			by[p.ShopID] = t
		}
		t.Count++
		t.Amount = t.Amount.Add(p.Amount)
		t.SessionCount += p.SessionCount
	}
	out := make([]PaymentTotal, 0, len(by))
	for _, t := range by {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ShopID < out[j].ShopID })
	return out, nil
}

func (r *MemoryRepo) ScheduleTotals(_ context.Context, f tenancy.Filter, from, to time.Time) ([]ScheduleTotal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	by := map[string]*ScheduleTotal{}
	for _, s := range r.Schedules {
		if !f.Matches(s.ShopID) || s.StartsAt.Before(from) || !s.StartsAt.Before(to) {
			continue
		}
		t, ok := by[s.ShopID]
		if !ok {
			t = &ScheduleTotal{ShopID: s.ShopID}
			by[s.ShopID] = t
		}
		switch s.Status {
		case schedule.StatusAttended:
			t.Attended++
		case schedule.StatusScheduled:
			t.Scheduled++
		}
	}
	out := make([]ScheduleTotal, 0, len(by))
	for _, t := range by {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ShopID < out[j].ShopID })
	return out, nil
}
