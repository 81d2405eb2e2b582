package schedule

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jwc684/ptmaster-sub001/internal/account"
	"github.com/jwc684/ptmaster-sub001/internal/tenancy"
)

// MemoryRepo keeps schedules in memory and moves sessions on an account MemoryRepo.
type MemoryRepo struct {
	mu        sync.Mutex
	schedules map[string]Schedule
	accounts  *account.MemoryRepo
}

func NewMemoryRepo(accounts *account.MemoryRepo) *MemoryRepo {
	return &MemoryRepo{schedules: make(map[string]Schedule), accounts: accounts}
}

func (r *MemoryRepo) Create(_ context.Context, s Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schedules[s.ID] = s
	return nil
}

func (r *MemoryRepo) Get(_ context.Context, shopID, id string) (Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.schedules[id]
	if !ok || s.ShopID != shopID {
		return Schedule{}, ErrNotFound
	}
	return s, nil
}

func (r *MemoryRepo) List(_ context.Context, f tenancy.Filter, q Query) ([]Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Schedule
	for _, s := range r.schedules {
		if !f.Matches(s.ShopID) || s.StartsAt.Before(q.From) || !s.StartsAt.Before(q.To) {
			continue
		}
		if (q.TrainerID != "" && s.TrainerID != q.TrainerID) || (q.MemberID != "" && s.MemberID != q.MemberID) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (r *MemoryRepo) MarkAttended(_ context.Context, shopID, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.schedules[id]
	if !ok || s.ShopID != shopID {
		return ErrNotFound
	}
	if s.Status != StatusScheduled {
		return ErrAlreadyAttended
	}
	if err := r.accounts.AdjustRemaining(shopID, s.MemberID, -1); err != nil {
		return err
	}
	s.Status = StatusAttended
	s.AttendedAt = &at
	r.schedules[id] = s
	return nil
}

func (r *MemoryRepo) Delete(_ context.Context, shopID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.schedules[id]
	if !ok || s.ShopID != shopID {
		return ErrNotFound
	}
	if s.Status == StatusAttended {
		if err := r.accounts.AdjustRemaining(shopID, s.MemberID, 1); err != nil {
			return err
		}
	}
	delete(r.schedules, id)
	return nil
}
