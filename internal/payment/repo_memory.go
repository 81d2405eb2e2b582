package payment

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/jwc684/ptmaster-sub001/internal/account"
	"github.com/jwc684/ptmaster-sub001/internal/tenancy"
)

// MemoryRepo stores payments in memory and credits sessions on an account MemoryRepo.
type MemoryRepo struct {
	mu       sync.Mutex
	payments []Payment
	accounts *account.MemoryRepo
}

func NewMemoryRepo(accounts *account.MemoryRepo) *MemoryRepo {
	return &MemoryRepo{accounts: accounts}
}

func (r *MemoryRepo) Record(_ context.Context, p Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.accounts.AdjustRemaining(p.ShopID, p.MemberID, p.SessionCount); err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return ErrMemberNotFound
		}
		return err
	}
	r.payments = append(r.payments, p)
	return nil
}

func (r *MemoryRepo) List(_ context.Context, f tenancy.Filter, memberID string) ([]Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Payment
	for _, p := range r.payments {
		if !f.Matches(p.ShopID) || (memberID != "" && p.MemberID != memberID) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaidAt.After(out[j].PaidAt) })
	return out, nil
}
