package invite

import (
	"context"
	"sort"
	"sync"

	"github.com/jwc684/ptmaster-sub001/internal/account"
	"github.com/jwc684/ptmaster-sub001/internal/role"
	"github.com/jwc684/ptmaster-sub001/internal/tenancy"
)

// MemoryRepo keeps invites in memory and applies redemptions to an account
// MemoryRepo under one lock.
type MemoryRepo struct {
	mu       sync.Mutex
	invites  map[string]Invite
	accounts *account.MemoryRepo
}

func NewMemoryRepo(accounts *account.MemoryRepo) *MemoryRepo {
	return &MemoryRepo{invites: make(map[string]Invite), accounts: accounts}
}

func (r *MemoryRepo) Create(_ context.Context, inv Invite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invites[inv.ID] = inv
	return nil
}

func (r *MemoryRepo) GetByToken(_ context.Context, token string) (Invite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.invites {
		if inv.Token == token {
			return inv, nil
		}
	}
	return Invite{}, ErrNotFound
}

func (r *MemoryRepo) List(_ context.Context, f tenancy.Filter) ([]Invite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Invite
	for _, inv := range r.invites {
		if f.Matches(inv.ShopID) {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepo) Redeem(ctx context.Context, red Redemption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invites[red.InviteID]
	if !ok {
		return ErrNotFound
	}
	if inv.Used() {
		return ErrUsed
	}

	var err error
	if red.NewAccount != nil {
		err = r.accounts.Create(ctx, *red.NewAccount)
	} else {
		err = r.accounts.AddRole(ctx, red.ExistingAccountID, red.ShopID, role.Trainer)
	}
	if err != nil {
		return err
	}

	usedAt := red.UsedAt
	inv.UsedAt = &usedAt
	inv.UsedBy = red.accountID()
	r.invites[inv.ID] = inv
	return nil
}
