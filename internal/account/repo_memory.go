package account

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/jwc684/ptmaster-sub001/internal/role"
	"github.com/jwc684/ptmaster-sub001/internal/tenancy"
)

// MemoryRepo is an in-memory repository for tests.
type MemoryRepo struct {
	mu       sync.Mutex
	accounts map[string]Account
	members  map[string]Member
	trainers map[string]string // trainer id -> shop id
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		accounts: make(map[string]Account),
		members:  make(map[string]Member),
		trainers: make(map[string]string),
	}
}

func (r *MemoryRepo) Create(_ context.Context, a Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, have := range r.accounts {
		if strings.EqualFold(have.Email, a.Email) {
			return ErrEmailTaken
		}
	}
	if a.Roles.Has(role.Trainer) && a.ShopID == "" {
		return ErrInvalidArgument
	}
	a.Roles = a.Roles.Clone()
	r.accounts[a.ID] = a
	if a.Roles.Has(role.Member) {
		r.members[a.ID] = Member{AccountID: a.ID, Name: a.Name, Email: a.Email, Phone: a.Phone, ShopID: a.ShopID}
	}
	if a.Roles.Has(role.Trainer) {
		r.trainers[a.ID] = a.ShopID
	}
	return nil
}

func (r *MemoryRepo) Get(_ context.Context, id string) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return a, nil
}

func (r *MemoryRepo) GetByEmail(_ context.Context, email string) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if strings.EqualFold(a.Email, email) {
			return a, nil
		}
	}
	return Account{}, ErrNotFound
}

func (r *MemoryRepo) SetShop(_ context.Context, id, shopID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return ErrNotFound
	}
	if a.ShopID != "" {
		return ErrShopAlreadySet
	}
	a.ShopID = shopID
	r.accounts[id] = a
	if m, ok := r.members[id]; ok {
		m.ShopID = shopID
		r.members[id] = m
	}
	return nil
}

func (r *MemoryRepo) FirstAdmin(_ context.Context, shopID string) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found []Account
	for _, a := range r.accounts {
		if a.ShopID == shopID && a.Roles.Has(role.Admin) {
			found = append(found, a)
		}
	}
	if len(found) == 0 {
		return Account{}, ErrNotFound
	}
	sort.Slice(found, func(i, j int) bool { return found[i].CreatedAt.Before(found[j].CreatedAt) })
	return found[0], nil
}

func (r *MemoryRepo) GetMember(_ context.Context, shopID, accountID string) (Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[accountID]
	if !ok || m.ShopID != shopID {
		return Member{}, ErrNotFound
	}
	return m, nil
}

func (r *MemoryRepo) ListMembers(_ context.Context, f tenancy.Filter) ([]Member, error) {
	return r.list(func(m Member) bool { return f.Matches(m.ShopID) }), nil
}

func (r *MemoryRepo) ListTrainerMembers(_ context.Context, shopID, trainerID string) ([]Member, error) {
	return r.list(func(m Member) bool { return m.ShopID == shopID && m.TrainerID == trainerID }), nil
}

func (r *MemoryRepo) AssignTrainer(_ context.Context, shopID, memberID, trainerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[memberID]
	if !ok || m.ShopID != shopID || r.trainers[trainerID] != shopID {
		return ErrNotFound
	}
	m.TrainerID = trainerID
	r.members[memberID] = m
	return nil
}

func (r *MemoryRepo) IsTrainer(_ context.Context, shopID, accountID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[accountID]
	if !ok || !a.Roles.Has(role.Trainer) {
		return false, nil
	}
	return r.trainers[accountID] == shopID, nil
}

// SetRemaining seeds a member balance.
func (r *MemoryRepo) SetRemaining(memberID string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.members[memberID]
	m.RemainingSessions = n
	r.members[memberID] = m
}

// Delete simulates an account removed while its session is still valid.
func (r *MemoryRepo) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.accounts, id)
	delete(r.members, id)
	delete(r.trainers, id)
}

func (r *MemoryRepo) list(keep func(Member) bool) []Member {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Member
	for _, m := range r.members {
		if keep(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AddRole grants rl to an existing account, mirroring AddRoleTx.
func (r *MemoryRepo) AddRole(_ context.Context, id, shopID string, rl role.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return ErrNotFound
	}
	if rl == role.Trainer && shopID == "" {
		return ErrInvalidArgument
	}
	if !a.Roles.Has(rl) {
		a.Roles = a.Roles.With(rl)
		r.accounts[id] = a
	}
	switch rl {
	case role.Trainer:
		r.trainers[id] = shopID
	case role.Member:
		if _, ok := r.members[id]; !ok {
			r.members[id] = Member{AccountID: id, Name: a.Name, Email: a.Email, Phone: a.Phone, ShopID: shopID}
		}
	}
	return nil
}

// AdjustRemaining mirrors AdjustRemainingTx.
func (r *MemoryRepo) AdjustRemaining(shopID, memberID string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[memberID]
	if !ok || m.ShopID != shopID {
		return ErrNotFound
	}
	if m.RemainingSessions+delta < 0 {
		return ErrNoSessionsLeft
	}
	m.RemainingSessions += delta
	r.members[memberID] = m
	return nil
}
