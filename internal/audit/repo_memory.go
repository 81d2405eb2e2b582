package audit

import (
	"context"
	"sync"

	"github.com/jwc684/ptmaster-sub001/internal/tenancy"
)

// MemoryRepo is a simple in-memory append-only repository useful for tests.
// It is not intended for production use.
type MemoryRepo struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Append(_ context.Context, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

// List returns newest first.
func (r *MemoryRepo) List(_ context.Context, f tenancy.Filter, limit int) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Entry
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if f.Matches(r.entries[i].ShopID) {
			out = append(out, r.entries[i])
		}
	}
	return out, nil
}

func (r *MemoryRepo) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}
