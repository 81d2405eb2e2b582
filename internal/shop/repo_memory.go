package shop

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory repository for tests and local tooling.
type MemoryRepo struct {
	mu    sync.Mutex
	shops map[string]Shop
}

func NewMemoryRepo(seed ...Shop) *MemoryRepo {
	r := &MemoryRepo{shops: make(map[string]Shop)}
	for _, s := range seed {
		r.shops[s.ID] = s
	}
	return r
}

func (r *MemoryRepo) Create(_ context.Context, s Shop) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, have := range r.shops {
		if have.Slug == s.Slug {
			return ErrSlugTaken
		}
	}
	r.shops[s.ID] = s
	return nil
}

func (r *MemoryRepo) Get(_ context.Context, id string) (Shop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shops[id]
	if !ok {
		return Shop{}, ErrNotFound
	}
	return s, nil
}

func (r *MemoryRepo) GetBySlug(_ context.Context, slug string) (Shop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.shops {
		if s.Slug == slug {
			return s, nil
		}
	}
	return Shop{}, ErrNotFound
}

func (r *MemoryRepo) List(_ context.Context, activeOnly bool) ([]Shop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Shop, 0, len(r.shops))
	for _, s := range r.shops {
		if activeOnly && !s.Active {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
