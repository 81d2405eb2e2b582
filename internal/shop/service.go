package shop

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwc684/ptmaster-sub001/pkg/utils"
)

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:  repo,
		clock: time.Now,
	}
}

type CreateInput struct {
	Name string `json:"name" validate:"required,max=100"`
	Slug string `json:"slug" validate:"required,min=2,max=50,lowercase,excludesall= /"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Shop, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.TrimSpace(in.Slug)
	if err := utils.ValidateStruct(in); err != nil {
		return Shop{}, ErrInvalidArgument
	}
	sh := Shop{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Slug:      in.Slug,
		Active:    true,
		CreatedAt: s.clock().UTC(),
	}
	if err := s.repo.Create(ctx, sh); err != nil {
		return Shop{}, err
	}
	return sh, nil
}

func (s *Service) Get(ctx context.Context, id string) (Shop, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Shop{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// ActiveBySlug returns an active shop, treating inactive ones as missing.
func (s *Service) ActiveBySlug(ctx context.Context, slug string) (Shop, error) {
	sh, err := s.repo.GetBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return Shop{}, err
	}
	if !sh.Active {
		return Shop{}, ErrNotFound
	}
	return sh, nil
}

// Active returns an active shop by id.
func (s *Service) Active(ctx context.Context, id string) (Shop, error) {
	sh, err := s.Get(ctx, id)
	if err != nil {
		return Shop{}, err
	}
	if !sh.Active {
		return Shop{}, ErrNotFound
	}
	return sh, nil
}

func (s *Service) ListActive(ctx context.Context) ([]Shop, error) {
	return s.repo.List(ctx, true)
}

func (s *Service) List(ctx context.Context) ([]Shop, error) {
	return s.repo.List(ctx, false)
}

// ShopExists backs verified shop-context resolution. Inactive shops still
// exist for data access.
func (s *Service) ShopExists(ctx context.Context, id string) (bool, error) {
	_, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
