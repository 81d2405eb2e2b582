package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwc684/ptmaster-sub001/internal/account"
	"github.com/jwc684/ptmaster-sub001/internal/auth"
	"github.com/jwc684/ptmaster-sub001/internal/role"
	"github.com/jwc684/ptmaster-sub001/internal/tenancy"
	"github.com/jwc684/ptmaster-sub001/pkg/utils"
)

// Members is the account lookup schedules need for ownership checks.
type Members interface {
	Member(ctx context.Context, shopID, memberID string) (account.Member, error)
	IsTrainer(ctx context.Context, shopID, trainerID string) (bool, error)
}

// Service manages PT slots.
//
// Ownership rules:
// - ADMIN and SUPER_ADMIN act on any slot of the effective shop.
// - TRAINER acts only on members currently assigned to them, and only on
//   their own slots.
// - Attendance and deletion move the member's session balance in the same
//   transaction as the slot change.
type Service struct {
	repo    Repository
	members Members
	clock   func() time.Time
}

func NewService(repo Repository, members Members) *Service {
	return &Service{
		repo:    repo,
		members: members,
		clock:   time.Now,
	}
}

// WithClock overrides the time source (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.clock = now
	return s
}

type CreateInput struct {
	MemberID  string    `json:"memberId" validate:"required,uuid"`
	TrainerID string    `json:"trainerId" validate:"omitempty,uuid"`
	StartsAt  time.Time `json:"startsAt" validate:"required"`
	EndsAt    time.Time `json:"endsAt" validate:"required,gtfield=StartsAt"`
}

func isManager(sc tenancy.Context) bool { return sc.Roles.HasAny(role.Admin, role.SuperAdmin) }

func (s *Service) Create(ctx context.Context, sc tenancy.Context, in CreateInput) (Schedule, error) {
	if !isManager(sc) && !sc.Roles.Has(role.Trainer) {
		return Schedule{}, auth.ErrForbidden
	}
	shopID, err := sc.RequireShop()
	if err != nil {
		return Schedule{}, err
	}
	if err := utils.ValidateStruct(in); err != nil {
		return Schedule{}, ErrInvalidArgument
	}

	m, err := s.members.Member(ctx, shopID, in.MemberID)
	if errors.Is(err, account.ErrNotFound) {
		return Schedule{}, ErrNotFound
	}
	if err != nil {
		return Schedule{}, err
	}

	trainerID := in.TrainerID
	if !isManager(sc) {
		if m.TrainerID != sc.AccountID {
			return Schedule{}, ErrNotAssigned
		}
		trainerID = sc.AccountID
	}
	if trainerID == "" {
		trainerID = m.TrainerID
	}
	if trainerID == "" {
		return Schedule{}, ErrInvalidArgument
	}
	ok, err := s.members.IsTrainer(ctx, shopID, trainerID)
	if err != nil {
		return Schedule{}, err
	}
	if !ok {
		return Schedule{}, ErrInvalidArgument
	}

	out := Schedule{
		ID:        uuid.NewString(),
		ShopID:    shopID,
		TrainerID: trainerID,
		MemberID:  m.AccountID,
		StartsAt:  in.StartsAt.UTC(),
		EndsAt:    in.EndsAt.UTC(),
		Status:    StatusScheduled,
		CreatedAt: s.clock().UTC(),
	}
	if err := s.repo.Create(ctx, out); err != nil {
		return Schedule{}, err
	}
	return out, nil
}

// Attend marks a slot attended and consumes one session.
func (s *Service) Attend(ctx context.Context, sc tenancy.Context, id string) (Schedule, error) {
	sch, err := s.owned(ctx, sc, id)
	if err != nil {
		return Schedule{}, err
	}
	if sch.Status == StatusAttended {
		return Schedule{}, ErrAlreadyAttended
	}
	at := s.clock().UTC()
	if err := s.repo.MarkAttended(ctx, sch.ShopID, sch.ID, at); err != nil {
		return Schedule{}, err
	}
	sch.Status = StatusAttended
	sch.AttendedAt = &at
	return sch, nil
}

// Delete removes a slot; an attended slot gives its session back.
func (s *Service) Delete(ctx context.Context, sc tenancy.Context, id string) error {
	sch, err := s.owned(ctx, sc, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, sch.ShopID, sch.ID)
}

func (s *Service) owned(ctx context.Context, sc tenancy.Context, id string) (Schedule, error) {
	if !isManager(sc) && !sc.Roles.Has(role.Trainer) {
		return Schedule{}, auth.ErrForbidden
	}
	shopID, err := sc.RequireShop()
	if err != nil {
		return Schedule{}, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return Schedule{}, ErrNotFound
	}
	sch, err := s.repo.Get(ctx, shopID, id)
	if err != nil {
		return Schedule{}, err
	}
	if isManager(sc) {
		return sch, nil
	}
	if sch.TrainerID != sc.AccountID {
		return Schedule{}, ErrNotAssigned
	}
	m, err := s.members.Member(ctx, shopID, sch.MemberID)
	if err != nil || m.TrainerID != sc.AccountID {
		return Schedule{}, ErrNotAssigned
	}
	return sch, nil
}

// List returns slots in [from, to). Trainers without a manager role see only
// their own slots; members see only theirs.
func (s *Service) List(ctx context.Context, sc tenancy.Context, from, to time.Time) ([]Schedule, error) {
	if !sc.IsPlatformAdmin {
		if _, err := sc.RequireShop(); err != nil {
			return nil, err
		}
	}
	if !to.After(from) {
		return nil, ErrInvalidArgument
	}
	q := Query{From: from, To: to}
	switch {
	case isManager(sc):
	case sc.Roles.Has(role.Trainer):
		q.TrainerID = sc.AccountID
	case sc.Roles.Has(role.Member):
		q.MemberID = sc.AccountID
	default:
		return nil, auth.ErrForbidden
	}
	return s.repo.List(ctx, sc.Filter(), q)
}
