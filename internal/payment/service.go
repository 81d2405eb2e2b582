package payment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jwc684/ptmaster-sub001/internal/auth"
	"github.com/jwc684/ptmaster-sub001/internal/role"
	"github.com/jwc684/ptmaster-sub001/internal/tenancy"
	"github.com/jwc684/ptmaster-sub001/pkg/utils"
)

// Service records PT payments.
//
// Money invariants:
// - Amounts are decimal with at most two fractional digits, never floats.
// - A payment row and its session credit are written in one transaction.
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

type RecordInput struct {
	MemberID     string     `json:"memberId" validate:"required,uuid"`
	Amount       string     `json:"amount" validate:"required"`
	SessionCount int        `json:"sessionCount" validate:"required,gt=0,lte=500"`
	Method       Method     `json:"method" validate:"required"`
	Memo         string     `json:"memo" validate:"max=500"`
	PaidAt       *time.Time `json:"paidAt"`
}

// Record stores a payment in the effective shop. sc must come from verified
// resolution.
func (s *Service) Record(ctx context.Context, sc tenancy.Context, in RecordInput) (Payment, error) {
	if !sc.Roles.HasAny(role.Admin, role.SuperAdmin) {
		return Payment{}, auth.ErrForbidden
	}
	shopID, err := sc.RequireShop()
	if err != nil {
		return Payment{}, err
	}
	if err := utils.ValidateStruct(in); err != nil {
		return Payment{}, ErrInvalidArgument
	}
	amount, err := parseAmount(in.Amount)
	if err != nil {
		return Payment{}, err
	}
	method := Method(strings.ToLower(string(in.Method)))
	if !method.Valid() {
		return Payment{}, ErrInvalidArgument
	}

	now := s.clock().UTC()
	paidAt := now
	if in.PaidAt != nil {
		paidAt = in.PaidAt.UTC()
	}
	p := Payment{
		ID:           uuid.NewString(),
		ShopID:       shopID,
		MemberID:     in.MemberID,
		Amount:       amount,
		SessionCount: in.SessionCount,
		Method:       method,
		Memo:         strings.TrimSpace(in.Memo),
		CreatedBy:    sc.AccountID,
		PaidAt:       paidAt,
		CreatedAt:    now,
	}
	if err := s.repo.Record(ctx, p); err != nil {
		return Payment{}, err
	}
	return p, nil
}

// List returns payments under the context's shop filter. Members see only
// their own payments.
func (s *Service) List(ctx context.Context, sc tenancy.Context, memberID string) ([]Payment, error) {
	if !sc.Roles.HasAny(role.Admin, role.SuperAdmin) {
		if !sc.Roles.Has(role.Member) {
			return nil, auth.ErrForbidden
		}
		memberID = sc.AccountID
	}
	if !sc.IsPlatformAdmin {
		if _, err := sc.RequireShop(); err != nil {
			return nil, err
		}
	}
	return s.repo.List(ctx, sc.Filter(), memberID)
}

// maxAmount is the NUMERIC(12,2) column bound.
var maxAmount = decimal.New(1, 10)

func parseAmount(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !d.IsPositive() || !d.Equal(d.Round(2)) || d.GreaterThanOrEqual(maxAmount) {
		return decimal.Decimal{}, ErrInvalidArgument
	}
	return d.Round(2), nil
}
