package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jwc684/ptmaster-sub001/internal/account"
	"github.com/jwc684/ptmaster-sub001/internal/auth"
	"github.com/jwc684/ptmaster-sub001/internal/role"
	"github.com/jwc684/ptmaster-sub001/internal/tenancy"
)

const (
	shop1    = "7e3b9c10-4444-4a6b-9c8d-000000000001"
	member1  = "7e3b9c10-5555-4a6b-9c8d-000000000001"
	member2  = "7e3b9c10-5555-4a6b-9c8d-000000000002"
	trainer1 = "7e3b9c10-6666-4a6b-9c8d-000000000001"
	trainer2 = "7e3b9c10-6666-4a6b-9c8d-000000000002"
)

type members struct{ repo *account.MemoryRepo }

func (m members) Member(ctx context.Context, shopID, memberID string) (account.Member, error) {
	return m.repo.GetMember(ctx, shopID, memberID)
}

func (m members) IsTrainer(ctx context.Context, shopID, trainerID string) (bool, error) {
	return m.repo.IsTrainer(ctx, shopID, trainerID)
}

var t0 = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*Service, *account.MemoryRepo) {
	t.Helper()
	ctx := context.Background()
	accounts := account.NewMemoryRepo()
	seed := []account.Account{
		{ID: trainer1, Name: "Kim", Email: "kim@example.com", Roles: role.Set{role.Trainer}, ShopID: shop1},
		{ID: trainer2, Name: "Lee", Email: "lee@example.com", Roles: role.Set{role.Trainer}, ShopID: shop1},
		{ID: member1, Name: "Park", Email: "park@example.com", Roles: role.Set{role.Member}, ShopID: shop1},
		{ID: member2, Name: "Choi", Email: "choi@example.com", Roles: role.Set{role.Member}, ShopID: shop1},
	}
	for _, a := range seed {
		if err := accounts.Create(ctx, a); err != nil {
			t.Fatalf("seed %s: %v", a.Email, err)
		}
	}
	if err := accounts.AssignTrainer(ctx, shop1, member1, trainer1); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := accounts.AssignTrainer(ctx, shop1, member2, trainer2); err != nil {
		t.Fatalf("assign: %v", err)
	}
	accounts.SetRemaining(member1, 3)

	svc := NewService(NewMemoryRepo(accounts), members{accounts}).WithClock(func() time.Time { return t0 })
	return svc, accounts
}

func trainerCtx(id string) tenancy.Context {
	return tenancy.Context{ShopID: shop1, AccountID: id, Roles: role.Set{role.Trainer}}
}

func adminCtx() tenancy.Context {
	return tenancy.Context{ShopID: shop1, AccountID: "adm", Roles: role.Set{role.Admin}}
}

func slot(memberID string) CreateInput {
	return CreateInput{MemberID: memberID, StartsAt: t0.Add(time.Hour), EndsAt: t0.Add(2 * time.Hour)}
}

func remaining(t *testing.T, accounts *account.MemoryRepo, id string) int {
	t.Helper()
	m, err := accounts.GetMember(context.Background(), shop1, id)
	if err != nil {
		t.Fatalf("member: %v", err)
	}
	return m.RemainingSessions
}

func TestCreate_TrainerOwnMember(t *testing.T) {
	svc, _ := setup(t)
	s, err := svc.Create(context.Background(), trainerCtx(trainer1), slot(member1))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if s.TrainerID != trainer1 || s.ShopID != shop1 || s.Status != StatusScheduled {
		t.Fatalf("unexpected schedule: %+v", s)
	}
}

func TestCreate_TrainerOtherMemberRejected(t *testing.T) {
	svc, _ := setup(t)
	_, err := svc.Create(context.Background(), trainerCtx(trainer1), slot(member2))
	if !errors.Is(err, ErrNotAssigned) {
		t.Fatalf("expected ErrNotAssigned, got %v", err)
	}
}

func TestCreate_AdminDefaultsToAssignedTrainer(t *testing.T) {
	svc, _ := setup(t)
	s, err := svc.Create(context.Background(), adminCtx(), slot(member2))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if s.TrainerID != trainer2 {
		t.Fatalf("expected trainer %s, got %s", trainer2, s.TrainerID)
	}
}

func TestCreate_AdminTrainerMustBelongToShop(t *testing.T) {
	svc, accounts := setup(t)
	const shop2 = "7e3b9c10-1111-4a6b-9c8d-000000000002"
	const outsider = "7e3b9c10-6666-4a6b-9c8d-000000000003"
	if err := accounts.Create(context.Background(), account.Account{
		ID: outsider, Name: "Jung", Email: "jung@example.com", Roles: role.Set{role.Trainer}, ShopID: shop2,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	for _, trainerID := range []string{member2, outsider, "7e3b9c10-6666-4a6b-9c8d-0000000000ff"} {
		in := slot(member1)
		in.TrainerID = trainerID
		if _, err := svc.Create(context.Background(), adminCtx(), in); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("trainer %s: expected ErrInvalidArgument, got %v", trainerID, err)
		}
	}

	in := slot(member1)
	in.TrainerID = trainer2
	s, err := svc.Create(context.Background(), adminCtx(), in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if s.TrainerID != trainer2 {
		t.Fatalf("expected trainer %s, got %s", trainer2, s.TrainerID)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := setup(t)
	in := slot(member1)
	in.EndsAt = in.StartsAt
	if _, err := svc.Create(context.Background(), adminCtx(), in); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	member := tenancy.Context{ShopID: shop1, AccountID: member1, Roles: role.Set{role.Member}}
	if _, err := svc.Create(context.Background(), member, slot(member1)); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	noShop := tenancy.Context{AccountID: "adm", Roles: role.Set{role.SuperAdmin}, IsPlatformAdmin: true}
	if _, err := svc.Create(context.Background(), noShop, slot(member1)); !errors.Is(err, tenancy.ErrShopRequired) {
		t.Fatalf("expected ErrShopRequired, got %v", err)
	}
}

func TestAttend_ConsumesSessionOnce(t *testing.T) {
	svc, accounts := setup(t)
	ctx := context.Background()
	s, err := svc.Create(ctx, trainerCtx(trainer1), slot(member1))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := svc.Attend(ctx, trainerCtx(trainer1), s.ID)
	if err != nil {
		t.Fatalf("attend: %v", err)
	}
	if got.Status != StatusAttended || got.AttendedAt == nil {
		t.Fatalf("unexpected schedule: %+v", got)
	}
	if n := remaining(t, accounts, member1); n != 2 {
		t.Fatalf("expected 2 sessions left, got %d", n)
	}
	if _, err := svc.Attend(ctx, trainerCtx(trainer1), s.ID); !errors.Is(err, ErrAlreadyAttended) {
		t.Fatalf("expected ErrAlreadyAttended, got %v", err)
	}
	if n := remaining(t, accounts, member1); n != 2 {
		t.Fatalf("second attend must not consume, got %d", n)
	}
}

func TestAttend_NoSessionsLeft(t *testing.T) {
	svc, accounts := setup(t)
	ctx := context.Background()
	accounts.SetRemaining(member1, 0)
	s, _ := svc.Create(ctx, adminCtx(), slot(member1))
	if _, err := svc.Attend(ctx, adminCtx(), s.ID); !errors.Is(err, account.ErrNoSessionsLeft) {
		t.Fatalf("expected ErrNoSessionsLeft, got %v", err)
	}
	again, _ := svc.repo.Get(ctx, shop1, s.ID)
	if again.Status != StatusScheduled {
		t.Fatalf("failed attend must leave slot scheduled, got %s", again.Status)
	}
}

func TestAttend_OtherTrainerRejected(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	s, _ := svc.Create(ctx, trainerCtx(trainer1), slot(member1))
	if _, err := svc.Attend(ctx, trainerCtx(trainer2), s.ID); !errors.Is(err, ErrNotAssigned) {
		t.Fatalf("expected ErrNotAssigned, got %v", err)
	}
}

func TestDelete_RestoresAttendedSession(t *testing.T) {
	svc, accounts := setup(t)
	ctx := context.Background()
	s, _ := svc.Create(ctx, trainerCtx(trainer1), slot(member1))
	if _, err := svc.Attend(ctx, trainerCtx(trainer1), s.ID); err != nil {
		t.Fatalf("attend: %v", err)
	}
	if err := svc.Delete(ctx, adminCtx(), s.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n := remaining(t, accounts, member1); n != 3 {
		t.Fatalf("expected balance restored to 3, got %d", n)
	}
	if err := svc.Delete(ctx, adminCtx(), s.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestList_ScopedByRole(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	if _, err := svc.Create(ctx, adminCtx(), slot(member1)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, adminCtx(), slot(member2)); err != nil {
		t.Fatalf("create: %v", err)
	}
	from, to := t0, t0.Add(24*time.Hour)

	all, err := svc.List(ctx, adminCtx(), from, to)
	if err != nil || len(all) != 2 {
		t.Fatalf("admin: expected 2, got %d (%v)", len(all), err)
	}
	own, err := svc.List(ctx, trainerCtx(trainer1), from, to)
	if err != nil || len(own) != 1 || own[0].MemberID != member1 {
		t.Fatalf("trainer: unexpected %+v (%v)", own, err)
	}
	mine, err := svc.List(ctx, tenancy.Context{ShopID: shop1, AccountID: member2, Roles: role.Set{role.Member}}, from, to)
	if err != nil || len(mine) != 1 || mine[0].MemberID != member2 {
		t.Fatalf("member: unexpected %+v (%v)", mine, err)
	}
	if _, err := svc.List(ctx, adminCtx(), to, from); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
