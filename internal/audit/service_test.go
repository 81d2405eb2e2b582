package audit

import (
	"context"
	"testing"

	"github.com/jwc684/ptmaster-sub001/internal/tenancy"
)

func TestService_AppendRequiresTypeAndActor(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	if err := svc.Append(context.Background(), Entry{ActorID: "a", ActorRole: "SUPER_ADMIN"}); err != ErrInvalidEntry {
		t.Fatalf("expected ErrInvalidEntry, got %v", err)
	}
	if err := svc.Append(context.Background(), Entry{Type: TypeLogin}); err != ErrInvalidEntry {
		t.Fatalf("expected ErrInvalidEntry, got %v", err)
	}
}

func TestService_ImpersonationStopNamesRealAdminAndTarget(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	ctx := WithClientIP(context.Background(), "1.2.3.4")

	if err := svc.LogImpersonationStop(ctx, Actor{ID: "pa-1", Role: "SUPER_ADMIN"}, "adm-1", "shop-1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Entries()
	if len(evs) != 1 {
		t.Fatalf("expected 1 entry")
	}
	e := evs[0]
	if e.ActorID != "pa-1" || e.TargetID != "adm-1" || e.Type != TypeImpersonationStop {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if e.IPAddress != "1.2.3.4" {
		t.Fatalf("expected ip captured from context")
	}
	if e.ID == "" || e.CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamp")
	}
}

func TestService_ListUnderShopFilter(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()
	actor := Actor{ID: "pa-1", Role: "SUPER_ADMIN"}

	_ = svc.LogImpersonationStart(ctx, actor, "adm-1", "shop-1", "immediate")
	_ = svc.LogImpersonationStart(ctx, actor, "adm-2", "shop-2", "url")
	_ = svc.LogLogin(ctx, actor, "")

	all, _ := svc.List(ctx, tenancy.BuildFilter("", true), 0)
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
	if all[0].Type != TypeLogin {
		t.Fatalf("expected newest first, got %s", all[0].Type)
	}

	one, _ := svc.List(ctx, tenancy.BuildFilter("shop-2", true), 10)
	if len(one) != 1 || one[0].TargetID != "adm-2" || one[0].Metadata != `{"mode":"url"}` {
		t.Fatalf("unexpected filtered list: %+v", one)
	}
}
