package shop

import (
	"context"
	"errors"
	"testing"
)

const (
	shopA = "6f1d6a3e-5b1e-4c7b-9a51-00000000000a"
	shopB = "6f1d6a3e-5b1e-4c7b-9a51-00000000000b"
)

func TestService_CreateValidatesAndRejectsDuplicateSlug(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateInput{Name: "Gym", Slug: "Bad Slug"}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	sh, err := svc.Create(ctx, CreateInput{Name: "Gangnam PT", Slug: "gangnam"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !sh.Active || sh.ID == "" {
		t.Fatalf("unexpected shop: %+v", sh)
	}
	if _, err := svc.Create(ctx, CreateInput{Name: "Other", Slug: "gangnam"}); !errors.Is(err, ErrSlugTaken) {
		t.Fatalf("expected ErrSlugTaken, got %v", err)
	}
}

func TestService_InactiveHiddenFromSelectionButExists(t *testing.T) {
	repo := NewMemoryRepo(
		Shop{ID: shopA, Name: "A", Slug: "a", Active: true},
		Shop{ID: shopB, Name: "B", Slug: "b", Active: false},
	)
	svc := NewService(repo)
	ctx := context.Background()

	active, err := svc.ListActive(ctx)
	if err != nil || len(active) != 1 || active[0].ID != shopA {
		t.Fatalf("unexpected active list %v (%v)", active, err)
	}
	if _, err := svc.ActiveBySlug(ctx, "b"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("inactive shop must not be selectable, got %v", err)
	}
	ok, err := svc.ShopExists(ctx, shopB)
	if err != nil || !ok {
		t.Fatalf("inactive shop still exists for data access")
	}
	ok, _ = svc.ShopExists(ctx, "not-a-uuid")
	if ok {
		t.Fatalf("malformed id must not exist")
	}
}
