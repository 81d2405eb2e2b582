package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwc684/ptmaster-sub001/internal/tenancy"
)

// Service writes and reads the platform access log.
// Entries are visible to platform admins only.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEntry = errors.New("audit: invalid entry")

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

func (s *Service) Append(ctx context.Context, e Entry) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" || e.ActorID == "" || e.ActorRole == "" {
		return ErrInvalidEntry
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	if e.IPAddress == "" {
		e.IPAddress = ClientIPFromContext(ctx)
	}
	return s.repo.Append(ctx, e)
}

// Actor is who performed an audited action.
type Actor struct {
	ID   string
	Role string
}

func (s *Service) LogLogin(ctx context.Context, actor Actor, shopID string) error {
	return s.Append(ctx, Entry{
		ShopID:    shopID,
		Type:      TypeLogin,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		Message:   "login",
	})
}

// LogImpersonationStart records a grant issuance. mode is immediate or url.
func (s *Service) LogImpersonationStart(ctx context.Context, actor Actor, targetID, targetShopID, mode string) error {
	return s.Append(ctx, Entry{
		ShopID:    targetShopID,
		Type:      TypeImpersonationStart,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		TargetID:  targetID,
		Message:   "impersonation started",
		Metadata:  metadata(map[string]string{"mode": mode}),
	})
}

// LogImpersonationStop names the real platform admin and the target.
func (s *Service) LogImpersonationStop(ctx context.Context, actor Actor, targetID, targetShopID string) error {
	return s.Append(ctx, Entry{
		ShopID:    targetShopID,
		Type:      TypeImpersonationStop,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		TargetID:  targetID,
		Message:   "impersonation ended",
	})
}

func (s *Service) LogShopOverride(ctx context.Context, actor Actor, shopID string) error {
	msg := "shop override set"
	if shopID == "" {
		msg = "shop override cleared"
	}
	return s.Append(ctx, Entry{
		ShopID:    shopID,
		Type:      TypeShopOverride,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		Message:   msg,
	})
}

// List returns the newest entries under f.
func (s *Service) List(ctx context.Context, f tenancy.Filter, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.repo.List(ctx, f, limit)
}

func metadata(m map[string]string) string {
	b, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(b)
}
