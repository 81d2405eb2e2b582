package audit

import "time"

// Entry is an immutable access log record.
//
// Invariants:
// - Entries are never updated or deleted.
// - ShopID is empty for platform-level actions without a shop.
// - Actor and IP capture are best-effort; callers do not block on audit failures.
type Entry struct {
	ID     string    `json:"id"`
	ShopID string    `json:"shopId,omitempty"`
	Type   EntryType `json:"type"`

	// ActorID is the real account behind the action, never an impersonated one.
	ActorID   string `json:"actorId"`
	ActorRole string `json:"actorRole"`
	TargetID  string `json:"targetId,omitempty"`

	IPAddress string `json:"ipAddress,omitempty"`
	Message   string `json:"message,omitempty"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

type EntryType string

const (
	TypeLogin              EntryType = "login"
	TypeImpersonationStart EntryType = "impersonation_start"
	TypeImpersonationStop  EntryType = "impersonation_stop"
	TypeShopOverride       EntryType = "shop_override"
)
