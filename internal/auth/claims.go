package auth

import "github.com/golang-jwt/jwt/v5"

// Purpose discriminates the two bearer credentials signed with the same key.
// A token is only ever accepted for the purpose it was issued for.
type Purpose string

const (
	PurposeSession       Purpose = "session"
	PurposeImpersonation Purpose = "impersonation"
)

// SessionClaims is the signed session token. Subject is the account id.
// ShopID is empty for platform admins and for members pending shop selection.
type SessionClaims struct {
	jwt.RegisteredClaims

	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Roles   []string `json:"roles"`
	ShopID  string   `json:"shop_id,omitempty"`
	Purpose Purpose  `json:"purpose"`
}

// ImpersonationClaims is a grant: a snapshot of the target identity plus the
// issuing platform admin. Subject is the target account id.
type ImpersonationClaims struct {
	jwt.RegisteredClaims

	Name           string   `json:"name"`
	Email          string   `json:"email"`
	Roles          []string `json:"roles"`
	ShopID         string   `json:"shop_id,omitempty"`
	ImpersonatorID string   `json:"impersonator_id"`
	Purpose        Purpose  `json:"purpose"`
}
