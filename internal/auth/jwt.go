package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jwc684/ptmaster-sub001/internal/config"
	"github.com/jwc684/ptmaster-sub001/internal/role"
)

// Manager issues and verifies the two signed credentials: the 30 day sliding
// session and the 1 hour impersonation grant. Both use HS256 with the same key
// and are told apart by their purpose claim.
type Manager struct {
	secret           []byte
	issuer           string
	audience         string
	sessionTTL       time.Duration
	refreshAfter     time.Duration
	impersonationTTL time.Duration
}

func NewManager(cfg config.AuthConfig) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, errors.New("AUTH_SECRET is required")
	}
	if cfg.SessionTTL <= 0 || cfg.ImpersonationTTL <= 0 {
		return nil, errors.New("session and impersonation TTLs must be positive")
	}

	return &Manager{
		secret:           []byte(cfg.Secret),
		issuer:           cfg.Issuer,
		audience:         cfg.Audience,
		sessionTTL:       cfg.SessionTTL,
		refreshAfter:     cfg.SessionRefreshAfter,
		impersonationTTL: cfg.ImpersonationTTL,
	}, nil
}

func (m *Manager) SessionTTL() time.Duration       { return m.sessionTTL }
func (m *Manager) ImpersonationTTL() time.Duration { return m.impersonationTTL }

// NeedsRefresh reports whether a session issued at issuedAt should be re-issued
// to slide its expiry forward.
func (m *Manager) NeedsRefresh(issuedAt, now time.Time) bool {
	if m.refreshAfter <= 0 {
		return false
	}
	return now.Sub(issuedAt) >= m.refreshAfter
}

/* ===================== SESSION ===================== */

func (m *Manager) IssueSession(now time.Time, id Identity) (string, error) {
	if id.AccountID == "" {
		return "", errors.New("account id required")
	}
	claims := SessionClaims{
		RegisteredClaims: m.registered(now, id.AccountID, m.sessionTTL),
		Name:             id.Name,
		Email:            id.Email,
		Roles:            id.Roles.Strings(),
		ShopID:           id.ShopID,
		Purpose:          PurposeSession,
	}
	return m.sign(claims)
}

// VerifySession returns the identity and issue time carried by a session token.
func (m *Manager) VerifySession(token string, now time.Time) (Identity, time.Time, error) {
	var claims SessionClaims
	if err := m.parse(token, &claims, now, sessionLeeway); err != nil {
		return Identity{}, time.Time{}, err
	}
	if claims.Purpose != PurposeSession {
		return Identity{}, time.Time{}, fmt.Errorf("%w: purpose mismatch", ErrInvalidToken)
	}
	if claims.Subject == "" {
		return Identity{}, time.Time{}, fmt.Errorf("%w: subject missing", ErrInvalidToken)
	}

	var issuedAt time.Time
	if claims.IssuedAt != nil {
		issuedAt = claims.IssuedAt.Time
	}
	return Identity{
		AccountID: claims.Subject,
		Name:      claims.Name,
		Email:     claims.Email,
		Roles:     role.FromStrings(claims.Roles),
		ShopID:    claims.ShopID,
	}, issuedAt, nil
}

/* ===================== IMPERSONATION ===================== */

// Grant is an issued impersonation credential.
type Grant struct {
	Token     string
	Target    Identity
	IssuerID  string
	ExpiresAt time.Time
}

func (m *Manager) IssueImpersonation(now time.Time, issuerID string, target Identity) (Grant, error) {
	if issuerID == "" || target.AccountID == "" {
		return Grant{}, errors.New("issuer and target required")
	}
	if target.IsPlatformAdmin() {
		return Grant{}, errors.New("platform accounts cannot be impersonated")
	}
	claims := ImpersonationClaims{
		RegisteredClaims: m.registered(now, target.AccountID, m.impersonationTTL),
		Name:             target.Name,
		Email:            target.Email,
		Roles:            target.Roles.Strings(),
		ShopID:           target.ShopID,
		ImpersonatorID:   issuerID,
		Purpose:          PurposeImpersonation,
	}
	tok, err := m.sign(claims)
	if err != nil {
		return Grant{}, err
	}
	return Grant{Token: tok, Target: target, IssuerID: issuerID, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// VerifyImpersonation checks signature, expiry and purpose of a grant.
func (m *Manager) VerifyImpersonation(token string, now time.Time) (Grant, error) {
	var claims ImpersonationClaims
	if err := m.parse(token, &claims, now, 0); err != nil {
		return Grant{}, fmt.Errorf("%w: %v", ErrInvalidGrant, err)
	}
	if claims.Purpose != PurposeImpersonation {
		return Grant{}, fmt.Errorf("%w: purpose mismatch", ErrInvalidGrant)
	}
	if claims.Subject == "" || claims.ImpersonatorID == "" {
		return Grant{}, fmt.Errorf("%w: subject or issuer missing", ErrInvalidGrant)
	}
	target := Identity{
		AccountID: claims.Subject,
		Name:      claims.Name,
		Email:     claims.Email,
		Roles:     role.FromStrings(claims.Roles),
		ShopID:    claims.ShopID,
	}
	if target.Roles.Validate() != nil || target.IsPlatformAdmin() {
		return Grant{}, fmt.Errorf("%w: bad target roles", ErrInvalidGrant)
	}
	return Grant{Token: token, Target: target, IssuerID: claims.ImpersonatorID, ExpiresAt: claims.ExpiresAt.Time}, nil
}

/* ===================== INTERNAL ===================== */

func (m *Manager) registered(now time.Time, subject string, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    m.issuer,
		Subject:   subject,
		Audience:  audienceOrNil(m.audience),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
}

func (m *Manager) sign(claims jwt.Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.secret)
}

// sessionLeeway tolerates clock skew between API instances. Grants are signed
// and verified against the same clock and expire exactly at the hour.
const sessionLeeway = 30 * time.Second

func (m *Manager) parse(token string, claims jwt.Claims, now time.Time, leeway time.Duration) error {
	if token == "" {
		return fmt.Errorf("%w: empty", ErrInvalidToken)
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(leeway),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if m.audience != "" {
		opts = append(opts, jwt.WithAudience(m.audience))
	}

	_, err := jwt.NewParser(opts...).ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return nil
}

func audienceOrNil(aud string) jwt.ClaimStrings {
	if aud == "" {
		return nil
	}
	return jwt.ClaimStrings{aud}
}
