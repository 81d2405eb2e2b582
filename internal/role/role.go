package role

import (
	"errors"
	"sort"
	"strings"
)

// Role names. Keep these stable; they are persisted and embedded in signed tokens.
type Role string

const (
	SuperAdmin Role = "SUPER_ADMIN"
	Admin      Role = "ADMIN"
	Trainer    Role = "TRAINER"
	Member     Role = "MEMBER"
)

var (
	ErrEmptySet    = errors.New("role: set is empty")
	ErrDuplicate   = errors.New("role: duplicate role")
	ErrUnknownRole = errors.New("role: unknown role")
)

// priority ranks roles for dashboard redirects. Lower wins.
var priority = map[Role]int{
	SuperAdmin: 0,
	Admin:      1,
	Trainer:    2,
	Member:     3,
}

var home = map[Role]string{
	SuperAdmin: "/super-admin",
	Admin:      "/admin",
	Trainer:    "/trainer",
	Member:     "/member",
}

func (r Role) Valid() bool {
	_, ok := priority[r]
	return ok
}

// IsPlatform reports whether r operates above tenants.
func (r Role) IsPlatform() bool { return r == SuperAdmin }

// Set is the role set held by one account. Order carries no meaning.
type Set []Role

// Parse converts raw role names into a validated Set.
func Parse(raw []string) (Set, error) {
	out := make(Set, 0, len(raw))
	for _, s := range raw {
		out = append(out, Role(strings.ToUpper(strings.TrimSpace(s))))
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate enforces: non-empty, known roles only, no duplicates.
func (s Set) Validate() error {
	if len(s) == 0 {
		return ErrEmptySet
	}
	seen := make(map[Role]struct{}, len(s))
	for _, r := range s {
		if !r.Valid() {
			return ErrUnknownRole
		}
		if _, dup := seen[r]; dup {
			return ErrDuplicate
		}
		seen[r] = struct{}{}
	}
	return nil
}

func (s Set) Has(r Role) bool {
	for _, have := range s {
		if have == r {
			return true
		}
	}
	return false
}

// HasAny is true when any held role is in allowed (OR across the set).
func (s Set) HasAny(allowed ...Role) bool {
	for _, r := range allowed {
		if s.Has(r) {
			return true
		}
	}
	return false
}

func (s Set) IsPlatformAdmin() bool { return s.Has(SuperAdmin) }

// Primary returns the highest-priority role, or "" for an empty set.
func (s Set) Primary() Role {
	var best Role
	bestRank := len(priority)
	for _, r := range s {
		if rank, ok := priority[r]; ok && rank < bestRank {
			best, bestRank = r, rank
		}
	}
	return best
}

// Home is the dashboard route for the highest-priority role.
func (s Set) Home() string {
	if h, ok := home[s.Primary()]; ok {
		return h
	}
	return "/login"
}

// With returns a copy of s including r.
func (s Set) With(r Role) Set {
	if s.Has(r) {
		return s.Clone()
	}
	return append(s.Clone(), r)
}

func (s Set) Clone() Set {
	out := make(Set, len(s))
	copy(out, s)
	return out
}

// Strings returns role names sorted by priority, for tokens and storage.
func (s Set) Strings() []string {
	c := s.Clone()
	sort.SliceStable(c, func(i, j int) bool { return priority[c[i]] < priority[c[j]] })
	out := make([]string, len(c))
	for i, r := range c {
		out[i] = string(r)
	}
	return out
}

// FromStrings converts without validation. Unknown names are kept so that
// callers can still detect them with Validate.
func FromStrings(raw []string) Set {
	out := make(Set, len(raw))
	for i, s := range raw {
		out[i] = Role(s)
	}
	return out
}
