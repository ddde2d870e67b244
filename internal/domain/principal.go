package domain

import (
	"sort"
	"strings"
	"time"
)

// Principal is a verified identity derived from a bearer token. It lives for
// one request only.
type Principal struct {
	ID    string
	Email string
}

// Role is a coarse privilege label stored on a profile.
type Role string

const (
	RoleFree      Role = "free"
	RoleCandidate Role = "candidate"
	RolePro       Role = "pro"
	RoleRecruiter Role = "recruiter"
	RoleCompany   Role = "company"
	RoleAdmin     Role = "admin"
	RoleOwner     Role = "owner"
)

var knownRoles = map[Role]struct{}{
	RoleFree: {}, RoleCandidate: {}, RolePro: {}, RoleRecruiter: {},
	RoleCompany: {}, RoleAdmin: {}, RoleOwner: {},
}

// Valid reports whether r is one of the closed set of roles.
func (r Role) Valid() bool {
	_, ok := knownRoles[r]
	return ok
}

// ParseRole normalizes s and validates it against the closed role set.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", ErrValidation("unknown role %q", s)
	}
	return r, nil
}

// RoleSet is an immutable set of roles a route family accepts.
type RoleSet struct {
	roles map[Role]struct{}
}

// NewRoleSet builds a RoleSet. An empty set admits nobody.
func NewRoleSet(roles ...Role) RoleSet {
	m := make(map[Role]struct{}, len(roles))
	for _, r := range roles {
		m[r] = struct{}{}
	}
	return RoleSet{roles: m}
}

// Contains reports whether r is in the set. The empty role is never a member.
func (s RoleSet) Contains(r Role) bool {
	if r == "" {
		return false
	}
	_, ok := s.roles[r]
	return ok
}

// Roles returns the members in sorted order.
func (s RoleSet) Roles() []Role {
	out := make([]Role, 0, len(s.roles))
	for r := range s.roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s RoleSet) String() string {
	parts := make([]string, 0, len(s.roles))
	for _, r := range s.Roles() {
		parts = append(parts, string(r))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Route families. Administrators are members of every family.
var (
	AdminRoles     = NewRoleSet(RoleAdmin, RoleOwner)
	RecruiterRoles = NewRoleSet(RolePro, RoleRecruiter, RoleCompany, RoleAdmin, RoleOwner)
	CandidateRoles = NewRoleSet(RoleCandidate, RoleFree, RolePro, RoleAdmin, RoleOwner)
)

// Profile is the per-user row holding the mutable role.
type Profile struct {
	ID        string
	Email     string
	FullName  string
	Role      Role
	UpdatedAt time.Time
}

// Subscription mirrors a billing subscription for a user.
type Subscription struct {
	ID                   string
	UserID               string
	PlanID               string
	Status               string
	StripeCustomerID     string
	StripeSubscriptionID string
	CurrentPeriodEnd     *time.Time
}

// SubscriptionActive reports whether a billing status grants paid features.
func SubscriptionActive(status string) bool {
	return status == "active" || status == "trialing"
}

// UpdateRoleRequest holds parameters for an administrative role change.
type UpdateRoleRequest struct {
	UserID string
	Role   string
}

// Validate checks that the request is well-formed.
func (r *UpdateRoleRequest) Validate() (Role, error) {
	if r.UserID == "" {
		return "", ErrValidation("user id is required")
	}
	if r.Role == "" {
		return "", ErrValidation("No updatable fields provided.")
	}
	return ParseRole(r.Role)
}
