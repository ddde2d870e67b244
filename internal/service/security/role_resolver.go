// Package security resolves the current role of an authenticated principal.
package security

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jobboard/internal/domain"
)

const defaultLookupTimeout = 3 * time.Second

// RoleReader reads one profile's role.
type RoleReader interface {
	GetRole(ctx context.Context, id string) (domain.Role, error)
}

// RoleSource hands out the profile store used for role lookups. The client
// factory implements it with the admin database client, which may fail to
// construct.
type RoleSource interface {
	Roles(ctx context.Context) (RoleReader, error)
}

// StaticRoleSource adapts an already-built reader.
type StaticRoleSource struct{ Reader RoleReader }

func (s StaticRoleSource) Roles(context.Context) (RoleReader, error) { return s.Reader, nil }

// RoleResolver reads a principal's role from the profile store on every
// call. Nothing is cached between calls.
type RoleResolver struct {
	source  RoleSource
	timeout time.Duration
}

// NewRoleResolver creates a resolver. timeout bounds one lookup.
func NewRoleResolver(source RoleSource, timeout time.Duration) *RoleResolver {
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	return &RoleResolver{source: source, timeout: timeout}
}

// Resolve returns the current role for principalID.
//
// Failures are tagged domain.KindProfileNotFound when no profile row exists
// and domain.KindStoreError for anything else, including a timeout or a
// profile store that cannot be constructed. A NULL role resolves to the
// empty Role, which no route family admits.
func (r *RoleResolver) Resolve(ctx context.Context, principalID string) (domain.Role, error) {
	const op = "security.resolve_role"
	if principalID == "" {
		return "", domain.E(domain.KindProfileNotFound, op, errors.New("empty principal id"))
	}

	reader, err := r.source.Roles(ctx)
	if err != nil {
		return "", domain.E(domain.KindStoreError, op, fmt.Errorf("profile store: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	role, err := reader.GetRole(ctx, principalID)
	if err != nil {
		var nf *domain.NotFoundError
		if errors.As(err, &nf) {
			return "", domain.E(domain.KindProfileNotFound, op, err)
		}
		return "", domain.E(domain.KindStoreError, op, err)
	}
	return role, nil
}
