package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, err := ParseRole("  Admin ")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	_, err = ParseRole("superuser")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	_, err = ParseRole("")
	require.Error(t, err)
}

func TestRoleSet(t *testing.T) {
	s := NewRoleSet(RoleAdmin, RoleOwner)
	assert.True(t, s.Contains(RoleAdmin))
	assert.False(t, s.Contains(RolePro))
	assert.False(t, s.Contains(""))
	assert.Equal(t, []Role{RoleAdmin, RoleOwner}, s.Roles())
	assert.Equal(t, "{admin,owner}", s.String())

	empty := NewRoleSet()
	assert.False(t, empty.Contains(RoleAdmin))
}

func TestRouteFamilies(t *testing.T) {
	for _, r := range []Role{RoleAdmin, RoleOwner} {
		assert.True(t, AdminRoles.Contains(r))
		assert.True(t, RecruiterRoles.Contains(r))
		assert.True(t, CandidateRoles.Contains(r))
	}
	assert.False(t, AdminRoles.Contains(RolePro))
	assert.True(t, RecruiterRoles.Contains(RolePro))
	assert.False(t, RecruiterRoles.Contains(RoleFree))
	assert.True(t, CandidateRoles.Contains(RoleFree))
	assert.False(t, CandidateRoles.Contains(RoleRecruiter))
}

func TestUpdateRoleRequest_Validate(t *testing.T) {
	r, err := (&UpdateRoleRequest{UserID: "u", Role: "pro"}).Validate()
	require.NoError(t, err)
	assert.Equal(t, RolePro, r)

	_, err = (&UpdateRoleRequest{UserID: "u"}).Validate()
	require.EqualError(t, err, "No updatable fields provided.")

	_, err = (&UpdateRoleRequest{Role: "pro"}).Validate()
	require.Error(t, err)
}

func TestSubscriptionActive(t *testing.T) {
	assert.True(t, SubscriptionActive("active"))
	assert.True(t, SubscriptionActive("trialing"))
	assert.False(t, SubscriptionActive("past_due"))
	assert.False(t, SubscriptionActive("canceled"))
}

func TestContextCarriers(t *testing.T) {
	ctx := context.Background()
	_, ok := PrincipalFromContext(ctx)
	assert.False(t, ok)

	_, ok = PrincipalFromContext(WithPrincipal(ctx, Principal{}))
	assert.False(t, ok, "a principal without an id is not a principal")

	ctx = WithPrincipal(ctx, Principal{ID: "u1", Email: "u@example.com"})
	p, ok := PrincipalFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "u1", p.ID)

	_, ok = RoleFromContext(ctx)
	assert.False(t, ok)
	r, ok := RoleFromContext(WithRole(ctx, RolePro))
	require.True(t, ok)
	assert.Equal(t, RolePro, r)
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
