package authz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-hub/campus-hub/internal/authz"
)

func newEngine() *authz.Engine {
	return authz.NewEngine(authz.DefaultPolicies())
}

func TestAllowedUnknownResource(t *testing.T) {
	engine := newEngine()

	allowed, err := engine.Allowed("payments", authz.ActionShow, authz.Authenticated(1, authz.RoleAdmin), authz.Context{})
	require.Error(t, err)
	require.ErrorIs(t, err, authz.ErrUnknownResource)
	assert.False(t, allowed)
}

func TestAllowedClosedByDefault(t *testing.T) {
	engine := newEngine()

	actors := map[string]authz.Actor{
		"anonymous": authz.Anonymous(),
		"user":      authz.Authenticated(3, authz.RoleUser),
		"moderator": authz.Authenticated(4, authz.RoleModerator),
		"admin":     authz.Authenticated(5, authz.RoleAdmin),
	}

	// switch_role is only defined on the users policy; every other resource
	// must deny it for every actor, admins included.
	for name, actor := range actors {
		for _, resource := range []string{authz.ResourceEvents, authz.ResourceVisitLogs, authz.ResourceCourses, authz.ResourceReviews} {
			allowed, err := engine.Allowed(resource, authz.ActionSwitchRole, actor, authz.Context{})
			require.NoError(t, err)
			assert.False(t, allowed, "%s should not switch roles on %s", name, resource)
		}
	}
}

func TestAllowedUnlistedActionName(t *testing.T) {
	engine := newEngine()

	allowed, err := engine.Allowed(authz.ResourceEvents, authz.Action("export"), authz.Authenticated(1, authz.RoleAdmin), authz.Context{})
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestAllowedDispatchesToResourcePolicy(t *testing.T) {
	engine := newEngine()
	admin := authz.Authenticated(1, authz.RoleAdmin)

	allowed, err := engine.Allowed(authz.ResourceEvents, authz.ActionCreate, admin, authz.Context{})
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = engine.Allowed(authz.ResourceVisitLogs, authz.ActionCreate, admin, authz.Context{})
	require.NoError(t, err)
	assert.False(t, allowed, "visit logs are written by the system, not created by hand")
}
