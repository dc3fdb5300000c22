package authz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-hub/campus-hub/internal/authz"
)

func TestAnonymousDeniedOnGuardedActions(t *testing.T) {
	engine := newEngine()
	anon := authz.Anonymous()

	guarded := []struct {
		resource string
		action   authz.Action
	}{
		{authz.ResourceEvents, authz.ActionCreate},
		{authz.ResourceEvents, authz.ActionEdit},
		{authz.ResourceEvents, authz.ActionDelete},
		{authz.ResourceEvents, authz.ActionModerate},
		{authz.ResourceUsers, authz.ActionShow},
		{authz.ResourceUsers, authz.ActionCreate},
		{authz.ResourceUsers, authz.ActionEdit},
		{authz.ResourceUsers, authz.ActionDelete},
		{authz.ResourceUsers, authz.ActionSwitchRole},
		{authz.ResourceVisitLogs, authz.ActionShowAll},
		{authz.ResourceVisitLogs, authz.ActionShowStatisticsPage},
		{authz.ResourceCourses, authz.ActionCreate},
		{authz.ResourceCourses, authz.ActionEdit},
		{authz.ResourceCourses, authz.ActionDelete},
		{authz.ResourceReviews, authz.ActionCreate},
	}
	for _, g := range guarded {
		// Context content must not matter for the anonymous short-circuit.
		for _, c := range []authz.Context{{}, authz.WithTarget(42)} {
			allowed, err := engine.Allowed(g.resource, g.action, anon, c)
			require.NoError(t, err)
			assert.False(t, allowed, "anonymous must not %s %s", g.action, g.resource)
		}
	}
}

func TestPublicShowAllowsAnonymous(t *testing.T) {
	engine := newEngine()

	for _, resource := range []string{authz.ResourceEvents, authz.ResourceCourses} {
		allowed, err := engine.Allowed(resource, authz.ActionShow, authz.Anonymous(), authz.Context{})
		require.NoError(t, err)
		assert.True(t, allowed, "%s pages are public", resource)
	}
}

func TestAdminAllUserSelf(t *testing.T) {
	engine := newEngine()

	self := authz.Authenticated(7, authz.RoleUser)

	allowed, err := engine.Allowed(authz.ResourceUsers, authz.ActionShow, self, authz.WithTarget(7))
	require.NoError(t, err)
	assert.True(t, allowed, "users may view their own profile")

	allowed, err = engine.Allowed(authz.ResourceUsers, authz.ActionShow, self, authz.WithTarget(8))
	require.NoError(t, err)
	assert.False(t, allowed, "users may not view other profiles")

	admin := authz.Authenticated(7, authz.RoleAdmin)
	for _, target := range []int64{7, 8} {
		allowed, err = engine.Allowed(authz.ResourceUsers, authz.ActionShow, admin, authz.WithTarget(target))
		require.NoError(t, err)
		assert.True(t, allowed, "admins may view any profile")
	}

	moderator := authz.Authenticated(7, authz.RoleModerator)
	allowed, err = engine.Allowed(authz.ResourceUsers, authz.ActionEdit, moderator, authz.WithTarget(7))
	require.NoError(t, err)
	assert.False(t, allowed, "moderators hold no user-management rights")
}

func TestAdminAllUserSelfMissingTargetPanics(t *testing.T) {
	engine := newEngine()

	require.Panics(t, func() {
		_, _ = engine.Allowed(authz.ResourceUsers, authz.ActionShow, authz.Authenticated(7, authz.RoleUser), authz.Context{})
	})
}

func TestEventsPolicyRoles(t *testing.T) {
	engine := newEngine()

	cases := []struct {
		actor   authz.Actor
		action  authz.Action
		allowed bool
	}{
		{authz.Authenticated(1, authz.RoleAdmin), authz.ActionCreate, true},
		{authz.Authenticated(2, authz.RoleModerator), authz.ActionCreate, false},
		{authz.Authenticated(2, authz.RoleModerator), authz.ActionEdit, true},
		{authz.Authenticated(3, authz.RoleUser), authz.ActionEdit, false},
		{authz.Authenticated(1, authz.RoleAdmin), authz.ActionDelete, true},
		{authz.Authenticated(2, authz.RoleModerator), authz.ActionDelete, false},
		{authz.Authenticated(2, authz.RoleModerator), authz.ActionModerate, true},
		{authz.Authenticated(3, authz.RoleUser), authz.ActionModerate, false},
	}
	for _, tc := range cases {
		allowed, err := engine.Allowed(authz.ResourceEvents, tc.action, tc.actor, authz.Context{})
		require.NoError(t, err)
		assert.Equal(t, tc.allowed, allowed, "%s as %s", tc.action, tc.actor.Role)
	}
}

func TestVisitLogsPolicyRoles(t *testing.T) {
	engine := newEngine()

	allowed, err := engine.Allowed(authz.ResourceVisitLogs, authz.ActionShowAll, authz.Authenticated(2, authz.RoleModerator), authz.Context{})
	require.NoError(t, err)
	assert.False(t, allowed, "only admins see the full journal")

	allowed, err = engine.Allowed(authz.ResourceVisitLogs, authz.ActionShowStatisticsPage, authz.Authenticated(2, authz.RoleModerator), authz.Context{})
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = engine.Allowed(authz.ResourceVisitLogs, authz.ActionShowStatisticsPage, authz.Authenticated(3, authz.RoleUser), authz.Context{})
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestReviewsPolicyAnyAuthenticatedRole(t *testing.T) {
	engine := newEngine()

	for _, role := range []string{authz.RoleUser, authz.RoleModerator, authz.RoleAdmin} {
		allowed, err := engine.Allowed(authz.ResourceReviews, authz.ActionCreate, authz.Authenticated(9, role), authz.Context{})
		require.NoError(t, err)
		assert.True(t, allowed, "role %s may leave reviews", role)
	}
}
