package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrixCoversEveryPair(t *testing.T) {
	all := Actions()
	cases := []struct {
		requester Role
		target    Role
		want      []Action
	}{
		{RoleSuperAdmin, RoleSuperAdmin, []Action{ActionView}},
		{RoleSuperAdmin, RoleAdmin, all},
		{RoleSuperAdmin, RoleEmp, all},
		{RoleAdmin, RoleSuperAdmin, []Action{}},
		{RoleAdmin, RoleAdmin, []Action{}},
		{RoleAdmin, RoleEmp, all},
		{RoleEmp, RoleSuperAdmin, []Action{}},
		{RoleEmp, RoleAdmin, []Action{}},
		{RoleEmp, RoleEmp, []Action{}},
	}
	require.Len(t, cases, len(Roles())*len(Roles()))

	for _, tc := range cases {
		t.Run(string(tc.requester)+"->"+string(tc.target), func(t *testing.T) {
			got := AllowedActions(tc.requester, tc.target)
			assert.NotNil(t, got)
			assert.Equal(t, tc.want, got)
			for _, action := range all {
				assert.Equal(t, contains(tc.want, action), IsAllowed(tc.requester, tc.target, action), "action %s", action)
			}
		})
	}
}

func TestMatrixUnknownRoles(t *testing.T) {
	assert.Empty(t, AllowedActions("bogus_role", RoleEmp))
	assert.Empty(t, AllowedActions(RoleSuperAdmin, "bogus_role"))
	assert.False(t, IsAllowed("bogus_role", RoleEmp, ActionView))
	assert.False(t, IsAllowed(RoleSuperAdmin, RoleEmp, "archive"))
}

func TestViewableRoles(t *testing.T) {
	assert.Equal(t, []Role{RoleEmp, RoleAdmin, RoleSuperAdmin}, ViewableRoles(RoleSuperAdmin))
	assert.Equal(t, []Role{RoleEmp}, ViewableRoles(RoleAdmin))
	assert.Empty(t, ViewableRoles(RoleEmp))
}

func TestParseAction(t *testing.T) {
	a, ok := ParseAction("change_password")
	assert.True(t, ok)
	assert.Equal(t, ActionChangePassword, a)

	_, ok = ParseAction("Change_Password")
	assert.False(t, ok)
}

func TestRoleHierarchy(t *testing.T) {
	assert.Less(t, Level(RoleEmp), Level(RoleAdmin))
	assert.Less(t, Level(RoleAdmin), Level(RoleSuperAdmin))
	assert.Equal(t, levelUnknown, Level("bogus_role"))

	assert.True(t, MeetsMinimum(RoleSuperAdmin, RoleAdmin))
	assert.True(t, MeetsMinimum(RoleAdmin, RoleAdmin))
	assert.False(t, MeetsMinimum(RoleEmp, RoleAdmin))
	assert.False(t, MeetsMinimum("bogus_role", RoleEmp))
	assert.False(t, MeetsMinimum(RoleSuperAdmin, "bogus_role"))

	_, ok := ParseRole("SUPER_ADMIN")
	assert.False(t, ok)
	role, ok := ParseRole("admin")
	assert.True(t, ok)
	assert.Equal(t, RoleAdmin, role)
}

func TestFlags(t *testing.T) {
	for _, flag := range []Flag{FlagManageUsers, FlagManageAdmins, FlagManageCategories, FlagManageAudiences, FlagViewAnalytics} {
		assert.True(t, HasFlag(RoleSuperAdmin, flag), "super_admin %s", flag)
		assert.False(t, HasFlag(RoleEmp, flag), "emp %s", flag)
	}
	assert.True(t, HasFlag(RoleAdmin, FlagManageUsers))
	assert.True(t, HasFlag(RoleAdmin, FlagManageAudiences))
	assert.True(t, HasFlag(RoleAdmin, FlagViewAnalytics))
	assert.False(t, HasFlag(RoleAdmin, FlagManageAdmins))
	assert.False(t, HasFlag(RoleAdmin, FlagManageCategories))
	assert.False(t, HasFlag("bogus_role", FlagManageUsers))
	assert.False(t, HasFlag(RoleSuperAdmin, "can_launch_rockets"))

	flags := Flags(RoleAdmin)
	flags[FlagManageAdmins] = true
	assert.False(t, HasFlag(RoleAdmin, FlagManageAdmins), "Flags must return a copy")
}

func contains(actions []Action, a Action) bool {
	for _, x := range actions {
		if x == a {
			return true
		}
	}
	return false
}
