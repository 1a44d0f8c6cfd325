package rbac

// Flag gates a portal feature independent of any target account.
type Flag string

const (
	FlagManageUsers      Flag = "can_manage_users"
	FlagManageAdmins     Flag = "can_manage_admins"
	FlagManageCategories Flag = "can_manage_categories"
	FlagManageAudiences  Flag = "can_manage_audiences"
	FlagViewAnalytics    Flag = "can_view_analytics"
)

var roleFlags = map[Role]map[Flag]bool{
	RoleSuperAdmin: {
		FlagManageUsers:      true,
		FlagManageAdmins:     true,
		FlagManageCategories: true,
		FlagManageAudiences:  true,
		FlagViewAnalytics:    true,
	},
	RoleAdmin: {
		FlagManageUsers:      true,
		FlagManageAdmins:     false,
		FlagManageCategories: false,
		FlagManageAudiences:  true,
		FlagViewAnalytics:    true,
	},
	RoleEmp: {
		FlagManageUsers:      false,
		FlagManageAdmins:     false,
		FlagManageCategories: false,
		FlagManageAudiences:  false,
		FlagViewAnalytics:    false,
	},
}

// HasFlag reports whether role holds flag. Unknown roles and flags are false.
func HasFlag(role Role, flag Flag) bool {
	return roleFlags[role][flag]
}

// Flags returns a copy of the flag table for role.
func Flags(role Role) map[Flag]bool {
	src := roleFlags[role]
	out := make(map[Flag]bool, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
