package rbac

// levelUnknown sits below every valid level so unknown roles fail minimum checks.
const levelUnknown = -1

var roleLevels = map[Role]int{
	RoleEmp:        0,
	RoleAdmin:      1,
	RoleSuperAdmin: 2,
}

// Roles lists the valid roles in ascending order.
func Roles() []Role {
	return []Role{RoleEmp, RoleAdmin, RoleSuperAdmin}
}

// ParseRole validates raw against the closed role set.
func ParseRole(raw string) (Role, bool) {
	role := Role(raw)
	if _, ok := roleLevels[role]; !ok {
		return "", false
	}
	return role, true
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleLevels[r]
	return ok
}

// Level returns the hierarchy level of role, or -1 when role is unknown.
func Level(role Role) int {
	if level, ok := roleLevels[role]; ok {
		return level
	}
	return levelUnknown
}

// MeetsMinimum reports whether role is at or above min in the hierarchy.
// An unknown role never qualifies and an unknown minimum cannot be met.
func MeetsMinimum(role, min Role) bool {
	have := Level(role)
	need, ok := roleLevels[min]
	if have == levelUnknown || !ok {
		return false
	}
	return have >= need
}
