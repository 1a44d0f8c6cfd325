package rbac

// Action is an operation one user performs on another user account.
type Action string

const (
	ActionCreate         Action = "create"
	ActionView           Action = "view"
	ActionUpdate         Action = "update"
	ActionDelete         Action = "delete"
	ActionChangePassword Action = "change_password"
)

// Actions lists every action in canonical order.
func Actions() []Action {
	return []Action{ActionCreate, ActionView, ActionUpdate, ActionDelete, ActionChangePassword}
}

// ParseAction validates raw against the closed action set.
func ParseAction(raw string) (Action, bool) {
	for _, a := range Actions() {
		if string(a) == raw {
			return a, true
		}
	}
	return "", false
}

type actionSet map[Action]struct{}

func newActionSet(actions ...Action) actionSet {
	set := make(actionSet, len(actions))
	for _, a := range actions {
		set[a] = struct{}{}
	}
	return set
}

// matrix maps requester role -> target role -> permitted actions.
// Every pair is present; an empty set means no permission.
var matrix = map[Role]map[Role]actionSet{
	RoleSuperAdmin: {
		RoleSuperAdmin: newActionSet(ActionView),
		RoleAdmin:      newActionSet(Actions()...),
		RoleEmp:        newActionSet(Actions()...),
	},
	RoleAdmin: {
		RoleSuperAdmin: newActionSet(),
		RoleAdmin:      newActionSet(),
		RoleEmp:        newActionSet(Actions()...),
	},
	RoleEmp: {
		RoleSuperAdmin: newActionSet(),
		RoleAdmin:      newActionSet(),
		RoleEmp:        newActionSet(),
	},
}

// AllowedActions returns the actions requester may perform on an account of
// role target, in canonical order. Unknown roles yield an empty slice.
func AllowedActions(requester, target Role) []Action {
	set := matrix[requester][target]
	out := make([]Action, 0, len(set))
	for _, a := range Actions() {
		if _, ok := set[a]; ok {
			out = append(out, a)
		}
	}
	return out
}

// IsAllowed reports whether requester may perform action on an account of role target.
func IsAllowed(requester, target Role, action Action) bool {
	_, ok := matrix[requester][target][action]
	return ok
}

// ViewableRoles returns the target roles requester holds the view action on.
func ViewableRoles(requester Role) []Role {
	var roles []Role
	for _, target := range Roles() {
		if IsAllowed(requester, target, ActionView) {
			roles = append(roles, target)
		}
	}
	return roles
}
