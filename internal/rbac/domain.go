package rbac

// Role is one of the three fixed portal roles.
type Role string

const (
	RoleEmp        Role = "emp"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// Status is the account status of a user record.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Principal describes an authenticated actor or the target of an operation.
// Only the fields the authorization core consumes are carried here.
type Principal struct {
	ID     string
	Role   Role
	Status Status
}

// Active reports whether the account may authenticate.
func (p Principal) Active() bool {
	return p.Status == StatusActive
}
