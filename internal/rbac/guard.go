package rbac

import (
	"strings"
)

// Guard evaluates one access rule against a request. A nil error means the rule passed.
type Guard interface {
	Evaluate(req Request) error
}

// GuardFunc adapts a function to the Guard interface.
type GuardFunc func(req Request) error

// Evaluate implements Guard.
func (f GuardFunc) Evaluate(req Request) error { return f(req) }

// Pipeline runs guards in order and stops at the first failure.
type Pipeline []Guard

// Evaluate implements Guard.
func (p Pipeline) Evaluate(req Request) error {
	for _, g := range p {
		if g == nil {
			continue
		}
		if err := g.Evaluate(req); err != nil {
			return err
		}
	}
	return nil
}

// Authenticated requires a resolved principal.
func Authenticated() Guard {
	return GuardFunc(func(req Request) error {
		if req.Principal == nil {
			return Deny(KindUnauthenticated, "Authentication required")
		}
		return nil
	})
}

// MinimumRole requires the principal to sit at or above min in the hierarchy.
func MinimumRole(min Role) Guard {
	return GuardFunc(func(req Request) error {
		if req.Principal == nil {
			return Deny(KindUnauthenticated, "Authentication required")
		}
		if !MeetsMinimum(req.Principal.Role, min) {
			return Deny(KindInsufficientRole, "Access denied. Minimum role required: %s", min)
		}
		return nil
	})
}

// RoleAllowlist requires the principal's role to be one of roles.
func RoleAllowlist(roles ...Role) Guard {
	allowed := make(map[Role]struct{}, len(roles))
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
		names = append(names, string(r))
	}
	required := strings.Join(names, ", ")
	return GuardFunc(func(req Request) error {
		if req.Principal == nil {
			return Deny(KindUnauthenticated, "Authentication required")
		}
		if _, ok := allowed[req.Principal.Role]; !ok {
			return Deny(KindInsufficientRole, "Access denied. Required roles: %s", required)
		}
		return nil
	})
}

// FeatureFlag requires the principal's role to hold flag.
func FeatureFlag(flag Flag) Guard {
	return GuardFunc(func(req Request) error {
		if req.Principal == nil {
			return Deny(KindUnauthenticated, "Authentication required")
		}
		if !HasFlag(req.Principal.Role, flag) {
			return Deny(KindPermissionDenied, "Permission denied: %s", flag)
		}
		return nil
	})
}

// MatrixAction requires the principal to hold action on the target's current role.
// Acting on one's own account always passes.
func MatrixAction(action Action) Guard {
	return GuardFunc(func(req Request) error {
		if req.Principal == nil {
			return Deny(KindUnauthenticated, "Authentication required")
		}
		if req.Target == nil {
			return Deny(KindNotFound, "Target user not found")
		}
		if req.IsSelf() {
			return nil
		}
		if !IsAllowed(req.Principal.Role, req.Target.Role, action) {
			return Deny(KindPermissionDenied, "You do not have permission to %s %s users", phrase(action), req.Target.Role)
		}
		return nil
	})
}

func phrase(a Action) string {
	if a == ActionChangePassword {
		return "change passwords for"
	}
	return string(a)
}

// OwnershipOrRole passes when the principal holds one of privileged or owns the resource.
func OwnershipOrRole(privileged ...Role) Guard {
	allowed := make(map[Role]struct{}, len(privileged))
	for _, r := range privileged {
		allowed[r] = struct{}{}
	}
	return GuardFunc(func(req Request) error {
		if req.Principal == nil {
			return Deny(KindUnauthenticated, "Authentication required")
		}
		if _, ok := allowed[req.Principal.Role]; ok {
			return nil
		}
		if req.OwnerID != "" && req.OwnerID == req.Principal.ID {
			return nil
		}
		return Deny(KindPermissionDenied, "Access denied. You can only access your own data.")
	})
}

// SelfOperation names an administrative operation a principal may not perform on itself.
type SelfOperation string

const (
	SelfDeactivate SelfOperation = "deactivate-self"
	SelfDelete     SelfOperation = "delete-self"
)

var selfMessages = map[SelfOperation]string{
	SelfDeactivate: "Cannot change your own status",
	SelfDelete:     "Cannot delete your own account",
}

// CheckSelfModification rejects op when principal and target are the same account.
func CheckSelfModification(req Request, op SelfOperation) error {
	if !req.IsSelf() {
		return nil
	}
	msg, ok := selfMessages[op]
	if !ok {
		msg = "Cannot perform this operation on your own account"
	}
	return Deny(KindSelfModificationDenied, "%s", msg)
}

// ForbidSelf wraps CheckSelfModification as a Guard.
func ForbidSelf(op SelfOperation) Guard {
	return GuardFunc(func(req Request) error {
		return CheckSelfModification(req, op)
	})
}
