package rbac

import (
	"errors"
	"fmt"
)

// Kind classifies an authorization failure.
type Kind string

const (
	KindUnauthenticated        Kind = "unauthenticated"
	KindInsufficientRole       Kind = "insufficient_role"
	KindPermissionDenied       Kind = "permission_denied"
	KindSelfModificationDenied Kind = "self_modification_denied"
	KindNotFound               Kind = "not_found"
	// KindUnavailable reports a store fault during resolution.
	KindUnavailable Kind = "unavailable"
)

var (
	// ErrNoRecord is returned by a Directory when the identifier has no backing record.
	ErrNoRecord = errors.New("rbac: no record")
	// ErrPrincipalNotFound indicates the token subject no longer exists.
	ErrPrincipalNotFound = errors.New("rbac: principal not found")
	// ErrAccountDisabled indicates the token subject is not active.
	ErrAccountDisabled = errors.New("rbac: account disabled")
)

// Denial is the structured result of a failed guard. It is terminal for the request.
type Denial struct {
	Kind    Kind
	Message string
	Err     error
}

func (d *Denial) Error() string {
	if d.Err != nil {
		return fmt.Sprintf("%s: %s: %v", d.Kind, d.Message, d.Err)
	}
	return fmt.Sprintf("%s: %s", d.Kind, d.Message)
}

func (d *Denial) Unwrap() error { return d.Err }

// Deny builds a Denial with a formatted message.
func Deny(kind Kind, format string, args ...any) *Denial {
	return &Denial{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func denyWith(kind Kind, err error, message string) *Denial {
	return &Denial{Kind: kind, Message: message, Err: err}
}

// AsDenial extracts a Denial from err.
func AsDenial(err error) (*Denial, bool) {
	var d *Denial
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

// KindOf returns the denial kind of err. Errors that are not denials are
// reported as KindUnavailable so callers never mistake them for success.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if d, ok := AsDenial(err); ok {
		return d.Kind
	}
	return KindUnavailable
}
