package rbac

import (
	"context"
	"errors"
	"strings"
)

// TokenVerifier turns request credentials into a claimed user identifier.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// Directory looks up account records. Implementations must read from the
// backing store on every call and return ErrNoRecord when id is unknown.
type Directory interface {
	Lookup(ctx context.Context, id string) (Principal, error)
}

// Resolver establishes principals and targets for a request.
type Resolver struct {
	verifier  TokenVerifier
	directory Directory
}

// NewResolver constructs a Resolver.
func NewResolver(verifier TokenVerifier, directory Directory) *Resolver {
	return &Resolver{verifier: verifier, directory: directory}
}

// Resolve verifies evidence and loads the corresponding active principal.
func (r *Resolver) Resolve(ctx context.Context, evidence string) (Principal, error) {
	evidence = strings.TrimSpace(evidence)
	if evidence == "" {
		return Principal{}, Deny(KindUnauthenticated, "Authentication token is required")
	}
	if r == nil || r.verifier == nil || r.directory == nil {
		return Principal{}, Deny(KindUnavailable, "Authorization is not configured")
	}
	userID, err := r.verifier.Verify(ctx, evidence)
	if err != nil {
		return Principal{}, denyWith(KindUnauthenticated, err, "Invalid or expired token")
	}
	p, err := r.directory.Lookup(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNoRecord) {
			return Principal{}, denyWith(KindUnauthenticated, ErrPrincipalNotFound, "User not found")
		}
		return Principal{}, denyWith(KindUnavailable, err, "Unable to load user")
	}
	if !p.Active() {
		return Principal{}, denyWith(KindUnauthenticated, ErrAccountDisabled, "User account is disabled")
	}
	return p, nil
}

// ResolveTarget loads the account addressed by id. Disabled accounts are returned.
func (r *Resolver) ResolveTarget(ctx context.Context, id string) (Principal, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Principal{}, Deny(KindNotFound, "User ID is required")
	}
	if r == nil || r.directory == nil {
		return Principal{}, Deny(KindUnavailable, "Authorization is not configured")
	}
	p, err := r.directory.Lookup(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNoRecord) {
			return Principal{}, Deny(KindNotFound, "User not found")
		}
		return Principal{}, denyWith(KindUnavailable, err, "Unable to load user")
	}
	return p, nil
}
