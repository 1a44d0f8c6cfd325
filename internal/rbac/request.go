package rbac

import "context"

// Request is the per-request authorization context handed to guards and handlers.
// It is a value type; the With* methods return modified copies.
type Request struct {
	Principal *Principal
	Target    *Principal
	// OwnerID identifies the owner of the addressed resource, when there is one.
	OwnerID string
}

// WithPrincipal returns a copy of r carrying p as the requester.
func (r Request) WithPrincipal(p Principal) Request {
	r.Principal = &p
	return r
}

// WithTarget returns a copy of r carrying t as the addressed account.
func (r Request) WithTarget(t Principal) Request {
	r.Target = &t
	return r
}

// WithOwner returns a copy of r addressing a resource owned by id.
func (r Request) WithOwner(id string) Request {
	r.OwnerID = id
	return r
}

// IsSelf reports whether principal and target are the same account.
func (r Request) IsSelf() bool {
	return r.Principal != nil && r.Target != nil && r.Principal.ID == r.Target.ID
}

type requestContextKey struct{}

// ContextWithRequest stores req in ctx.
func ContextWithRequest(ctx context.Context, req Request) context.Context {
	return context.WithValue(ctx, requestContextKey{}, req)
}

// RequestFromContext extracts the authorization request from ctx.
func RequestFromContext(ctx context.Context) Request {
	req, _ := ctx.Value(requestContextKey{}).(Request)
	return req
}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	req := RequestFromContext(ctx)
	if req.Principal == nil {
		return Principal{}, false
	}
	return *req.Principal, true
}
