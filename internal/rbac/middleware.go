package rbac

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/adminportal/internal/platform/httpx"
)

// Middleware wires the authorization core into HTTP handlers.
type Middleware struct {
	Resolver *Resolver
	Logger   *slog.Logger
	// OnDeny, when set, observes every denial written by the middleware.
	OnDeny func(kind Kind)
}

// Authenticate resolves the bearer token into a principal and stores it on the
// request context. Requests without a valid active principal never reach next.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := m.Resolver.Resolve(r.Context(), bearerToken(r))
		if err != nil {
			m.WriteDenial(w, r, err)
			return
		}
		req := RequestFromContext(r.Context()).WithPrincipal(principal)
		next.ServeHTTP(w, r.WithContext(ContextWithRequest(r.Context(), req)))
	})
}

// Target resolves the account named by the URL parameter param.
func (m Middleware) Target(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			target, err := m.Resolver.ResolveTarget(r.Context(), chi.URLParam(r, param))
			if err != nil {
				m.WriteDenial(w, r, err)
				return
			}
			req := RequestFromContext(r.Context()).WithTarget(target)
			next.ServeHTTP(w, r.WithContext(ContextWithRequest(r.Context(), req)))
		})
	}
}

// Prospective sets an account that does not exist yet, holding role, as the
// target. Creation routes use it so the matrix can judge the new account's role.
func (m Middleware) Prospective(role Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req := RequestFromContext(r.Context()).WithTarget(Principal{Role: role, Status: StatusActive})
			next.ServeHTTP(w, r.WithContext(ContextWithRequest(r.Context(), req)))
		})
	}
}

// Owner records the URL parameter param as the owner of the addressed resource.
func (m Middleware) Owner(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req := RequestFromContext(r.Context()).WithOwner(chi.URLParam(r, param))
			next.ServeHTTP(w, r.WithContext(ContextWithRequest(r.Context(), req)))
		})
	}
}

// Require evaluates guards in order against the request context.
func (m Middleware) Require(guards ...Guard) func(http.Handler) http.Handler {
	pipeline := Pipeline(guards)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := pipeline.Evaluate(RequestFromContext(r.Context())); err != nil {
				m.WriteDenial(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WriteDenial renders err as a problem response. Errors that are not denials
// are rendered as unavailable; they are never treated as a grant.
func (m Middleware) WriteDenial(w http.ResponseWriter, r *http.Request, err error) {
	d, ok := AsDenial(err)
	if !ok {
		d = denyWith(KindUnavailable, err, "Authorization failed")
	}
	if m.Logger != nil {
		attrs := []any{slog.String("kind", string(d.Kind)), slog.String("path", r.URL.Path)}
		if d.Kind == KindUnavailable {
			m.Logger.Error("authorization fault", append(attrs, slog.Any("error", err))...)
		} else {
			m.Logger.Warn("access denied", append(attrs, slog.String("reason", d.Message))...)
		}
	}
	if m.OnDeny != nil {
		m.OnDeny(d.Kind)
	}
	status := StatusFor(d.Kind)
	httpx.JSON(w, status, httpx.ProblemDetail{
		Type:   string(d.Kind),
		Title:  http.StatusText(status),
		Status: status,
		Detail: d.Message,
	})
}

// StatusFor maps a denial kind to its HTTP status code.
func StatusFor(kind Kind) int {
	switch kind {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindInsufficientRole, KindPermissionDenied, KindSelfModificationDenied:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusServiceUnavailable
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
