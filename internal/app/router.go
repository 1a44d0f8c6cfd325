package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/noah-isme/adminportal/internal/audiences"
	"github.com/noah-isme/adminportal/internal/auth"
	"github.com/noah-isme/adminportal/internal/categories"
	"github.com/noah-isme/adminportal/internal/content"
	"github.com/noah-isme/adminportal/internal/observability"
	"github.com/noah-isme/adminportal/internal/platform/httpx"
	"github.com/noah-isme/adminportal/internal/rbac"
	"github.com/noah-isme/adminportal/internal/users"
	"github.com/noah-isme/adminportal/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	RBACMiddleware     rbac.Middleware
	AuthHandler        *auth.Handler
	UsersHandler       *users.Handler
	CategoriesHandler  *categories.Handler
	AudiencesHandler   *audiences.Handler
	ContentHandler     *content.Handler
	PermissionsHandler *rbac.PermissionsHandler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with portal defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	if !params.Config.IsProduction() {
		r.Use(chimw.Logger)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, http.StatusText(http.StatusNotFound), "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed), "")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		if params.AuthHandler != nil {
			r.Route("/auth", params.AuthHandler.MountRoutes)
		}
		r.Group(func(r chi.Router) {
			r.Use(params.RBACMiddleware.Authenticate)
			if params.UsersHandler != nil {
				r.Route("/users", params.UsersHandler.MountRoutes)
			}
			if params.CategoriesHandler != nil {
				r.Route("/categories", params.CategoriesHandler.MountRoutes)
			}
			if params.AudiencesHandler != nil {
				r.Route("/audiences", params.AudiencesHandler.MountRoutes)
			}
			if params.ContentHandler != nil {
				r.Route("/blog", params.ContentHandler.MountBlogRoutes)
				r.Route("/settings", params.ContentHandler.MountSettingsRoutes)
			}
			if params.PermissionsHandler != nil {
				r.Route("/permissions", params.PermissionsHandler.MountRoutes)
			}
			if params.JobHandler != nil {
				r.Route("/jobs", func(r chi.Router) {
					r.Use(params.RBACMiddleware.Require(rbac.RoleAllowlist(rbac.RoleAdmin, rbac.RoleSuperAdmin)))
					params.JobHandler.MountRoutes(r)
				})
			}
		})
	})

	return r
}
