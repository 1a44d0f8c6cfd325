package content

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/adminportal/internal/platform/httpx"
	"github.com/noah-isme/adminportal/internal/rbac"
)

// Handler exposes the blog and settings endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountBlogRoutes registers blog routes. Callers must mount it behind Authenticate.
func (h *Handler) MountBlogRoutes(r chi.Router) {
	r.With(h.rbac.Require(rbac.Authenticated())).Get("/", h.getBlog)
	r.With(h.editors()).Put("/", h.updateBlog)
}

// MountSettingsRoutes registers settings routes. Callers must mount it behind Authenticate.
func (h *Handler) MountSettingsRoutes(r chi.Router) {
	r.With(h.rbac.Require(rbac.Authenticated())).Get("/", h.getSettings)
	r.With(h.editors()).Put("/", h.updateSettings)
}

func (h *Handler) editors() func(http.Handler) http.Handler {
	return h.rbac.Require(rbac.RoleAllowlist(rbac.RoleAdmin, rbac.RoleSuperAdmin))
}

func (h *Handler) getBlog(w http.ResponseWriter, r *http.Request) {
	blog, err := h.service.Blog(r.Context())
	if err != nil {
		h.fail(w, "load blog", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "data": blog})
}

func (h *Handler) updateBlog(w http.ResponseWriter, r *http.Request) {
	var body BlogUpdate
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.RespondError(w, err)
		return
	}
	blog, err := h.service.UpdateBlog(r.Context(), body)
	if err != nil {
		h.fail(w, "update blog", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "data": blog})
}

func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.Settings(r.Context())
	if err != nil {
		h.fail(w, "load settings", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "data": settings})
}

func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	body := Settings{}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.RespondError(w, err)
		return
	}
	settings, err := h.service.UpdateSettings(r.Context(), body)
	if err != nil {
		h.fail(w, "update settings", err)
		return
	}
	h.logger.Info("settings updated", slog.Int("keys", len(body)))
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "data": settings})
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if !httpx.IsDomain(err) {
		h.logger.Error(op+" failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
