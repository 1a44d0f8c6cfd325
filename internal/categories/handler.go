package categories

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/adminportal/internal/platform/httpx"
	"github.com/noah-isme/adminportal/internal/rbac"
)

// Handler exposes category endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: rbac, validator: httpx.NewValidator()}
}

// MountRoutes registers category routes. Callers must mount it behind Authenticate.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.Authenticated()))
		r.Get("/", h.list)
		r.Get("/tree", h.tree)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.FeatureFlag(rbac.FlagManageCategories)))
		r.Post("/", h.create)
		r.Put("/update", h.rename)
		r.Delete("/delete", h.remove)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	tree, err := h.service.Tree(r.Context())
	if err != nil {
		h.fail(w, "list categories", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "categories": tree})
}

func (h *Handler) tree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.service.Tree(r.Context())
	if err != nil {
		h.fail(w, "category tree", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "tree": tree.Nodes(nil)})
}

type createRequest struct {
	ParentPath   []string `json:"parent_path"`
	CategoryName string   `json:"category_name" validate:"required"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var body createRequest
	if !h.decode(w, r, &body) {
		return
	}
	path, err := h.service.Add(r.Context(), body.ParentPath, body.CategoryName)
	if err != nil {
		h.fail(w, "add category", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"success": true, "message": "Category added successfully", "path": path})
}

type renameRequest struct {
	CategoryPath []string `json:"category_path" validate:"required,min=1"`
	NewName      string   `json:"new_name" validate:"required"`
}

func (h *Handler) rename(w http.ResponseWriter, r *http.Request) {
	var body renameRequest
	if !h.decode(w, r, &body) {
		return
	}
	path, err := h.service.Rename(r.Context(), body.CategoryPath, body.NewName)
	if err != nil {
		h.fail(w, "rename category", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "message": "Category updated successfully", "path": path})
}

type deleteRequest struct {
	CategoryPath []string `json:"category_path" validate:"required,min=1"`
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	var body deleteRequest
	if !h.decode(w, r, &body) {
		return
	}
	if err := h.service.Delete(r.Context(), body.CategoryPath); err != nil {
		h.fail(w, "delete category", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "message": "Category deleted successfully"})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		httpx.RespondError(w, err)
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		httpx.RespondError(w, httpx.FromValidator(err))
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if !httpx.IsDomain(err) {
		h.logger.Error(op+" failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
