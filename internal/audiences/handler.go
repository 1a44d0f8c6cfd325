package audiences

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/adminportal/internal/platform/httpx"
	"github.com/noah-isme/adminportal/internal/rbac"
)

// Handler exposes audience endpoints.
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

// MountRoutes registers audience routes. Callers must mount it behind Authenticate.
func (h *Handler) MountRoutes(r chi.Router) {
	manage := h.rbac.Require(rbac.FeatureFlag(rbac.FlagManageAudiences))
	staff := h.rbac.Require(rbac.RoleAllowlist(rbac.RoleAdmin, rbac.RoleSuperAdmin))
	read := h.rbac.Require(rbac.Authenticated())

	r.With(manage).Post("/", h.assign)
	r.With(manage).Post("/batch", h.assignBatch)
	r.With(staff).Get("/", h.list)
	r.With(staff).Get("/statistics", h.statistics)
	r.With(read).Get("/categories/*", h.byCategory)
	r.With(read).Get("/{audienceID}", h.get)
	r.With(read).Get("/{audienceID}/categories", h.categoriesOf)
	r.With(manage).Put("/{audienceID}", h.updateInfo)
	r.With(manage).Delete("/{audienceID}/category/*", h.unassign)
}

type assignRequest struct {
	AudienceID   string   `json:"audience_id" validate:"required"`
	CategoryPath []string `json:"category_path" validate:"required,min=1"`
	AudienceInfo *Info    `json:"audience_info"`
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	var body assignRequest
	if !h.decode(w, r, &body) {
		return
	}
	audience, added, err := h.service.Assign(r.Context(), body.AudienceID, body.CategoryPath, body.AudienceInfo, callerID(r))
	if err != nil {
		h.fail(w, "assign audience", err)
		return
	}
	status := http.StatusCreated
	if !added {
		status = http.StatusOK
	}
	h.logger.Info("audience assigned", slog.String("audience_id", audience.ID), slog.Bool("added", added))
	httpx.JSON(w, status, map[string]any{"success": true, "message": assignMessage(added), "data": audience})
}

type batchRequest struct {
	AudienceIDs  []string `json:"audience_ids" validate:"required,min=1"`
	CategoryPath []string `json:"category_path" validate:"required,min=1"`
}

func (h *Handler) assignBatch(w http.ResponseWriter, r *http.Request) {
	var body batchRequest
	if !h.decode(w, r, &body) {
		return
	}
	result, err := h.service.AssignBatch(r.Context(), body.AudienceIDs, body.CategoryPath, callerID(r))
	if err != nil {
		h.fail(w, "batch assign audiences", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"total":      result.Total,
		"successful": result.Successful,
		"failed":     result.Failed,
		"details":    result.Details,
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := ListOptions{Search: q.Get("search"), Limit: DefaultListLimit}
	var err error
	if v := q.Get("limit"); v != "" {
		if opts.Limit, err = strconv.Atoi(v); err != nil || opts.Limit <= 0 {
			httpx.RespondError(w, httpx.Invalid("limit", "must be a positive integer"))
			return
		}
	}
	if v := q.Get("offset"); v != "" {
		if opts.Offset, err = strconv.Atoi(v); err != nil || opts.Offset < 0 {
			httpx.RespondError(w, httpx.Invalid("offset", "must be a non-negative integer"))
			return
		}
	}
	page, total, err := h.service.List(r.Context(), opts)
	if err != nil {
		h.fail(w, "list audiences", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"audiences": page,
		"total":     total,
		"limit":     opts.Limit,
		"offset":    opts.Offset,
	})
}

func (h *Handler) statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Statistics(r.Context())
	if err != nil {
		h.fail(w, "audience statistics", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "statistics": stats})
}

// byCategory serves /categories/{path...}/audiences and /categories/{path...}/has-audience.
func (h *Handler) byCategory(w http.ResponseWriter, r *http.Request) {
	segments := splitPath(chi.URLParam(r, "*"))
	if len(segments) < 2 {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "")
		return
	}
	path, view := segments[:len(segments)-1], segments[len(segments)-1]
	switch view {
	case "audiences":
		members, err := h.service.AudiencesOf(r.Context(), path)
		if err != nil {
			h.fail(w, "category audiences", err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{
			"success":       true,
			"category_path": path,
			"audiences":     members,
			"count":         len(members),
		})
	case "has-audience":
		member, ok, err := h.service.HasAudience(r.Context(), path)
		if err != nil {
			h.fail(w, "category has audience", err)
			return
		}
		resp := map[string]any{"success": true, "category_path": path, "has_audience": ok, "audience_id": nil, "audience_info": nil}
		if ok {
			resp["audience_id"] = member.AudienceID
			resp["audience_info"] = member.Info
		}
		httpx.JSON(w, http.StatusOK, resp)
	default:
		httpx.Problem(w, http.StatusNotFound, "Not Found", "")
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	audience, err := h.service.Get(r.Context(), chi.URLParam(r, "audienceID"))
	if err != nil {
		h.fail(w, "get audience", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "audience": audience})
}

func (h *Handler) categoriesOf(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "audienceID")
	assignments, err := h.service.CategoriesOf(r.Context(), id)
	if err != nil {
		h.fail(w, "audience categories", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"audience_id": id,
		"categories":  assignments,
		"count":       len(assignments),
	})
}

type updateRequest struct {
	AudienceInfo *InfoUpdate `json:"audience_info" validate:"required"`
}

func (h *Handler) updateInfo(w http.ResponseWriter, r *http.Request) {
	var body updateRequest
	if !h.decode(w, r, &body) {
		return
	}
	audience, err := h.service.UpdateInfo(r.Context(), chi.URLParam(r, "audienceID"), *body.AudienceInfo)
	if err != nil {
		h.fail(w, "update audience", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "message": "Audience information updated successfully", "audience": audience})
}

func (h *Handler) unassign(w http.ResponseWriter, r *http.Request) {
	path := splitPath(chi.URLParam(r, "*"))
	if err := h.service.Unassign(r.Context(), chi.URLParam(r, "audienceID"), path); err != nil {
		h.fail(w, "unassign audience", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "message": "Audience removed from category successfully"})
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

func callerID(r *http.Request) string {
	principal, _ := rbac.PrincipalFromContext(r.Context())
	return principal.ID
}

// splitPath turns a wildcard URL remainder into category names.
func splitPath(raw string) []string {
	parts := strings.Split(strings.Trim(raw, "/"), "/")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		if decoded, err := url.PathUnescape(part); err == nil {
			part = decoded
		}
		out = append(out, part)
	}
	return out
}
