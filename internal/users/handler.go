package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/adminportal/internal/platform/httpx"
	"github.com/noah-isme/adminportal/internal/rbac"
)

// Handler manages user management endpoints.
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

// MountRoutes registers user routes. Callers must mount it behind Authenticate.
func (h *Handler) MountRoutes(r chi.Router) {
	staff := h.rbac.Require(rbac.RoleAllowlist(rbac.RoleAdmin, rbac.RoleSuperAdmin))
	target := h.rbac.Target("userID")

	r.With(staff, h.rbac.Prospective(rbac.RoleEmp), h.rbac.Require(rbac.MatrixAction(rbac.ActionCreate))).
		Post("/emp", h.create(rbac.RoleEmp))
	r.With(h.rbac.Require(rbac.RoleAllowlist(rbac.RoleSuperAdmin)), h.rbac.Prospective(rbac.RoleAdmin), h.rbac.Require(rbac.MatrixAction(rbac.ActionCreate))).
		Post("/admin", h.create(rbac.RoleAdmin))
	r.With(staff).Get("/", h.listUsers)
	r.With(staff).Get("/statistics", h.statistics)
	r.With(h.rbac.Require(rbac.Authenticated())).Post("/validate-permission", h.validatePermission)

	r.With(target, h.rbac.Require(rbac.MatrixAction(rbac.ActionView))).Get("/{userID}", h.getUser)
	r.With(target, h.rbac.Require(rbac.MatrixAction(rbac.ActionUpdate))).Put("/{userID}", h.updateProfile)
	r.With(target, h.rbac.Require(rbac.MatrixAction(rbac.ActionChangePassword))).Put("/{userID}/password", h.updatePassword)
	r.With(staff, target, h.rbac.Require(rbac.ForbidSelf(rbac.SelfDeactivate), rbac.MatrixAction(rbac.ActionUpdate))).
		Put("/{userID}/status", h.updateStatus)
	r.With(staff, target, h.rbac.Require(rbac.ForbidSelf(rbac.SelfDelete), rbac.MatrixAction(rbac.ActionDelete))).
		Delete("/{userID}", h.deleteUser)
}

type createUserRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func (h *Handler) create(role rbac.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createUserRequest
		if !h.decode(w, r, &body) {
			return
		}
		principal, _ := rbac.PrincipalFromContext(r.Context())
		user, err := h.service.Create(r.Context(), role, Registration{
			Username: body.Username,
			Email:    body.Email,
			Password: body.Password,
		}, principal.ID)
		if err != nil {
			h.fail(w, "create user", err)
			return
		}
		h.logger.Info("user created", slog.String("user_id", user.ID), slog.String("role", string(role)), slog.String("created_by", principal.ID))
		httpx.JSON(w, http.StatusCreated, map[string]any{"success": true, "message": "User created successfully", "user": user})
	}
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	principal, _ := rbac.PrincipalFromContext(r.Context())
	filter := Filter{}
	if raw := r.URL.Query().Get("role"); raw != "" {
		role, ok := rbac.ParseRole(raw)
		if !ok {
			httpx.RespondError(w, ErrInvalidRole)
			return
		}
		filter.Role = role
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		filter.Status = rbac.Status(raw)
		if !filter.Status.Valid() {
			httpx.RespondError(w, ErrInvalidStatus)
			return
		}
	}
	users, err := h.service.List(r.Context(), principal, filter)
	if err != nil {
		h.fail(w, "list users", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "users": users, "count": len(users)})
}

func (h *Handler) statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Statistics(r.Context())
	if err != nil {
		h.fail(w, "user statistics", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "statistics": stats})
}

type validatePermissionRequest struct {
	TargetRole string `json:"target_role" validate:"required"`
	Action     string `json:"action" validate:"required"`
}

func (h *Handler) validatePermission(w http.ResponseWriter, r *http.Request) {
	var body validatePermissionRequest
	if !h.decode(w, r, &body) {
		return
	}
	principal, _ := rbac.PrincipalFromContext(r.Context())
	check, err := h.service.ValidatePermission(principal.Role, body.TargetRole, body.Action)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "has_permission": check.Allowed, "message": check.Message})
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	req := rbac.RequestFromContext(r.Context())
	user, err := h.service.Get(r.Context(), req.Target.ID)
	if err != nil {
		h.fail(w, "get user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "user": user})
}

type updateProfileRequest struct {
	Username *string `json:"username" validate:"omitempty,min=1"`
	Email    *string `json:"email" validate:"omitempty,email"`
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var body updateProfileRequest
	if !h.decode(w, r, &body) {
		return
	}
	req := rbac.RequestFromContext(r.Context())
	user, err := h.service.UpdateProfile(r.Context(), req.Target.ID, ProfileUpdate{Username: body.Username, Email: body.Email})
	if err != nil {
		h.fail(w, "update profile", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "message": "User updated successfully", "user": user})
}

type updatePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

func (h *Handler) updatePassword(w http.ResponseWriter, r *http.Request) {
	var body updatePasswordRequest
	if !h.decode(w, r, &body) {
		return
	}
	req := rbac.RequestFromContext(r.Context())
	if err := h.service.ChangePassword(r.Context(), req, body.OldPassword, body.NewPassword); err != nil {
		h.fail(w, "change password", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "message": "Password updated successfully"})
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var body updateStatusRequest
	if !h.decode(w, r, &body) {
		return
	}
	req := rbac.RequestFromContext(r.Context())
	user, err := h.service.SetStatus(r.Context(), req.Target.ID, rbac.Status(body.Status))
	if err != nil {
		h.fail(w, "update status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "message": "User status updated to " + body.Status, "user": user})
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	req := rbac.RequestFromContext(r.Context())
	if err := h.service.Delete(r.Context(), req.Target.ID); err != nil {
		h.fail(w, "delete user", err)
		return
	}
	h.logger.Info("user deactivated", slog.String("user_id", req.Target.ID), slog.String("by", req.Principal.ID))
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "message": "User deleted successfully"})
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
