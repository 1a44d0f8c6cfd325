package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/adminportal/internal/platform/httpx"
	"github.com/noah-isme/adminportal/internal/rbac"
	"github.com/noah-isme/adminportal/internal/users"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		rbac:      rbac,
		validator: httpx.NewValidator(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/signup", h.handleSignup)
	r.Post("/login", h.handleLogin)
	r.Post("/refresh", h.handleRefresh)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Authenticate)
		r.Post("/logout", h.handleLogout)
		r.Get("/me", h.handleMe)
		r.Post("/change-password", h.handleChangePassword)
	})
}

type signupRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body signupRequest
	if !h.decode(w, r, &body) {
		return
	}
	user, pair, err := h.service.Signup(r.Context(), users.Registration{
		Username: body.Username,
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		h.fail(w, "signup", err)
		return
	}
	h.logger.Info("user signed up", slog.String("user_id", user.ID))
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"success":       true,
		"message":       "User created successfully",
		"user":          user,
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if !h.decode(w, r, &body) {
		return
	}
	user, pair, err := h.service.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		h.fail(w, "login", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"message":       "Login successful",
		"user":          user,
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body refreshRequest
	if !h.decode(w, r, &body) {
		return
	}
	access, err := h.service.Refresh(r.Context(), body.RefreshToken)
	if err != nil {
		h.fail(w, "refresh", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "access_token": access})
}

// Tokens are stateless; the client discards them.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "message": "Logout successful"})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	principal, _ := rbac.PrincipalFromContext(r.Context())
	user, err := h.service.Me(r.Context(), principal)
	if err != nil {
		h.fail(w, "me", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "user": user})
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var body changePasswordRequest
	if !h.decode(w, r, &body) {
		return
	}
	principal, _ := rbac.PrincipalFromContext(r.Context())
	if err := h.service.ChangeOwnPassword(r.Context(), principal, body.OldPassword, body.NewPassword); err != nil {
		h.fail(w, "change password", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "message": "Password changed successfully"})
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
	switch {
	case errors.Is(err, ErrTokenExpired):
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "Token has expired")
	case errors.Is(err, ErrWrongTokenType):
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "Invalid token type")
	case errors.Is(err, ErrTokenInvalid):
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "Invalid token")
	case errors.Is(err, rbac.ErrAccountDisabled):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "Account is disabled")
	case errors.Is(err, users.ErrWrongPassword):
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "Old password is incorrect")
	default:
		if !httpx.IsDomain(err) {
			h.logger.Error(op+" failed", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
	}
}
