package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/adminportal/internal/platform/httpx"
)

// PermissionsHandler exposes the caller's effective permissions to the portal UI.
type PermissionsHandler struct {
	logger *slog.Logger
	rbac   Middleware
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger, rbac Middleware) *PermissionsHandler {
	return &PermissionsHandler{logger: logger, rbac: rbac}
}

// MountRoutes registers permission routes. Callers must mount it behind Authenticate.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(Authenticated()))
		r.Get("/", h.effectivePermissions)
		r.Get("/roles", h.listRoles)
	})
}

type permissionsView struct {
	Role     Role              `json:"role"`
	Level    int               `json:"level"`
	Flags    map[Flag]bool     `json:"flags"`
	Matrix   map[Role][]Action `json:"matrix"`
	Viewable []Role            `json:"viewable_roles"`
}

func (h *PermissionsHandler) effectivePermissions(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.rbac.WriteDenial(w, r, Deny(KindUnauthenticated, "Authentication required"))
		return
	}
	row := make(map[Role][]Action, len(Roles()))
	for _, target := range Roles() {
		row[target] = AllowedActions(principal.Role, target)
	}
	httpx.JSON(w, http.StatusOK, permissionsView{
		Role:     principal.Role,
		Level:    Level(principal.Role),
		Flags:    Flags(principal.Role),
		Matrix:   row,
		Viewable: ViewableRoles(principal.Role),
	})
}

type roleView struct {
	Name  Role `json:"name"`
	Level int  `json:"level"`
}

func (h *PermissionsHandler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles := make([]roleView, 0, len(Roles()))
	for _, role := range Roles() {
		roles = append(roles, roleView{Name: role, Level: Level(role)})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": roles})
}
