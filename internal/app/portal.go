package app

import (
	"log/slog"
	"net/http"

	"github.com/noah-isme/adminportal/internal/audiences"
	"github.com/noah-isme/adminportal/internal/auth"
	"github.com/noah-isme/adminportal/internal/categories"
	"github.com/noah-isme/adminportal/internal/content"
	"github.com/noah-isme/adminportal/internal/observability"
	"github.com/noah-isme/adminportal/internal/platform/kv"
	"github.com/noah-isme/adminportal/internal/rbac"
	"github.com/noah-isme/adminportal/internal/users"
	"github.com/noah-isme/adminportal/jobs"
)

// PortalParams groups the infrastructure the portal is assembled from.
type PortalParams struct {
	Config    *Config
	Logger    *slog.Logger
	Store     kv.Store
	Metrics   *observability.Metrics
	Inspector jobs.QueueInspector
	// HashCost overrides the bcrypt cost; zero keeps the default.
	HashCost int
}

// Portal holds the wired services behind the HTTP API.
type Portal struct {
	Users      *users.Service
	Tokens     *auth.TokenManager
	Categories *categories.Service
	Audiences  *audiences.Service
	Content    *content.Service
	RBAC       rbac.Middleware

	router http.Handler
}

// NewPortal wires services, authorization, and handlers over p.Store.
func NewPortal(p PortalParams) *Portal {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := p.Config

	userRepo := users.NewRepository(p.Store)
	userService := users.NewService(userRepo)
	if p.HashCost > 0 {
		userService.WithHashCost(p.HashCost)
	}
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	mw := rbac.Middleware{
		Resolver: rbac.NewResolver(tokens, userRepo),
		Logger:   logger,
		OnDeny:   p.Metrics.ObserveDenial,
	}

	categoryService := categories.NewService(p.Store)
	audienceService := audiences.NewService(p.Store, categoryService)
	contentService := content.NewService(p.Store)

	var jobHandler *jobs.Handler
	if p.Inspector != nil {
		jobHandler = jobs.NewHandler(p.Inspector, logger)
	}

	router := NewRouter(RouterParams{
		Logger:             logger,
		Config:             cfg,
		RBACMiddleware:     mw,
		AuthHandler:        auth.NewHandler(logger, auth.NewService(userService, tokens, cfg.AllowSignup), mw),
		UsersHandler:       users.NewHandler(logger, userService, mw),
		CategoriesHandler:  categories.NewHandler(logger, categoryService, mw),
		AudiencesHandler:   audiences.NewHandler(logger, audienceService, mw),
		ContentHandler:     content.NewHandler(logger, contentService, mw),
		PermissionsHandler: rbac.NewPermissionsHandler(logger, mw),
		JobHandler:         jobHandler,
		Metrics:            p.Metrics,
	})

	return &Portal{
		Users:      userService,
		Tokens:     tokens,
		Categories: categoryService,
		Audiences:  audienceService,
		Content:    contentService,
		RBAC:       mw,
		router:     router,
	}
}

// Handler returns the HTTP entry point.
func (p *Portal) Handler() http.Handler {
	return p.router
}
