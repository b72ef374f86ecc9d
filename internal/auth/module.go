// Package auth provides the authentication bounded context module.
package auth

import (
	"context"

	"transit_portal_backend/internal/auth/adapter"
	"transit_portal_backend/internal/auth/handler"
	"transit_portal_backend/internal/auth/repository"
	"transit_portal_backend/internal/auth/service"
	apphttp "transit_portal_backend/internal/http"
	"transit_portal_backend/platform/config"
	"transit_portal_backend/platform/logger"
	"transit_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the auth bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the auth module.
func NewModule(pool *pgxpool.Pool, cfg config.AuthServiceConfig, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cfg, log)
	return &Module{handler: handler.New(svc, val), service: svc, repo: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auth"
}

// RoleProvider returns the adapter the cases module uses to resolve roles.
func (m *Module) RoleProvider() *adapter.RoleProviderAdapter {
	return adapter.NewRoleProviderAdapter(m.repo)
}

// SeedAdmin creates the bootstrap admin account when configured.
func (m *Module) SeedAdmin(ctx context.Context, email, password string) error {
	return m.service.SeedAdmin(ctx, email, password)
}

// RegisterRoutes mounts auth routes: sign-in endpoints are public, user
// management sits behind authentication.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterPublicRoutes(ctx.Public.Group("/auth"))
	m.handler.RegisterUserRoutes(ctx.Protected.Group("/users"))
}

var _ apphttp.Module = (*Module)(nil)
