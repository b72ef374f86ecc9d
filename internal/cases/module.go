// Package cases provides the case lifecycle bounded context module: case
// creation from stage templates, lifecycle transitions, stage execution,
// assignment and the service review gate.
package cases

import (
	"transit_portal_backend/internal/cases/handler"
	casesrepo "transit_portal_backend/internal/cases/repository"
	"transit_portal_backend/internal/cases/service"
	"transit_portal_backend/internal/events"
	apphttp "transit_portal_backend/internal/http"
	"transit_portal_backend/platform/logger"
	"transit_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the cases bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *casesrepo.Repo
}

// NewModule creates and initializes the cases module with all its dependencies.
// The CommentWriter is injected later via Service().SetCommentWriter to break
// the cases<->messaging cycle.
func NewModule(pool *pgxpool.Pool, customers service.CustomerDirectory, roles service.RoleProvider, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := casesrepo.New(pool)
	svc := service.New(repo, customers, roles, eventBus, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc, repo: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "cases"
}

// Service returns the cases service for cross-module wiring.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the cases repository; messaging and documents consume it
// as their CaseReader.
func (m *Module) Repository() *casesrepo.Repo {
	return m.repo
}

// RegisterRoutes mounts case and stage routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/cases"))
	m.handler.RegisterStageRoutes(ctx.Protected.Group("/stages"))
	m.handler.RegisterTransportRoutes(ctx.Protected.Group("/transports"))
}

var _ apphttp.Module = (*Module)(nil)
