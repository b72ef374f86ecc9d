// Package customers provides the customer registry bounded context module.
package customers

import (
	"transit_portal_backend/internal/customers/handler"
	"transit_portal_backend/internal/customers/repository"
	"transit_portal_backend/internal/customers/service"
	"transit_portal_backend/internal/events"
	apphttp "transit_portal_backend/internal/http"
	"transit_portal_backend/platform/logger"
	"transit_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the customers bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the customers module.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, eventBus, log)
	return &Module{handler: handler.New(svc, val), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "customers"
}

// Service returns the customers service; the cases module consumes it as
// its CustomerDirectory.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts customer routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/customers"))
}

var _ apphttp.Module = (*Module)(nil)
