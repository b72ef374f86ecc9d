// Package messaging provides the case message ledger bounded context module.
package messaging

import (
	casesrepo "transit_portal_backend/internal/cases/repository"
	apphttp "transit_portal_backend/internal/http"
	"transit_portal_backend/internal/messaging/handler"
	"transit_portal_backend/internal/messaging/repository"
	"transit_portal_backend/internal/messaging/service"
	"transit_portal_backend/platform/logger"
	"transit_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the messaging bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the messaging module.
func NewModule(pool *pgxpool.Pool, cases *casesrepo.Repo, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cases, log)
	return &Module{handler: handler.New(svc, val), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "messaging"
}

// Service returns the messaging service; the cases module consumes it as
// its CommentWriter.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts message routes under cases and stages.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterCaseRoutes(ctx.Protected.Group("/cases"))
	m.handler.RegisterStageRoutes(ctx.Protected.Group("/stages"))
}

var _ apphttp.Module = (*Module)(nil)
