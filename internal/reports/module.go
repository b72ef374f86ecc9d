// Package reports exposes read-only workflow counters for dashboards.
package reports

import (
	apphttp "transit_portal_backend/internal/http"
	"transit_portal_backend/internal/reports/handler"
	"transit_portal_backend/internal/reports/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
}

func NewModule(pool *pgxpool.Pool) *Module {
	repo := repository.New(pool)
	return &Module{handler: handler.New(repo)}
}

func (m *Module) Name() string {
	return "reports"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/reports"))
}

var _ apphttp.Module = (*Module)(nil)
