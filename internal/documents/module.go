// Package documents provides the case document bounded context module.
package documents

import (
	"context"

	"transit_portal_backend/internal/adapters/storage"
	casesrepo "transit_portal_backend/internal/cases/repository"
	"transit_portal_backend/internal/documents/handler"
	"transit_portal_backend/internal/documents/repository"
	"transit_portal_backend/internal/documents/service"
	apphttp "transit_portal_backend/internal/http"
	"transit_portal_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the documents bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	blobs   storage.BlobStore
	bucket  string
}

// NewModule creates and initializes the documents module.
func NewModule(pool *pgxpool.Pool, blobs storage.BlobStore, cases *casesrepo.Repo, bucket string, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, blobs, cases, bucket, log)
	return &Module{handler: handler.New(svc), blobs: blobs, bucket: bucket}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "documents"
}

// EnsureBucket creates the document bucket when missing. Called once at
// startup by the composition root.
func (m *Module) EnsureBucket(ctx context.Context) error {
	return m.blobs.EnsureBucketExists(ctx, m.bucket)
}

// RegisterRoutes mounts document routes under cases, stages and documents.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterCaseRoutes(ctx.Protected.Group("/cases"))
	m.handler.RegisterStageRoutes(ctx.Protected.Group("/stages"))
	m.handler.RegisterDocumentRoutes(ctx.Protected.Group("/documents"))
}

var _ apphttp.Module = (*Module)(nil)
