// Package service implements document management for cases and stages:
// uploads into the blob store, metadata records, verification marks and
// soft deletes.
package service

import (
	"context"
	"io"

	"github.com/google/uuid"

	"transit_portal_backend/internal/adapters/storage"
	casesrepo "transit_portal_backend/internal/cases/repository"
	"transit_portal_backend/internal/documents/repository"
	"transit_portal_backend/internal/documents/transport"
	"transit_portal_backend/platform/apperr"
	"transit_portal_backend/platform/logger"
)

// CaseReader verifies cases and stages exist before paperwork lands on them.
type CaseReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (casesrepo.Case, error)
	GetStage(ctx context.Context, stageID uuid.UUID) (casesrepo.Stage, error)
}

// Service provides document operations.
type Service struct {
	repo   repository.Repository
	blobs  storage.BlobStore
	cases  CaseReader
	bucket string
	log    *logger.Logger
}

// New creates a new documents service.
func New(repo repository.Repository, blobs storage.BlobStore, cases CaseReader, bucket string, log *logger.Logger) *Service {
	return &Service{repo: repo, blobs: blobs, cases: cases, bucket: bucket, log: log}
}

// UploadCaseDocument stores a case-level document.
func (s *Service) UploadCaseDocument(ctx context.Context, caseID uuid.UUID, fileName, contentType string, reader io.Reader, size int64, uploadedBy uuid.UUID) (transport.DocumentResponse, error) {
	if _, err := s.cases.GetByID(ctx, caseID); err != nil {
		return transport.DocumentResponse{}, err
	}
	return s.upload(ctx, caseID, nil, fileName, contentType, reader, size, uploadedBy)
}

// UploadStageDocument stores a document scoped to one stage.
func (s *Service) UploadStageDocument(ctx context.Context, stageID uuid.UUID, fileName, contentType string, reader io.Reader, size int64, uploadedBy uuid.UUID) (transport.DocumentResponse, error) {
	stage, err := s.cases.GetStage(ctx, stageID)
	if err != nil {
		return transport.DocumentResponse{}, err
	}
	return s.upload(ctx, stage.CaseID, &stage.ID, fileName, contentType, reader, size, uploadedBy)
}

func (s *Service) upload(ctx context.Context, caseID uuid.UUID, stageID *uuid.UUID, fileName, contentType string, reader io.Reader, size int64, uploadedBy uuid.UUID) (transport.DocumentResponse, error) {
	if err := s.blobs.ValidateContentType(contentType); err != nil {
		return transport.DocumentResponse{}, apperr.Validation(err.Error())
	}
	if err := s.blobs.ValidateFileSize(size); err != nil {
		return transport.DocumentResponse{}, apperr.Validation(err.Error())
	}

	folder := caseID.String()
	if stageID != nil {
		folder = folder + "/" + stageID.String()
	}
	fileKey, err := s.blobs.UploadFile(ctx, s.bucket, folder, fileName, contentType, reader, size)
	if err != nil {
		return transport.DocumentResponse{}, err
	}

	doc, err := s.repo.Create(ctx, repository.CreateParams{
		CaseID:      caseID,
		StageID:     stageID,
		FileName:    fileName,
		FileKey:     fileKey,
		ContentType: contentType,
		SizeBytes:   size,
		UploadedBy:  uploadedBy,
	})
	if err != nil {
		// Orphaned blob cleanup; the metadata row is the source of truth.
		_ = s.blobs.DeleteObject(ctx, s.bucket, fileKey)
		return transport.DocumentResponse{}, err
	}

	s.log.Info("document uploaded", "id", doc.ID, "caseId", caseID, "fileName", fileName, "size", size)
	return toResponse(doc), nil
}

// ListCaseDocuments returns the live documents of a case.
func (s *Service) ListCaseDocuments(ctx context.Context, caseID uuid.UUID) ([]transport.DocumentResponse, error) {
	if _, err := s.cases.GetByID(ctx, caseID); err != nil {
		return nil, err
	}
	docs, err := s.repo.ListByCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	return toResponses(docs), nil
}

// ListStageDocuments returns the live documents of one stage.
func (s *Service) ListStageDocuments(ctx context.Context, stageID uuid.UUID) ([]transport.DocumentResponse, error) {
	if _, err := s.cases.GetStage(ctx, stageID); err != nil {
		return nil, err
	}
	docs, err := s.repo.ListByStage(ctx, stageID)
	if err != nil {
		return nil, err
	}
	return toResponses(docs), nil
}

// DownloadLink returns a time-limited URL for a document.
func (s *Service) DownloadLink(ctx context.Context, id uuid.UUID) (transport.DownloadLinkResponse, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.DownloadLinkResponse{}, err
	}

	presigned, err := s.blobs.GenerateDownloadURL(ctx, s.bucket, doc.FileKey)
	if err != nil {
		return transport.DownloadLinkResponse{}, err
	}
	return transport.DownloadLinkResponse{
		URL:       presigned.URL,
		FileName:  doc.FileName,
		ExpiresAt: presigned.ExpiresAt,
	}, nil
}

// Verify marks a document as checked by an assessor.
func (s *Service) Verify(ctx context.Context, id uuid.UUID, verifiedBy uuid.UUID) (transport.DocumentResponse, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.DocumentResponse{}, err
	}
	if doc.IsVerified {
		return transport.DocumentResponse{}, apperr.Conflict("document is already verified")
	}

	updated, err := s.repo.SetVerified(ctx, id, verifiedBy)
	if err != nil {
		return transport.DocumentResponse{}, err
	}

	s.log.Info("document verified", "id", id, "verifiedBy", verifiedBy)
	return toResponse(updated), nil
}

// Delete soft-deletes the metadata row. The blob stays until housekeeping
// sweeps it, so an accidental delete is recoverable.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, actor uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.log.Info("document deleted", "id", id, "actor", actor)
	return nil
}

func toResponse(d repository.Document) transport.DocumentResponse {
	return transport.DocumentResponse{
		ID:          d.ID,
		CaseID:      d.CaseID,
		StageID:     d.StageID,
		FileName:    d.FileName,
		ContentType: d.ContentType,
		SizeBytes:   d.SizeBytes,
		IsVerified:  d.IsVerified,
		VerifiedBy:  d.VerifiedBy,
		UploadedBy:  d.UploadedBy,
		CreatedAt:   d.CreatedAt,
	}
}

func toResponses(docs []repository.Document) []transport.DocumentResponse {
	out := make([]transport.DocumentResponse, len(docs))
	for i, d := range docs {
		out[i] = toResponse(d)
	}
	return out
}
