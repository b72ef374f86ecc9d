// Package service implements the append-only message ledger on cases and
// their stages.
package service

import (
	"context"

	"github.com/google/uuid"

	casesrepo "transit_portal_backend/internal/cases/repository"
	"transit_portal_backend/internal/messaging/repository"
	"transit_portal_backend/internal/messaging/transport"
	"transit_portal_backend/platform/apperr"
	"transit_portal_backend/platform/logger"
)

// CaseReader verifies cases and stages exist before a message lands on them.
type CaseReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (casesrepo.Case, error)
	GetStage(ctx context.Context, stageID uuid.UUID) (casesrepo.Stage, error)
}

// Service provides message ledger operations.
type Service struct {
	repo  repository.Repository
	cases CaseReader
	log   *logger.Logger
}

// New creates a new messaging service.
func New(repo repository.Repository, cases CaseReader, log *logger.Logger) *Service {
	return &Service{repo: repo, cases: cases, log: log}
}

// AddCaseMessage appends a user message to a case thread.
func (s *Service) AddCaseMessage(ctx context.Context, caseID uuid.UUID, req transport.AddMessageRequest, author uuid.UUID) (transport.MessageResponse, error) {
	if _, err := s.cases.GetByID(ctx, caseID); err != nil {
		return transport.MessageResponse{}, err
	}

	m, err := s.repo.Create(ctx, repository.CreateParams{
		CaseID:     caseID,
		AuthorID:   author,
		AuthorKind: repository.AuthorUser,
		Title:      req.Title,
		Body:       req.Body,
	})
	if err != nil {
		return transport.MessageResponse{}, err
	}
	return toResponse(m), nil
}

// AddStageComment appends a user comment to a stage thread.
func (s *Service) AddStageComment(ctx context.Context, stageID uuid.UUID, req transport.AddMessageRequest, author uuid.UUID) (transport.MessageResponse, error) {
	stage, err := s.cases.GetStage(ctx, stageID)
	if err != nil {
		return transport.MessageResponse{}, err
	}

	m, err := s.repo.Create(ctx, repository.CreateParams{
		CaseID:     stage.CaseID,
		StageID:    &stage.ID,
		AuthorID:   author,
		AuthorKind: repository.AuthorUser,
		Title:      req.Title,
		Body:       req.Body,
	})
	if err != nil {
		return transport.MessageResponse{}, err
	}
	return toResponse(m), nil
}

// ListCaseMessages returns the full ledger of a case, oldest first.
func (s *Service) ListCaseMessages(ctx context.Context, caseID uuid.UUID) ([]transport.MessageResponse, error) {
	if _, err := s.cases.GetByID(ctx, caseID); err != nil {
		return nil, err
	}
	messages, err := s.repo.ListByCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	return toResponses(messages), nil
}

// ListStageComments returns the comments of one stage, oldest first.
func (s *Service) ListStageComments(ctx context.Context, stageID uuid.UUID) ([]transport.MessageResponse, error) {
	if _, err := s.cases.GetStage(ctx, stageID); err != nil {
		return nil, err
	}
	messages, err := s.repo.ListByStage(ctx, stageID)
	if err != nil {
		return nil, err
	}
	return toResponses(messages), nil
}

// AddSystemMessage appends an engine-generated message to a case thread.
// This is the CommentWriter implementation consumed by the cases module.
func (s *Service) AddSystemMessage(ctx context.Context, caseID uuid.UUID, authorID uuid.UUID, title, body string) error {
	if body == "" {
		return apperr.Validation("message body is required")
	}

	var titlePtr *string
	if title != "" {
		titlePtr = &title
	}
	_, err := s.repo.Create(ctx, repository.CreateParams{
		CaseID:     caseID,
		AuthorID:   authorID,
		AuthorKind: repository.AuthorSystem,
		Title:      titlePtr,
		Body:       body,
	})
	return err
}

func toResponse(m repository.Message) transport.MessageResponse {
	return transport.MessageResponse{
		ID:         m.ID,
		CaseID:     m.CaseID,
		StageID:    m.StageID,
		AuthorID:   m.AuthorID,
		AuthorKind: string(m.AuthorKind),
		Title:      m.Title,
		Body:       m.Body,
		CreatedAt:  m.CreatedAt,
	}
}

func toResponses(messages []repository.Message) []transport.MessageResponse {
	out := make([]transport.MessageResponse, len(messages))
	for i, m := range messages {
		out[i] = toResponse(m)
	}
	return out
}
