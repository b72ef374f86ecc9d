// Package service implements the case lifecycle engine: case creation from
// stage templates, status transitions, stage execution, role-gated
// assignment and the review gate.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"transit_portal_backend/internal/cases/domain"
	"transit_portal_backend/internal/cases/repository"
	"transit_portal_backend/internal/cases/transport"
	"transit_portal_backend/internal/events"
	"transit_portal_backend/platform/apperr"
	"transit_portal_backend/platform/logger"
)

// CustomerDirectory is the engine's view of the customer registry.
// Implemented by the customers module.
type CustomerDirectory interface {
	// IsVerified reports whether the customer may own cases.
	// Returns apperr.NotFound when the customer does not exist.
	IsVerified(ctx context.Context, customerID uuid.UUID) (bool, error)
}

// RoleProvider resolves the externally-owned role set of a user. The engine
// queries it on every gated call and never caches membership.
type RoleProvider interface {
	// RolesOf returns the user's role names.
	// Returns apperr.NotFound when the user does not exist.
	RolesOf(ctx context.Context, userID uuid.UUID) ([]string, error)
}

// CommentWriter appends system-generated messages to a case. Implemented by
// the messaging module; optional.
type CommentWriter interface {
	AddSystemMessage(ctx context.Context, caseID uuid.UUID, authorID uuid.UUID, title, body string) error
}

// Service provides the case lifecycle engine operations.
type Service struct {
	repo      repository.Repository
	customers CustomerDirectory
	roles     RoleProvider
	comments  CommentWriter
	bus       events.Bus
	log       *logger.Logger
}

// New creates a new cases service.
func New(repo repository.Repository, customers CustomerDirectory, roles RoleProvider, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		customers: customers,
		roles:     roles,
		bus:       bus,
		log:       log,
	}
}

// SetCommentWriter injects the messaging module (circular dependency avoidance).
func (s *Service) SetCommentWriter(w CommentWriter) {
	s.comments = w
}

// Create registers a new case for a verified customer. The stage template
// for the declared type is generated and persisted atomically with the case.
func (s *Service) Create(ctx context.Context, req transport.CreateCaseRequest, createdBy uuid.UUID) (transport.CaseDetailResponse, error) {
	verified, err := s.customers.IsVerified(ctx, req.CustomerID)
	if err != nil {
		return transport.CaseDetailResponse{}, err
	}
	if !verified {
		return transport.CaseDetailResponse{}, apperr.Validation("customer is not verified")
	}

	tier := domain.RiskTierBlue
	if req.RiskTier != nil {
		tier = domain.RiskTier(*req.RiskTier)
		if !domain.ValidRiskTier(tier) {
			return transport.CaseDetailResponse{}, apperr.Validation("unknown risk tier")
		}
	}

	caseType := domain.NormalizeCaseType(domain.CaseType(req.ServiceType))

	params := repository.CreateCaseParams{
		CaseNumber:         newCaseNumber(),
		ServiceType:        caseType,
		ItemDescription:    req.ItemDescription,
		RouteCategory:      req.RouteCategory,
		DeclaredValueCents: req.DeclaredValueCents,
		TaxCategory:        req.TaxCategory,
		CountryOfOrigin:    req.CountryOfOrigin,
		RiskTier:           tier,
		CustomerID:         req.CustomerID,
		CreatedBy:          createdBy,
	}

	c, err := s.repo.CreateWithStages(ctx, params, domain.StagesFor(caseType))
	if err != nil {
		return transport.CaseDetailResponse{}, err
	}

	stages, err := s.repo.ListStages(ctx, c.ID)
	if err != nil {
		return transport.CaseDetailResponse{}, err
	}

	s.log.Info("case created", "id", c.ID, "caseNumber", c.CaseNumber, "type", c.ServiceType, "stages", len(stages))
	s.bus.Publish(ctx, events.CaseCreated{
		BaseEvent:  events.NewBaseEvent(),
		CaseID:     c.ID,
		CaseNumber: c.CaseNumber,
		CustomerID: c.CustomerID,
		CreatedBy:  createdBy,
	})

	return toDetailResponse(c, stages), nil
}

// GetByID retrieves a case together with its ordered stages.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.CaseDetailResponse, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.CaseDetailResponse{}, err
	}
	stages, err := s.repo.ListStages(ctx, id)
	if err != nil {
		return transport.CaseDetailResponse{}, err
	}
	return toDetailResponse(c, stages), nil
}

// List retrieves cases matching the request filters.
func (s *Service) List(ctx context.Context, req transport.ListCasesRequest) (transport.CaseListResponse, error) {
	params, page, pageSize, err := listParamsFrom(req)
	if err != nil {
		return transport.CaseListResponse{}, err
	}
	return s.list(ctx, params, page, pageSize)
}

// ListAssignedTo retrieves cases assigned to the given executor.
func (s *Service) ListAssignedTo(ctx context.Context, executorID uuid.UUID, req transport.ListCasesRequest) (transport.CaseListResponse, error) {
	params, page, pageSize, err := listParamsFrom(req)
	if err != nil {
		return transport.CaseListResponse{}, err
	}
	params.ExecutorID = &executorID
	return s.list(ctx, params, page, pageSize)
}

// ListForCustomer retrieves cases owned by the given customer.
func (s *Service) ListForCustomer(ctx context.Context, customerID uuid.UUID, req transport.ListCasesRequest) (transport.CaseListResponse, error) {
	params, page, pageSize, err := listParamsFrom(req)
	if err != nil {
		return transport.CaseListResponse{}, err
	}
	params.CustomerID = &customerID
	return s.list(ctx, params, page, pageSize)
}

// ListPendingReviews retrieves cases awaiting an assessor decision.
func (s *Service) ListPendingReviews(ctx context.Context, req transport.ListCasesRequest) (transport.CaseListResponse, error) {
	params, page, pageSize, err := listParamsFrom(req)
	if err != nil {
		return transport.CaseListResponse{}, err
	}
	params.Status = nil
	params.PendingReview = true
	return s.list(ctx, params, page, pageSize)
}

// UpdateDetails mutates descriptive fields only; status is untouched.
func (s *Service) UpdateDetails(ctx context.Context, id uuid.UUID, req transport.UpdateCaseRequest) (transport.CaseResponse, error) {
	c, err := s.repo.UpdateDetails(ctx, repository.UpdateCaseParams{
		ID:                 id,
		ItemDescription:    req.ItemDescription,
		RouteCategory:      req.RouteCategory,
		DeclaredValueCents: req.DeclaredValueCents,
		TaxCategory:        req.TaxCategory,
		CountryOfOrigin:    req.CountryOfOrigin,
	})
	if err != nil {
		return transport.CaseResponse{}, err
	}

	s.log.Info("case details updated", "id", c.ID, "caseNumber", c.CaseNumber)
	return toResponse(c), nil
}

// TransitionStatus performs an actor-driven case transition along the
// lifecycle graph. Completing a case requires every stage to be Completed.
func (s *Service) TransitionStatus(ctx context.Context, id uuid.UUID, req transport.UpdateCaseStatusRequest, actor uuid.UUID) (transport.CaseResponse, error) {
	target := domain.CaseStatus(req.Status)
	if !domain.ValidCaseStatus(target) {
		return transport.CaseResponse{}, apperr.Validation("unknown case status")
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.CaseResponse{}, err
	}

	if c.Status == target {
		return transport.CaseResponse{}, apperr.Conflict(fmt.Sprintf("case is already %s", target))
	}
	if !domain.CanTransitionCase(c.Status, target) {
		return transport.CaseResponse{}, apperr.InvalidTransition(fmt.Sprintf("cannot transition case from %s to %s", c.Status, target))
	}

	if target == domain.CaseStatusCompleted {
		done, err := s.repo.AllStagesCompleted(ctx, id)
		if err != nil {
			return transport.CaseResponse{}, err
		}
		if !done {
			return transport.CaseResponse{}, apperr.InvalidTransition("case has stages that are not completed")
		}
	}

	updated, err := s.repo.UpdateStatus(ctx, id, target)
	if err != nil {
		return transport.CaseResponse{}, err
	}

	s.log.Info("case status changed", "id", id, "from", c.Status, "to", target, "actor", actor)
	return toResponse(updated), nil
}

// Delete soft-deletes a case. Rows are never removed while stages and
// documents reference them.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, actor uuid.UUID) error {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !domain.CanTransitionCase(c.Status, domain.CaseStatusDeleted) {
		return apperr.InvalidTransition("case is already deleted")
	}

	if _, err := s.repo.UpdateStatus(ctx, id, domain.CaseStatusDeleted); err != nil {
		return err
	}

	s.log.Info("case deleted", "id", id, "caseNumber", c.CaseNumber, "actor", actor)
	return nil
}

// SetRiskTier sets the case risk tier. Optional notes are appended to the
// named stage, or to the most recently created stage when none is named.
func (s *Service) SetRiskTier(ctx context.Context, id uuid.UUID, req transport.SetRiskTierRequest, actor uuid.UUID) (transport.CaseResponse, error) {
	tier := domain.RiskTier(req.RiskTier)
	if !domain.ValidRiskTier(tier) {
		return transport.CaseResponse{}, apperr.Validation("unknown risk tier")
	}

	var notesStage *uuid.UUID
	var notes *string
	if req.Notes != nil && *req.Notes != "" {
		target, err := s.riskNotesTarget(ctx, id, req.StageID)
		if err != nil {
			return transport.CaseResponse{}, err
		}
		notesStage = &target
		notes = req.Notes
	}

	c, err := s.repo.SetRiskTier(ctx, id, tier, notesStage, notes)
	if err != nil {
		return transport.CaseResponse{}, err
	}

	s.log.Info("case risk tier set", "id", id, "tier", tier, "actor", actor)
	return toResponse(c), nil
}

func (s *Service) riskNotesTarget(ctx context.Context, caseID uuid.UUID, stageID *uuid.UUID) (uuid.UUID, error) {
	if stageID == nil {
		latest, err := s.repo.LatestStage(ctx, caseID)
		if err != nil {
			return uuid.Nil, err
		}
		return latest.ID, nil
	}

	stage, err := s.repo.GetStage(ctx, *stageID)
	if err != nil {
		return uuid.Nil, err
	}
	if stage.CaseID != caseID {
		return uuid.Nil, apperr.Validation("stage does not belong to this case")
	}
	return stage.ID, nil
}

func (s *Service) list(ctx context.Context, params repository.ListParams, page, pageSize int) (transport.CaseListResponse, error) {
	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.CaseListResponse{}, err
	}

	responses := make([]transport.CaseResponse, len(items))
	for i, item := range items {
		responses[i] = toResponse(item)
	}
	return transport.CaseListResponse{
		Items:    responses,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func listParamsFrom(req transport.ListCasesRequest) (repository.ListParams, int, int, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	params := repository.ListParams{
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	}

	if req.Status != "" {
		status := domain.CaseStatus(req.Status)
		if !domain.ValidCaseStatus(status) {
			return repository.ListParams{}, 0, 0, apperr.BadRequest("unknown case status filter")
		}
		params.Status = &status
	}
	if req.Type != "" {
		t := domain.CaseType(req.Type)
		params.Type = &t
	}
	if req.RiskTier != "" {
		tier := domain.RiskTier(req.RiskTier)
		if !domain.ValidRiskTier(tier) {
			return repository.ListParams{}, 0, 0, apperr.BadRequest("unknown risk tier filter")
		}
		params.RiskTier = &tier
	}

	return params, page, pageSize, nil
}

// newCaseNumber generates a human-readable case number like
// SRV-20260115-3FA8C2D1.
func newCaseNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("SRV-%s-%s", time.Now().UTC().Format("20060102"), suffix)
}

func toResponse(c repository.Case) transport.CaseResponse {
	return transport.CaseResponse{
		ID:                 c.ID,
		CaseNumber:         c.CaseNumber,
		ServiceType:        string(c.ServiceType),
		ItemDescription:    c.ItemDescription,
		RouteCategory:      c.RouteCategory,
		DeclaredValueCents: c.DeclaredValueCents,
		TaxCategory:        c.TaxCategory,
		CountryOfOrigin:    c.CountryOfOrigin,
		Status:             string(c.Status),
		RiskTier:           string(c.RiskTier),
		CustomerID:         c.CustomerID,
		AssignedExecutorID: c.AssignedExecutorID,
		AssignedAssessorID: c.AssignedAssessorID,
		AssignmentNotes:    c.AssignmentNotes,
		CreatedBy:          c.CreatedBy,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

func toStageResponse(st repository.Stage) transport.StageResponse {
	return transport.StageResponse{
		ID:            st.ID,
		CaseID:        st.CaseID,
		Kind:          string(st.Kind),
		Position:      st.Position,
		Status:        string(st.Status),
		IsBlocked:     st.IsBlocked,
		BlockedReason: st.BlockedReason,
		RiskNotes:     st.RiskNotes,
		Notes:         st.Notes,
		UpdatedBy:     st.UpdatedBy,
		CreatedAt:     st.CreatedAt,
		UpdatedAt:     st.UpdatedAt,
	}
}

func toDetailResponse(c repository.Case, stages []repository.Stage) transport.CaseDetailResponse {
	out := transport.CaseDetailResponse{
		CaseResponse: toResponse(c),
		Stages:       make([]transport.StageResponse, len(stages)),
	}
	for i, st := range stages {
		out.Stages[i] = toStageResponse(st)
	}
	return out
}
