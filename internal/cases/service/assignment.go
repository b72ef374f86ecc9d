package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"transit_portal_backend/internal/cases/domain"
	"transit_portal_backend/internal/cases/repository"
	"transit_portal_backend/internal/cases/transport"
	"transit_portal_backend/internal/events"
	"transit_portal_backend/platform/apperr"
)

// Assign sets the executor and/or assessor slots of a case. Each provided
// slot is validated against the current role set of the target user; stale
// role checks are avoided by resolving roles on every call. Re-assigning a
// slot to its current holder is a no-op for that slot. Assigning an executor
// to an Approved case moves it to InProgress.
func (s *Service) Assign(ctx context.Context, caseID uuid.UUID, req transport.AssignCaseRequest, actor uuid.UUID) (transport.CaseResponse, error) {
	if req.ExecutorID == nil && req.AssessorID == nil {
		return transport.CaseResponse{}, apperr.Validation("at least one of executorId or assessorId is required")
	}

	c, err := s.repo.GetByID(ctx, caseID)
	if err != nil {
		return transport.CaseResponse{}, err
	}
	if c.Status == domain.CaseStatusDeleted {
		return transport.CaseResponse{}, apperr.InvalidTransition("deleted cases cannot be assigned")
	}

	params := repository.AssignParams{CaseID: caseID, Notes: req.Notes}
	changed := false

	if req.ExecutorID != nil {
		if c.AssignedExecutorID == nil || *c.AssignedExecutorID != *req.ExecutorID {
			if err := s.requireRole(ctx, *req.ExecutorID, domain.RoleCaseExecutor); err != nil {
				return transport.CaseResponse{}, err
			}
			params.ExecutorID = req.ExecutorID
			changed = true
		}
	}
	if req.AssessorID != nil {
		if c.AssignedAssessorID == nil || *c.AssignedAssessorID != *req.AssessorID {
			if err := s.requireRole(ctx, *req.AssessorID, domain.RoleAssessor); err != nil {
				return transport.CaseResponse{}, err
			}
			params.AssessorID = req.AssessorID
			changed = true
		}
	}

	if !changed && req.Notes == nil {
		return toResponse(c), nil
	}

	// Giving an Approved case its executor starts execution; the status
	// rides in the same write as the slot so neither lands alone.
	if params.ExecutorID != nil && c.Status == domain.CaseStatusApproved {
		inProgress := domain.CaseStatusInProgress
		params.Status = &inProgress
	}

	updated, err := s.repo.Assign(ctx, params)
	if err != nil {
		return transport.CaseResponse{}, err
	}

	if changed {
		s.log.Info("case assigned", "id", caseID, "caseNumber", c.CaseNumber, "executor", params.ExecutorID, "assessor", params.AssessorID, "actor", actor)
		s.bus.Publish(ctx, events.CaseAssigned{
			BaseEvent:  events.NewBaseEvent(),
			CaseID:     caseID,
			CaseNumber: c.CaseNumber,
			ExecutorID: params.ExecutorID,
			AssessorID: params.AssessorID,
			AssignedBy: actor,
		})
	}

	return toResponse(updated), nil
}

// requireRole verifies the user currently holds the given role.
func (s *Service) requireRole(ctx context.Context, userID uuid.UUID, role string) error {
	roles, err := s.roles.RolesOf(ctx, userID)
	if err != nil {
		return err
	}
	for _, r := range roles {
		if r == role {
			return nil
		}
	}
	return apperr.RoleMismatch(fmt.Sprintf("user %s does not hold the %s role", userID, role))
}
