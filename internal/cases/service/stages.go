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

// UpdateStageStatus advances a stage along the forward-only progression.
// When the actor is not an Admin, the case must be assigned to them. If the
// change completes the last pending stage, the case flips to Completed.
func (s *Service) UpdateStageStatus(ctx context.Context, stageID uuid.UUID, req transport.UpdateStageStatusRequest, actor uuid.UUID, actorRoles []string) (transport.StageResponse, error) {
	target := domain.StageStatus(req.Status)
	if !domain.ValidStageStatus(target) {
		return transport.StageResponse{}, apperr.Validation("unknown stage status")
	}

	stage, err := s.repo.GetStage(ctx, stageID)
	if err != nil {
		return transport.StageResponse{}, err
	}
	c, err := s.repo.GetByID(ctx, stage.CaseID)
	if err != nil {
		return transport.StageResponse{}, err
	}

	if err := s.checkStageActor(c, actor, actorRoles); err != nil {
		return transport.StageResponse{}, err
	}

	if stage.Status == target {
		return transport.StageResponse{}, apperr.Conflict(fmt.Sprintf("stage is already %s", target))
	}
	if target == domain.StageStatusCompleted {
		if !domain.CanCompleteStage(stage.Status, stage.IsBlocked) {
			if stage.IsBlocked {
				return transport.StageResponse{}, apperr.InvalidTransition("stage is blocked and cannot be completed")
			}
			return transport.StageResponse{}, apperr.InvalidTransition(fmt.Sprintf("cannot complete stage from %s", stage.Status))
		}
	} else if !domain.CanTransitionStage(stage.Status, target) {
		return transport.StageResponse{}, apperr.InvalidTransition(fmt.Sprintf("cannot move stage from %s to %s", stage.Status, target))
	}

	updated, err := s.repo.UpdateStageStatus(ctx, repository.UpdateStageParams{
		StageID:   stageID,
		Status:    target,
		Notes:     req.Notes,
		UpdatedBy: actor,
	})
	if err != nil {
		return transport.StageResponse{}, err
	}

	s.log.Info("stage status changed", "stageId", stageID, "caseId", c.ID, "kind", stage.Kind, "from", stage.Status, "to", target, "actor", actor)

	if target == domain.StageStatusCompleted {
		s.bus.Publish(ctx, events.StageCompleted{
			BaseEvent:  events.NewBaseEvent(),
			CaseID:     c.ID,
			CaseNumber: c.CaseNumber,
			StageID:    stageID,
			StageKind:  string(stage.Kind),
			UpdatedBy:  actor,
		})
		if err := s.recomputeCaseCompletion(ctx, c, actor); err != nil {
			return transport.StageResponse{}, err
		}
	}

	return toStageResponse(updated), nil
}

// BlockStage flags a stage as blocked with a mandatory reason. The stage
// status is left untouched; only completion is gated.
func (s *Service) BlockStage(ctx context.Context, stageID uuid.UUID, req transport.BlockStageRequest, actor uuid.UUID, actorRoles []string) (transport.StageResponse, error) {
	stage, err := s.repo.GetStage(ctx, stageID)
	if err != nil {
		return transport.StageResponse{}, err
	}
	c, err := s.repo.GetByID(ctx, stage.CaseID)
	if err != nil {
		return transport.StageResponse{}, err
	}
	if err := s.checkStageActor(c, actor, actorRoles); err != nil {
		return transport.StageResponse{}, err
	}

	if stage.IsBlocked {
		return transport.StageResponse{}, apperr.Conflict("stage is already blocked")
	}
	if stage.Status == domain.StageStatusCompleted {
		return transport.StageResponse{}, apperr.InvalidTransition("completed stages cannot be blocked")
	}

	reason := req.Reason
	updated, err := s.repo.SetStageBlocked(ctx, stageID, true, &reason, actor)
	if err != nil {
		return transport.StageResponse{}, err
	}

	s.log.Info("stage blocked", "stageId", stageID, "caseId", c.ID, "kind", stage.Kind, "reason", reason, "actor", actor)
	s.bus.Publish(ctx, events.StageBlocked{
		BaseEvent:  events.NewBaseEvent(),
		CaseID:     c.ID,
		CaseNumber: c.CaseNumber,
		StageID:    stageID,
		StageKind:  string(stage.Kind),
		Reason:     reason,
		BlockedBy:  actor,
		ExecutorID: c.AssignedExecutorID,
		AssessorID: c.AssignedAssessorID,
	})

	return toStageResponse(updated), nil
}

// UnblockStage clears the blocked flag of a stage.
func (s *Service) UnblockStage(ctx context.Context, stageID uuid.UUID, actor uuid.UUID, actorRoles []string) (transport.StageResponse, error) {
	stage, err := s.repo.GetStage(ctx, stageID)
	if err != nil {
		return transport.StageResponse{}, err
	}
	c, err := s.repo.GetByID(ctx, stage.CaseID)
	if err != nil {
		return transport.StageResponse{}, err
	}
	if err := s.checkStageActor(c, actor, actorRoles); err != nil {
		return transport.StageResponse{}, err
	}

	if !stage.IsBlocked {
		return transport.StageResponse{}, apperr.Conflict("stage is not blocked")
	}

	updated, err := s.repo.SetStageBlocked(ctx, stageID, false, nil, actor)
	if err != nil {
		return transport.StageResponse{}, err
	}

	s.log.Info("stage unblocked", "stageId", stageID, "caseId", c.ID, "kind", stage.Kind, "actor", actor)
	s.bus.Publish(ctx, events.StageUnblocked{
		BaseEvent:   events.NewBaseEvent(),
		CaseID:      c.ID,
		CaseNumber:  c.CaseNumber,
		StageID:     stageID,
		StageKind:   string(stage.Kind),
		UnblockedBy: actor,
	})

	return toStageResponse(updated), nil
}

// ListStages returns the ordered stage sequence of a case.
func (s *Service) ListStages(ctx context.Context, caseID uuid.UUID) ([]transport.StageResponse, error) {
	if _, err := s.repo.GetByID(ctx, caseID); err != nil {
		return nil, err
	}
	stages, err := s.repo.ListStages(ctx, caseID)
	if err != nil {
		return nil, err
	}

	out := make([]transport.StageResponse, len(stages))
	for i, st := range stages {
		out[i] = toStageResponse(st)
	}
	return out, nil
}

// checkStageActor gates stage mutations: Admins may act on any case, other
// actors only on cases assigned to them.
func (s *Service) checkStageActor(c repository.Case, actor uuid.UUID, actorRoles []string) error {
	for _, r := range actorRoles {
		if r == domain.RoleAdmin {
			return nil
		}
	}
	if c.AssignedExecutorID != nil && *c.AssignedExecutorID == actor {
		return nil
	}
	if c.AssignedAssessorID != nil && *c.AssignedAssessorID == actor {
		return nil
	}
	return apperr.Forbidden("case is not assigned to you")
}

// recomputeCaseCompletion flips the case to Completed once every stage is
// Completed. Deleted cases are never resurrected.
func (s *Service) recomputeCaseCompletion(ctx context.Context, c repository.Case, actor uuid.UUID) error {
	if c.Status == domain.CaseStatusDeleted || c.Status == domain.CaseStatusCompleted {
		return nil
	}

	done, err := s.repo.AllStagesCompleted(ctx, c.ID)
	if err != nil {
		return err
	}
	if !done {
		return nil
	}

	if _, err := s.repo.UpdateStatus(ctx, c.ID, domain.CaseStatusCompleted); err != nil {
		return err
	}

	s.log.Info("case completed", "id", c.ID, "caseNumber", c.CaseNumber)
	s.bus.Publish(ctx, events.CaseCompleted{
		BaseEvent:  events.NewBaseEvent(),
		CaseID:     c.ID,
		CaseNumber: c.CaseNumber,
		ExecutorID: c.AssignedExecutorID,
		CreatorID:  c.CreatedBy,
	})
	return nil
}
