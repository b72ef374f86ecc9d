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

// Review records the service review decision on a case. Approval moves the
// case to Approved and records the reviewer as the assigned assessor;
// rejection moves it to Rejected without touching the assessor slot. Optional
// notes become a system message on the case thread.
func (s *Service) Review(ctx context.Context, caseID uuid.UUID, req transport.ReviewCaseRequest, reviewer uuid.UUID) (transport.CaseResponse, error) {
	c, err := s.repo.GetByID(ctx, caseID)
	if err != nil {
		return transport.CaseResponse{}, err
	}

	if !domain.CaseAwaitingReview(c.Status) {
		return transport.CaseResponse{}, apperr.InvalidTransition(fmt.Sprintf("case in status %s cannot be reviewed", c.Status))
	}

	var updated repository.Case
	if req.Approved {
		// One write: the case must never be Approved without its
		// reviewing assessor recorded.
		assessor := reviewer
		status := domain.CaseStatusApproved
		updated, err = s.repo.Assign(ctx, repository.AssignParams{
			CaseID:     caseID,
			AssessorID: &assessor,
			Status:     &status,
		})
	} else {
		updated, err = s.repo.UpdateStatus(ctx, caseID, domain.CaseStatusRejected)
	}
	if err != nil {
		return transport.CaseResponse{}, err
	}

	if s.comments != nil && req.Notes != nil && *req.Notes != "" {
		verdict := "rejected"
		if req.Approved {
			verdict = "approved"
		}
		body := fmt.Sprintf("Service review: %s. %s", verdict, *req.Notes)
		if err := s.comments.AddSystemMessage(ctx, caseID, reviewer, "Service Review", body); err != nil {
			s.log.Error("failed to write review comment", "caseId", caseID, "error", err)
		}
	}

	s.log.Info("case reviewed", "id", caseID, "caseNumber", c.CaseNumber, "approved", req.Approved, "reviewer", reviewer)
	s.bus.Publish(ctx, events.CaseReviewed{
		BaseEvent:  events.NewBaseEvent(),
		CaseID:     caseID,
		CaseNumber: c.CaseNumber,
		Approved:   req.Approved,
		ReviewerID: reviewer,
		CreatorID:  c.CreatedBy,
	})

	return toResponse(updated), nil
}
