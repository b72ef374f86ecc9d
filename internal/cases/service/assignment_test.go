package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"transit_portal_backend/internal/cases/domain"
	"transit_portal_backend/internal/cases/transport"
	"transit_portal_backend/platform/apperr"
)

func TestAssignValidatesRoles(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	detail := env.createCase(t, "Multimodal")
	actor := adminActor(env)

	// Assessor in the executor slot is a role mismatch.
	assessor := uuid.New()
	env.roles.roles[assessor] = []string{domain.RoleAssessor}
	_, err := env.svc.Assign(ctx, detail.ID, transport.AssignCaseRequest{ExecutorID: &assessor}, actor)
	if !apperr.Is(err, apperr.KindRoleMismatch) {
		t.Fatalf("Assign() assessor-as-executor error = %v, want role mismatch", err)
	}

	// Unknown user propagates not-found.
	ghost := uuid.New()
	_, err = env.svc.Assign(ctx, detail.ID, transport.AssignCaseRequest{ExecutorID: &ghost}, actor)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("Assign() unknown user error = %v, want not found", err)
	}

	// Correct roles succeed, filling both slots in one call.
	executor := uuid.New()
	env.roles.roles[executor] = []string{domain.RoleCaseExecutor}
	got, err := env.svc.Assign(ctx, detail.ID, transport.AssignCaseRequest{ExecutorID: &executor, AssessorID: &assessor}, actor)
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if got.AssignedExecutorID == nil || *got.AssignedExecutorID != executor {
		t.Fatalf("executor slot = %v, want %s", got.AssignedExecutorID, executor)
	}
	if got.AssignedAssessorID == nil || *got.AssignedAssessorID != assessor {
		t.Fatalf("assessor slot = %v, want %s", got.AssignedAssessorID, assessor)
	}
}

func TestAssignIsIdempotentPerSlot(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	detail := env.createCase(t, "Unimodal")
	actor := adminActor(env)

	executor := uuid.New()
	env.roles.roles[executor] = []string{domain.RoleCaseExecutor}
	if _, err := env.svc.Assign(ctx, detail.ID, transport.AssignCaseRequest{ExecutorID: &executor}, actor); err != nil {
		t.Fatalf("first Assign() error = %v", err)
	}
	before := len(env.bus.names())

	// Re-assigning the same executor changes nothing and stays silent,
	// even if the user's roles were revoked in the meantime.
	env.roles.roles[executor] = []string{domain.RoleCustomer}
	got, err := env.svc.Assign(ctx, detail.ID, transport.AssignCaseRequest{ExecutorID: &executor}, actor)
	if err != nil {
		t.Fatalf("repeat Assign() error = %v", err)
	}
	if got.AssignedExecutorID == nil || *got.AssignedExecutorID != executor {
		t.Fatalf("executor slot = %v, want unchanged", got.AssignedExecutorID)
	}
	if after := len(env.bus.names()); after != before {
		t.Fatalf("repeat assign published %d extra events", after-before)
	}
}

func TestAssignExecutorStartsApprovedCase(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	detail := env.createCase(t, "Multimodal")
	actor := adminActor(env)

	for _, status := range []domain.CaseStatus{
		domain.CaseStatusSubmitted, domain.CaseStatusUnderReview, domain.CaseStatusApproved,
	} {
		if _, err := env.svc.TransitionStatus(ctx, detail.ID, transport.UpdateCaseStatusRequest{Status: string(status)}, actor); err != nil {
			t.Fatalf("transition to %s: %v", status, err)
		}
	}

	executor := uuid.New()
	env.roles.roles[executor] = []string{domain.RoleCaseExecutor}
	got, err := env.svc.Assign(ctx, detail.ID, transport.AssignCaseRequest{ExecutorID: &executor}, actor)
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if got.Status != string(domain.CaseStatusInProgress) {
		t.Fatalf("case status after executor assignment = %s, want InProgress", got.Status)
	}
}

func TestAssignFailureLeavesStatusUnchanged(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	detail := env.createCase(t, "Multimodal")
	actor := adminActor(env)

	for _, status := range []domain.CaseStatus{
		domain.CaseStatusSubmitted, domain.CaseStatusUnderReview, domain.CaseStatusApproved,
	} {
		if _, err := env.svc.TransitionStatus(ctx, detail.ID, transport.UpdateCaseStatusRequest{Status: string(status)}, actor); err != nil {
			t.Fatalf("transition to %s: %v", status, err)
		}
	}

	// The InProgress advance rides in the assignment write; a failed
	// write must not move the status on its own.
	executor := uuid.New()
	env.roles.roles[executor] = []string{domain.RoleCaseExecutor}
	env.repo.assignErr = apperr.Internal("connection reset")
	if _, err := env.svc.Assign(ctx, detail.ID, transport.AssignCaseRequest{ExecutorID: &executor}, actor); err == nil {
		t.Fatalf("Assign() with failing store succeeded, want error")
	}

	env.repo.assignErr = nil
	got, err := env.svc.GetByID(ctx, detail.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Status != string(domain.CaseStatusApproved) {
		t.Fatalf("status after failed assignment = %s, want Approved", got.Status)
	}
	if got.AssignedExecutorID != nil {
		t.Fatalf("executor after failed assignment = %v, want empty", got.AssignedExecutorID)
	}
}

func TestAssignGuards(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	detail := env.createCase(t, "Unimodal")
	actor := adminActor(env)

	_, err := env.svc.Assign(ctx, detail.ID, transport.AssignCaseRequest{}, actor)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("empty Assign() error = %v, want validation error", err)
	}

	if err := env.svc.Delete(ctx, detail.ID, actor); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	executor := uuid.New()
	env.roles.roles[executor] = []string{domain.RoleCaseExecutor}
	_, err = env.svc.Assign(ctx, detail.ID, transport.AssignCaseRequest{ExecutorID: &executor}, actor)
	if !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("Assign() on deleted case error = %v, want invalid transition", err)
	}
}
