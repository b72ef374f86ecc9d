package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"transit_portal_backend/internal/cases/domain"
	"transit_portal_backend/internal/cases/transport"
	"transit_portal_backend/platform/apperr"
)

func adminActor(env *testEnv) uuid.UUID {
	id := uuid.New()
	env.roles.roles[id] = []string{domain.RoleAdmin}
	return id
}

func TestUpdateStageStatusForwardOnly(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	detail := env.createCase(t, "Multimodal")
	actor := adminActor(env)
	admin := []string{domain.RoleAdmin}
	stage := detail.Stages[0]

	got, err := env.svc.UpdateStageStatus(ctx, stage.ID, transport.UpdateStageStatusRequest{Status: string(domain.StageStatusInProgress)}, actor, admin)
	if err != nil {
		t.Fatalf("move to InProgress: %v", err)
	}
	if got.Status != string(domain.StageStatusInProgress) {
		t.Fatalf("status = %s, want InProgress", got.Status)
	}

	_, err = env.svc.UpdateStageStatus(ctx, stage.ID, transport.UpdateStageStatusRequest{Status: string(domain.StageStatusPending)}, actor, admin)
	if !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("backwards move error = %v, want invalid transition", err)
	}

	_, err = env.svc.UpdateStageStatus(ctx, stage.ID, transport.UpdateStageStatusRequest{Status: string(domain.StageStatusInProgress)}, actor, admin)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("same-status move error = %v, want conflict", err)
	}
}

func TestUpdateStageStatusRequiresAssignment(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	detail := env.createCase(t, "Unimodal")
	stage := detail.Stages[0]

	stranger := uuid.New()
	_, err := env.svc.UpdateStageStatus(ctx, stage.ID, transport.UpdateStageStatusRequest{Status: string(domain.StageStatusInProgress)}, stranger, []string{domain.RoleCaseExecutor})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("unassigned executor error = %v, want forbidden", err)
	}

	// Assigning the executor grants access.
	executor := uuid.New()
	env.roles.roles[executor] = []string{domain.RoleCaseExecutor}
	if _, err := env.svc.Assign(ctx, detail.ID, transport.AssignCaseRequest{ExecutorID: &executor}, adminActor(env)); err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if _, err := env.svc.UpdateStageStatus(ctx, stage.ID, transport.UpdateStageStatusRequest{Status: string(domain.StageStatusInProgress)}, executor, []string{domain.RoleCaseExecutor}); err != nil {
		t.Fatalf("assigned executor update error = %v", err)
	}
}

func TestBlockedStageCannotComplete(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	detail := env.createCase(t, "Multimodal")
	actor := adminActor(env)
	admin := []string{domain.RoleAdmin}
	stage := detail.Stages[0]

	if _, err := env.svc.BlockStage(ctx, stage.ID, transport.BlockStageRequest{Reason: "missing clearance paperwork"}, actor, admin); err != nil {
		t.Fatalf("BlockStage() error = %v", err)
	}

	_, err := env.svc.UpdateStageStatus(ctx, stage.ID, transport.UpdateStageStatusRequest{Status: string(domain.StageStatusCompleted)}, actor, admin)
	if !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("complete blocked stage error = %v, want invalid transition", err)
	}

	// Blocking does not touch the status itself.
	got, err := env.svc.UpdateStageStatus(ctx, stage.ID, transport.UpdateStageStatusRequest{Status: string(domain.StageStatusInProgress)}, actor, admin)
	if err != nil {
		t.Fatalf("move blocked stage to InProgress: %v", err)
	}
	if !got.IsBlocked {
		t.Fatal("stage lost its blocked flag on status change")
	}

	if _, err := env.svc.UnblockStage(ctx, stage.ID, actor, admin); err != nil {
		t.Fatalf("UnblockStage() error = %v", err)
	}
	if _, err := env.svc.UpdateStageStatus(ctx, stage.ID, transport.UpdateStageStatusRequest{Status: string(domain.StageStatusCompleted)}, actor, admin); err != nil {
		t.Fatalf("complete after unblock error = %v", err)
	}
}

func TestBlockStageGuards(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	detail := env.createCase(t, "Unimodal")
	actor := adminActor(env)
	admin := []string{domain.RoleAdmin}
	stage := detail.Stages[0]

	if _, err := env.svc.BlockStage(ctx, stage.ID, transport.BlockStageRequest{Reason: "held at border"}, actor, admin); err != nil {
		t.Fatalf("BlockStage() error = %v", err)
	}
	if _, err := env.svc.BlockStage(ctx, stage.ID, transport.BlockStageRequest{Reason: "again"}, actor, admin); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("double block error = %v, want conflict", err)
	}

	other := detail.Stages[1]
	if _, err := env.svc.UpdateStageStatus(ctx, other.ID, transport.UpdateStageStatusRequest{Status: string(domain.StageStatusCompleted)}, actor, admin); err != nil {
		t.Fatalf("complete stage: %v", err)
	}
	if _, err := env.svc.BlockStage(ctx, other.ID, transport.BlockStageRequest{Reason: "late"}, actor, admin); !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("block completed stage error = %v, want invalid transition", err)
	}

	if _, err := env.svc.UnblockStage(ctx, other.ID, actor, admin); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("unblock unblocked stage error = %v, want conflict", err)
	}
}

func TestCompletingLastStageCompletesCase(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	detail := env.createCase(t, "Multimodal")
	actor := adminActor(env)
	admin := []string{domain.RoleAdmin}

	for i, stage := range detail.Stages {
		if _, err := env.svc.UpdateStageStatus(ctx, stage.ID, transport.UpdateStageStatusRequest{Status: string(domain.StageStatusCompleted)}, actor, admin); err != nil {
			t.Fatalf("complete stage %d: %v", i, err)
		}

		got, err := env.svc.GetByID(ctx, detail.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if i < len(detail.Stages)-1 {
			if got.Status == string(domain.CaseStatusCompleted) {
				t.Fatalf("case completed early after stage %d", i)
			}
		} else if got.Status != string(domain.CaseStatusCompleted) {
			t.Fatalf("case status after last stage = %s, want Completed", got.Status)
		}
	}

	names := env.bus.names()
	var completed int
	for _, n := range names {
		if n == "case.completed" {
			completed++
		}
	}
	if completed != 1 {
		t.Fatalf("case.completed published %d times, want 1; events = %v", completed, names)
	}
}

func TestBlockStagePublishesEvent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	detail := env.createCase(t, "Unimodal")
	actor := adminActor(env)

	if _, err := env.svc.BlockStage(ctx, detail.Stages[2].ID, transport.BlockStageRequest{Reason: "inspection hold"}, actor, []string{domain.RoleAdmin}); err != nil {
		t.Fatalf("BlockStage() error = %v", err)
	}

	names := env.bus.names()
	found := false
	for _, n := range names {
		if n == "stage.blocked" {
			found = true
		}
	}
	if !found {
		t.Fatalf("events = %v, want stage.blocked", names)
	}
}
