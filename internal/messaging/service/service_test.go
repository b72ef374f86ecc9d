package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	casesrepo "transit_portal_backend/internal/cases/repository"
	"transit_portal_backend/internal/messaging/repository"
	"transit_portal_backend/internal/messaging/transport"
	"transit_portal_backend/platform/apperr"
	"transit_portal_backend/platform/logger"
)

type fakeLedger struct {
	messages []repository.Message
}

func (f *fakeLedger) Create(_ context.Context, params repository.CreateParams) (repository.Message, error) {
	m := repository.Message{
		ID:         uuid.New(),
		CaseID:     params.CaseID,
		StageID:    params.StageID,
		AuthorID:   params.AuthorID,
		AuthorKind: params.AuthorKind,
		Title:      params.Title,
		Body:       params.Body,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	f.messages = append(f.messages, m)
	return m, nil
}

func (f *fakeLedger) ListByCase(_ context.Context, caseID uuid.UUID) ([]repository.Message, error) {
	var out []repository.Message
	for _, m := range f.messages {
		if m.CaseID == caseID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeLedger) ListByStage(_ context.Context, stageID uuid.UUID) ([]repository.Message, error) {
	var out []repository.Message
	for _, m := range f.messages {
		if m.StageID != nil && *m.StageID == stageID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeCases struct {
	cases  map[uuid.UUID]casesrepo.Case
	stages map[uuid.UUID]casesrepo.Stage
}

func (f *fakeCases) GetByID(_ context.Context, id uuid.UUID) (casesrepo.Case, error) {
	c, ok := f.cases[id]
	if !ok {
		return casesrepo.Case{}, apperr.NotFound("case not found")
	}
	return c, nil
}

func (f *fakeCases) GetStage(_ context.Context, id uuid.UUID) (casesrepo.Stage, error) {
	st, ok := f.stages[id]
	if !ok {
		return casesrepo.Stage{}, apperr.NotFound("case stage not found")
	}
	return st, nil
}

func newTestService() (*Service, *fakeCases) {
	cases := &fakeCases{
		cases:  make(map[uuid.UUID]casesrepo.Case),
		stages: make(map[uuid.UUID]casesrepo.Stage),
	}
	return New(&fakeLedger{}, cases, logger.New("test")), cases
}

func TestCaseAndStageThreadsAreSeparate(t *testing.T) {
	svc, cases := newTestService()
	ctx := context.Background()
	author := uuid.New()

	caseID := uuid.New()
	stageID := uuid.New()
	cases.cases[caseID] = casesrepo.Case{ID: caseID}
	cases.stages[stageID] = casesrepo.Stage{ID: stageID, CaseID: caseID}

	if _, err := svc.AddCaseMessage(ctx, caseID, transport.AddMessageRequest{Body: "customer called about delivery"}, author); err != nil {
		t.Fatalf("AddCaseMessage() error = %v", err)
	}
	if _, err := svc.AddStageComment(ctx, stageID, transport.AddMessageRequest{Body: "inspection scheduled"}, author); err != nil {
		t.Fatalf("AddStageComment() error = %v", err)
	}

	// The case thread carries both entries; the stage thread only its own.
	caseMsgs, err := svc.ListCaseMessages(ctx, caseID)
	if err != nil {
		t.Fatalf("ListCaseMessages() error = %v", err)
	}
	if len(caseMsgs) != 2 {
		t.Fatalf("case thread has %d entries, want 2", len(caseMsgs))
	}

	stageMsgs, err := svc.ListStageComments(ctx, stageID)
	if err != nil {
		t.Fatalf("ListStageComments() error = %v", err)
	}
	if len(stageMsgs) != 1 || stageMsgs[0].Body != "inspection scheduled" {
		t.Fatalf("stage thread = %+v, want single inspection comment", stageMsgs)
	}
}

func TestSystemMessagesAreMarked(t *testing.T) {
	svc, cases := newTestService()
	ctx := context.Background()

	caseID := uuid.New()
	cases.cases[caseID] = casesrepo.Case{ID: caseID}

	if err := svc.AddSystemMessage(ctx, caseID, uuid.New(), "Service Review", "Service review: approved."); err != nil {
		t.Fatalf("AddSystemMessage() error = %v", err)
	}
	if err := svc.AddSystemMessage(ctx, caseID, uuid.New(), "", ""); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("empty body error = %v, want validation error", err)
	}

	msgs, err := svc.ListCaseMessages(ctx, caseID)
	if err != nil {
		t.Fatalf("ListCaseMessages() error = %v", err)
	}
	if len(msgs) != 1 || msgs[0].AuthorKind != string(repository.AuthorSystem) {
		t.Fatalf("messages = %+v, want one system entry", msgs)
	}
}

func TestMessagesRequireExistingTargets(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.AddCaseMessage(ctx, uuid.New(), transport.AddMessageRequest{Body: "x"}, uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("message on missing case error = %v, want not found", err)
	}
	if _, err := svc.AddStageComment(ctx, uuid.New(), transport.AddMessageRequest{Body: "x"}, uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("comment on missing stage error = %v, want not found", err)
	}
}
