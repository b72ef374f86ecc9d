package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"transit_portal_backend/internal/cases/domain"
	"transit_portal_backend/internal/cases/repository"
	"transit_portal_backend/internal/cases/transport"
	"transit_portal_backend/internal/events"
	"transit_portal_backend/platform/apperr"
	"transit_portal_backend/platform/logger"
)

// fakeRepo is an in-memory repository.Repository for service tests.
type fakeRepo struct {
	mu         sync.Mutex
	cases      map[uuid.UUID]repository.Case
	stages     map[uuid.UUID]repository.Stage
	transports map[uuid.UUID]repository.StageTransport

	// assignErr, when set, makes Assign fail without touching state.
	assignErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		cases:      make(map[uuid.UUID]repository.Case),
		stages:     make(map[uuid.UUID]repository.Stage),
		transports: make(map[uuid.UUID]repository.StageTransport),
	}
}

func (f *fakeRepo) CreateWithStages(_ context.Context, params repository.CreateCaseParams, stages []domain.StageKind) (repository.Case, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c := repository.Case{
		ID:                 uuid.New(),
		CaseNumber:         params.CaseNumber,
		ServiceType:        params.ServiceType,
		ItemDescription:    params.ItemDescription,
		RouteCategory:      params.RouteCategory,
		DeclaredValueCents: params.DeclaredValueCents,
		TaxCategory:        params.TaxCategory,
		CountryOfOrigin:    params.CountryOfOrigin,
		Status:             domain.CaseStatusDraft,
		RiskTier:           params.RiskTier,
		CustomerID:         params.CustomerID,
		CreatedBy:          params.CreatedBy,
	}
	f.cases[c.ID] = c
	for i, kind := range stages {
		st := repository.Stage{
			ID:       uuid.New(),
			CaseID:   c.ID,
			Kind:     kind,
			Position: i,
			Status:   domain.StageStatusPending,
		}
		f.stages[st.ID] = st
	}
	return c, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Case, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cases[id]
	if !ok {
		return repository.Case{}, apperr.NotFound("case not found")
	}
	return c, nil
}

func (f *fakeRepo) List(_ context.Context, params repository.ListParams) ([]repository.Case, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Case
	for _, c := range f.cases {
		if params.Status != nil && c.Status != *params.Status {
			continue
		}
		if params.Status == nil && !params.PendingReview && c.Status == domain.CaseStatusDeleted {
			continue
		}
		if params.PendingReview && !domain.CaseAwaitingReview(c.Status) {
			continue
		}
		if params.ExecutorID != nil && (c.AssignedExecutorID == nil || *c.AssignedExecutorID != *params.ExecutorID) {
			continue
		}
		if params.CustomerID != nil && c.CustomerID != *params.CustomerID {
			continue
		}
		out = append(out, c)
	}
	return out, len(out), nil
}

func (f *fakeRepo) UpdateDetails(_ context.Context, params repository.UpdateCaseParams) (repository.Case, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cases[params.ID]
	if !ok {
		return repository.Case{}, apperr.NotFound("case not found")
	}
	if params.ItemDescription != nil {
		c.ItemDescription = *params.ItemDescription
	}
	if params.RouteCategory != nil {
		c.RouteCategory = *params.RouteCategory
	}
	if params.DeclaredValueCents != nil {
		c.DeclaredValueCents = *params.DeclaredValueCents
	}
	if params.TaxCategory != nil {
		c.TaxCategory = *params.TaxCategory
	}
	if params.CountryOfOrigin != nil {
		c.CountryOfOrigin = *params.CountryOfOrigin
	}
	f.cases[params.ID] = c
	return c, nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id uuid.UUID, status domain.CaseStatus) (repository.Case, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cases[id]
	if !ok {
		return repository.Case{}, apperr.NotFound("case not found")
	}
	c.Status = status
	f.cases[id] = c
	return c, nil
}

func (f *fakeRepo) SetRiskTier(_ context.Context, id uuid.UUID, tier domain.RiskTier, stageID *uuid.UUID, notes *string) (repository.Case, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cases[id]
	if !ok {
		return repository.Case{}, apperr.NotFound("case not found")
	}
	// Both writes commit together or neither does, mirroring the
	// transactional repository.
	if notes != nil && stageID != nil {
		st, ok := f.stages[*stageID]
		if !ok {
			return repository.Case{}, apperr.NotFound("case stage not found")
		}
		if st.RiskNotes == nil || *st.RiskNotes == "" {
			st.RiskNotes = notes
		} else {
			joined := *st.RiskNotes + "\n" + *notes
			st.RiskNotes = &joined
		}
		f.stages[*stageID] = st
	}
	c.RiskTier = tier
	f.cases[id] = c
	return c, nil
}

func (f *fakeRepo) Assign(_ context.Context, params repository.AssignParams) (repository.Case, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.assignErr != nil {
		return repository.Case{}, f.assignErr
	}
	c, ok := f.cases[params.CaseID]
	if !ok {
		return repository.Case{}, apperr.NotFound("case not found")
	}
	if params.ExecutorID != nil {
		c.AssignedExecutorID = params.ExecutorID
	}
	if params.AssessorID != nil {
		c.AssignedAssessorID = params.AssessorID
	}
	if params.Notes != nil {
		c.AssignmentNotes = params.Notes
	}
	if params.Status != nil {
		c.Status = *params.Status
	}
	f.cases[params.CaseID] = c
	return c, nil
}

func (f *fakeRepo) ListStages(_ context.Context, caseID uuid.UUID) ([]repository.Stage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Stage
	for _, st := range f.stages {
		if st.CaseID == caseID {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (f *fakeRepo) GetStage(_ context.Context, stageID uuid.UUID) (repository.Stage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.stages[stageID]
	if !ok {
		return repository.Stage{}, apperr.NotFound("case stage not found")
	}
	return st, nil
}

func (f *fakeRepo) LatestStage(_ context.Context, caseID uuid.UUID) (repository.Stage, error) {
	stages, _ := f.ListStages(context.Background(), caseID)
	if len(stages) == 0 {
		return repository.Stage{}, apperr.NotFound("case stage not found")
	}
	return stages[len(stages)-1], nil
}

func (f *fakeRepo) UpdateStageStatus(_ context.Context, params repository.UpdateStageParams) (repository.Stage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.stages[params.StageID]
	if !ok {
		return repository.Stage{}, apperr.NotFound("case stage not found")
	}
	st.Status = params.Status
	if params.Notes != nil {
		st.Notes = params.Notes
	}
	updatedBy := params.UpdatedBy
	st.UpdatedBy = &updatedBy
	f.stages[params.StageID] = st
	return st, nil
}

func (f *fakeRepo) SetStageBlocked(_ context.Context, stageID uuid.UUID, blocked bool, reason *string, updatedBy uuid.UUID) (repository.Stage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.stages[stageID]
	if !ok {
		return repository.Stage{}, apperr.NotFound("case stage not found")
	}
	st.IsBlocked = blocked
	st.BlockedReason = reason
	st.UpdatedBy = &updatedBy
	f.stages[stageID] = st
	return st, nil
}

func (f *fakeRepo) AllStagesCompleted(_ context.Context, caseID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, st := range f.stages {
		if st.CaseID == caseID && st.Status != domain.StageStatusCompleted {
			return false, nil
		}
	}
	return true, nil
}

func (f *fakeRepo) CreateTransport(_ context.Context, params repository.CreateTransportParams) (repository.StageTransport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := repository.StageTransport{
		ID:              uuid.New(),
		StageID:         params.StageID,
		DriverName:      params.DriverName,
		LicenceDocument: params.LicenceDocument,
		PlateNumber:     params.PlateNumber,
		Phone:           params.Phone,
		ProductAmount:   params.ProductAmount,
		CreatedBy:       params.CreatedBy,
	}
	f.transports[t.ID] = t
	return t, nil
}

func (f *fakeRepo) GetTransport(_ context.Context, id uuid.UUID) (repository.StageTransport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.transports[id]
	if !ok {
		return repository.StageTransport{}, apperr.NotFound("stage transport not found")
	}
	return t, nil
}

func (f *fakeRepo) ListTransports(_ context.Context, stageID uuid.UUID) ([]repository.StageTransport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.StageTransport
	for _, t := range f.transports {
		if t.StageID == stageID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateTransport(_ context.Context, params repository.UpdateTransportParams) (repository.StageTransport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.transports[params.ID]
	if !ok {
		return repository.StageTransport{}, apperr.NotFound("stage transport not found")
	}
	if params.DriverName != nil {
		t.DriverName = *params.DriverName
	}
	if params.LicenceDocument != nil {
		t.LicenceDocument = params.LicenceDocument
	}
	if params.PlateNumber != nil {
		t.PlateNumber = *params.PlateNumber
	}
	if params.Phone != nil {
		t.Phone = *params.Phone
	}
	if params.ProductAmount != nil {
		t.ProductAmount = *params.ProductAmount
	}
	f.transports[params.ID] = t
	return t, nil
}

func (f *fakeRepo) DeleteTransport(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.transports[id]; !ok {
		return apperr.NotFound("stage transport not found")
	}
	delete(f.transports, id)
	return nil
}

type fakeCustomers struct {
	verified map[uuid.UUID]bool
}

func (f *fakeCustomers) IsVerified(_ context.Context, id uuid.UUID) (bool, error) {
	v, ok := f.verified[id]
	if !ok {
		return false, apperr.NotFound("customer not found")
	}
	return v, nil
}

type fakeRoles struct {
	roles map[uuid.UUID][]string
}

func (f *fakeRoles) RolesOf(_ context.Context, id uuid.UUID) ([]string, error) {
	r, ok := f.roles[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	return r, nil
}

// recordingBus captures published events synchronously.
type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	for i, e := range b.events {
		out[i] = e.EventName()
	}
	return out
}

type testEnv struct {
	svc       *Service
	repo      *fakeRepo
	customers *fakeCustomers
	roles     *fakeRoles
	bus       *recordingBus
}

func newTestEnv() *testEnv {
	repo := newFakeRepo()
	customers := &fakeCustomers{verified: make(map[uuid.UUID]bool)}
	roles := &fakeRoles{roles: make(map[uuid.UUID][]string)}
	bus := &recordingBus{}
	svc := New(repo, customers, roles, bus, logger.New("test"))
	return &testEnv{svc: svc, repo: repo, customers: customers, roles: roles, bus: bus}
}

func (env *testEnv) createCase(t *testing.T, serviceType string) transport.CaseDetailResponse {
	t.Helper()
	ctx := context.Background()
	customerID := uuid.New()
	env.customers.verified[customerID] = true

	detail, err := env.svc.Create(ctx, transport.CreateCaseRequest{
		CustomerID:      customerID,
		ServiceType:     serviceType,
		ItemDescription: "industrial machinery parts",
	}, uuid.New())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return detail
}

func TestCreateGeneratesStageTemplate(t *testing.T) {
	env := newTestEnv()
	detail := env.createCase(t, "Multimodal")

	if detail.Status != string(domain.CaseStatusDraft) {
		t.Fatalf("new case status = %s, want Draft", detail.Status)
	}
	if detail.RiskTier != string(domain.RiskTierBlue) {
		t.Fatalf("new case risk tier = %s, want Blue", detail.RiskTier)
	}
	if len(detail.Stages) != 6 {
		t.Fatalf("multimodal case has %d stages, want 6", len(detail.Stages))
	}
	for i, st := range detail.Stages {
		if st.Position != i {
			t.Errorf("stage %d position = %d", i, st.Position)
		}
		if st.Status != string(domain.StageStatusPending) {
			t.Errorf("stage %s status = %s, want Pending", st.Kind, st.Status)
		}
	}
	if !strings.HasPrefix(detail.CaseNumber, "SRV-") {
		t.Errorf("case number %q missing SRV prefix", detail.CaseNumber)
	}
	if got := env.bus.names(); len(got) != 1 || got[0] != "case.created" {
		t.Errorf("published events = %v, want [case.created]", got)
	}
}

func TestCreateUnknownTypeGetsFallbackTemplate(t *testing.T) {
	env := newTestEnv()
	detail := env.createCase(t, "CourierExpress")

	if detail.ServiceType != string(domain.CaseTypeOther) {
		t.Fatalf("service type = %s, want Other", detail.ServiceType)
	}
	if len(detail.Stages) != 3 {
		t.Fatalf("fallback template has %d stages, want 3", len(detail.Stages))
	}
}

func TestCreateRejectsUnverifiedCustomer(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	customerID := uuid.New()
	env.customers.verified[customerID] = false

	_, err := env.svc.Create(ctx, transport.CreateCaseRequest{
		CustomerID:      customerID,
		ServiceType:     "Unimodal",
		ItemDescription: "textiles",
	}, uuid.New())
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("Create() error = %v, want validation error", err)
	}

	_, err = env.svc.Create(ctx, transport.CreateCaseRequest{
		CustomerID:      uuid.New(),
		ServiceType:     "Unimodal",
		ItemDescription: "textiles",
	}, uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("Create() with unknown customer error = %v, want not found", err)
	}
}

func TestTransitionStatusFollowsLifecycleGraph(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	detail := env.createCase(t, "Unimodal")
	actor := uuid.New()

	for _, status := range []domain.CaseStatus{
		domain.CaseStatusSubmitted,
		domain.CaseStatusUnderReview,
		domain.CaseStatusApproved,
		domain.CaseStatusInProgress,
	} {
		got, err := env.svc.TransitionStatus(ctx, detail.ID, transport.UpdateCaseStatusRequest{Status: string(status)}, actor)
		if err != nil {
			t.Fatalf("transition to %s: %v", status, err)
		}
		if got.Status != string(status) {
			t.Fatalf("status = %s, want %s", got.Status, status)
		}
	}

	_, err := env.svc.TransitionStatus(ctx, detail.ID, transport.UpdateCaseStatusRequest{Status: string(domain.CaseStatusDraft)}, actor)
	if !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("backwards transition error = %v, want invalid transition", err)
	}

	_, err = env.svc.TransitionStatus(ctx, detail.ID, transport.UpdateCaseStatusRequest{Status: string(domain.CaseStatusInProgress)}, actor)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("same-status transition error = %v, want conflict", err)
	}
}

func TestTransitionToCompletedRequiresAllStagesDone(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	detail := env.createCase(t, "Multimodal")
	actor := uuid.New()

	for _, status := range []domain.CaseStatus{
		domain.CaseStatusSubmitted, domain.CaseStatusUnderReview,
		domain.CaseStatusApproved, domain.CaseStatusInProgress,
	} {
		if _, err := env.svc.TransitionStatus(ctx, detail.ID, transport.UpdateCaseStatusRequest{Status: string(status)}, actor); err != nil {
			t.Fatalf("transition to %s: %v", status, err)
		}
	}

	_, err := env.svc.TransitionStatus(ctx, detail.ID, transport.UpdateCaseStatusRequest{Status: string(domain.CaseStatusCompleted)}, actor)
	if !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("complete with pending stages error = %v, want invalid transition", err)
	}
}

func TestDeleteIsSoftAndTerminal(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	detail := env.createCase(t, "Unimodal")
	actor := uuid.New()

	if err := env.svc.Delete(ctx, detail.ID, actor); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	got, err := env.svc.GetByID(ctx, detail.ID)
	if err != nil {
		t.Fatalf("GetByID() after delete error = %v", err)
	}
	if got.Status != string(domain.CaseStatusDeleted) {
		t.Fatalf("status after delete = %s, want Deleted", got.Status)
	}
	if len(got.Stages) != 7 {
		t.Fatalf("stages after delete = %d, want 7", len(got.Stages))
	}

	if err := env.svc.Delete(ctx, detail.ID, actor); !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("double delete error = %v, want invalid transition", err)
	}
}

func TestSetRiskTierAppendsNotesToLatestStage(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	detail := env.createCase(t, "Multimodal")
	actor := uuid.New()

	notes := "origin country flagged for additional checks"
	got, err := env.svc.SetRiskTier(ctx, detail.ID, transport.SetRiskTierRequest{
		RiskTier: string(domain.RiskTierRed),
		Notes:    &notes,
	}, actor)
	if err != nil {
		t.Fatalf("SetRiskTier() error = %v", err)
	}
	if got.RiskTier != string(domain.RiskTierRed) {
		t.Fatalf("risk tier = %s, want Red", got.RiskTier)
	}

	stages, err := env.svc.ListStages(ctx, detail.ID)
	if err != nil {
		t.Fatalf("ListStages() error = %v", err)
	}
	last := stages[len(stages)-1]
	if last.RiskNotes == nil || !strings.Contains(*last.RiskNotes, "additional checks") {
		t.Fatalf("latest stage risk notes = %v, want appended note", last.RiskNotes)
	}
	for _, st := range stages[:len(stages)-1] {
		if st.RiskNotes != nil {
			t.Errorf("stage %s unexpectedly has risk notes", st.Kind)
		}
	}
}

func TestSetRiskTierRejectsForeignStage(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	a := env.createCase(t, "Multimodal")
	b := env.createCase(t, "Unimodal")

	notes := "note"
	foreign := b.Stages[0].ID
	_, err := env.svc.SetRiskTier(ctx, a.ID, transport.SetRiskTierRequest{
		RiskTier: string(domain.RiskTierYellow),
		Notes:    &notes,
		StageID:  &foreign,
	}, uuid.New())
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("foreign stage error = %v, want validation error", err)
	}

	// Tier and notes are one write; a rejected notes target must leave
	// the tier where it was.
	got, err := env.svc.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.RiskTier != string(domain.RiskTierBlue) {
		t.Fatalf("risk tier after rejected notes target = %s, want Blue", got.RiskTier)
	}
}
