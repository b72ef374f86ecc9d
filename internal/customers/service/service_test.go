package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"transit_portal_backend/internal/customers/repository"
	"transit_portal_backend/internal/customers/transport"
	"transit_portal_backend/internal/events"
	"transit_portal_backend/platform/apperr"
	"transit_portal_backend/platform/logger"
)

type fakeRepo struct {
	customers map[uuid.UUID]repository.Customer
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{customers: make(map[uuid.UUID]repository.Customer)}
}

func (f *fakeRepo) Create(_ context.Context, params repository.CreateParams) (repository.Customer, error) {
	c := repository.Customer{
		ID:          uuid.New(),
		FullName:    params.FullName,
		CompanyName: params.CompanyName,
		Email:       params.Email,
		Phone:       params.Phone,
		TaxIDNumber: params.TaxIDNumber,
		Address:     params.Address,
		Status:      repository.StatusPending,
		CreatedBy:   params.CreatedBy,
	}
	f.customers[c.ID] = c
	return c, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return repository.Customer{}, apperr.NotFound("customer not found")
	}
	return c, nil
}

func (f *fakeRepo) List(_ context.Context, params repository.ListParams) ([]repository.Customer, int, error) {
	var out []repository.Customer
	for _, c := range f.customers {
		if params.Status != nil && c.Status != *params.Status {
			continue
		}
		out = append(out, c)
	}
	return out, len(out), nil
}

func (f *fakeRepo) Update(_ context.Context, params repository.UpdateParams) (repository.Customer, error) {
	c, ok := f.customers[params.ID]
	if !ok {
		return repository.Customer{}, apperr.NotFound("customer not found")
	}
	if params.FullName != nil {
		c.FullName = *params.FullName
	}
	if params.Email != nil {
		c.Email = *params.Email
	}
	if params.Phone != nil {
		c.Phone = *params.Phone
	}
	f.customers[params.ID] = c
	return c, nil
}

func (f *fakeRepo) SetStatus(_ context.Context, params repository.SetStatusParams) (repository.Customer, error) {
	c, ok := f.customers[params.ID]
	if !ok {
		return repository.Customer{}, apperr.NotFound("customer not found")
	}
	c.Status = params.Status
	c.RejectionReason = params.Reason
	c.VerifiedBy = params.VerifiedBy
	c.VerificationNotes = params.Notes
	if params.VerifiedBy != nil {
		now := "2026-01-01T00:00:00Z"
		c.VerifiedAt = &now
	} else {
		c.VerifiedAt = nil
	}
	f.customers[params.ID] = c
	return c, nil
}

type recordingBus struct {
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) { b.events = append(b.events, e) }
func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}
func (b *recordingBus) Subscribe(string, events.Handler) {}

func newTestService() (*Service, *fakeRepo, *recordingBus) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	return New(repo, bus, logger.New("test")), repo, bus
}

func TestRegisterNormalizesPhone(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	got, err := svc.Register(ctx, transport.RegisterCustomerRequest{
		FullName: "Abebe Kebede",
		Email:    "abebe@example.com",
		Phone:    "0911223344",
	}, uuid.New())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if got.Phone != "+251911223344" {
		t.Fatalf("phone = %q, want +251911223344", got.Phone)
	}
	if got.Status != string(repository.StatusPending) {
		t.Fatalf("status = %s, want Pending", got.Status)
	}
}

func TestVerifyLifecycle(t *testing.T) {
	svc, _, bus := newTestService()
	ctx := context.Background()
	reviewer := uuid.New()

	c, err := svc.Register(ctx, transport.RegisterCustomerRequest{
		FullName: "Sara Tesfaye",
		Email:    "sara@example.com",
		Phone:    "+251922334455",
	}, uuid.New())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// Rejection requires a reason.
	_, err = svc.Verify(ctx, c.ID, transport.VerifyCustomerRequest{Approved: false}, reviewer)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("reject without reason error = %v, want validation error", err)
	}

	reason := "tax id document is illegible"
	got, err := svc.Verify(ctx, c.ID, transport.VerifyCustomerRequest{Approved: false, Reason: &reason}, reviewer)
	if err != nil {
		t.Fatalf("Verify() reject error = %v", err)
	}
	if got.Status != string(repository.StatusRejected) || got.RejectionReason == nil {
		t.Fatalf("after rejection: status=%s reason=%v", got.Status, got.RejectionReason)
	}

	// A rejected customer may be re-reviewed and approved; the approval
	// records who verified, when, and any remark.
	notes := "documents re-submitted and checked"
	got, err = svc.Verify(ctx, c.ID, transport.VerifyCustomerRequest{Approved: true, Notes: &notes}, reviewer)
	if err != nil {
		t.Fatalf("Verify() approve error = %v", err)
	}
	if got.Status != string(repository.StatusVerified) {
		t.Fatalf("status after approval = %s, want Verified", got.Status)
	}
	if got.VerifiedBy == nil || *got.VerifiedBy != reviewer {
		t.Fatalf("verified by = %v, want reviewer %s", got.VerifiedBy, reviewer)
	}
	if got.VerifiedAt == nil {
		t.Fatal("verification timestamp not recorded")
	}
	if got.VerificationNotes == nil || *got.VerificationNotes != notes {
		t.Fatalf("verification notes = %v, want %q", got.VerificationNotes, notes)
	}

	// Verified is final.
	_, err = svc.Verify(ctx, c.ID, transport.VerifyCustomerRequest{Approved: true}, reviewer)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("re-verify error = %v, want conflict", err)
	}

	var reviewed int
	for _, e := range bus.events {
		if e.EventName() == "customer.reviewed" {
			reviewed++
		}
	}
	if reviewed != 2 {
		t.Fatalf("customer.reviewed published %d times, want 2", reviewed)
	}
}

func TestIsVerifiedGate(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	c, err := svc.Register(ctx, transport.RegisterCustomerRequest{
		FullName: "Daniel Haile",
		Email:    "daniel@example.com",
		Phone:    "+251933445566",
	}, uuid.New())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	verified, err := svc.IsVerified(ctx, c.ID)
	if err != nil {
		t.Fatalf("IsVerified() error = %v", err)
	}
	if verified {
		t.Fatal("pending customer reported as verified")
	}

	if _, err := svc.Verify(ctx, c.ID, transport.VerifyCustomerRequest{Approved: true}, uuid.New()); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	verified, err = svc.IsVerified(ctx, c.ID)
	if err != nil {
		t.Fatalf("IsVerified() error = %v", err)
	}
	if !verified {
		t.Fatal("verified customer reported as unverified")
	}

	if _, err := svc.IsVerified(ctx, uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("IsVerified() unknown customer error = %v, want not found", err)
	}
}
