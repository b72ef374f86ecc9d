// Package service implements customer registration and the verification
// gate that controls who may own cases.
package service

import (
	"context"

	"github.com/google/uuid"

	"transit_portal_backend/internal/customers/repository"
	"transit_portal_backend/internal/customers/transport"
	"transit_portal_backend/internal/events"
	"transit_portal_backend/platform/apperr"
	"transit_portal_backend/platform/logger"
	"transit_portal_backend/platform/phone"
)

// Service provides customer operations.
type Service struct {
	repo repository.Repository
	bus  events.Bus
	log  *logger.Logger
}

// New creates a new customers service.
func New(repo repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// Register creates a new customer in Pending status. Phone numbers are
// normalized to E.164 before storage.
func (s *Service) Register(ctx context.Context, req transport.RegisterCustomerRequest, createdBy uuid.UUID) (transport.CustomerResponse, error) {
	c, err := s.repo.Create(ctx, repository.CreateParams{
		FullName:    req.FullName,
		CompanyName: req.CompanyName,
		Email:       req.Email,
		Phone:       phone.NormalizeE164(req.Phone),
		TaxIDNumber: req.TaxIDNumber,
		Address:     req.Address,
		CreatedBy:   createdBy,
	})
	if err != nil {
		return transport.CustomerResponse{}, err
	}

	s.log.Info("customer registered", "id", c.ID, "email", c.Email)
	return toResponse(c), nil
}

// GetByID retrieves a customer.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.CustomerResponse, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.CustomerResponse{}, err
	}
	return toResponse(c), nil
}

// List retrieves customers matching the request filters.
func (s *Service) List(ctx context.Context, req transport.ListCustomersRequest) (transport.CustomerListResponse, error) {
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
		Search: req.Search,
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	}
	if req.Status != "" {
		status, err := repository.ParseStatus(req.Status)
		if err != nil {
			return transport.CustomerListResponse{}, err
		}
		params.Status = &status
	}

	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.CustomerListResponse{}, err
	}

	responses := make([]transport.CustomerResponse, len(items))
	for i, c := range items {
		responses[i] = toResponse(c)
	}
	return transport.CustomerListResponse{
		Items:    responses,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// ListPendingVerification retrieves customers awaiting a decision.
func (s *Service) ListPendingVerification(ctx context.Context, req transport.ListCustomersRequest) (transport.CustomerListResponse, error) {
	req.Status = string(repository.StatusPending)
	return s.List(ctx, req)
}

// Update mutates customer details. Nil fields are left unchanged.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateCustomerRequest) (transport.CustomerResponse, error) {
	params := repository.UpdateParams{
		ID:          id,
		FullName:    req.FullName,
		CompanyName: req.CompanyName,
		Email:       req.Email,
		TaxIDNumber: req.TaxIDNumber,
		Address:     req.Address,
	}
	if req.Phone != nil {
		normalized := phone.NormalizeE164(*req.Phone)
		params.Phone = &normalized
	}

	c, err := s.repo.Update(ctx, params)
	if err != nil {
		return transport.CustomerResponse{}, err
	}

	s.log.Info("customer updated", "id", c.ID)
	return toResponse(c), nil
}

// Verify records a verification decision. Verified customers cannot be
// re-decided; a rejected customer may be re-reviewed after correcting
// their details.
func (s *Service) Verify(ctx context.Context, id uuid.UUID, req transport.VerifyCustomerRequest, reviewer uuid.UUID) (transport.CustomerResponse, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.CustomerResponse{}, err
	}
	if c.Status == repository.StatusVerified {
		return transport.CustomerResponse{}, apperr.Conflict("customer is already verified")
	}

	params := repository.SetStatusParams{ID: id, Status: repository.StatusRejected}
	if req.Approved {
		params.Status = repository.StatusVerified
		params.VerifiedBy = &reviewer
		params.Notes = req.Notes
	} else {
		if req.Reason == nil || *req.Reason == "" {
			return transport.CustomerResponse{}, apperr.Validation("a reason is required when rejecting a customer")
		}
		params.Reason = req.Reason
	}

	updated, err := s.repo.SetStatus(ctx, params)
	if err != nil {
		return transport.CustomerResponse{}, err
	}

	s.log.Info("customer verification decided", "id", id, "approved", req.Approved, "reviewer", reviewer)
	s.bus.Publish(ctx, events.CustomerReviewed{
		BaseEvent:  events.NewBaseEvent(),
		CustomerID: id,
		Verified:   req.Approved,
		ReviewerID: reviewer,
		CreatorID:  c.CreatedBy,
	})

	return toResponse(updated), nil
}

// IsVerified reports whether the customer may own cases. This is the
// CustomerDirectory implementation consumed by the cases module.
func (s *Service) IsVerified(ctx context.Context, customerID uuid.UUID) (bool, error) {
	c, err := s.repo.GetByID(ctx, customerID)
	if err != nil {
		return false, err
	}
	return c.Status == repository.StatusVerified, nil
}

func toResponse(c repository.Customer) transport.CustomerResponse {
	return transport.CustomerResponse{
		ID:                c.ID,
		FullName:          c.FullName,
		CompanyName:       c.CompanyName,
		Email:             c.Email,
		Phone:             c.Phone,
		TaxIDNumber:       c.TaxIDNumber,
		Address:           c.Address,
		Status:            string(c.Status),
		RejectionReason:   c.RejectionReason,
		VerifiedBy:        c.VerifiedBy,
		VerifiedAt:        c.VerifiedAt,
		VerificationNotes: c.VerificationNotes,
		CreatedBy:         c.CreatedBy,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}
