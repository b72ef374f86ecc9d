package service

import (
	"context"

	"github.com/google/uuid"

	"transit_portal_backend/internal/cases/repository"
	"transit_portal_backend/internal/cases/transport"
	"transit_portal_backend/platform/phone"
)

// CreateTransport registers the carrier record of a stage: the driver, the
// vehicle plate and the product amount moved on that step. The actor must be
// assigned to the owning case, or an Admin.
func (s *Service) CreateTransport(ctx context.Context, stageID uuid.UUID, req transport.CreateTransportRequest, actor uuid.UUID, actorRoles []string) (transport.TransportResponse, error) {
	stage, err := s.repo.GetStage(ctx, stageID)
	if err != nil {
		return transport.TransportResponse{}, err
	}
	c, err := s.repo.GetByID(ctx, stage.CaseID)
	if err != nil {
		return transport.TransportResponse{}, err
	}
	if err := s.checkStageActor(c, actor, actorRoles); err != nil {
		return transport.TransportResponse{}, err
	}

	created, err := s.repo.CreateTransport(ctx, repository.CreateTransportParams{
		StageID:         stageID,
		DriverName:      req.DriverName,
		LicenceDocument: req.LicenceDocument,
		PlateNumber:     req.PlateNumber,
		Phone:           phone.NormalizeE164(req.Phone),
		ProductAmount:   req.ProductAmount,
		CreatedBy:       actor,
	})
	if err != nil {
		return transport.TransportResponse{}, err
	}

	s.log.Info("stage transport registered", "transportId", created.ID, "stageId", stageID, "caseId", c.ID, "plate", created.PlateNumber, "actor", actor)
	return toTransportResponse(created), nil
}

// GetTransport returns a single transport record.
func (s *Service) GetTransport(ctx context.Context, id uuid.UUID) (transport.TransportResponse, error) {
	t, err := s.repo.GetTransport(ctx, id)
	if err != nil {
		return transport.TransportResponse{}, err
	}
	return toTransportResponse(t), nil
}

// ListTransports returns every transport registered on a stage.
func (s *Service) ListTransports(ctx context.Context, stageID uuid.UUID) ([]transport.TransportResponse, error) {
	if _, err := s.repo.GetStage(ctx, stageID); err != nil {
		return nil, err
	}
	items, err := s.repo.ListTransports(ctx, stageID)
	if err != nil {
		return nil, err
	}

	out := make([]transport.TransportResponse, len(items))
	for i, t := range items {
		out[i] = toTransportResponse(t)
	}
	return out, nil
}

// UpdateTransport mutates the supplied transport fields.
func (s *Service) UpdateTransport(ctx context.Context, id uuid.UUID, req transport.UpdateTransportRequest, actor uuid.UUID, actorRoles []string) (transport.TransportResponse, error) {
	c, err := s.transportCase(ctx, id)
	if err != nil {
		return transport.TransportResponse{}, err
	}
	if err := s.checkStageActor(c, actor, actorRoles); err != nil {
		return transport.TransportResponse{}, err
	}

	params := repository.UpdateTransportParams{
		ID:              id,
		DriverName:      req.DriverName,
		LicenceDocument: req.LicenceDocument,
		PlateNumber:     req.PlateNumber,
		ProductAmount:   req.ProductAmount,
	}
	if req.Phone != nil {
		normalized := phone.NormalizeE164(*req.Phone)
		params.Phone = &normalized
	}

	updated, err := s.repo.UpdateTransport(ctx, params)
	if err != nil {
		return transport.TransportResponse{}, err
	}

	s.log.Info("stage transport updated", "transportId", id, "stageId", updated.StageID, "actor", actor)
	return toTransportResponse(updated), nil
}

// DeleteTransport removes a transport record.
func (s *Service) DeleteTransport(ctx context.Context, id uuid.UUID, actor uuid.UUID, actorRoles []string) error {
	c, err := s.transportCase(ctx, id)
	if err != nil {
		return err
	}
	if err := s.checkStageActor(c, actor, actorRoles); err != nil {
		return err
	}

	if err := s.repo.DeleteTransport(ctx, id); err != nil {
		return err
	}

	s.log.Info("stage transport removed", "transportId", id, "actor", actor)
	return nil
}

// transportCase resolves the case a transport belongs to, for actor checks.
func (s *Service) transportCase(ctx context.Context, transportID uuid.UUID) (repository.Case, error) {
	t, err := s.repo.GetTransport(ctx, transportID)
	if err != nil {
		return repository.Case{}, err
	}
	stage, err := s.repo.GetStage(ctx, t.StageID)
	if err != nil {
		return repository.Case{}, err
	}
	return s.repo.GetByID(ctx, stage.CaseID)
}

func toTransportResponse(t repository.StageTransport) transport.TransportResponse {
	return transport.TransportResponse{
		ID:              t.ID,
		StageID:         t.StageID,
		DriverName:      t.DriverName,
		LicenceDocument: t.LicenceDocument,
		PlateNumber:     t.PlateNumber,
		Phone:           t.Phone,
		ProductAmount:   t.ProductAmount,
		CreatedBy:       t.CreatedBy,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}
