package repository

import (
	"context"

	"transit_portal_backend/internal/cases/domain"

	"github.com/google/uuid"
)

// Case is a persisted customs/transit service request.
type Case struct {
	ID                 uuid.UUID
	CaseNumber         string
	ServiceType        domain.CaseType
	ItemDescription    string
	RouteCategory      string
	DeclaredValueCents int64
	TaxCategory        string
	CountryOfOrigin    string
	Status             domain.CaseStatus
	RiskTier           domain.RiskTier
	CustomerID         uuid.UUID
	AssignedExecutorID *uuid.UUID
	AssignedAssessorID *uuid.UUID
	AssignmentNotes    *string
	CreatedBy          uuid.UUID
	CreatedAt          string
	UpdatedAt          string
}

// Stage is one persisted step of a case's processing template.
type Stage struct {
	ID            uuid.UUID
	CaseID        uuid.UUID
	Kind          domain.StageKind
	Position      int
	Status        domain.StageStatus
	IsBlocked     bool
	BlockedReason *string
	RiskNotes     *string
	Notes         *string
	UpdatedBy     *uuid.UUID
	CreatedAt     string
	UpdatedAt     string
}

// CreateCaseParams contains data for creating a new case.
type CreateCaseParams struct {
	CaseNumber         string
	ServiceType        domain.CaseType
	ItemDescription    string
	RouteCategory      string
	DeclaredValueCents int64
	TaxCategory        string
	CountryOfOrigin    string
	RiskTier           domain.RiskTier
	CustomerID         uuid.UUID
	CreatedBy          uuid.UUID
}

// UpdateCaseParams contains the descriptive fields an update may touch.
// Nil fields are left unchanged; status and assignments have their own paths.
type UpdateCaseParams struct {
	ID                 uuid.UUID
	ItemDescription    *string
	RouteCategory      *string
	DeclaredValueCents *int64
	TaxCategory        *string
	CountryOfOrigin    *string
}

// AssignParams mutates the assignment slots of a case. A non-nil Status is
// written in the same statement as the slots, so transitions that ride on an
// assignment (review approval, Approved to InProgress) commit atomically.
type AssignParams struct {
	CaseID     uuid.UUID
	ExecutorID *uuid.UUID
	AssessorID *uuid.UUID
	Notes      *string
	Status     *domain.CaseStatus
}

// ListParams filters and paginates case listings.
type ListParams struct {
	Status     *domain.CaseStatus
	Type       *domain.CaseType
	RiskTier   *domain.RiskTier
	CustomerID *uuid.UUID
	ExecutorID *uuid.UUID
	AssessorID *uuid.UUID
	CreatedBy  *uuid.UUID
	// PendingReview restricts to cases still awaiting an assessor
	// decision (Draft, Submitted or UnderReview).
	PendingReview bool
	Limit         int
	Offset        int
}

// StageTransport is a carrier record attached to one stage: the driver and
// vehicle moving the goods for that step.
type StageTransport struct {
	ID              uuid.UUID
	StageID         uuid.UUID
	DriverName      string
	LicenceDocument *string
	PlateNumber     string
	Phone           string
	ProductAmount   int64
	CreatedBy       uuid.UUID
	CreatedAt       string
	UpdatedAt       string
}

// CreateTransportParams contains data for registering a stage transport.
type CreateTransportParams struct {
	StageID         uuid.UUID
	DriverName      string
	LicenceDocument *string
	PlateNumber     string
	Phone           string
	ProductAmount   int64
	CreatedBy       uuid.UUID
}

// UpdateTransportParams contains the fields a transport update may touch.
// Nil fields are left unchanged.
type UpdateTransportParams struct {
	ID              uuid.UUID
	DriverName      *string
	LicenceDocument *string
	PlateNumber     *string
	Phone           *string
	ProductAmount   *int64
}

// UpdateStageParams records a stage status change.
type UpdateStageParams struct {
	StageID   uuid.UUID
	Status    domain.StageStatus
	Notes     *string
	UpdatedBy uuid.UUID
}

// Repository is the persistence boundary for cases and their stages.
type Repository interface {
	CreateWithStages(ctx context.Context, params CreateCaseParams, stages []domain.StageKind) (Case, error)
	GetByID(ctx context.Context, id uuid.UUID) (Case, error)
	List(ctx context.Context, params ListParams) ([]Case, int, error)
	UpdateDetails(ctx context.Context, params UpdateCaseParams) (Case, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.CaseStatus) (Case, error)
	SetRiskTier(ctx context.Context, id uuid.UUID, tier domain.RiskTier, stageID *uuid.UUID, notes *string) (Case, error)
	Assign(ctx context.Context, params AssignParams) (Case, error)

	ListStages(ctx context.Context, caseID uuid.UUID) ([]Stage, error)
	GetStage(ctx context.Context, stageID uuid.UUID) (Stage, error)
	LatestStage(ctx context.Context, caseID uuid.UUID) (Stage, error)
	UpdateStageStatus(ctx context.Context, params UpdateStageParams) (Stage, error)
	SetStageBlocked(ctx context.Context, stageID uuid.UUID, blocked bool, reason *string, updatedBy uuid.UUID) (Stage, error)
	AllStagesCompleted(ctx context.Context, caseID uuid.UUID) (bool, error)

	CreateTransport(ctx context.Context, params CreateTransportParams) (StageTransport, error)
	GetTransport(ctx context.Context, id uuid.UUID) (StageTransport, error)
	ListTransports(ctx context.Context, stageID uuid.UUID) ([]StageTransport, error)
	UpdateTransport(ctx context.Context, params UpdateTransportParams) (StageTransport, error)
	DeleteTransport(ctx context.Context, id uuid.UUID) error
}
