package transport

import "github.com/google/uuid"

// CreateCaseRequest contains data for registering a new case.
type CreateCaseRequest struct {
	CustomerID         uuid.UUID `json:"customerId" validate:"required"`
	ServiceType        string    `json:"serviceType" validate:"required,max=50"`
	ItemDescription    string    `json:"itemDescription" validate:"required,max=1000"`
	RouteCategory      string    `json:"routeCategory" validate:"omitempty,max=100"`
	DeclaredValueCents int64     `json:"declaredValueCents" validate:"min=0"`
	TaxCategory        string    `json:"taxCategory" validate:"omitempty,max=100"`
	CountryOfOrigin    string    `json:"countryOfOrigin" validate:"omitempty,max=100"`
	RiskTier           *string   `json:"riskTier,omitempty" validate:"omitempty,max=20"`
}

// UpdateCaseRequest contains the descriptive fields an update may touch.
type UpdateCaseRequest struct {
	ItemDescription    *string `json:"itemDescription,omitempty" validate:"omitempty,max=1000"`
	RouteCategory      *string `json:"routeCategory,omitempty" validate:"omitempty,max=100"`
	DeclaredValueCents *int64  `json:"declaredValueCents,omitempty" validate:"omitempty,min=0"`
	TaxCategory        *string `json:"taxCategory,omitempty" validate:"omitempty,max=100"`
	CountryOfOrigin    *string `json:"countryOfOrigin,omitempty" validate:"omitempty,max=100"`
}

// UpdateCaseStatusRequest requests an actor-driven case transition.
type UpdateCaseStatusRequest struct {
	Status string `json:"status" validate:"required,max=30"`
}

// AssignCaseRequest assigns the executor and/or assessor slots of a case.
// Each provided slot is validated against the matching role.
type AssignCaseRequest struct {
	ExecutorID *uuid.UUID `json:"executorId,omitempty"`
	AssessorID *uuid.UUID `json:"assessorId,omitempty"`
	Notes      *string    `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// ReviewCaseRequest records a service review decision.
type ReviewCaseRequest struct {
	Approved bool    `json:"approved"`
	Notes    *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// UpdateStageStatusRequest requests a stage status change.
type UpdateStageStatusRequest struct {
	Status string  `json:"status" validate:"required,max=30"`
	Notes  *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// BlockStageRequest flags a stage as blocked. The reason is mandatory.
type BlockStageRequest struct {
	Reason string `json:"reason" validate:"required,min=1,max=1000"`
}

// SetRiskTierRequest sets the case risk tier. Optional notes land on the
// named stage, or the most recently created stage when none is named.
type SetRiskTierRequest struct {
	RiskTier string     `json:"riskTier" validate:"required,max=20"`
	Notes    *string    `json:"notes,omitempty" validate:"omitempty,max=2000"`
	StageID  *uuid.UUID `json:"stageId,omitempty"`
}

// CreateTransportRequest registers the carrier moving the goods for a stage.
// The licence document holds the storage key of the uploaded licence scan.
type CreateTransportRequest struct {
	DriverName      string  `json:"driverName" validate:"required,max=200"`
	LicenceDocument *string `json:"licenceDocument,omitempty" validate:"omitempty,max=500"`
	PlateNumber     string  `json:"plateNumber" validate:"required,max=50"`
	Phone           string  `json:"phone" validate:"required,max=30"`
	ProductAmount   int64   `json:"productAmount" validate:"min=0"`
}

// UpdateTransportRequest contains the fields a transport update may touch.
type UpdateTransportRequest struct {
	DriverName      *string `json:"driverName,omitempty" validate:"omitempty,max=200"`
	LicenceDocument *string `json:"licenceDocument,omitempty" validate:"omitempty,max=500"`
	PlateNumber     *string `json:"plateNumber,omitempty" validate:"omitempty,max=50"`
	Phone           *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	ProductAmount   *int64  `json:"productAmount,omitempty" validate:"omitempty,min=0"`
}

// TransportResponse represents a stage transport in API responses.
type TransportResponse struct {
	ID              uuid.UUID `json:"id"`
	StageID         uuid.UUID `json:"stageId"`
	DriverName      string    `json:"driverName"`
	LicenceDocument *string   `json:"licenceDocument,omitempty"`
	PlateNumber     string    `json:"plateNumber"`
	Phone           string    `json:"phone"`
	ProductAmount   int64     `json:"productAmount"`
	CreatedBy       uuid.UUID `json:"createdBy"`
	CreatedAt       string    `json:"createdAt"`
	UpdatedAt       string    `json:"updatedAt"`
}

// ListCasesRequest filters and paginates case listings.
type ListCasesRequest struct {
	Status   string `form:"status"`
	Type     string `form:"type"`
	RiskTier string `form:"riskTier"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

// StageResponse represents a stage in API responses.
type StageResponse struct {
	ID            uuid.UUID  `json:"id"`
	CaseID        uuid.UUID  `json:"caseId"`
	Kind          string     `json:"kind"`
	Position      int        `json:"position"`
	Status        string     `json:"status"`
	IsBlocked     bool       `json:"isBlocked"`
	BlockedReason *string    `json:"blockedReason,omitempty"`
	RiskNotes     *string    `json:"riskNotes,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
	UpdatedBy     *uuid.UUID `json:"updatedBy,omitempty"`
	CreatedAt     string     `json:"createdAt"`
	UpdatedAt     string     `json:"updatedAt"`
}

// CaseResponse represents a case in API responses.
type CaseResponse struct {
	ID                 uuid.UUID  `json:"id"`
	CaseNumber         string     `json:"caseNumber"`
	ServiceType        string     `json:"serviceType"`
	ItemDescription    string     `json:"itemDescription"`
	RouteCategory      string     `json:"routeCategory,omitempty"`
	DeclaredValueCents int64      `json:"declaredValueCents"`
	TaxCategory        string     `json:"taxCategory,omitempty"`
	CountryOfOrigin    string     `json:"countryOfOrigin,omitempty"`
	Status             string     `json:"status"`
	RiskTier           string     `json:"riskTier"`
	CustomerID         uuid.UUID  `json:"customerId"`
	AssignedExecutorID *uuid.UUID `json:"assignedExecutorId,omitempty"`
	AssignedAssessorID *uuid.UUID `json:"assignedAssessorId,omitempty"`
	AssignmentNotes    *string    `json:"assignmentNotes,omitempty"`
	CreatedBy          uuid.UUID  `json:"createdBy"`
	CreatedAt          string     `json:"createdAt"`
	UpdatedAt          string     `json:"updatedAt"`
}

// CaseDetailResponse is a case together with its ordered stages.
type CaseDetailResponse struct {
	CaseResponse
	Stages []StageResponse `json:"stages"`
}

// CaseListResponse wraps a paginated list of cases.
type CaseListResponse struct {
	Items    []CaseResponse `json:"items"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}
