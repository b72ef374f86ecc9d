package events

import "github.com/google/uuid"

// Case lifecycle facts published by the engine. The notification module
// consumes these; delivery and read-tracking are entirely its concern.

// CaseCreated is published after a case and its stage sequence are persisted.
type CaseCreated struct {
	BaseEvent
	CaseID     uuid.UUID
	CaseNumber string
	CustomerID uuid.UUID
	CreatedBy  uuid.UUID
}

func (CaseCreated) EventName() string { return "case.created" }

// CaseAssigned is published when an executor or assessor is assigned.
type CaseAssigned struct {
	BaseEvent
	CaseID     uuid.UUID
	CaseNumber string
	ExecutorID *uuid.UUID
	AssessorID *uuid.UUID
	AssignedBy uuid.UUID
}

func (CaseAssigned) EventName() string { return "case.assigned" }

// CaseReviewed is published after a service review decision.
type CaseReviewed struct {
	BaseEvent
	CaseID     uuid.UUID
	CaseNumber string
	Approved   bool
	ReviewerID uuid.UUID
	CreatorID  uuid.UUID
}

func (CaseReviewed) EventName() string { return "case.reviewed" }

// CaseCompleted is published when the last pending stage completes.
type CaseCompleted struct {
	BaseEvent
	CaseID     uuid.UUID
	CaseNumber string
	ExecutorID *uuid.UUID
	CreatorID  uuid.UUID
}

func (CaseCompleted) EventName() string { return "case.completed" }

// StageCompleted is published when a single stage reaches Completed.
type StageCompleted struct {
	BaseEvent
	CaseID     uuid.UUID
	CaseNumber string
	StageID    uuid.UUID
	StageKind  string
	UpdatedBy  uuid.UUID
}

func (StageCompleted) EventName() string { return "stage.completed" }

// StageBlocked is published when a stage is flagged as blocked.
type StageBlocked struct {
	BaseEvent
	CaseID     uuid.UUID
	CaseNumber string
	StageID    uuid.UUID
	StageKind  string
	Reason     string
	BlockedBy  uuid.UUID
	ExecutorID *uuid.UUID
	AssessorID *uuid.UUID
}

func (StageBlocked) EventName() string { return "stage.blocked" }

// StageUnblocked is published when a blocked stage is cleared.
type StageUnblocked struct {
	BaseEvent
	CaseID      uuid.UUID
	CaseNumber  string
	StageID     uuid.UUID
	StageKind   string
	UnblockedBy uuid.UUID
}

func (StageUnblocked) EventName() string { return "stage.unblocked" }

// NotificationOutboxDue is published by the scheduler worker when an outbox
// record is due for delivery.
type NotificationOutboxDue struct {
	BaseEvent
	OutboxID uuid.UUID
}

func (NotificationOutboxDue) EventName() string { return "notification.outbox.due" }

// CustomerReviewed is published after a customer verification decision.
type CustomerReviewed struct {
	BaseEvent
	CustomerID uuid.UUID
	Verified   bool
	ReviewerID uuid.UUID
	CreatorID  uuid.UUID
}

func (CustomerReviewed) EventName() string { return "customer.reviewed" }
