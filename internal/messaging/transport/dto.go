package transport

import "github.com/google/uuid"

// AddMessageRequest appends a message or comment.
type AddMessageRequest struct {
	Title *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Body  string  `json:"body" validate:"required,min=1,max=5000"`
}

// MessageResponse represents a ledger entry in API responses.
type MessageResponse struct {
	ID         uuid.UUID  `json:"id"`
	CaseID     uuid.UUID  `json:"caseId"`
	StageID    *uuid.UUID `json:"stageId,omitempty"`
	AuthorID   uuid.UUID  `json:"authorId"`
	AuthorKind string     `json:"authorKind"`
	Title      *string    `json:"title,omitempty"`
	Body       string     `json:"body"`
	CreatedAt  string     `json:"createdAt"`
}
