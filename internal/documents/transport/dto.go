package transport

import (
	"time"

	"github.com/google/uuid"
)

// DocumentResponse represents document metadata in API responses.
type DocumentResponse struct {
	ID          uuid.UUID  `json:"id"`
	CaseID      uuid.UUID  `json:"caseId"`
	StageID     *uuid.UUID `json:"stageId,omitempty"`
	FileName    string     `json:"fileName"`
	ContentType string     `json:"contentType"`
	SizeBytes   int64      `json:"sizeBytes"`
	IsVerified  bool       `json:"isVerified"`
	VerifiedBy  *uuid.UUID `json:"verifiedBy,omitempty"`
	UploadedBy  uuid.UUID  `json:"uploadedBy"`
	CreatedAt   string     `json:"createdAt"`
}

// DownloadLinkResponse carries a time-limited download URL.
type DownloadLinkResponse struct {
	URL       string    `json:"url"`
	FileName  string    `json:"fileName"`
	ExpiresAt time.Time `json:"expiresAt"`
}
