package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"transit_portal_backend/internal/cases/domain"
	"transit_portal_backend/internal/events"
	"transit_portal_backend/internal/notification/inapp"
	notificationoutbox "transit_portal_backend/internal/notification/outbox"

	"github.com/google/uuid"
)

// Outbox payload schemas. The handlers below write these; deliverEmail reads
// them back when the scheduler signals the record is due.

type caseAssignedEmailPayload struct {
	AssigneeName string `json:"assigneeName"`
	CaseNumber   string `json:"caseNumber"`
	CaseURL      string `json:"caseUrl"`
}

type caseReviewedEmailPayload struct {
	CaseNumber string `json:"caseNumber"`
	Approved   bool   `json:"approved"`
	Notes      string `json:"notes,omitempty"`
	CaseURL    string `json:"caseUrl"`
}

type caseCompletedEmailPayload struct {
	CaseNumber string `json:"caseNumber"`
	CaseURL    string `json:"caseUrl"`
}

type stageBlockedEmailPayload struct {
	CaseNumber string `json:"caseNumber"`
	StageName  string `json:"stageName"`
	Reason     string `json:"reason"`
	CaseURL    string `json:"caseUrl"`
}

type customerReviewedEmailPayload struct {
	CustomerName string `json:"customerName"`
	Verified     bool   `json:"verified"`
	Reason       string `json:"reason,omitempty"`
}

const (
	templateCaseAssigned     = "case_assigned"
	templateCaseReviewed     = "case_reviewed"
	templateCaseCompleted    = "case_completed"
	templateStageBlocked     = "stage_blocked"
	templateCustomerReviewed = "customer_reviewed"
)

func (m *Module) handleCaseCreated(ctx context.Context, e events.CaseCreated) error {
	// New cases wait for service review; every assessor gets a heads-up.
	for _, assessor := range m.resolveUsersByRole(ctx, domain.RoleAssessor) {
		m.sendInApp(ctx, inapp.SendParams{
			UserID:       assessor.ID,
			Title:        "New case awaiting review",
			Content:      fmt.Sprintf("Case %s has been created and awaits service review.", e.CaseNumber),
			ResourceID:   &e.CaseID,
			ResourceType: "case",
			Category:     "info",
		})
	}
	return nil
}

func (m *Module) handleCaseAssigned(ctx context.Context, e events.CaseAssigned) error {
	if e.ExecutorID != nil {
		m.notifyAssignee(ctx, e, *e.ExecutorID)
	}
	if e.AssessorID != nil {
		m.notifyAssignee(ctx, e, *e.AssessorID)
	}
	return nil
}

func (m *Module) notifyAssignee(ctx context.Context, e events.CaseAssigned, userID uuid.UUID) {
	user := m.resolveUser(ctx, userID)
	if user == nil {
		return
	}

	m.sendInApp(ctx, inapp.SendParams{
		UserID:       user.ID,
		Title:        "Case assigned to you",
		Content:      fmt.Sprintf("Case %s has been assigned to you.", e.CaseNumber),
		ResourceID:   &e.CaseID,
		ResourceType: "case",
		Category:     "info",
	})

	m.queueEmail(ctx, templateCaseAssigned, user.Email, caseAssignedEmailPayload{
		AssigneeName: user.FullName,
		CaseNumber:   e.CaseNumber,
		CaseURL:      m.caseURL(e.CaseID),
	})
}

func (m *Module) handleCaseReviewed(ctx context.Context, e events.CaseReviewed) error {
	category := "success"
	title := "Case approved"
	content := fmt.Sprintf("Case %s passed service review.", e.CaseNumber)
	if !e.Approved {
		category = "warning"
		title = "Case rejected"
		content = fmt.Sprintf("Case %s was rejected in service review.", e.CaseNumber)
	}

	m.sendInApp(ctx, inapp.SendParams{
		UserID:       e.CreatorID,
		Title:        title,
		Content:      content,
		ResourceID:   &e.CaseID,
		ResourceType: "case",
		Category:     category,
	})

	if creator := m.resolveUser(ctx, e.CreatorID); creator != nil {
		m.queueEmail(ctx, templateCaseReviewed, creator.Email, caseReviewedEmailPayload{
			CaseNumber: e.CaseNumber,
			Approved:   e.Approved,
			CaseURL:    m.caseURL(e.CaseID),
		})
	}
	return nil
}

func (m *Module) handleCaseCompleted(ctx context.Context, e events.CaseCompleted) error {
	m.sendInApp(ctx, inapp.SendParams{
		UserID:       e.CreatorID,
		Title:        "Case completed",
		Content:      fmt.Sprintf("All stages of case %s are complete.", e.CaseNumber),
		ResourceID:   &e.CaseID,
		ResourceType: "case",
		Category:     "success",
	})

	if e.ExecutorID != nil {
		m.sendInApp(ctx, inapp.SendParams{
			UserID:       *e.ExecutorID,
			Title:        "Case completed",
			Content:      fmt.Sprintf("All stages of case %s are complete.", e.CaseNumber),
			ResourceID:   &e.CaseID,
			ResourceType: "case",
			Category:     "success",
		})
	}

	if creator := m.resolveUser(ctx, e.CreatorID); creator != nil {
		m.queueEmail(ctx, templateCaseCompleted, creator.Email, caseCompletedEmailPayload{
			CaseNumber: e.CaseNumber,
			CaseURL:    m.caseURL(e.CaseID),
		})
	}
	return nil
}

func (m *Module) handleStageBlocked(ctx context.Context, e events.StageBlocked) error {
	if e.ExecutorID != nil {
		m.sendInApp(ctx, inapp.SendParams{
			UserID:       *e.ExecutorID,
			Title:        "Stage blocked",
			Content:      fmt.Sprintf("Stage %q of case %s is blocked: %s", e.StageKind, e.CaseNumber, e.Reason),
			ResourceID:   &e.CaseID,
			ResourceType: "case",
			Category:     "warning",
		})
	}
	if e.AssessorID != nil {
		m.sendInApp(ctx, inapp.SendParams{
			UserID:       *e.AssessorID,
			Title:        "Stage blocked",
			Content:      fmt.Sprintf("Stage %q of case %s is blocked: %s", e.StageKind, e.CaseNumber, e.Reason),
			ResourceID:   &e.CaseID,
			ResourceType: "case",
			Category:     "warning",
		})

		if assessor := m.resolveUser(ctx, *e.AssessorID); assessor != nil {
			m.queueEmail(ctx, templateStageBlocked, assessor.Email, stageBlockedEmailPayload{
				CaseNumber: e.CaseNumber,
				StageName:  e.StageKind,
				Reason:     e.Reason,
				CaseURL:    m.caseURL(e.CaseID),
			})
		}
	}
	return nil
}

func (m *Module) handleStageUnblocked(ctx context.Context, e events.StageUnblocked) error {
	m.sendInApp(ctx, inapp.SendParams{
		UserID:       e.UnblockedBy,
		Title:        "Stage unblocked",
		Content:      fmt.Sprintf("Stage %q of case %s can proceed again.", e.StageKind, e.CaseNumber),
		ResourceID:   &e.CaseID,
		ResourceType: "case",
		Category:     "info",
	})
	return nil
}

func (m *Module) handleCustomerReviewed(ctx context.Context, e events.CustomerReviewed) error {
	customer := m.resolveCustomer(ctx, e.CustomerID)
	if customer == nil {
		return nil
	}

	reason := ""
	if customer.RejectionReason != nil {
		reason = *customer.RejectionReason
	}

	m.queueEmail(ctx, templateCustomerReviewed, customer.Email, customerReviewedEmailPayload{
		CustomerName: customer.FullName,
		Verified:     e.Verified,
		Reason:       reason,
	})

	category := "success"
	content := "The customer registration was verified."
	if !e.Verified {
		category = "warning"
		content = "The customer registration was rejected."
	}
	m.sendInApp(ctx, inapp.SendParams{
		UserID:       e.CreatorID,
		Title:        "Customer verification decided",
		Content:      content,
		ResourceID:   &e.CustomerID,
		ResourceType: "customer",
		Category:     category,
	})
	return nil
}

// deliverEmail renders and sends an outbox record via the configured sender.
func (m *Module) deliverEmail(ctx context.Context, rec notificationoutbox.Record) error {
	if m.sender == nil {
		return fmt.Errorf("email sender not configured")
	}

	switch rec.Template {
	case templateCaseAssigned:
		var p caseAssignedEmailPayload
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return fmt.Errorf(invalidOutboxPayloadPrefix+"%w", err)
		}
		return m.sender.SendCaseAssignedEmail(ctx, rec.Recipient, p.AssigneeName, p.CaseNumber, p.CaseURL)
	case templateCaseReviewed:
		var p caseReviewedEmailPayload
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return fmt.Errorf(invalidOutboxPayloadPrefix+"%w", err)
		}
		return m.sender.SendCaseReviewedEmail(ctx, rec.Recipient, p.CaseNumber, p.Approved, p.Notes, p.CaseURL)
	case templateCaseCompleted:
		var p caseCompletedEmailPayload
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return fmt.Errorf(invalidOutboxPayloadPrefix+"%w", err)
		}
		return m.sender.SendCaseCompletedEmail(ctx, rec.Recipient, p.CaseNumber, p.CaseURL)
	case templateStageBlocked:
		var p stageBlockedEmailPayload
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return fmt.Errorf(invalidOutboxPayloadPrefix+"%w", err)
		}
		return m.sender.SendStageBlockedEmail(ctx, rec.Recipient, p.CaseNumber, p.StageName, p.Reason, p.CaseURL)
	case templateCustomerReviewed:
		var p customerReviewedEmailPayload
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return fmt.Errorf(invalidOutboxPayloadPrefix+"%w", err)
		}
		return m.sender.SendCustomerReviewedEmail(ctx, rec.Recipient, p.CustomerName, p.Verified, p.Reason)
	default:
		return fmt.Errorf("unsupported email template %q", rec.Template)
	}
}
