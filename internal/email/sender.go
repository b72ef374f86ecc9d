// Package email renders and delivers outbound notification mail. Delivery
// happens over plain SMTP via go-mail; when email is disabled the NoopSender
// keeps the rest of the system oblivious.
package email

import (
	"context"

	"transit_portal_backend/platform/config"
)

// Sender delivers notification emails for case and customer events.
type Sender interface {
	SendCaseAssignedEmail(ctx context.Context, toEmail, assigneeName, caseNumber, caseURL string) error
	SendCaseReviewedEmail(ctx context.Context, toEmail, caseNumber string, approved bool, notes, caseURL string) error
	SendCaseCompletedEmail(ctx context.Context, toEmail, caseNumber, caseURL string) error
	SendStageBlockedEmail(ctx context.Context, toEmail, caseNumber, stageName, reason, caseURL string) error
	SendCustomerReviewedEmail(ctx context.Context, toEmail, customerName string, verified bool, reason string) error
	SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error
}

// NewSender builds the configured Sender. Disabled email yields a NoopSender
// so callers never have to branch on configuration.
func NewSender(cfg config.EmailConfig) Sender {
	if !cfg.GetEmailEnabled() || cfg.GetSMTPHost() == "" {
		return NoopSender{}
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}

type NoopSender struct{}

func (NoopSender) SendCaseAssignedEmail(ctx context.Context, toEmail, assigneeName, caseNumber, caseURL string) error {
	return nil
}

func (NoopSender) SendCaseReviewedEmail(ctx context.Context, toEmail, caseNumber string, approved bool, notes, caseURL string) error {
	return nil
}

func (NoopSender) SendCaseCompletedEmail(ctx context.Context, toEmail, caseNumber, caseURL string) error {
	return nil
}

func (NoopSender) SendStageBlockedEmail(ctx context.Context, toEmail, caseNumber, stageName, reason, caseURL string) error {
	return nil
}

func (NoopSender) SendCustomerReviewedEmail(ctx context.Context, toEmail, customerName string, verified bool, reason string) error {
	return nil
}

func (NoopSender) SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error {
	return nil
}

var _ Sender = NoopSender{}
