package email

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements the Sender interface using a direct SMTP connection
// via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendCaseAssignedEmail(ctx context.Context, toEmail, assigneeName, caseNumber, caseURL string) error {
	content, err := renderEmailTemplate("case_assigned.html", caseAssignedEmailData{
		baseEmailData: baseEmailData{
			Title:    "Case assigned",
			Heading:  "A case has been assigned to you",
			CTALabel: "Open case",
			CTAURL:   caseURL,
		},
		AssigneeName: assigneeName,
		CaseNumber:   caseNumber,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectCaseAssignedFmt, caseNumber), content)
}

func (s *SMTPSender) SendCaseReviewedEmail(ctx context.Context, toEmail, caseNumber string, approved bool, notes, caseURL string) error {
	heading := "Your case was rejected"
	subject := fmt.Sprintf(subjectCaseRejectedFmt, caseNumber)
	if approved {
		heading = "Your case was approved"
		subject = fmt.Sprintf(subjectCaseApprovedFmt, caseNumber)
	}

	content, err := renderEmailTemplate("case_reviewed.html", caseReviewedEmailData{
		baseEmailData: baseEmailData{
			Title:    "Service review decision",
			Heading:  heading,
			CTALabel: "View case",
			CTAURL:   caseURL,
		},
		CaseNumber: caseNumber,
		Approved:   approved,
		Notes:      notes,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content)
}

func (s *SMTPSender) SendCaseCompletedEmail(ctx context.Context, toEmail, caseNumber, caseURL string) error {
	content, err := renderEmailTemplate("case_completed.html", caseCompletedEmailData{
		baseEmailData: baseEmailData{
			Title:    "Case completed",
			Heading:  "Case completed",
			CTALabel: "View case",
			CTAURL:   caseURL,
		},
		CaseNumber: caseNumber,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectCaseCompletedFmt, caseNumber), content)
}

func (s *SMTPSender) SendStageBlockedEmail(ctx context.Context, toEmail, caseNumber, stageName, reason, caseURL string) error {
	content, err := renderEmailTemplate("stage_blocked.html", stageBlockedEmailData{
		baseEmailData: baseEmailData{
			Title:    "Stage blocked",
			Heading:  "A stage has been blocked",
			CTALabel: "Open case",
			CTAURL:   caseURL,
		},
		CaseNumber: caseNumber,
		StageName:  stageName,
		Reason:     reason,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectStageBlockedFmt, caseNumber, stageName), content)
}

func (s *SMTPSender) SendCustomerReviewedEmail(ctx context.Context, toEmail, customerName string, verified bool, reason string) error {
	heading := "Registration rejected"
	subject := fmt.Sprintf(subjectCustomerRejectedFmt, reason)
	if verified {
		heading = "Account verified"
		subject = subjectCustomerVerified
	}

	content, err := renderEmailTemplate("customer_reviewed.html", customerReviewedEmailData{
		baseEmailData: baseEmailData{
			Title:   "Verification decision",
			Heading: heading,
		},
		CustomerName: customerName,
		Verified:     verified,
		Reason:       reason,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content)
}

func (s *SMTPSender) SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error {
	return s.send(ctx, toEmail, subject, htmlContent)
}

var _ Sender = (*SMTPSender)(nil)
