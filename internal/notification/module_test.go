package notification

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	notificationoutbox "transit_portal_backend/internal/notification/outbox"
	"transit_portal_backend/platform/logger"

	"github.com/google/uuid"
)

type testEmailConfig struct{}

func (testEmailConfig) GetEmailEnabled() bool { return true }
func (testEmailConfig) GetSMTPHost() string { return "smtp.example.com" }
func (testEmailConfig) GetSMTPPort() int { return 587 }
func (testEmailConfig) GetSMTPUsername() string { return "" }
func (testEmailConfig) GetSMTPPassword() string { return "" }
func (testEmailConfig) GetEmailFromName() string { return "Transit Portal" }
func (testEmailConfig) GetEmailFromAddress() string { return "noreply@example.com" }
func (testEmailConfig) GetAppBaseURL() string { return "https://portal.example.com/" }

type testSender struct {
	assignedCalls  int
	reviewedCalls  int
	completedCalls int
	blockedCalls   int
	customerCalls  int
	lastRecipient  string
	lastCaseURL    string
}

func (s *testSender) SendCaseAssignedEmail(_ context.Context, toEmail, _, _, caseURL string) error {
	s.assignedCalls++
	s.lastRecipient = toEmail
	s.lastCaseURL = caseURL
	return nil
}

func (s *testSender) SendCaseReviewedEmail(_ context.Context, toEmail string, _ string, _ bool, _, _ string) error {
	s.reviewedCalls++
	s.lastRecipient = toEmail
	return nil
}

func (s *testSender) SendCaseCompletedEmail(_ context.Context, toEmail, _, _ string) error {
	s.completedCalls++
	s.lastRecipient = toEmail
	return nil
}

func (s *testSender) SendStageBlockedEmail(_ context.Context, toEmail, _, _, _, _ string) error {
	s.blockedCalls++
	s.lastRecipient = toEmail
	return nil
}

func (s *testSender) SendCustomerReviewedEmail(_ context.Context, toEmail, _ string, _ bool, _ string) error {
	s.customerCalls++
	s.lastRecipient = toEmail
	return nil
}

func (s *testSender) SendCustomEmail(_ context.Context, _, _, _ string) error { return nil }

func newTestModule(sender *testSender) *Module {
	return &Module{
		sender: sender,
		cfg:    testEmailConfig{},
		log:    logger.New("test"),
	}
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return data
}

func TestDeliverEmailDispatchesByTemplate(t *testing.T) {
	sender := &testSender{}
	m := newTestModule(sender)
	ctx := context.Background()

	cases := []struct {
		template string
		payload  any
	}{
		{templateCaseAssigned, caseAssignedEmailPayload{AssigneeName: "Alem", CaseNumber: "SRV-20260831-AAAA1111", CaseURL: "https://portal.example.com/cases/x"}},
		{templateCaseReviewed, caseReviewedEmailPayload{CaseNumber: "SRV-20260831-AAAA1111", Approved: true}},
		{templateCaseCompleted, caseCompletedEmailPayload{CaseNumber: "SRV-20260831-AAAA1111"}},
		{templateStageBlocked, stageBlockedEmailPayload{CaseNumber: "SRV-20260831-AAAA1111", StageName: "Transit", Reason: "missing permit"}},
		{templateCustomerReviewed, customerReviewedEmailPayload{CustomerName: "Abebe", Verified: true}},
	}

	for _, tc := range cases {
		rec := notificationoutbox.Record{
			ID:        uuid.New(),
			Kind:      "email",
			Template:  tc.template,
			Recipient: "user@example.com",
			Payload:   mustJSON(t, tc.payload),
		}
		if err := m.deliverEmail(ctx, rec); err != nil {
			t.Fatalf("deliverEmail(%s): %v", tc.template, err)
		}
	}

	if sender.assignedCalls != 1 || sender.reviewedCalls != 1 || sender.completedCalls != 1 ||
		sender.blockedCalls != 1 || sender.customerCalls != 1 {
		t.Fatalf("expected one call per template, got %+v", sender)
	}
	if sender.lastRecipient != "user@example.com" {
		t.Fatalf("recipient = %q", sender.lastRecipient)
	}
}

func TestDeliverEmailRejectsUnknownTemplate(t *testing.T) {
	m := newTestModule(&testSender{})

	rec := notificationoutbox.Record{
		ID:        uuid.New(),
		Kind:      "email",
		Template:  "carrier_pigeon",
		Recipient: "user@example.com",
		Payload:   json.RawMessage(`{}`),
	}
	err := m.deliverEmail(context.Background(), rec)
	if err == nil || !strings.Contains(err.Error(), "unsupported email template") {
		t.Fatalf("expected unsupported template error, got %v", err)
	}
}

func TestCaseURLTrimsTrailingSlash(t *testing.T) {
	m := newTestModule(&testSender{})
	id := uuid.New()

	got := m.caseURL(id)
	want := "https://portal.example.com/cases/" + id.String()
	if got != want {
		t.Fatalf("caseURL = %q, want %q", got, want)
	}
}

func TestComputeOutboxRetryDelayBacksOffAndCaps(t *testing.T) {
	if d := computeOutboxRetryDelay(1); d != time.Minute {
		t.Fatalf("attempt 1 delay = %v", d)
	}
	if d := computeOutboxRetryDelay(3); d != 4*time.Minute {
		t.Fatalf("attempt 3 delay = %v", d)
	}
	if d := computeOutboxRetryDelay(30); d != outboxRetryMaxDelay {
		t.Fatalf("attempt 30 delay = %v, want cap %v", d, outboxRetryMaxDelay)
	}
}
