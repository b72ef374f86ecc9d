// Package notification reacts to domain events: it writes in-app
// notifications, queues outbound email through the outbox, and delivers
// queued email when the scheduler signals a record is due. Domain modules
// publish facts and never talk to mail servers themselves.
package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"transit_portal_backend/internal/email"
	"transit_portal_backend/internal/events"
	apphttp "transit_portal_backend/internal/http"
	notifhandler "transit_portal_backend/internal/notification/handler"
	"transit_portal_backend/internal/notification/inapp"
	notificationoutbox "transit_portal_backend/internal/notification/outbox"
	"transit_portal_backend/platform/config"
	"transit_portal_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	maxOutboxRetryAttempts = 5
	outboxRetryBaseDelay   = time.Minute
	outboxRetryMaxDelay    = 60 * time.Minute

	invalidOutboxPayloadPrefix = "invalid payload: "
)

// Module handles all notification-related event subscriptions.
type Module struct {
	pool         *pgxpool.Pool
	sender       email.Sender
	cfg          config.EmailConfig
	log          *logger.Logger
	outbox       *notificationoutbox.Repository
	inAppService *inapp.Service
	inAppHandler *notifhandler.HTTPHandler
}

func New(pool *pgxpool.Pool, sender email.Sender, cfg config.EmailConfig, log *logger.Logger) *Module {
	inAppRepo := inapp.NewRepository(pool)
	inAppSvc := inapp.NewService(inAppRepo, log)

	return &Module{
		pool:         pool,
		sender:       sender,
		cfg:          cfg,
		log:          log,
		outbox:       notificationoutbox.New(pool),
		inAppService: inAppSvc,
		inAppHandler: notifhandler.NewHTTPHandler(inAppSvc),
	}
}

func (m *Module) Name() string { return "notification" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	if m.inAppHandler == nil {
		return
	}

	notifications := ctx.Protected.Group("/notifications")
	m.inAppHandler.RegisterRoutes(notifications)
}

// InAppService exposes the in-app notification service for integration points.
func (m *Module) InAppService() *inapp.Service { return m.inAppService }

// Outbox exposes the outbox repository for the scheduler.
func (m *Module) Outbox() *notificationoutbox.Repository { return m.outbox }

// RegisterHandlers subscribes to all relevant domain events on the event bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.CaseCreated{}.EventName(), m)
	bus.Subscribe(events.CaseAssigned{}.EventName(), m)
	bus.Subscribe(events.CaseReviewed{}.EventName(), m)
	bus.Subscribe(events.CaseCompleted{}.EventName(), m)
	bus.Subscribe(events.StageBlocked{}.EventName(), m)
	bus.Subscribe(events.StageUnblocked{}.EventName(), m)
	bus.Subscribe(events.CustomerReviewed{}.EventName(), m)
	bus.Subscribe(events.NotificationOutboxDue{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.CaseCreated:
		return m.handleCaseCreated(ctx, e)
	case events.CaseAssigned:
		return m.handleCaseAssigned(ctx, e)
	case events.CaseReviewed:
		return m.handleCaseReviewed(ctx, e)
	case events.CaseCompleted:
		return m.handleCaseCompleted(ctx, e)
	case events.StageBlocked:
		return m.handleStageBlocked(ctx, e)
	case events.StageUnblocked:
		return m.handleStageUnblocked(ctx, e)
	case events.CustomerReviewed:
		return m.handleCustomerReviewed(ctx, e)
	case events.NotificationOutboxDue:
		return m.handleNotificationOutboxDue(ctx, e)
	default:
		return nil
	}
}

func (m *Module) caseURL(caseID uuid.UUID) string {
	return strings.TrimRight(m.cfg.GetAppBaseURL(), "/") + "/cases/" + caseID.String()
}

// userContact holds the fields needed to address a user.
type userContact struct {
	ID       uuid.UUID
	Email    string
	FullName string
}

func (m *Module) resolveUser(ctx context.Context, userID uuid.UUID) *userContact {
	if m.pool == nil || userID == uuid.Nil {
		return nil
	}
	var u userContact
	err := m.pool.QueryRow(ctx,
		`SELECT id, email, full_name FROM users WHERE id = $1 AND is_active = TRUE`,
		userID,
	).Scan(&u.ID, &u.Email, &u.FullName)
	if err != nil {
		return nil
	}
	return &u
}

func (m *Module) resolveUsersByRole(ctx context.Context, role string) []userContact {
	if m.pool == nil {
		return nil
	}
	rows, err := m.pool.Query(ctx, `
		SELECT u.id, u.email, u.full_name
		FROM users u
		JOIN user_roles ur ON ur.user_id = u.id
		JOIN roles r ON r.id = ur.role_id
		WHERE r.name = $1 AND u.is_active = TRUE`,
		role,
	)
	if err != nil {
		m.log.Warn("failed to resolve users by role", "role", role, "error", err)
		return nil
	}
	defer rows.Close()

	var users []userContact
	for rows.Next() {
		var u userContact
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName); err != nil {
			return users
		}
		users = append(users, u)
	}
	return users
}

// customerContact holds the fields needed to address a customer.
type customerContact struct {
	Email           string
	FullName        string
	RejectionReason *string
}

func (m *Module) resolveCustomer(ctx context.Context, customerID uuid.UUID) *customerContact {
	if m.pool == nil || customerID == uuid.Nil {
		return nil
	}
	var c customerContact
	err := m.pool.QueryRow(ctx,
		`SELECT email, full_name, rejection_reason FROM customers WHERE id = $1`,
		customerID,
	).Scan(&c.Email, &c.FullName, &c.RejectionReason)
	if err != nil {
		return nil
	}
	return &c
}

func (m *Module) sendInApp(ctx context.Context, p inapp.SendParams) {
	if m.inAppService == nil || p.UserID == uuid.Nil {
		return
	}
	if err := m.inAppService.Send(ctx, p); err != nil {
		m.log.Warn("failed to send in-app notification", "userId", p.UserID, "error", err)
	}
}

func (m *Module) queueEmail(ctx context.Context, template, recipient string, payload any) {
	if m.outbox == nil || recipient == "" {
		return
	}
	if _, err := m.outbox.Insert(ctx, notificationoutbox.InsertParams{
		Kind:      "email",
		Template:  template,
		Recipient: recipient,
		Payload:   payload,
	}); err != nil {
		m.log.Warn("failed to queue outbox email", "template", template, "error", err)
	}
}

func (m *Module) handleNotificationOutboxDue(ctx context.Context, e events.NotificationOutboxDue) error {
	if m.outbox == nil {
		return nil
	}

	rec, err := m.outbox.GetByID(ctx, e.OutboxID)
	if err != nil {
		m.log.Error("failed to load outbox record", "outboxId", e.OutboxID, "error", err)
		return err
	}
	if rec.Status == notificationoutbox.StatusSucceeded {
		return nil
	}
	if err := m.outbox.MarkProcessing(ctx, rec.ID); err != nil {
		return err
	}

	if rec.Kind != "email" {
		_ = m.outbox.MarkFailed(ctx, rec.ID, fmt.Sprintf("unsupported outbox kind %q", rec.Kind))
		return nil
	}

	if deliveryErr := m.deliverEmail(ctx, rec); deliveryErr != nil {
		m.handleOutboxDeliveryError(ctx, rec, deliveryErr)
		return deliveryErr
	}

	if err := m.outbox.MarkSucceeded(ctx, rec.ID); err != nil {
		m.log.Error("failed to mark outbox record succeeded", "outboxId", rec.ID, "error", err)
	}
	return nil
}

func (m *Module) handleOutboxDeliveryError(ctx context.Context, rec notificationoutbox.Record, deliveryErr error) {
	attempt := rec.Attempts + 1
	if attempt >= maxOutboxRetryAttempts {
		_ = m.outbox.MarkFailed(ctx, rec.ID, deliveryErr.Error())
		m.log.Warn("notification outbox exhausted retries",
			"outboxId", rec.ID.String(),
			"template", rec.Template,
			"attempt", attempt,
			"error", deliveryErr,
		)
		return
	}

	retryAt := time.Now().UTC().Add(computeOutboxRetryDelay(attempt))
	if err := m.outbox.ScheduleRetry(ctx, rec.ID, retryAt, deliveryErr.Error()); err != nil {
		_ = m.outbox.MarkFailed(ctx, rec.ID, deliveryErr.Error())
		m.log.Error("notification outbox retry scheduling failed; marked failed",
			"outboxId", rec.ID.String(),
			"attempt", attempt,
			"error", err,
		)
		return
	}

	m.log.Warn("notification outbox scheduled retry",
		"outboxId", rec.ID.String(),
		"template", rec.Template,
		"attempt", attempt,
		"retryAt", retryAt,
		"error", deliveryErr,
	)
}

func computeOutboxRetryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := outboxRetryBaseDelay << (attempt - 1)
	if delay > outboxRetryMaxDelay {
		delay = outboxRetryMaxDelay
	}
	return delay
}
