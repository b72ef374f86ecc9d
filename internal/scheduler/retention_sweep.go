package scheduler

import (
	"context"
	"time"

	"transit_portal_backend/internal/notification/inapp"
	"transit_portal_backend/internal/notification/outbox"
	"transit_portal_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultSweepInterval = time.Hour
	defaultRetention     = 30 * 24 * time.Hour
)

// RetentionSweep periodically removes read in-app notifications and finished
// outbox records older than the retention window.
type RetentionSweep struct {
	inAppRepo  *inapp.Repository
	outboxRepo *outbox.Repository
	log        *logger.Logger
	interval   time.Duration
	retention  time.Duration
}

func NewRetentionSweep(pool *pgxpool.Pool, log *logger.Logger, interval, retention time.Duration) *RetentionSweep {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if retention <= 0 {
		retention = defaultRetention
	}

	return &RetentionSweep{
		inAppRepo:  inapp.NewRepository(pool),
		outboxRepo: outbox.New(pool),
		log:        log,
		interval:   interval,
		retention:  retention,
	}
}

func (s *RetentionSweep) Run(ctx context.Context) {
	if s == nil || s.inAppRepo == nil || s.outboxRepo == nil {
		return
	}

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *RetentionSweep) sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.retention)

	read, err := s.inAppRepo.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		s.log.Warn("notification retention sweep failed", "error", err)
	} else if read > 0 {
		s.log.Info("swept read notifications", "count", read, "cutoff", cutoff)
	}

	finished, err := s.outboxRepo.DeleteFinishedBefore(ctx, cutoff)
	if err != nil {
		s.log.Warn("outbox retention sweep failed", "error", err)
	} else if finished > 0 {
		s.log.Info("swept finished outbox records", "count", finished, "cutoff", cutoff)
	}
}
