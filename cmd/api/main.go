package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"transit_portal_backend/internal/adapters/storage"
	"transit_portal_backend/internal/auth"
	"transit_portal_backend/internal/cases"
	"transit_portal_backend/internal/customers"
	"transit_portal_backend/internal/documents"
	"transit_portal_backend/internal/email"
	"transit_portal_backend/internal/events"
	apphttp "transit_portal_backend/internal/http"
	"transit_portal_backend/internal/http/router"
	"transit_portal_backend/internal/messaging"
	"transit_portal_backend/internal/notification"
	"transit_portal_backend/internal/reports"
	"transit_portal_backend/platform/config"
	"transit_portal_backend/platform/db"
	"transit_portal_backend/platform/logger"
	"transit_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()
	sender := email.NewSender(cfg)

	// Notification module subscribes to domain events and serves /notifications.
	notificationModule := notification.New(pool, sender, cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	authModule := auth.NewModule(pool, cfg, val, log)
	if err := authModule.SeedAdmin(ctx, cfg.GetSeedAdminEmail(), cfg.GetSeedAdminPassword()); err != nil {
		log.Error("failed to seed admin user", "error", err)
		panic("failed to seed admin user: " + err.Error())
	}

	customersModule := customers.NewModule(pool, eventBus, val, log)
	casesModule := cases.NewModule(pool, customersModule.Service(), authModule.RoleProvider(), eventBus, val, log)

	messagingModule := messaging.NewModule(pool, casesModule.Repository(), val, log)
	casesModule.Service().SetCommentWriter(messagingModule.Service())

	reportsModule := reports.NewModule(pool)

	modules := []apphttp.Module{
		authModule,
		customersModule,
		casesModule,
		messagingModule,
		notificationModule,
		reportsModule,
	}

	// Documents need object storage; without MinIO the API runs without them.
	if cfg.IsMinIOEnabled() {
		blobs, err := storage.NewMinIOStore(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}

		documentsModule := documents.NewModule(pool, blobs, casesModule.Repository(), cfg.GetMinioBucketCaseDocuments(), log)
		if err := withRetry(ctx, log, "ensure document bucket", 5, 2*time.Second, func() error {
			return documentsModule.EnsureBucket(ctx)
		}); err != nil {
			log.Error("failed to ensure document bucket", "error", err, "bucket", cfg.GetMinioBucketCaseDocuments())
			panic("failed to ensure document bucket: " + err.Error())
		}
		modules = append(modules, documentsModule)
		log.Info("storage service initialized", "bucket", cfg.GetMinioBucketCaseDocuments())
	} else {
		log.Warn("minio not configured; document endpoints disabled")
	}

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: eventBus,
		Modules:  modules,
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(baseDelay * time.Duration(attempt)):
			}
		}
	}
	return lastErr
}
