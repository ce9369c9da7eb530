package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"travelcrm_backend/internal/adapters"
	"travelcrm_backend/internal/agents"
	"travelcrm_backend/internal/events"
	apphttp "travelcrm_backend/internal/http"
	"travelcrm_backend/internal/http/router"
	"travelcrm_backend/internal/leads"
	"travelcrm_backend/platform/config"
	"travelcrm_backend/platform/db"
	"travelcrm_backend/platform/logger"
	"travelcrm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

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

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)
	registerEventLogging(eventBus, log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	agentsModule := agents.NewModule(pool, val, log)

	// Leads depends on the caller directory through its own port only.
	agentDirectory := adapters.NewAgentDirectoryAdapter(agentsModule.Service)
	leadsModule := leads.NewModule(pool, val, log, eventBus, agentDirectory)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			agentsModule,
			leadsModule,
		},
	}

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router.New(app),
	}

	log.Info("server listening", "addr", cfg.HTTPAddr)
	if err := runServer(ctx, log, srv, 10*time.Second); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
}

// runServer serves until the context is cancelled, then drains in-flight
// requests within the shutdown timeout.
func runServer(ctx context.Context, log *logger.Logger, srv *http.Server, shutdownTimeout time.Duration) error {
	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// registerEventLogging subscribes an audit logger to the lead lifecycle
// events so every batch leaves a trace even without external consumers.
func registerEventLogging(bus events.Bus, log *logger.Logger) {
	logEvent := events.HandlerFunc(func(_ context.Context, event events.Event) error {
		log.Info("domain_event", "event", event.EventName(), "occurred_at", event.OccurredAt())
		return nil
	})

	bus.Subscribe(events.LeadsDistributed{}.EventName(), logEvent)
	bus.Subscribe(events.LeadConverted{}.EventName(), logEvent)
	bus.Subscribe(events.LeadsPulled{}.EventName(), logEvent)
	bus.Subscribe(events.LeadsTransferred{}.EventName(), logEvent)
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
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
