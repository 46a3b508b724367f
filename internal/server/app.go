// Package server initializes and runs the PlanHub API server. It opens the
// database, runs migrations, wires the services behind the HTTP handler and
// handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/planhub/planhub/internal/logging"
	"github.com/planhub/planhub/internal/mailer"
	"github.com/planhub/planhub/internal/mq"
	"github.com/planhub/planhub/internal/server/config"
	"github.com/planhub/planhub/internal/server/httpapi"
	"github.com/planhub/planhub/internal/server/repositories/repomanager"
	"github.com/planhub/planhub/internal/server/services"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	db        *sql.DB
	publisher mq.Publisher
	handler   *httpapi.Handler
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	ctx := context.Background()

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	m, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := m.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	var publisher mq.Publisher = mq.NoopPublisher{}
	if cfg.AMQPURL != "" {
		p, err := mq.NewEventProducer(cfg.AMQPURL)
		if err != nil {
			logger.Warn(ctx, "event producer unavailable, continuing without it", "error", err)
		} else {
			publisher = p
		}
	}

	var mail mailer.Mailer = mailer.NewLogMailer(logger)
	if cfg.SMTPAddr != "" {
		mail = mailer.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPFrom)
	}

	userService := services.NewUserService(db, m, cfg)
	accountService := services.NewAccountService(db, m)
	notificationService := services.NewNotificationService(db, m, publisher, logger)
	planService := services.NewPlanService(db, m, notificationService, cfg)
	resetService := services.NewResetService(db, m, mail, logger, cfg)

	handler := httpapi.NewHandler(userService, accountService, planService,
		notificationService, resetService, logger, []byte(cfg.SecretKey))

	return &App{
		config:    cfg,
		logger:    logger,
		db:        db,
		publisher: publisher,
		handler:   handler,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run starts the HTTP server and blocks until the context is cancelled or the
// server stops on its own.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	server := &http.Server{
		Addr:    app.config.EndpointAddrHTTP,
		Handler: app.handler.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "starting http server", "addr", app.config.EndpointAddrHTTP)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			app.logger.Error(ctx, "http server error", "error", err)
		}
	case <-ctx.Done():
		app.logger.Info(ctx, "shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "shutdown error", "error", err)
		}
	}

	app.publisher.Close()
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
