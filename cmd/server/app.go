package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/taskflow/taskflow-api/internal/config"
	"github.com/taskflow/taskflow-api/internal/events"
	"github.com/taskflow/taskflow-api/internal/platform/mail"
	"github.com/taskflow/taskflow-api/internal/platform/postgres"
	"github.com/taskflow/taskflow-api/internal/service"
	"github.com/taskflow/taskflow-api/internal/service/auth"
	"github.com/taskflow/taskflow-api/internal/store"
)

// application holds the shared application dependencies to simplify
// wiring and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores
	userStore  store.UserStore
	taskStore  store.TaskStore
	statsStore store.StatsStore

	// Services
	jwtService       auth.JWTService
	mailer           mail.Mailer
	userService      service.UserService
	taskService      service.TaskService
	analyticsService service.AnalyticsService

	// Notification fan-out
	publisher     events.Publisher
	amqpPublisher *events.AMQPPublisher
}

// newApplication creates an application instance with all dependencies
// initialized. The database connection must already be established.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	passwordVerifier := auth.NewBcryptVerifier()

	app.userStore = postgres.NewPostgresUserStore(db, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)
	app.statsStore = postgres.NewPostgresStatsStore(db, logger)

	if cfg.Mail.Enabled {
		app.mailer, err = mail.NewSMTPMailer(cfg.Mail, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize mailer: %w", err)
		}
		logger.Info("SMTP mailer initialized", "host", cfg.Mail.Host)
	} else {
		app.mailer = mail.NewLogMailer(logger)
		logger.Info("Mail delivery disabled, using log mailer")
	}

	if cfg.Notifier.Enabled {
		app.amqpPublisher, err = events.NewAMQPPublisher(cfg.Notifier.AMQPURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to message broker: %w", err)
		}
		app.publisher = app.amqpPublisher
		logger.Info("AMQP notifier initialized")
	} else {
		app.publisher = events.NewInMemoryEmitter(logger)
		logger.Info("Notifier disabled, using in-memory emitter")
	}

	app.userService = service.NewUserService(
		app.userStore,
		app.jwtService,
		passwordVerifier,
		passwordVerifier,
		app.mailer,
		cfg.Auth,
		cfg.Mail.FrontendURL,
		logger,
	)
	app.taskService = service.NewTaskService(app.taskStore, app.publisher, logger)
	app.analyticsService = service.NewAnalyticsService(app.statsStore, logger)

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.amqpPublisher != nil {
		if err := app.amqpPublisher.Close(); err != nil {
			app.logger.Error("Error closing message broker connection", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
