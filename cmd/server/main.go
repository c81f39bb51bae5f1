// Package main implements the entry point for the TaskFlow API server,
// a multi-tenant task management backend with authentication, task
// CRUD, productivity analytics, and change notifications.
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/taskflow/taskflow-api/internal/config"
	"github.com/taskflow/taskflow-api/internal/platform/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}
}

// run wires configuration, logging, database, and dependencies, then
// hands control to the HTTP server until shutdown.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(logger.Config{Level: cfg.Server.LogLevel})
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	db, err := setupDatabase(cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}

	if err := runMigrations(db, appLogger); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	ctx := context.Background()
	app, err := newApplication(ctx, cfg, appLogger, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	// Run blocks until graceful shutdown has completed.
	if err := app.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
