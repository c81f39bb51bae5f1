// Package testdb provides helpers for database integration tests.
//
// Tests that need a real Postgres instance call GetTestDB, which connects
// using the TASKFLOW_TEST_DB_URL or DATABASE_URL environment variable and
// applies the embedded migrations. When neither variable is set the caller
// should skip via ShouldSkipDatabaseTest.
package testdb

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/taskflow/taskflow-api/migrations"
)

var urlEnvVars = []string{"TASKFLOW_TEST_DB_URL", "DATABASE_URL"}

// GetTestDatabaseURL returns the connection string configured for tests,
// or an empty string when no database is available.
func GetTestDatabaseURL() string {
	for _, name := range urlEnvVars {
		if url := os.Getenv(name); url != "" {
			return url
		}
	}
	return ""
}

// ShouldSkipDatabaseTest reports whether database integration tests should
// be skipped because no test database is configured.
func ShouldSkipDatabaseTest() bool {
	return GetTestDatabaseURL() == ""
}

// GetTestDB opens a connection to the test database and brings the schema
// up to date with the embedded migrations. The connection is closed when
// the test finishes.
func GetTestDB(t *testing.T) *sql.DB {
	t.Helper()

	url := GetTestDatabaseURL()
	if url == "" {
		t.Fatal("no test database configured; set TASKFLOW_TEST_DB_URL or DATABASE_URL")
	}

	db, err := sql.Open("pgx", url)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("warning: failed to close test database: %v", err)
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("failed to ping test database: %v", err)
	}

	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		t.Fatalf("failed to set migration dialect: %v", err)
	}
	if err := goose.Up(db, "."); err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}

	return db
}

// WithTx runs fn inside a transaction that is rolled back afterwards, so
// tests can modify the database without affecting each other.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("warning: failed to rollback transaction: %v", err)
		}
	}()

	fn(t, tx)
}
