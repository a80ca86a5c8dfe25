package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// =============================================================================
// SQLiteStore
// =============================================================================

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) the history database and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		return nil, NewStoreError("NewSQLiteStore", "", "failed to open database", ErrConnectionFailed)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "failed to ping database", ErrConnectionFailed)
	}

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", err.Error(), ErrMigrationFailed)
	}

	return &SQLiteStore{db: db}, nil
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// Event Operations
// =============================================================================

// RecordEvent inserts one lifecycle event.
func (s *SQLiteStore) RecordEvent(ctx context.Context, event *Event) error {
	if event.Target == "" || event.Action == "" {
		return NewStoreError("RecordEvent", event.Target, "target and action are required", ErrInvalidEvent)
	}
	if event.ReferenceID == "" {
		event.ReferenceID = NewEventID()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO events (reference_id, target, action, host, status, error, created_at)
		VALUES (:reference_id, :target, :action, :host, :status, :error, :created_at)`
	res, err := s.db.NamedExecContext(ctx, query, event)
	if err != nil {
		return NewStoreError("RecordEvent", event.Target, err.Error(), err)
	}
	if id, err := res.LastInsertId(); err == nil {
		event.ID = id
	}
	return nil
}

// ListEvents returns the most recent events, newest first. An empty
// targetName lists events across all targets.
func (s *SQLiteStore) ListEvents(ctx context.Context, targetName string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}

	var (
		events []Event
		err    error
	)
	if targetName == "" {
		query := `SELECT * FROM events ORDER BY created_at DESC, id DESC LIMIT ?`
		err = s.db.SelectContext(ctx, &events, query, limit)
	} else {
		query := `SELECT * FROM events WHERE target = ? ORDER BY created_at DESC, id DESC LIMIT ?`
		err = s.db.SelectContext(ctx, &events, query, targetName, limit)
	}
	if err != nil {
		return nil, NewStoreError("ListEvents", targetName, err.Error(), err)
	}
	return events, nil
}
