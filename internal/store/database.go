package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// ErrNoSnapshot reports that no chat export has been ingested yet. Callers
// surface it as "no table available", a recoverable user-visible state.
var ErrNoSnapshot = errors.New("no result snapshot available")

// Database represents the PostgreSQL connection holding uploads and
// parsed game results.
type Database struct {
	conn *sql.DB
	dsn  string
}

// NewDatabase opens a connection and verifies it.
func NewDatabase(dsn string) (*Database, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{
		conn: db,
		dsn:  dsn,
	}, nil
}

// Close closes the database connection.
func (db *Database) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// DB returns the underlying *sql.DB for queries.
func (db *Database) DB() *sql.DB {
	return db.conn
}

// migration pairs a version name with the SQL applied for it. The schema
// is small enough to carry inline instead of as files on disk.
type migration struct {
	version string
	sql     string
}

var migrations = []migration{
	{
		version: "001_create_uploads",
		sql: `
			CREATE TABLE IF NOT EXISTS uploads (
				upload_id UUID PRIMARY KEY,
				source VARCHAR(32) NOT NULL,
				filename TEXT,
				result_count INT NOT NULL DEFAULT 0,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)
		`,
	},
	{
		version: "002_create_game_results",
		sql: `
			CREATE TABLE IF NOT EXISTS game_results (
				id SERIAL PRIMARY KEY,
				upload_id UUID NOT NULL REFERENCES uploads(upload_id) ON DELETE CASCADE,
				date DATE NOT NULL,
				sender TEXT NOT NULL,
				game TEXT NOT NULL,
				game_number INT NOT NULL,
				play_time_seconds INT NOT NULL,
				ceo_percent INT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				CONSTRAINT game_results_number_positive CHECK (game_number > 0),
				CONSTRAINT game_results_time_non_negative CHECK (play_time_seconds >= 0),
				CONSTRAINT game_results_ceo_range CHECK (ceo_percent IS NULL OR (ceo_percent >= 0 AND ceo_percent <= 100))
			)
		`,
	},
	{
		version: "003_index_game_results",
		sql: `
			CREATE INDEX IF NOT EXISTS idx_game_results_upload_date ON game_results (upload_id, date);
			CREATE INDEX IF NOT EXISTS idx_game_results_game ON game_results (game, date)
		`,
	},
}

// RunMigrations applies all pending migrations in order.
func (db *Database) RunMigrations() error {
	log.Println("Running database migrations...")

	if err := db.createMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, m := range migrations {
		if err := db.runMigration(m); err != nil {
			return fmt.Errorf("failed to run migration %s: %w", m.version, err)
		}
	}

	log.Println("All migrations completed")
	return nil
}

func (db *Database) createMigrationsTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	_, err := db.conn.Exec(query)
	return err
}

func (db *Database) runMigration(m migration) error {
	var exists bool
	err := db.conn.QueryRow("SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", m.version).Scan(&exists)
	if err != nil {
		return err
	}

	if exists {
		log.Printf("  Skipping %s (already applied)", m.version)
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.sql); err != nil {
		return fmt.Errorf("failed to execute migration: %w", err)
	}

	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES ($1)", m.version); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	log.Printf("  Applied %s", m.version)
	return nil
}

// HealthCheck performs a health check on the database.
func (db *Database) HealthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	return db.conn.PingContext(ctx)
}
