// Package journal records leadsheet edits in SQLite and replays them.
//
// A Session is a change listener attached to one Store. It stores the
// initial leadsheet, then one row per committed operation with the
// fingerprint of the resulting state, and one row per event in canonical
// JSON. Replay rebuilds the leadsheet from those rows through
// Store.ApplyEvents and compares fingerprints at every step.
package journal

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jjazzboss/JJazzLab-sub029/internal/ids"
	"github.com/jjazzboss/JJazzLab-sub029/internal/leadsheet"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema
// 1 - Index on sessions.created_at for listing
const currentSchemaVersion = 1

// ErrNotFound is returned for an unknown session.
var ErrNotFound = errors.New("not found")

// Journal is a SQLite edit journal.
type Journal struct {
	db       *sql.DB
	logger   *slog.Logger
	ids      ids.Generator
	payloads PayloadDecoder
	now      func() string
}

// Option configures a Journal.
type Option func(*Journal)

// WithLogger sets the logger used to report write failures.
func WithLogger(l *slog.Logger) Option {
	return func(j *Journal) {
		j.logger = l
	}
}

// WithIDGenerator sets the session ID generator. The default produces UUIDv7.
func WithIDGenerator(g ids.Generator) Option {
	return func(j *Journal) {
		j.ids = g
	}
}

// WithPayloadDecoder sets how payloads are rebuilt on replay.
// The default understands the built-in chord and annotation kinds.
func WithPayloadDecoder(d PayloadDecoder) Option {
	return func(j *Journal) {
		j.payloads = d
	}
}

// WithClock sets the source of session creation timestamps.
func WithClock(now func() string) Option {
	return func(j *Journal) {
		j.now = now
	}
}

// Open creates or opens a journal database at path.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
func Open(path string, opts ...Option) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	j := &Journal{
		db:       db,
		logger:   slog.Default(),
		ids:      ids.UUIDv7Generator{},
		payloads: leadsheet.ParsePayload,
		now:      utcNow,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// It is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// runMigrations applies incremental migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions(created_at)`); err != nil {
			return fmt.Errorf("migrate to v1: %w", err)
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}
