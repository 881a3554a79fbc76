// SPDX-License-Identifier: MIT

// Package sqlite provides a SQLite-backed session storage backend using the
// pure-Go modernc driver. The session lock stays process-local; the
// database only holds (state, vars).
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure Go driver

	"github.com/brotherdetjr/puremvc/internal/locktable"
	"github.com/brotherdetjr/puremvc/storage"
)

const schemaVersion = 1

// Config defines SQLite operational parameters.
type Config struct {
	BusyTimeout  time.Duration
	MaxOpenConns int
}

func DefaultConfig() Config {
	return Config{
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 25,
	}
}

// Storage implements core.Storage on a SQLite database.
type Storage struct {
	db    *sql.DB
	codec storage.Codec
	tab   *locktable.Table
}

// Open initializes the connection pool with WAL and busy_timeout applied to
// every connection via DSN pragmas, and migrates the schema.
func Open(dbPath string, cfg Config, codec storage.Codec) (*Storage, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		dbPath, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open failed: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping failed: %w", err)
	}

	s := &Storage{db: db, codec: codec, tab: locktable.New()}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migration failed: %w", err)
	}
	return s, nil
}

func (s *Storage) Close() error { return s.db.Close() }

func (s *Storage) migrate() error {
	var currentVersion int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&currentVersion); err != nil {
		return err
	}
	if currentVersion >= schemaVersion {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		state BLOB NOT NULL,
		vars BLOB NOT NULL,
		updated_at_ms INTEGER NOT NULL
	);
	`
	if _, err := tx.Exec(schema); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Storage) AcquireLock(ctx context.Context, sessionID string) error {
	return s.tab.Acquire(ctx, sessionID)
}

func (s *Storage) ReleaseLock(ctx context.Context, sessionID string) error {
	return s.tab.Release(sessionID)
}

func (s *Storage) Load(ctx context.Context, sessionID string) (any, map[string]any, error) {
	var rawState, rawVars []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT state, vars FROM sessions WHERE session_id = ?", sessionID).
		Scan(&rawState, &rawVars)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite load session: %w", err)
	}

	state, err := s.codec.Decode(rawState)
	if err != nil {
		return nil, nil, err
	}
	var vars map[string]any
	if len(rawVars) > 0 {
		if err := json.Unmarshal(rawVars, &vars); err != nil {
			return nil, nil, fmt.Errorf("sqlite decode vars: %w", err)
		}
	}
	return state, vars, nil
}

func (s *Storage) Store(ctx context.Context, sessionID string, state any, vars map[string]any) error {
	rawState, err := s.codec.Encode(state)
	if err != nil {
		return err
	}
	rawVars, err := json.Marshal(vars)
	if err != nil {
		return fmt.Errorf("sqlite encode vars: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (session_id, state, vars, updated_at_ms)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			state = excluded.state,
			vars = excluded.vars,
			updated_at_ms = excluded.updated_at_ms`,
		sessionID, rawState, rawVars, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("sqlite store session: %w", err)
	}
	return nil
}
