package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"zeus/internal/core"

	_ "modernc.org/sqlite"
)

const (
	selectRecord = `SELECT record FROM ledger_state WHERE id = 1`
	upsertRecord = `INSERT INTO ledger_state (id, record, updated_at) VALUES (1, ?, ?)
ON CONFLICT(id) DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at`
)

// SQLiteStore keeps the same JSON record in a single-row table.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Load(ctx context.Context) (*core.State, error) {
	var data string
	err := s.db.QueryRowContext(ctx, selectRecord).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select ledger state: %w", err)
	}
	return decodeState([]byte(data))
}

func (s *SQLiteStore) Save(ctx context.Context, st *core.State) error {
	data, err := encodeState(st)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.db.ExecContext(ctx, upsertRecord, string(data), now); err != nil {
		return fmt.Errorf("upsert ledger state: %w", err)
	}
	return nil
}
