package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sant0-9/soapflow/internal/history"
)

// DB is a local SQLite file holding the saved template record and,
// when enabled, session history.
type DB struct {
	db *sql.DB
}

func Open(path string) (*DB, error) {
	p := filepath.Clean(strings.TrimSpace(path))
	if p == "" || p == "." {
		return nil, errors.New("missing db path")
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA busy_timeout=3000;`,
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at_unix_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS history (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			timestamp_unix_ms INTEGER NOT NULL,
			result_json TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (d *DB) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := d.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(value), true, nil
}

func (d *DB) Put(ctx context.Context, key string, value []byte) error {
	_, err := d.db.ExecContext(ctx, `
INSERT INTO kv(key, value, updated_at_unix_ms) VALUES(?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at_unix_ms = excluded.updated_at_unix_ms
`, key, string(value), time.Now().UnixMilli())
	return err
}

// History returns a history.Store backed by this database
func (d *DB) History() *HistoryStore {
	return &HistoryStore{db: d.db}
}

// HistoryStore persists history items across restarts
type HistoryStore struct {
	db *sql.DB
}

func (h *HistoryStore) Append(ctx context.Context, item history.Item) error {
	raw, err := json.Marshal(item.Result)
	if err != nil {
		return fmt.Errorf("encode history item: %w", err)
	}
	_, err = h.db.ExecContext(ctx,
		`INSERT INTO history(id, timestamp_unix_ms, result_json) VALUES(?, ?, ?)`,
		item.ID, item.Timestamp, string(raw))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return fmt.Errorf("%w: %s", history.ErrDuplicateID, item.ID)
		}
		return err
	}
	return nil
}

func (h *HistoryStore) Remove(ctx context.Context, id string) error {
	_, err := h.db.ExecContext(ctx, `DELETE FROM history WHERE id = ?`, id)
	return err
}

func (h *HistoryStore) Get(ctx context.Context, id string) (history.Item, error) {
	var (
		item history.Item
		raw  string
	)
	err := h.db.QueryRowContext(ctx,
		`SELECT id, timestamp_unix_ms, result_json FROM history WHERE id = ?`, id).
		Scan(&item.ID, &item.Timestamp, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return history.Item{}, fmt.Errorf("%w: %s", history.ErrNotFound, id)
	}
	if err != nil {
		return history.Item{}, err
	}
	if err := json.Unmarshal([]byte(raw), &item.Result); err != nil {
		return history.Item{}, fmt.Errorf("decode history item %s: %w", id, err)
	}
	return item, nil
}

func (h *HistoryStore) List(ctx context.Context) iter.Seq2[history.Item, error] {
	return func(yield func(history.Item, error) bool) {
		// Rows are read up front; a caller that mutates the store while
		// ranging would otherwise wait on the single connection.
		items, err := h.readAll(ctx)
		if err != nil {
			yield(history.Item{}, err)
			return
		}
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
	}
}

func (h *HistoryStore) readAll(ctx context.Context) ([]history.Item, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT id, timestamp_unix_ms, result_json FROM history ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []history.Item
	for rows.Next() {
		var (
			item history.Item
			raw  string
		)
		if err := rows.Scan(&item.ID, &item.Timestamp, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw), &item.Result); err != nil {
			return nil, fmt.Errorf("decode history item %s: %w", item.ID, err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
