// Package sqlite implements a SQLite-backed ports.RecordStore using
// database/sql and the pure-Go modernc.org/sqlite driver. Records are kept as
// JSON text in a two-column table keyed by id.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/crudgen/pkg/domain"

	_ "modernc.org/sqlite"
)

// DefaultTable is used when Config.Table is empty.
const DefaultTable = "records"

// Config holds SQLite store configuration.
type Config struct {
	DSN   string // e.g. "crudgen.db", "file:crudgen.db?_pragma=busy_timeout(5000)", ":memory:"
	Table string
}

// Store is a SQLite-backed implementation of ports.RecordStore.
type Store struct {
	db    *sql.DB
	table string
}

// NewStore opens a SQLite connection, creates the table if needed and returns
// the Store plus a Close function for cleanup.
func NewStore(ctx context.Context, cfg Config) (*Store, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	table := cfg.Table
	if table == "" {
		table = DefaultTable
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// A single connection serializes writers and keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	s := &Store{db: db, table: quoteIdent(table)}
	if err := s.ensureTable(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	closeFn := func() { db.Close() }
	return s, closeFn, nil
}

func (s *Store) ensureTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id   TEXT PRIMARY KEY,
	body TEXT NOT NULL
)`, s.table)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("sqlite: create table: %w", err)
	}
	return nil
}

// Insert adds a record; an existing id leaves the row untouched.
func (s *Store) Insert(ctx context.Context, id string, record domain.Record) error {
	if id == "" {
		return domain.ErrInvalidID
	}
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("sqlite: marshal record: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("INSERT OR IGNORE INTO %s (id, body) VALUES (?, ?)", s.table), id, string(body))
	if err != nil {
		return fmt.Errorf("sqlite: insert: %w", err)
	}
	return expectRow(res, domain.ErrRecordExists)
}

// Update replaces the body of an existing record.
func (s *Store) Update(ctx context.Context, id string, record domain.Record) error {
	if id == "" {
		return domain.ErrInvalidID
	}
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("sqlite: marshal record: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET body = ? WHERE id = ?", s.table), string(body), id)
	if err != nil {
		return fmt.Errorf("sqlite: update: %w", err)
	}
	return expectRow(res, domain.ErrRecordNotFound)
}

// Remove deletes a record.
func (s *Store) Remove(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidID
	}

	res, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.table), id)
	if err != nil {
		return fmt.Errorf("sqlite: delete: %w", err)
	}
	return expectRow(res, domain.ErrRecordNotFound)
}

// Find loads and decodes a record.
func (s *Store) Find(ctx context.Context, id string) (domain.Record, error) {
	if id == "" {
		return nil, domain.ErrInvalidID
	}

	var body string
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT body FROM %s WHERE id = ?", s.table), id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: select: %w", err)
	}

	var record domain.Record
	if err := json.Unmarshal([]byte(body), &record); err != nil {
		return nil, fmt.Errorf("sqlite: unmarshal record: %w", err)
	}
	return record, nil
}

// List returns all ids in byte order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT id FROM %s ORDER BY id", s.table))
	if err != nil {
		return nil, fmt.Errorf("sqlite: list: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list: %w", err)
	}
	return ids, nil
}

func expectRow(res sql.Result, none error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if n == 0 {
		return none
	}
	return nil
}

// quoteIdent quotes a table name for use in SQL.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
