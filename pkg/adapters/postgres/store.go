// Package postgres implements a Postgres-backed ports.RecordStore using pgx v5.
// Records are stored as JSONB keyed by id.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/crudgen/pkg/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultTable is used when Config.Table is empty.
const DefaultTable = "public.records"

// Config holds Postgres store configuration.
type Config struct {
	DSN   string // connection string for pgxpool
	Table string // optionally schema-qualified, e.g. "public.records"
}

// Store is a Postgres-backed implementation of ports.RecordStore.
type Store struct {
	pool  *pgxpool.Pool
	table string
}

// NewStore connects, creates the table if needed and returns the Store plus a
// Close function for cleanup.
func NewStore(ctx context.Context, cfg Config) (*Store, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("postgres: DSN must not be empty")
	}
	table := cfg.Table
	if table == "" {
		table = DefaultTable
	}

	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres: ping: %w", describe(err))
	}

	s := &Store{pool: pool, table: pgFQN(table)}
	if err := s.ensureTable(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	closeFn := func() { pool.Close() }
	return s, closeFn, nil
}

func (s *Store) ensureTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id   text PRIMARY KEY,
	body jsonb NOT NULL
)`, s.table)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("postgres: create table: %w", describe(err))
	}
	return nil
}

// Insert adds a record, leaving an existing row untouched.
func (s *Store) Insert(ctx context.Context, id string, record domain.Record) error {
	if id == "" {
		return domain.ErrInvalidID
	}
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("postgres: marshal record: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf("INSERT INTO %s (id, body) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING", s.table),
		id, body)
	if err != nil {
		return fmt.Errorf("postgres: insert: %w", describe(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRecordExists
	}
	return nil
}

// Update replaces the body of an existing record.
func (s *Store) Update(ctx context.Context, id string, record domain.Record) error {
	if id == "" {
		return domain.ErrInvalidID
	}
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("postgres: marshal record: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf("UPDATE %s SET body = $2 WHERE id = $1", s.table), id, body)
	if err != nil {
		return fmt.Errorf("postgres: update: %w", describe(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

// Remove deletes a record.
func (s *Store) Remove(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidID
	}

	tag, err := s.pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.table), id)
	if err != nil {
		return fmt.Errorf("postgres: delete: %w", describe(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

// Find loads and decodes a record.
func (s *Store) Find(ctx context.Context, id string) (domain.Record, error) {
	if id == "" {
		return nil, domain.ErrInvalidID
	}

	var body []byte
	err := s.pool.QueryRow(ctx, fmt.Sprintf("SELECT body FROM %s WHERE id = $1", s.table), id).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: select: %w", describe(err))
	}

	var record domain.Record
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("postgres: unmarshal record: %w", err)
	}
	return record, nil
}

// List returns all ids in byte order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`SELECT id FROM %s ORDER BY id COLLATE "C"`, s.table))
	if err != nil {
		return nil, fmt.Errorf("postgres: list: %w", describe(err))
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("postgres: list: %w", describe(err))
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// Drop removes the table. Intended for tests and teardown scripts.
func (s *Store) Drop(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "DROP TABLE IF EXISTS "+s.table); err != nil {
		return fmt.Errorf("postgres: drop table: %w", describe(err))
	}
	return nil
}

// describe surfaces server-side detail and SQLSTATE when available.
func describe(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return fmt.Errorf("%s (%s): %w", pgErr.Detail, pgErr.SQLState(), err)
	}
	return err
}

// pgIdent quotes an identifier for safe use in SQL.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// pgFQN quotes a possibly schema-qualified name like "public.records" to
// "public"."records". If no dot is present, returns a single quoted ident.
func pgFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pgIdent(p)
	}
	return strings.Join(parts, ".")
}
