// Package sqlite persists tabular data in a single SQLite file. Each table
// keeps its header as a JSON array and each row as a JSON array of cells.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xelth-com/saisun/internal/tabular"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

var _ tabular.Store = (*Store)(nil)

// Store is a SQLite-backed tabular store.
type Store struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (or creates) the database file at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "saisun.db"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)
	for _, ddl := range []string{
		`CREATE TABLE IF NOT EXISTS sheets (
			name TEXT PRIMARY KEY,
			header TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sheet_rows (
			sheet TEXT NOT NULL,
			position INTEGER NOT NULL,
			cells TEXT NOT NULL,
			PRIMARY KEY (sheet, position)
		)`,
	} {
		if _, err := db.Exec(ddl); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return &Store{db: db, path: path}, nil
}

func (s *Store) EnsureTable(ctx context.Context, table string, header []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, found, err := s.header(ctx, s.db, table)
	if err != nil {
		return err
	}
	if found && len(current) > 0 {
		return nil
	}
	data, err := json.Marshal(header)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO sheets(name,header) VALUES(?,?) ON CONFLICT(name) DO UPDATE SET header=excluded.header`, table, string(data)); err != nil {
		return fmt.Errorf("ensure %s: %w", table, err)
	}
	return nil
}

func (s *Store) ReadAll(ctx context.Context, table string) (tabular.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	header, found, err := s.header(ctx, s.db, table)
	if err != nil {
		return tabular.Table{}, err
	}
	if !found {
		return tabular.Table{}, fmt.Errorf("%w: %s", tabular.ErrTableNotFound, table)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT cells FROM sheet_rows WHERE sheet = ? ORDER BY position`, table)
	if err != nil {
		return tabular.Table{}, fmt.Errorf("select rows: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := tabular.Table{Header: header, Rows: []tabular.Row{}}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return tabular.Table{}, fmt.Errorf("scan: %w", err)
		}
		var cells []string
		if err := json.Unmarshal([]byte(raw), &cells); err != nil {
			return tabular.Table{}, fmt.Errorf("decode row: %w", err)
		}
		out.Rows = append(out.Rows, tabular.RowFromValues(header, cells))
	}
	if err := rows.Err(); err != nil {
		return tabular.Table{}, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

func (s *Store) OverwriteAll(ctx context.Context, table string, t tabular.Table) (retErr error) {
	for _, r := range t.Rows {
		if err := tabular.CheckRow(t.Header, r); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	headerJSON, err := json.Marshal(t.Header)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `INSERT INTO sheets(name,header) VALUES(?,?) ON CONFLICT(name) DO UPDATE SET header=excluded.header`, table, string(headerJSON)); err != nil {
		return fmt.Errorf("upsert header %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sheet_rows WHERE sheet = ?`, table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	for i, r := range t.Rows {
		cells, err := json.Marshal(r.Values(t.Header))
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO sheet_rows(sheet,position,cells) VALUES(?,?,?)`, table, i, string(cells)); err != nil {
			return fmt.Errorf("insert %s row %d: %w", table, i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) AppendRow(ctx context.Context, table string, row tabular.Row) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	header, found, err := s.header(ctx, tx, table)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", tabular.ErrTableNotFound, table)
	}
	if err := tabular.CheckRow(header, row); err != nil {
		return err
	}
	var next int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position)+1, 0) FROM sheet_rows WHERE sheet = ?`, table).Scan(&next); err != nil {
		return fmt.Errorf("next position: %w", err)
	}
	cells, err := json.Marshal(row.Values(header))
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO sheet_rows(sheet,position,cells) VALUES(?,?,?)`, table, next, string(cells)); err != nil {
		return fmt.Errorf("append %s: %w", table, err)
	}
	return tx.Commit()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) header(ctx context.Context, q queryer, table string) ([]string, bool, error) {
	var raw string
	err := q.QueryRowContext(ctx, `SELECT header FROM sheets WHERE name = ?`, table).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select header %s: %w", table, err)
	}
	var header []string
	if err := json.Unmarshal([]byte(raw), &header); err != nil {
		return nil, false, fmt.Errorf("decode header %s: %w", table, err)
	}
	return header, true, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
