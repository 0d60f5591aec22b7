// Package memory provides an in-memory tabular store used for tests and
// ephemeral environments.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/xelth-com/saisun/internal/tabular"
)

var _ tabular.Store = (*Store)(nil)

// Store keeps every table in a map guarded by a RWMutex.
type Store struct {
	mu     sync.RWMutex
	tables map[string]tabular.Table
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{tables: make(map[string]tabular.Table)}
}

func (s *Store) EnsureTable(_ context.Context, table string, header []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.tables[table]
	if ok && len(existing.Header) > 0 {
		return nil
	}
	existing.Header = append([]string(nil), header...)
	s.tables[table] = existing
	return nil
}

func (s *Store) ReadAll(_ context.Context, table string) (tabular.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[table]
	if !ok {
		return tabular.Table{}, fmt.Errorf("%w: %s", tabular.ErrTableNotFound, table)
	}
	return t.Clone(), nil
}

func (s *Store) OverwriteAll(_ context.Context, table string, t tabular.Table) error {
	for _, r := range t.Rows {
		if err := tabular.CheckRow(t.Header, r); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table] = normalize(t)
	return nil
}

func (s *Store) AppendRow(_ context.Context, table string, row tabular.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[table]
	if !ok {
		return fmt.Errorf("%w: %s", tabular.ErrTableNotFound, table)
	}
	if err := tabular.CheckRow(t.Header, row); err != nil {
		return err
	}
	t.Rows = append(t.Rows, tabular.RowFromValues(t.Header, row.Values(t.Header)))
	s.tables[table] = t
	return nil
}

// Tables lists the table names currently held.
func (s *Store) Tables() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.tables))
	for name := range s.tables {
		out = append(out, name)
	}
	return out
}

// normalize stores rows the way a spreadsheet would: every header cell present.
func normalize(t tabular.Table) tabular.Table {
	out := tabular.Table{Header: append([]string(nil), t.Header...)}
	out.Rows = make([]tabular.Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		out.Rows = append(out.Rows, tabular.RowFromValues(out.Header, r.Values(out.Header)))
	}
	return out
}
