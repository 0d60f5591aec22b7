// Package catalog manages pending product/size entries awaiting measurement.
package catalog

import (
	"context"
	"sort"

	"github.com/xelth-com/saisun/internal/logger"
	"github.com/xelth-com/saisun/internal/models"
	"github.com/xelth-com/saisun/internal/tabular"
)

// Store reads and rewrites the catalog table. Every rewrite runs under the
// table lock held by the transactor.
type Store struct {
	tx    *tabular.Transactor
	table string
	log   *logger.Logger
}

func NewStore(tx *tabular.Transactor, table string, log *logger.Logger) *Store {
	return &Store{tx: tx, table: table, log: log}
}

// Table returns the catalog table name.
func (s *Store) Table() string { return s.table }

// Ensure creates the catalog table when absent.
func (s *Store) Ensure(ctx context.Context) error {
	return tabular.WriteError(s.table, "ensure", s.tx.Store().EnsureTable(ctx, s.table, models.CatalogHeader))
}

// All returns every entry in storage order. Rows without a management id
// or size are ignored.
func (s *Store) All(ctx context.Context) ([]models.CatalogEntry, error) {
	tbl, err := s.tx.Read(ctx, s.table)
	if err != nil {
		return nil, err
	}
	return entriesOf(tbl), nil
}

// Brands lists distinct non-blank brands, sorted.
func (s *Store) Brands(ctx context.Context) ([]string, error) {
	entries, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return distinctSorted(entries, func(e models.CatalogEntry) (string, bool) {
		return e.Brand, e.Brand != ""
	}), nil
}

// ManagementIDs lists the distinct management ids pending for brand, sorted.
func (s *Store) ManagementIDs(ctx context.Context, brand string) ([]string, error) {
	entries, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return distinctSorted(entries, func(e models.CatalogEntry) (string, bool) {
		return e.ManagementID, e.Brand == brand
	}), nil
}

// Sizes lists the pending sizes of managementID in storage order.
func (s *Store) Sizes(ctx context.Context, managementID string) ([]string, error) {
	entries, err := s.Entries(ctx, managementID)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Size)
	}
	return out, nil
}

// Entries returns the pending entries of managementID in storage order.
func (s *Store) Entries(ctx context.Context, managementID string) ([]models.CatalogEntry, error) {
	entries, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.CatalogEntry
	seen := make(map[string]struct{})
	for _, e := range entries {
		if e.ManagementID != managementID {
			continue
		}
		if _, dup := seen[e.Size]; dup {
			continue
		}
		seen[e.Size] = struct{}{}
		out = append(out, e)
	}
	return out, nil
}

// Find returns the entry for (managementID, size).
func (s *Store) Find(ctx context.Context, managementID, size string) (models.CatalogEntry, bool, error) {
	entries, err := s.All(ctx)
	if err != nil {
		return models.CatalogEntry{}, false, err
	}
	key := models.NewEntryKey(managementID, size)
	for _, e := range entries {
		if e.Key() == key {
			return e, true, nil
		}
	}
	return models.CatalogEntry{}, false, nil
}

// ImportResult summarizes a catalog import.
type ImportResult struct {
	Received int `json:"received"`
	Added    int `json:"added"`
	Replaced int `json:"replaced"`
	Total    int `json:"total"`
}

// Import merges entries into the catalog. Duplicate (managementId, size)
// pairs, within the batch or against existing rows, keep the latest values.
// Rows the batch does not mention are kept untouched, and replaced rows keep
// the values of columns outside the catalog header.
func (s *Store) Import(ctx context.Context, entries []models.CatalogEntry) (ImportResult, error) {
	res := ImportResult{Received: len(entries)}
	err := s.tx.Update(ctx, s.table, func(tbl *tabular.Table) error {
		incoming := make([]models.CatalogEntry, 0, len(entries))
		for _, e := range entries {
			e = models.CatalogEntryFromRow(e.ToRow())
			if e.ManagementID == "" || e.Size == "" {
				continue
			}
			incoming = append(incoming, e)
		}
		incoming = DedupeLatest(incoming)
		touched := make(map[models.EntryKey]struct{}, len(incoming))
		for _, e := range incoming {
			touched[e.Key()] = struct{}{}
		}

		// Existing rows: the last one per key is the base for an overlay
		// or, when untouched, the row that survives.
		last := make(map[models.EntryKey]int, len(tbl.Rows))
		for i, row := range tbl.Rows {
			if k, ok := rowKey(row); ok {
				last[k] = i
			}
		}
		rows := make([]tabular.Row, 0, len(tbl.Rows)+len(incoming))
		for i, row := range tbl.Rows {
			k, ok := rowKey(row)
			if !ok {
				rows = append(rows, row)
				continue
			}
			if _, hit := touched[k]; hit || last[k] != i {
				continue
			}
			rows = append(rows, row)
			res.Total++
		}
		for _, e := range incoming {
			row := tabular.Row{}
			if i, ok := last[e.Key()]; ok {
				row = tbl.Rows[i].Clone()
				res.Replaced++
			} else {
				res.Added++
			}
			for col, v := range e.ToRow() {
				row[col] = v
			}
			rows = append(rows, row)
			res.Total++
		}
		tbl.Header = tabular.MergeHeader(models.CatalogHeader, tbl.Header...)
		tbl.Rows = rows
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	s.log.Info("catalog imported", "table", s.table, "received", res.Received,
		"added", res.Added, "replaced", res.Replaced, "total", res.Total)
	return res, nil
}

func rowKey(row tabular.Row) (models.EntryKey, bool) {
	k := models.CatalogEntryFromRow(row).Key()
	return k, k.ManagementID != "" && k.Size != ""
}

// Remove deletes every entry whose key is in keys and reports how many rows
// were dropped.
func (s *Store) Remove(ctx context.Context, keys []models.EntryKey) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	drop := make(map[models.EntryKey]struct{}, len(keys))
	for _, k := range keys {
		drop[models.NewEntryKey(k.ManagementID, k.Size)] = struct{}{}
	}
	removed := 0
	err := s.tx.Update(ctx, s.table, func(tbl *tabular.Table) error {
		kept := tbl.Rows[:0:0]
		for _, r := range tbl.Rows {
			e := models.CatalogEntryFromRow(r)
			if _, ok := drop[e.Key()]; ok {
				removed++
				continue
			}
			kept = append(kept, r)
		}
		tbl.Rows = kept
		if len(tbl.Header) == 0 {
			tbl.Header = append([]string(nil), models.CatalogHeader...)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.log.Info("catalog entries removed", "table", s.table, "requested", len(keys), "removed", removed)
	return removed, nil
}

// DedupeLatest keeps, for each (managementId, size), only the last entry in
// entries, at the position of that last occurrence.
func DedupeLatest(entries []models.CatalogEntry) []models.CatalogEntry {
	last := make(map[models.EntryKey]int, len(entries))
	for i, e := range entries {
		last[e.Key()] = i
	}
	out := make([]models.CatalogEntry, 0, len(last))
	for i, e := range entries {
		if last[e.Key()] == i {
			out = append(out, e)
		}
	}
	return out
}

func entriesOf(tbl tabular.Table) []models.CatalogEntry {
	out := make([]models.CatalogEntry, 0, len(tbl.Rows))
	for _, r := range tbl.Rows {
		e := models.CatalogEntryFromRow(r)
		if e.ManagementID == "" || e.Size == "" {
			continue
		}
		out = append(out, e)
	}
	return out
}

func distinctSorted(entries []models.CatalogEntry, pick func(models.CatalogEntry) (string, bool)) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, e := range entries {
		v, ok := pick(e)
		if !ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
