// Package reference serves the optional target measurements shown next to
// the measurement form. The measurement flow only reads it.
package reference

import (
	"context"

	"github.com/xelth-com/saisun/internal/logger"
	"github.com/xelth-com/saisun/internal/models"
	"github.com/xelth-com/saisun/internal/tabular"
)

type Store struct {
	tx    *tabular.Transactor
	table string
	log   *logger.Logger
}

func NewStore(tx *tabular.Transactor, table string, log *logger.Logger) *Store {
	return &Store{tx: tx, table: table, log: log}
}

func (s *Store) Ensure(ctx context.Context) error {
	return tabular.WriteError(s.table, "ensure", s.tx.Store().EnsureTable(ctx, s.table, models.ReferenceHeader))
}

// Lookup returns the standard for (managementID, size). Blank fields are
// omitted; a missing standard is not an error.
func (s *Store) Lookup(ctx context.Context, managementID, size string) (models.ReferenceStandard, bool, error) {
	tbl, err := s.tx.Read(ctx, s.table)
	if err != nil {
		return models.ReferenceStandard{}, false, err
	}
	key := models.NewEntryKey(managementID, size)
	for _, row := range tbl.Rows {
		ref := models.ReferenceFromRow(tbl.Header, row)
		if ref.Key() != key {
			continue
		}
		var fields models.Fields
		for _, fv := range ref.Fields {
			if fv.Value != "" {
				fields = append(fields, fv)
			}
		}
		ref.Fields = fields
		return ref, true, nil
	}
	return models.ReferenceStandard{}, false, nil
}

// Import replaces the whole reference table with standards. Later entries
// for the same (managementId, size) win.
func (s *Store) Import(ctx context.Context, standards []models.ReferenceStandard) (int, error) {
	last := make(map[models.EntryKey]int, len(standards))
	header := append([]string(nil), models.ReferenceHeader...)
	for i, ref := range standards {
		if ref.Key().ManagementID == "" || ref.Key().Size == "" {
			continue
		}
		last[ref.Key()] = i
		header = tabular.MergeHeader(header, ref.Fields.Names()...)
	}
	rows := make([]tabular.Row, 0, len(last))
	for i, ref := range standards {
		if j, ok := last[ref.Key()]; !ok || j != i {
			continue
		}
		ref.ManagementID, ref.Size = ref.Key().ManagementID, ref.Key().Size
		rows = append(rows, ref.ToRow())
	}
	err := s.tx.Update(ctx, s.table, func(tbl *tabular.Table) error {
		tbl.Header = header
		tbl.Rows = rows
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.log.Info("reference standards imported", "table", s.table, "rows", len(rows))
	return len(rows), nil
}
