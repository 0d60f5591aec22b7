// Package measurement stores completed measurement records in a recent and
// an archive partition, each on its own table.
package measurement

import (
	"context"
	"errors"

	"github.com/xelth-com/saisun/internal/logger"
	"github.com/xelth-com/saisun/internal/models"
	"github.com/xelth-com/saisun/internal/tabular"
)

var errNoop = errors.New("nothing to move")

// Store appends records to the recent partition and moves them to the
// archive partition on request.
type Store struct {
	tx      *tabular.Transactor
	recent  string
	archive string
	log     *logger.Logger
}

func NewStore(tx *tabular.Transactor, recentTable, archiveTable string, log *logger.Logger) *Store {
	return &Store{tx: tx, recent: recentTable, archive: archiveTable, log: log}
}

func (s *Store) RecentTable() string  { return s.recent }
func (s *Store) ArchiveTable() string { return s.archive }

// Ensure creates both partitions with the identity header when absent.
func (s *Store) Ensure(ctx context.Context) error {
	for _, table := range []string{s.recent, s.archive} {
		if err := s.tx.Store().EnsureTable(ctx, table, models.IdentityHeader); err != nil {
			return tabular.WriteError(table, "ensure", err)
		}
	}
	return nil
}

// Append writes rec to the recent partition, widening the header first
// when rec carries fields the table has not seen.
func (s *Store) Append(ctx context.Context, rec models.MeasurementRecord) error {
	if err := s.tx.AppendWithHeader(ctx, s.recent, rec.ToRow(), rec.Columns()); err != nil {
		return err
	}
	s.log.Debug("measurement appended", "table", s.recent, "managementId", rec.ManagementID, "size", rec.Size)
	return nil
}

// Recent returns the recent partition in storage order.
func (s *Store) Recent(ctx context.Context) ([]models.MeasurementRecord, error) {
	return s.read(ctx, s.recent)
}

// Archived returns the archive partition in storage order.
func (s *Store) Archived(ctx context.Context) ([]models.MeasurementRecord, error) {
	return s.read(ctx, s.archive)
}

// History returns the recent records followed by the archived ones.
func (s *Store) History(ctx context.Context) ([]models.MeasurementRecord, error) {
	recent, err := s.Recent(ctx)
	if err != nil {
		return nil, err
	}
	archived, err := s.Archived(ctx)
	if err != nil {
		return nil, err
	}
	return append(recent, archived...), nil
}

// MoveToArchive relocates every recent record for which old returns true.
// Both partitions are rewritten under their locks, archive first, so a
// failure between the two writes duplicates rather than loses rows.
// It returns the number of records moved; zero leaves both tables untouched.
func (s *Store) MoveToArchive(ctx context.Context, old func(models.MeasurementRecord) bool) (int, error) {
	moved := 0
	err := s.tx.UpdateMany(ctx, []string{s.archive, s.recent}, func(tables map[string]*tabular.Table) error {
		recent, archive := tables[s.recent], tables[s.archive]
		kept := make([]tabular.Row, 0, len(recent.Rows))
		var out []tabular.Row
		for _, row := range recent.Rows {
			if old(models.MeasurementFromRow(recent.Header, row)) {
				out = append(out, row)
				continue
			}
			kept = append(kept, row)
		}
		if len(out) == 0 {
			return errNoop
		}
		archive.Header = tabular.MergeHeader(tabular.MergeHeader(models.IdentityHeader, archive.Header...), recent.Header...)
		archive.Rows = append(archive.Rows, out...)
		recent.Rows = kept
		moved = len(out)
		return nil
	})
	if errors.Is(err, errNoop) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	s.log.Info("measurements archived", "from", s.recent, "to", s.archive, "moved", moved)
	return moved, nil
}

func (s *Store) read(ctx context.Context, table string) ([]models.MeasurementRecord, error) {
	tbl, err := s.tx.Read(ctx, table)
	if err != nil {
		return nil, err
	}
	out := make([]models.MeasurementRecord, 0, len(tbl.Rows))
	for _, row := range tbl.Rows {
		if blankRow(row) {
			continue
		}
		out = append(out, models.MeasurementFromRow(tbl.Header, row))
	}
	return out, nil
}

func blankRow(row tabular.Row) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
