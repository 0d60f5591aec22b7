// Package postgres stores tabular data in PostgreSQL through gorm: one
// sheet row per table holding the header, one row per record holding the
// cells as a JSON array.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/xelth-com/saisun/internal/tabular"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ tabular.Store = (*Store)(nil)

// Sheet holds a table's header.
type Sheet struct {
	Name   string         `gorm:"primaryKey" json:"name"`
	Header datatypes.JSON `gorm:"type:jsonb;not null" json:"header"`
}

func (Sheet) TableName() string { return "tabular_sheets" }

// SheetRow holds one row's cells in header order.
type SheetRow struct {
	ID       uint           `gorm:"primaryKey" json:"id"`
	Sheet    string         `gorm:"index:idx_sheet_position,priority:1;not null" json:"sheet"`
	Position int            `gorm:"index:idx_sheet_position,priority:2;not null" json:"position"`
	Cells    datatypes.JSON `gorm:"type:jsonb;not null" json:"cells"`
}

func (SheetRow) TableName() string { return "tabular_rows" }

// Store is the gorm-backed tabular store.
type Store struct {
	db *gorm.DB
}

// NewStore migrates the schema on db and returns the store.
func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Sheet{}, &SheetRow{}); err != nil {
		return nil, fmt.Errorf("migrate tabular schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) EnsureTable(ctx context.Context, table string, header []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, found, err := loadHeader(tx, table)
		if err != nil {
			return err
		}
		if found && len(current) > 0 {
			return nil
		}
		return saveHeader(tx, table, header)
	})
}

func (s *Store) ReadAll(ctx context.Context, table string) (tabular.Table, error) {
	var out tabular.Table
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		header, found, err := loadHeader(tx, table)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: %s", tabular.ErrTableNotFound, table)
		}
		var rows []SheetRow
		if err := tx.Where("sheet = ?", table).Order("position").Find(&rows).Error; err != nil {
			return fmt.Errorf("select rows: %w", err)
		}
		out = tabular.Table{Header: header, Rows: make([]tabular.Row, 0, len(rows))}
		for _, r := range rows {
			cells, err := decodeCells(r.Cells)
			if err != nil {
				return err
			}
			out.Rows = append(out.Rows, tabular.RowFromValues(header, cells))
		}
		return nil
	})
	return out, err
}

func (s *Store) OverwriteAll(ctx context.Context, table string, t tabular.Table) error {
	for _, r := range t.Rows {
		if err := tabular.CheckRow(t.Header, r); err != nil {
			return err
		}
	}
	records, err := encodeRows(table, t)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveHeader(tx, table, t.Header); err != nil {
			return err
		}
		if err := tx.Where("sheet = ?", table).Delete(&SheetRow{}).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(records, 500).Error; err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
		return nil
	})
}

func (s *Store) AppendRow(ctx context.Context, table string, row tabular.Row) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		header, found, err := loadHeader(tx, table)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: %s", tabular.ErrTableNotFound, table)
		}
		if err := tabular.CheckRow(header, row); err != nil {
			return err
		}
		var next int
		if err := tx.Model(&SheetRow{}).Where("sheet = ?", table).
			Select("COALESCE(MAX(position)+1, 0)").Scan(&next).Error; err != nil {
			return fmt.Errorf("next position: %w", err)
		}
		cells, err := json.Marshal(row.Values(header))
		if err != nil {
			return err
		}
		return tx.Create(&SheetRow{Sheet: table, Position: next, Cells: datatypes.JSON(cells)}).Error
	})
}

func loadHeader(tx *gorm.DB, table string) ([]string, bool, error) {
	var sheet Sheet
	err := tx.Where("name = ?", table).First(&sheet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select header %s: %w", table, err)
	}
	header, err := decodeCells(sheet.Header)
	if err != nil {
		return nil, false, err
	}
	return header, true, nil
}

func saveHeader(tx *gorm.DB, table string, header []string) error {
	data, err := json.Marshal(header)
	if err != nil {
		return err
	}
	sheet := Sheet{Name: table, Header: datatypes.JSON(data)}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"header"}),
	}).Create(&sheet).Error; err != nil {
		return fmt.Errorf("upsert header %s: %w", table, err)
	}
	return nil
}

func encodeRows(table string, t tabular.Table) ([]SheetRow, error) {
	out := make([]SheetRow, 0, len(t.Rows))
	for i, r := range t.Rows {
		cells, err := json.Marshal(r.Values(t.Header))
		if err != nil {
			return nil, err
		}
		out = append(out, SheetRow{Sheet: table, Position: i, Cells: datatypes.JSON(cells)})
	}
	return out, nil
}

func decodeCells(raw datatypes.JSON) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var cells []string
	if err := json.Unmarshal(raw, &cells); err != nil {
		return nil, fmt.Errorf("decode cells: %w", err)
	}
	return cells, nil
}
