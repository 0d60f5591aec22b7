// Package importer reads product listings and reference standards from
// uploaded CSV or Excel files.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xelth-com/saisun/internal/models"
	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFile is returned for extensions other than .csv and .xlsx.
	ErrUnsupportedFile = errors.New("unsupported file type")
	// ErrMissingColumn is returned when a required header is absent.
	ErrMissingColumn = errors.New("missing column")
)

// Sheet is a parsed file: a header row and data rows.
type Sheet struct {
	Header []string
	Rows   [][]string
}

// headerAliases maps accepted header spellings to canonical columns.
var headerAliases = map[string]string{
	"管理番号":          models.ColManagementID,
	"商品管理番号":        models.ColManagementID,
	"managementid":  models.ColManagementID,
	"management_id": models.ColManagementID,
	"ブランド":          models.ColBrand,
	"brand":         models.ColBrand,
	"ジャンル":          models.ColGenre,
	"カテゴリ":          models.ColGenre,
	"genre":         models.ColGenre,
	"category":      models.ColGenre,
	"商品名":           models.ColProductName,
	"productname":   models.ColProductName,
	"product_name":  models.ColProductName,
	"name":          models.ColProductName,
	"カラー":           models.ColColor,
	"色":             models.ColColor,
	"color":         models.ColColor,
	"サイズ":           models.ColSize,
	"size":          models.ColSize,
	"sizes":         models.ColSize,
}

// Canonical maps a header cell to its canonical column name; unknown
// headers are returned trimmed.
func Canonical(h string) string {
	h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	if c, ok := headerAliases[strings.ToLower(h)]; ok {
		return c
	}
	return h
}

// ReadFile parses r according to the extension of name.
func ReadFile(name string, r io.Reader) (Sheet, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return ReadCSV(r)
	case ".xlsx", ".xlsm":
		return ReadXLSX(r)
	}
	return Sheet{}, fmt.Errorf("%w: %s", ErrUnsupportedFile, name)
}

// ReadCSV parses a UTF-8 CSV file, tolerating a byte-order mark and ragged rows.
func ReadCSV(r io.Reader) (Sheet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Sheet{}, err
	}
	cr := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\ufeff"))))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	records, err := cr.ReadAll()
	if err != nil {
		return Sheet{}, fmt.Errorf("parse csv: %w", err)
	}
	return toSheet(records), nil
}

// ReadXLSX parses the first worksheet of a workbook.
func ReadXLSX(r io.Reader) (Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Sheet{}, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return Sheet{}, fmt.Errorf("read xlsx: %w", err)
	}
	return toSheet(rows), nil
}

func toSheet(records [][]string) Sheet {
	var s Sheet
	for i, rec := range records {
		if i == 0 {
			s.Header = make([]string, len(rec))
			for j, h := range rec {
				s.Header[j] = Canonical(h)
			}
			continue
		}
		if blank(rec) {
			continue
		}
		s.Rows = append(s.Rows, rec)
	}
	return s
}

func (s Sheet) cell(row []string, col string) string {
	for i, h := range s.Header {
		if h == col && i < len(row) {
			return strings.TrimSpace(row[i])
		}
	}
	return ""
}

// ImportRows maps the sheet onto product listings. The sheet must carry
// management id and size columns.
func (s Sheet) ImportRows() ([]models.ImportRow, error) {
	if err := s.require(models.ColManagementID, models.ColSize); err != nil {
		return nil, err
	}
	out := make([]models.ImportRow, 0, len(s.Rows))
	for _, row := range s.Rows {
		out = append(out, models.ImportRow{
			ManagementID: s.cell(row, models.ColManagementID),
			Brand:        s.cell(row, models.ColBrand),
			Genre:        s.cell(row, models.ColGenre),
			ProductName:  s.cell(row, models.ColProductName),
			Color:        s.cell(row, models.ColColor),
			Sizes:        s.cell(row, models.ColSize),
		})
	}
	return out, nil
}

// ReferenceStandards maps the sheet onto reference standards: every column
// besides management id and size is a measurement field.
func (s Sheet) ReferenceStandards() ([]models.ReferenceStandard, error) {
	if err := s.require(models.ColManagementID, models.ColSize); err != nil {
		return nil, err
	}
	out := make([]models.ReferenceStandard, 0, len(s.Rows))
	for _, row := range s.Rows {
		ref := models.ReferenceStandard{
			ManagementID: s.cell(row, models.ColManagementID),
			Size:         s.cell(row, models.ColSize),
		}
		for i, h := range s.Header {
			if h == "" || h == models.ColManagementID || h == models.ColSize {
				continue
			}
			v := ""
			if i < len(row) {
				v = strings.TrimSpace(row[i])
			}
			ref.Fields = append(ref.Fields, models.FieldValue{Name: h, Value: v})
		}
		out = append(out, ref)
	}
	return out, nil
}

func (s Sheet) require(cols ...string) error {
	for _, c := range cols {
		found := false
		for _, h := range s.Header {
			if h == c {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}
	return nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
