// Package tabular defines the sheet-like storage contract every component
// persists through: named tables made of a header row and string rows.
package tabular

import (
	"context"
	"errors"
	"fmt"
)

// Driver identifies a concrete tabular store implementation.
type Driver string

const (
	DriverMemory   Driver = "memory"   // in-memory only (tests / ephemeral)
	DriverSQLite   Driver = "sqlite"   // embedded sqlite file
	DriverPostgres Driver = "postgres" // PostgreSQL via gorm
	DriverSheets   Driver = "sheets"   // Google Sheets spreadsheet
)

// Row maps a header field name to its cell value.
type Row map[string]string

// Table is a header plus the rows in storage order.
type Table struct {
	Header []string
	Rows   []Row
}

// Store is the collaborator contract for spreadsheet-like storage.
// Implementations are not required to make OverwriteAll atomic; callers
// serialize read-modify-write cycles through a Transactor.
type Store interface {
	// EnsureTable creates the table with the given header if it does not exist.
	// An existing table with an empty header receives the header.
	EnsureTable(ctx context.Context, table string, header []string) error
	// ReadAll returns the header and every row in storage order.
	ReadAll(ctx context.Context, table string) (Table, error)
	// OverwriteAll replaces header and rows.
	OverwriteAll(ctx context.Context, table string, t Table) error
	// AppendRow appends one row. Every key of row must be in the header.
	AppendRow(ctx context.Context, table string, row Row) error
}

// Sentinel kinds for errors.Is checks.
var (
	ErrStoreRead  = errors.New("store read failure")
	ErrStoreWrite = errors.New("store write failure")
	// ErrTableNotFound is wrapped by drivers when ReadAll targets a missing table.
	ErrTableNotFound = errors.New("table not found")
)

// StoreError carries the failing table and operation.
type StoreError struct {
	Kind  error // ErrStoreRead or ErrStoreWrite
	Table string
	Op    string
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", e.Kind, e.Op, e.Table, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is matches the error kind as well as the wrapped cause.
func (e *StoreError) Is(target error) bool {
	return target == e.Kind
}

// ReadError wraps err as a read failure on table.
func ReadError(table, op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Kind: ErrStoreRead, Table: table, Op: op, Err: err}
}

// WriteError wraps err as a write failure on table.
func WriteError(table, op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Kind: ErrStoreWrite, Table: table, Op: op, Err: err}
}

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	out := Table{Header: append([]string(nil), t.Header...)}
	if t.Rows != nil {
		out.Rows = make([]Row, len(t.Rows))
		for i, r := range t.Rows {
			out.Rows[i] = r.Clone()
		}
	}
	return out
}

// Clone returns a copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Values returns the row cells in header order, blank for absent fields.
func (r Row) Values(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = r[h]
	}
	return out
}

// RowFromValues builds a row from positional cells. Missing trailing cells
// are blank; cells beyond the header are dropped.
func RowFromValues(header []string, values []string) Row {
	row := make(Row, len(header))
	for i, h := range header {
		if h == "" {
			continue
		}
		if i < len(values) {
			row[h] = values[i]
		} else {
			row[h] = ""
		}
	}
	return row
}

// MergeHeader appends to base every name of extra that base lacks, preserving order.
func MergeHeader(base []string, extra ...string) []string {
	out := append([]string(nil), base...)
	seen := make(map[string]struct{}, len(out))
	for _, h := range out {
		seen[h] = struct{}{}
	}
	for _, h := range extra {
		if h == "" {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out
}

// CheckRow reports the first column of row missing from header.
func CheckRow(header []string, row Row) error {
	known := make(map[string]struct{}, len(header))
	for _, h := range header {
		known[h] = struct{}{}
	}
	for k := range row {
		if _, ok := known[k]; !ok {
			return fmt.Errorf("column %q not in header", k)
		}
	}
	return nil
}
