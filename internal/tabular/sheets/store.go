// Package sheets implements the tabular store on a Google spreadsheet, one
// worksheet per table with the header in row 1.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/xelth-com/saisun/internal/tabular"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var _ tabular.Store = (*Store)(nil)

const valueInput = "RAW"

// Store talks to one spreadsheet.
type Store struct {
	svc           *sheets.Service
	spreadsheetID string
}

// ClientOptions turns a credentials setting into client options. Values
// starting with "{" are treated as inline service-account JSON, anything
// else as a file path.
func ClientOptions(credentials string) []option.ClientOption {
	creds := strings.TrimSpace(credentials)
	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	if creds == "" {
		return opts
	}
	if strings.HasPrefix(creds, "{") {
		return append(opts, option.WithCredentialsJSON([]byte(creds)))
	}
	return append(opts, option.WithCredentialsFile(creds))
}

// NewStore opens the spreadsheet service.
func NewStore(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*Store, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("SHEETS_SPREADSHEET_ID required for sheets driver")
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Store{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func (s *Store) EnsureTable(ctx context.Context, table string, header []string) error {
	titles, err := s.sheetTitles(ctx)
	if err != nil {
		return err
	}
	if _, ok := titles[table]; !ok {
		req := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: table}},
			}},
		}
		if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("add sheet %s: %w", table, err)
		}
	} else {
		current, err := s.ReadAll(ctx, table)
		if err != nil {
			return err
		}
		if len(current.Header) > 0 {
			return nil
		}
	}
	_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, quoteSheet(table)+"!A1",
		&sheets.ValueRange{Values: [][]interface{}{toCells(header)}}).
		ValueInputOption(valueInput).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header %s: %w", table, err)
	}
	return nil
}

func (s *Store) ReadAll(ctx context.Context, table string) (tabular.Table, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, quoteSheet(table)).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusBadRequest {
			return tabular.Table{}, fmt.Errorf("%w: %s: %v", tabular.ErrTableNotFound, table, err)
		}
		return tabular.Table{}, fmt.Errorf("get values %s: %w", table, err)
	}
	return tableFromValues(resp.Values), nil
}

// OverwriteAll clears the worksheet then writes header and rows. The two
// calls are not atomic; a failure in between leaves the sheet empty.
func (s *Store) OverwriteAll(ctx context.Context, table string, t tabular.Table) error {
	for _, r := range t.Rows {
		if err := tabular.CheckRow(t.Header, r); err != nil {
			return err
		}
	}
	rng := quoteSheet(table)
	if _, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, rng, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng+"!A1",
		&sheets.ValueRange{Values: valuesFromTable(t)}).
		ValueInputOption(valueInput).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	return nil
}

func (s *Store) AppendRow(ctx context.Context, table string, row tabular.Row) error {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, quoteSheet(table)+"!1:1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get header %s: %w", table, err)
	}
	header := tableFromValues(resp.Values).Header
	if err := tabular.CheckRow(header, row); err != nil {
		return err
	}
	_, err = s.svc.Spreadsheets.Values.Append(s.spreadsheetID, quoteSheet(table),
		&sheets.ValueRange{Values: [][]interface{}{toCells(row.Values(header))}}).
		ValueInputOption(valueInput).InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append %s: %w", table, err)
	}
	return nil
}

func (s *Store) sheetTitles(ctx context.Context) (map[string]struct{}, error) {
	ss, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get spreadsheet: %w", err)
	}
	out := make(map[string]struct{}, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			out[sh.Properties.Title] = struct{}{}
		}
	}
	return out, nil
}
