package sheets

import (
	"fmt"
	"strings"

	"github.com/xelth-com/saisun/internal/tabular"
)

// quoteSheet renders a worksheet title as an A1 range prefix.
func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// tableFromValues converts the API's ragged value grid. The API trims
// trailing empty cells, so short rows are padded with blanks; fully empty
// rows are skipped.
func tableFromValues(values [][]interface{}) tabular.Table {
	out := tabular.Table{Rows: []tabular.Row{}}
	if len(values) == 0 {
		return out
	}
	out.Header = make([]string, 0, len(values[0]))
	for _, c := range values[0] {
		out.Header = append(out.Header, strings.TrimSpace(cellString(c)))
	}
	for _, raw := range values[1:] {
		cells := make([]string, len(raw))
		empty := true
		for i, c := range raw {
			cells[i] = cellString(c)
			if cells[i] != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		out.Rows = append(out.Rows, tabular.RowFromValues(out.Header, cells))
	}
	return out
}

func valuesFromTable(t tabular.Table) [][]interface{} {
	out := make([][]interface{}, 0, len(t.Rows)+1)
	out = append(out, toCells(t.Header))
	for _, r := range t.Rows {
		out = append(out, toCells(r.Values(t.Header)))
	}
	return out
}

func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func cellString(c interface{}) string {
	switch v := c.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
