package export

import (
	"encoding/csv"
	"io"

	"github.com/xelth-com/saisun/internal/search"
)

// utf8BOM lets spreadsheet apps detect UTF-8 in Japanese headers.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes the header row then every result row.
func WriteCSV(w io.Writer, res search.Result) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(res.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(res.Rows); err != nil {
		return err
	}
	return cw.Error()
}
