// Package export renders search results and catalog tags as files.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xelth-com/saisun/internal/search"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ParseFormat accepts csv, xlsx or pdf in any case; empty means xlsx.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatXLSX, nil
	case FormatCSV, FormatXLSX, FormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

func (f Format) Extension() string { return "." + string(f) }

// Renderer writes a search result in a chosen format.
type Renderer struct {
	// FontPath is a TTF used for PDF text; without it PDFs fall back to a
	// core font that cannot draw Japanese.
	FontPath  string
	SheetName string
	Title     string
}

func (r Renderer) Render(w io.Writer, f Format, res search.Result) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, res)
	case FormatXLSX:
		return WriteXLSX(w, res, r.SheetName)
	case FormatPDF:
		return WritePDF(w, res, PDFOptions{Title: r.Title, FontPath: r.FontPath})
	}
	return fmt.Errorf("unsupported export format %q", f)
}
