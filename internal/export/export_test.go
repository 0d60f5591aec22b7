package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/xelth-com/saisun/internal/models"
	"github.com/xelth-com/saisun/internal/search"
	"github.com/xuri/excelize/v2"
)

var result = search.Result{
	Columns: []string{"日付", "管理番号", "サイズ", "肩幅", "着丈"},
	Rows: [][]string{
		{"2024-05-01", "00123", "S", "45", ""},
		{"2024-05-02", "A1", "M", "47.5", "72"},
	},
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatXLSX, false},
		{"CSV", FormatCSV, false},
		{" pdf ", FormatPDF, false},
		{"docx", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
	if FormatXLSX.Extension() != ".xlsx" || !strings.HasPrefix(FormatCSV.ContentType(), "text/csv") {
		t.Error("format metadata mismatch")
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, result); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), utf8BOM) {
		t.Error("missing BOM")
	}
	records, err := csv.NewReader(bytes.NewReader(buf.Bytes()[len(utf8BOM):])).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 || records[0][3] != "肩幅" || records[2][4] != "72" {
		t.Errorf("records = %v", records)
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, result, ""); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows(defaultSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %v", rows)
	}
	if rows[0][1] != "管理番号" || rows[1][1] != "00123" || rows[2][3] != "47.5" {
		t.Errorf("rows = %v", rows)
	}
}

func TestCellValue(t *testing.T) {
	if v, ok := cellValue("管理番号", "00123").(string); !ok || v != "00123" {
		t.Error("identity columns must stay text")
	}
	if v, ok := cellValue("肩幅", "45.5").(float64); !ok || v != 45.5 {
		t.Error("decimal measurements should be numeric")
	}
	if _, ok := cellValue("肩幅", "").(string); !ok {
		t.Error("blank stays text")
	}
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	long := search.Result{Columns: []string{"a", "b"}}
	for i := 0; i < 80; i++ {
		long.Rows = append(long.Rows, []string{"x", "y"})
	}
	if err := WritePDF(&buf, long, PDFOptions{Title: "test"}); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Error("output is not a PDF")
	}
}

func TestRenderDispatch(t *testing.T) {
	r := Renderer{}
	for _, f := range []Format{FormatCSV, FormatXLSX, FormatPDF} {
		var buf bytes.Buffer
		if err := r.Render(&buf, f, search.Result{Columns: []string{"a"}, Rows: [][]string{{"1"}}}); err != nil {
			t.Errorf("%s: %v", f, err)
		}
		if buf.Len() == 0 {
			t.Errorf("%s: empty output", f)
		}
	}
	if err := r.Render(&bytes.Buffer{}, Format("doc"), search.Result{}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestWriteLabelsPDF(t *testing.T) {
	entries := make([]models.CatalogEntry, 45)
	for i := range entries {
		entries[i] = models.CatalogEntry{ManagementID: "A1", Size: "M", Brand: "Acme"}
	}
	var buf bytes.Buffer
	if err := WriteLabelsPDF(&buf, entries, LabelConfig{}); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Error("output is not a PDF")
	}
	if got := LabelContent(entries[0]); got != "A1|M" {
		t.Errorf("LabelContent = %q", got)
	}
}
