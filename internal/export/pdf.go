package export

import (
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xelth-com/saisun/internal/search"
)

// PDFOptions controls PDF table output.
type PDFOptions struct {
	Title    string
	FontPath string
}

const (
	pdfFamily = "body"
	pdfMargin = 10.0
	pdfRowH   = 6.0
)

// newPDF creates a document with the body font registered.
func newPDF(orientation, fontPath string) *gofpdf.Fpdf {
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	if fontPath != "" {
		pdf.AddUTF8Font(pdfFamily, "", fontPath)
		pdf.SetFont(pdfFamily, "", 9)
	} else {
		pdf.SetFont("Arial", "", 9)
	}
	return pdf
}

// WritePDF renders the result as a landscape table, repeating the header
// on every page.
func WritePDF(w io.Writer, res search.Result, opts PDFOptions) error {
	pdf := newPDF("L", opts.FontPath)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)

	pageW, pageH := pdf.GetPageSize()
	colW := 0.0
	if len(res.Columns) > 0 {
		colW = (pageW - 2*pdfMargin) / float64(len(res.Columns))
	}

	header := func() {
		pdf.SetFillColor(221, 235, 247)
		for _, c := range res.Columns {
			pdf.CellFormat(colW, pdfRowH, c, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.AddPage()
	title := opts.Title
	if title == "" {
		title = "Measurements " + time.Now().Format("2006-01-02")
	}
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	header()
	for _, row := range res.Rows {
		if pdf.GetY()+pdfRowH > pageH-pdfMargin {
			pdf.AddPage()
			header()
		}
		for _, v := range row {
			pdf.CellFormat(colW, pdfRowH, v, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	return pdf.Output(w)
}
