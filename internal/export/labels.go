package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"
	"github.com/xelth-com/saisun/internal/models"
)

// LabelConfig holds the tag sheet layout in millimetres.
type LabelConfig struct {
	Cols       int     `json:"cols"`
	Rows       int     `json:"rows"`
	MarginTop  float64 `json:"marginTop"`
	MarginLeft float64 `json:"marginLeft"`
	GapX       float64 `json:"gapX"`
	GapY       float64 `json:"gapY"`
	FontPath   string  `json:"-"`
}

// DefaultLabelConfig fits 4x10 tags on an A4 sheet.
func DefaultLabelConfig() LabelConfig {
	return LabelConfig{Cols: 4, Rows: 10, MarginTop: 10, MarginLeft: 8, GapX: 2, GapY: 0}
}

// LabelContent is the QR payload of a catalog entry.
func LabelContent(e models.CatalogEntry) string {
	return e.ManagementID + "|" + e.Size
}

// WriteLabelsPDF draws one QR tag per entry.
func WriteLabelsPDF(w io.Writer, entries []models.CatalogEntry, cfg LabelConfig) error {
	if cfg.Cols <= 0 || cfg.Rows <= 0 {
		def := DefaultLabelConfig()
		def.FontPath = cfg.FontPath
		cfg = def
	}
	pdf := newPDF("P", cfg.FontPath)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)

	pageWidth, pageHeight := pdf.GetPageSize()
	totalGapX := float64(cfg.Cols-1) * cfg.GapX
	totalGapY := float64(cfg.Rows-1) * cfg.GapY
	availW := pageWidth - (cfg.MarginLeft * 2)
	availH := pageHeight - (cfg.MarginTop * 2)
	labelW := (availW - totalGapX) / float64(cfg.Cols)
	labelH := (availH - totalGapY) / float64(cfg.Rows)

	labelsPerPage := cfg.Cols * cfg.Rows
	if len(entries) == 0 {
		pdf.AddPage()
	}

	for i, e := range entries {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}
		indexOnPage := i % labelsPerPage
		col := indexOnPage % cfg.Cols
		row := indexOnPage / cfg.Cols
		x := cfg.MarginLeft + float64(col)*(labelW+cfg.GapX)
		y := cfg.MarginTop + float64(row)*(labelH+cfg.GapY)

		qrPng, err := qrcode.Encode(LabelContent(e), qrcode.Medium, 256)
		if err != nil {
			return fmt.Errorf("encode tag %s: %w", LabelContent(e), err)
		}
		imgName := fmt.Sprintf("qr_%d", i)
		imgOptions := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
		pdf.RegisterImageOptionsReader(imgName, imgOptions, bytes.NewReader(qrPng))

		// QR on the left, text on the right
		qrSize := labelH * 0.85
		if qrSize > labelW/2 {
			qrSize = labelW / 2
		}
		pdf.ImageOptions(imgName, x+1, y+(labelH-qrSize)/2, qrSize, qrSize, false, imgOptions, 0, "")

		textX := x + qrSize + 2
		textW := labelW - qrSize - 3
		pdf.SetXY(textX, y+3)
		pdf.SetFontSize(9)
		pdf.CellFormat(textW, 5, e.ManagementID, "", 2, "L", false, 0, "")
		pdf.SetFontSize(8)
		pdf.CellFormat(textW, 4, "Size: "+e.Size, "", 2, "L", false, 0, "")
		pdf.SetFontSize(6)
		pdf.CellFormat(textW, 3, e.Brand, "", 2, "L", false, 0, "")
	}
	return pdf.Output(w)
}
