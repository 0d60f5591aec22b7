package catalog

import (
	"strings"

	"github.com/xelth-com/saisun/internal/models"
)

// SplitSizes splits a size list on "," "、" or "，" into trimmed, non-blank tokens.
func SplitSizes(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '、' || r == '，'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Expand explodes each import row into one catalog entry per size token.
// Rows without a management id or any size are dropped.
func Expand(rows []models.ImportRow) []models.CatalogEntry {
	var out []models.CatalogEntry
	for _, r := range rows {
		id := strings.TrimSpace(r.ManagementID)
		if id == "" {
			continue
		}
		for _, size := range SplitSizes(r.Sizes) {
			out = append(out, models.CatalogEntry{
				ManagementID: id,
				Brand:        strings.TrimSpace(r.Brand),
				Genre:        strings.TrimSpace(r.Genre),
				ProductName:  strings.TrimSpace(r.ProductName),
				Color:        strings.TrimSpace(r.Color),
				Size:         size,
			})
		}
	}
	return out
}
