package odoo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/xelth-com/saisun/internal/config"
	"github.com/xelth-com/saisun/internal/logger"
	"github.com/xelth-com/saisun/internal/models"
)

// ErrNotConfigured is returned when no Odoo URL is set.
var ErrNotConfigured = errors.New("odoo import not configured")

const pageSize = 200

// FieldMap maps listing attributes to Odoo field names. Keys are
// managementId, brand, genre, productName, color and sizes.
type FieldMap map[string]string

// DefaultFieldMap matches a product.template with custom x_ fields.
func DefaultFieldMap() FieldMap {
	return FieldMap{
		"managementId": "default_code",
		"productName":  "name",
		"brand":        "x_brand",
		"genre":        "categ_id",
		"color":        "x_color",
		"sizes":        "x_sizes",
	}
}

// ParseFieldMap overlays "key=field" pairs separated by commas onto the defaults.
func ParseFieldMap(s string) (FieldMap, error) {
	m := DefaultFieldMap()
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || v == "" {
			return nil, fmt.Errorf("invalid field mapping %q", pair)
		}
		if _, known := m[k]; !known {
			return nil, fmt.Errorf("unknown listing attribute %q", k)
		}
		m[k] = v
	}
	return m, nil
}

// Fields returns the distinct Odoo fields to request, sorted.
func (m FieldMap) Fields() []string {
	seen := map[string]bool{}
	var out []string
	for _, f := range m {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}

// Row converts one search_read record into a listing row.
func (m FieldMap) Row(rec map[string]interface{}) models.ImportRow {
	get := func(key string) string { return strings.TrimSpace(value(rec[m[key]])) }
	return models.ImportRow{
		ManagementID: get("managementId"),
		Brand:        get("brand"),
		Genre:        get("genre"),
		ProductName:  get("productName"),
		Color:        get("color"),
		Sizes:        get("sizes"),
	}
}

// value renders an Odoo field value. Unset fields arrive as false and
// many2one fields as [id, display name].
func value(v interface{}) string {
	switch x := v.(type) {
	case nil, bool:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []interface{}:
		if len(x) == 2 {
			return value(x[1])
		}
		return ""
	}
	return fmt.Sprint(v)
}

// Source fetches listings from one Odoo model.
type Source struct {
	client *Client
	model  string
	fields FieldMap
	log    *logger.Logger
}

// NewSource builds a source from configuration.
func NewSource(cfg config.OdooConfig, log *logger.Logger) (*Source, error) {
	if cfg.URL == "" {
		return nil, ErrNotConfigured
	}
	fm, err := ParseFieldMap(cfg.FieldMap)
	if err != nil {
		return nil, err
	}
	model := cfg.Model
	if model == "" {
		model = "product.template"
	}
	return &Source{
		client: NewClient(cfg.URL, cfg.Database, cfg.Username, cfg.Password),
		model:  model,
		fields: fm,
		log:    log,
	}, nil
}

// Fetch authenticates and pages through every active record. Records
// without a management id are dropped.
func (s *Source) Fetch(ctx context.Context) ([]models.ImportRow, error) {
	if _, err := s.client.Authenticate(); err != nil {
		return nil, err
	}
	domain := []interface{}{[]interface{}{"active", "=", true}}
	var rows []models.ImportRow
	for offset := 0; ; offset += pageSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records, err := s.client.SearchRead(s.model, domain, s.fields.Fields(), pageSize, offset)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			row := s.fields.Row(rec)
			if row.ManagementID == "" {
				continue
			}
			rows = append(rows, row)
		}
		if len(records) < pageSize {
			break
		}
	}
	s.log.Info("odoo listings fetched", "model", s.model, "rows", len(rows))
	return rows, nil
}
