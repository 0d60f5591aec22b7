// Package search filters and projects measurement history for display and
// export. It never writes.
package search

import (
	"context"
	"strings"

	"github.com/xelth-com/saisun/internal/models"
)

// History supplies the union of recent and archived records.
type History interface {
	History(ctx context.Context) ([]models.MeasurementRecord, error)
}

// IdealOrder supplies the canonical field order of a genre.
type IdealOrder interface {
	IdealOrder(genre string) []string
}

// Filters narrow a search. Empty filters match everything; set filters are
// combined with AND.
type Filters struct {
	Brands        []string `json:"brands,omitempty"`
	ManagementIDs []string `json:"managementIds,omitempty"`
	Sizes         []string `json:"sizes,omitempty"`
	Genre         string   `json:"genre,omitempty"`
	Keyword       string   `json:"keyword,omitempty"`
}

// Result is a projected table.
type Result struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Len returns the number of rows.
func (r Result) Len() int { return len(r.Rows) }

// displayIdentity are the leading columns of every result.
var displayIdentity = []string{
	models.ColDate, models.ColManagementID, models.ColBrand, models.ColGenre,
	models.ColProductName, models.ColColor, models.ColSize,
}

type Service struct {
	history History
	order   IdealOrder
}

func NewService(history History, order IdealOrder) *Service {
	return &Service{history: history, order: order}
}

// Search returns the matching records with identity columns first, then
// ideal-order fields of the genres present, then the rest in stored order.
// Columns blank in every returned row are dropped.
func (s *Service) Search(ctx context.Context, f Filters) (Result, error) {
	recs, err := s.history.History(ctx)
	if err != nil {
		return Result{}, err
	}
	matched := Filter(recs, f)
	return Project(matched, s.genreOrder(f, matched)), nil
}

func (s *Service) genreOrder(f Filters, recs []models.MeasurementRecord) []string {
	if s.order == nil {
		return nil
	}
	if g := strings.TrimSpace(f.Genre); g != "" {
		return s.order.IdealOrder(g)
	}
	var merged []string
	seenGenre := make(map[string]struct{})
	for _, r := range recs {
		if _, ok := seenGenre[r.Genre]; ok {
			continue
		}
		seenGenre[r.Genre] = struct{}{}
		merged = appendNew(merged, s.order.IdealOrder(r.Genre)...)
	}
	return merged
}

// Filter keeps the records matching every set filter, in input order.
func Filter(recs []models.MeasurementRecord, f Filters) []models.MeasurementRecord {
	brands, ids, sizes := toSet(f.Brands), toSet(f.ManagementIDs), toSet(f.Sizes)
	genre := strings.TrimSpace(f.Genre)
	keyword := strings.ToLower(strings.TrimSpace(f.Keyword))

	out := make([]models.MeasurementRecord, 0, len(recs))
	for _, r := range recs {
		if !inSet(brands, r.Brand) || !inSet(ids, r.ManagementID) || !inSet(sizes, r.Size) {
			continue
		}
		if genre != "" && strings.TrimSpace(r.Genre) != genre {
			continue
		}
		if keyword != "" && !strings.Contains(strings.ToLower(flatten(r)), keyword) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Project lays records out as rows under the display column order.
func Project(recs []models.MeasurementRecord, ideal []string) Result {
	var stored []string
	stored = appendNew(stored, models.IdentityHeader...)
	for _, r := range recs {
		stored = appendNew(stored, r.Fields.Names()...)
	}
	order := appendNew(nil, displayIdentity...)
	order = appendNew(order, ideal...)
	order = appendNew(order, stored...)

	var columns []string
	for _, c := range order {
		if !isStored(stored, c) {
			continue
		}
		for _, r := range recs {
			if strings.TrimSpace(r.Column(c)) != "" {
				columns = append(columns, c)
				break
			}
		}
	}

	res := Result{Columns: columns, Rows: make([][]string, 0, len(recs))}
	if res.Columns == nil {
		res.Columns = []string{}
	}
	for _, r := range recs {
		row := make([]string, len(columns))
		for i, c := range columns {
			row[i] = r.Column(c)
		}
		res.Rows = append(res.Rows, row)
	}
	return res
}

func flatten(r models.MeasurementRecord) string {
	parts := []string{r.Date, r.ManagementID, r.Brand, r.Genre, r.ProductName, r.Color, r.Size, r.Remark}
	for _, fv := range r.Fields {
		parts = append(parts, fv.Value)
	}
	return strings.Join(parts, " ")
}

func toSet(values []string) map[string]struct{} {
	var out map[string]struct{}
	for _, v := range values {
		if v = strings.TrimSpace(v); v == "" {
			continue
		}
		if out == nil {
			out = make(map[string]struct{})
		}
		out[v] = struct{}{}
	}
	return out
}

func inSet(set map[string]struct{}, v string) bool {
	if set == nil {
		return true
	}
	_, ok := set[strings.TrimSpace(v)]
	return ok
}

func appendNew(list []string, values ...string) []string {
	for _, v := range values {
		if v == "" || isStored(list, v) {
			continue
		}
		list = append(list, v)
	}
	return list
}

func isStored(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
