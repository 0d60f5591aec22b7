// Package template resolves the ordered measurement fields of a genre.
package template

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/xelth-com/saisun/internal/logger"
	"github.com/xelth-com/saisun/internal/models"
	"github.com/xelth-com/saisun/internal/tabular"
)

// ErrTemplateNotFound is returned when no single rule matches a genre.
var ErrTemplateNotFound = errors.New("template not found")

// DefaultIdealOrder is the canonical field order per genre. Template fields
// listed here come first in this order; others follow as stored.
var DefaultIdealOrder = map[string][]string{
	"シャツ":   {"肩幅", "胸幅", "着丈", "袖丈", "裄丈", "襟高"},
	"Tシャツ":  {"肩幅", "胸幅", "着丈", "袖丈", "裄丈"},
	"カットソー": {"肩幅", "胸幅", "着丈", "袖丈", "裄丈"},
	"ニット":   {"肩幅", "胸幅", "着丈", "袖丈", "裄丈"},
	"ジャケット": {"肩幅", "胸幅", "着丈", "袖丈", "裄丈"},
	"コート":   {"肩幅", "胸幅", "着丈", "袖丈", "裄丈"},
	"パンツ":   {"ウエスト", "股上", "股下", "ワタリ", "裾幅", "総丈"},
	"スカート":  {"ウエスト", "ヒップ", "総丈"},
	"ワンピース": {"肩幅", "胸幅", "ウエスト", "着丈", "袖丈"},
}

var annotation = regexp.MustCompile(`（[^）]*）|\([^)]*\)`)

// ParseFields splits a stored field list on "," "、" or "，", strips
// parenthetical annotations and drops blanks and repeats.
func ParseFields(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '、' || r == '，'
	})
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		name := strings.TrimSpace(annotation.ReplaceAllString(p, ""))
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// ApplyOrder returns fields with those listed in ideal first, in ideal
// order, followed by the rest in their original relative order.
func ApplyOrder(fields, ideal []string) []string {
	present := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		present[f] = struct{}{}
	}
	out := make([]string, 0, len(fields))
	placed := make(map[string]struct{}, len(fields))
	for _, f := range ideal {
		if _, ok := present[f]; !ok {
			continue
		}
		if _, dup := placed[f]; dup {
			continue
		}
		placed[f] = struct{}{}
		out = append(out, f)
	}
	for _, f := range fields {
		if _, ok := placed[f]; ok {
			continue
		}
		placed[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// Resolver reads template rules from the template table.
type Resolver struct {
	tx    *tabular.Transactor
	table string
	ideal map[string][]string
	log   *logger.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithIdealOrder replaces the ideal-order table.
func WithIdealOrder(ideal map[string][]string) Option {
	return func(r *Resolver) { r.ideal = ideal }
}

func NewResolver(tx *tabular.Transactor, table string, log *logger.Logger, opts ...Option) *Resolver {
	r := &Resolver{tx: tx, table: table, ideal: DefaultIdealOrder, log: log}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Ensure creates the template table when absent.
func (r *Resolver) Ensure(ctx context.Context) error {
	return tabular.WriteError(r.table, "ensure", r.tx.Store().EnsureTable(ctx, r.table, models.TemplateHeader))
}

// Rules returns every stored rule with a non-blank genre.
func (r *Resolver) Rules(ctx context.Context) ([]models.TemplateRule, error) {
	tbl, err := r.tx.Read(ctx, r.table)
	if err != nil {
		return nil, err
	}
	out := make([]models.TemplateRule, 0, len(tbl.Rows))
	for _, row := range tbl.Rows {
		genre := strings.TrimSpace(row[models.ColGenre])
		if genre == "" {
			continue
		}
		out = append(out, models.TemplateRule{Genre: genre, RawFields: row[models.ColTemplateFields]})
	}
	return out, nil
}

// ResolveFields returns the ordered fields for genre. A missing genre or
// more than one rule for it yields ErrTemplateNotFound.
func (r *Resolver) ResolveFields(ctx context.Context, genre string) ([]string, error) {
	rules, err := r.Rules(ctx)
	if err != nil {
		return nil, err
	}
	genre = strings.TrimSpace(genre)
	var matched []models.TemplateRule
	for _, rule := range rules {
		if rule.Genre == genre {
			matched = append(matched, rule)
		}
	}
	switch len(matched) {
	case 0:
		return nil, fmt.Errorf("%w: genre %q", ErrTemplateNotFound, genre)
	case 1:
	default:
		r.log.Warn("ambiguous template", "table", r.table, "genre", genre, "rules", len(matched))
		return nil, fmt.Errorf("%w: genre %q has %d rules", ErrTemplateNotFound, genre, len(matched))
	}
	fields := ParseFields(matched[0].RawFields)
	return ApplyOrder(fields, r.ideal[genre]), nil
}

// IdealOrder returns the canonical field order for genre, or nil.
func (r *Resolver) IdealOrder(genre string) []string {
	return r.ideal[strings.TrimSpace(genre)]
}

// Upsert writes rules into the template table, replacing rows of the same
// genre. Used by seeding and admin tooling; the measurement flow never writes.
func (r *Resolver) Upsert(ctx context.Context, rules []models.TemplateRule) error {
	return r.tx.Update(ctx, r.table, func(tbl *tabular.Table) error {
		tbl.Header = tabular.MergeHeader(models.TemplateHeader, tbl.Header...)
		index := make(map[string]int, len(tbl.Rows))
		for i, row := range tbl.Rows {
			index[strings.TrimSpace(row[models.ColGenre])] = i
		}
		for _, rule := range rules {
			row := tabular.Row{models.ColGenre: rule.Genre, models.ColTemplateFields: rule.RawFields}
			if i, ok := index[rule.Genre]; ok {
				tbl.Rows[i] = row
				continue
			}
			index[rule.Genre] = len(tbl.Rows)
			tbl.Rows = append(tbl.Rows, row)
		}
		return nil
	})
}
