// Package matcher suggests a previous measurement to pre-fill the form for
// a similar garment.
package matcher

import (
	"regexp"
	"sort"
	"strings"

	"github.com/xelth-com/saisun/internal/models"
	"golang.org/x/text/width"
)

var token = regexp.MustCompile(`[A-Z0-9]{3,}`)

// Candidate is the product being measured.
type Candidate struct {
	ManagementID string
	ProductName  string
	Size         string
}

// Options tunes matching.
type Options struct {
	// ExcludeSelf skips history records of the candidate's own management id.
	ExcludeSelf bool
}

// Keywords returns the uppercase alphanumeric tokens of at least three
// characters in name. Full-width characters are folded first and matching
// is case-insensitive.
func Keywords(name string) map[string]struct{} {
	folded := strings.ToUpper(width.Fold.String(name))
	out := make(map[string]struct{})
	for _, t := range token.FindAllString(folded, -1) {
		out[t] = struct{}{}
	}
	return out
}

// Score counts keywords shared by two keyword sets.
func Score(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

type scored struct {
	rec   models.MeasurementRecord
	score int
}

// FindDefault returns the history record of the same size sharing the most
// keywords with the candidate. Ties keep history order. It reports false
// when no record shares any keyword.
func FindDefault(c Candidate, history []models.MeasurementRecord, opts Options) (models.MeasurementRecord, bool) {
	keys := Keywords(c.ProductName)
	if len(keys) == 0 {
		return models.MeasurementRecord{}, false
	}
	size := strings.TrimSpace(c.Size)
	self := strings.TrimSpace(c.ManagementID)

	var matches []scored
	for _, rec := range history {
		if strings.TrimSpace(rec.Size) != size {
			continue
		}
		if opts.ExcludeSelf && strings.TrimSpace(rec.ManagementID) == self {
			continue
		}
		if s := Score(keys, Keywords(rec.ProductName)); s > 0 {
			matches = append(matches, scored{rec: rec, score: s})
		}
	}
	if len(matches) == 0 {
		return models.MeasurementRecord{}, false
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })
	return matches[0].rec, true
}

// Hints maps each of fields to the value recorded in rec, skipping blanks.
func Hints(rec models.MeasurementRecord, fields []string) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		if v, ok := rec.Fields.Get(f); ok && strings.TrimSpace(v) != "" {
			out[f] = v
		}
	}
	return out
}
