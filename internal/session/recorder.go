// Package session drives one measurement entry from product selection to
// the committed record.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xelth-com/saisun/internal/catalog"
	"github.com/xelth-com/saisun/internal/logger"
	"github.com/xelth-com/saisun/internal/matcher"
	"github.com/xelth-com/saisun/internal/measurement"
	"github.com/xelth-com/saisun/internal/models"
	"github.com/xelth-com/saisun/internal/reference"
	"github.com/xelth-com/saisun/internal/template"
	"github.com/xelth-com/saisun/internal/utils"
)

// Recorder holds the stores a session reads and writes. It is safe for
// concurrent use; sessions are not.
type Recorder struct {
	catalog      *catalog.Store
	templates    *template.Resolver
	measurements *measurement.Store
	reference    *reference.Store
	match        matcher.Options
	loc          *time.Location
	now          func() time.Time
	dedupe       *utils.Deduplicator
	log          *logger.Logger
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithReference shows reference standards next to each form.
func WithReference(ref *reference.Store) Option {
	return func(r *Recorder) { r.reference = ref }
}

// WithMatchOptions sets how default values are matched.
func WithMatchOptions(o matcher.Options) Option {
	return func(r *Recorder) { r.match = o }
}

// WithLocation sets the zone "today" is computed in.
func WithLocation(loc *time.Location) Option {
	return func(r *Recorder) { r.loc = loc }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

func NewRecorder(cat *catalog.Store, tmpl *template.Resolver, meas *measurement.Store, log *logger.Logger, opts ...Option) *Recorder {
	r := &Recorder{
		catalog:      cat,
		templates:    tmpl,
		measurements: meas,
		match:        matcher.Options{ExcludeSelf: true},
		loc:          time.Local,
		now:          time.Now,
		dedupe:       utils.NewDeduplicator(5 * time.Minute),
		log:          log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewSession starts a session in the Selecting state.
func (r *Recorder) NewSession() *Session {
	return &Session{rec: r, state: Selecting, inputs: make(map[string]Input), committed: make(map[string]bool)}
}

// Open runs the selection steps for managementID in one call: the brand is
// taken from the catalog and an empty sizes list selects every pending size.
// The returned session is in the Reviewing state.
func (r *Recorder) Open(ctx context.Context, managementID string, sizes []string) (*Session, []SizeForm, error) {
	entries, err := r.catalog.Entries(ctx, strings.TrimSpace(managementID))
	if err != nil {
		return nil, nil, err
	}
	if len(entries) == 0 {
		return nil, nil, fmt.Errorf("%w: management id %q", ErrUnknownSelection, managementID)
	}
	s := r.NewSession()
	if err := s.SelectBrand(ctx, entries[0].Brand); err != nil {
		return nil, nil, err
	}
	if err := s.SelectManagementID(ctx, entries[0].ManagementID); err != nil {
		return nil, nil, err
	}
	if _, err := s.SelectSizes(ctx, sizes...); err != nil {
		return nil, nil, err
	}
	forms, err := s.Review(ctx)
	if err != nil {
		return nil, nil, err
	}
	return s, forms, nil
}

func (r *Recorder) today() time.Time {
	loc := r.loc
	if loc == nil {
		loc = time.Local
	}
	return r.now().In(loc)
}

type pending struct {
	entry models.CatalogEntry
	input Input
}

// commit appends one record per non-blank size, then removes the committed
// sizes together with unremoved from the catalog. unremoved are keys written
// by an earlier commit whose catalog removal failed. Appends always precede
// the catalog rewrite.
func (r *Recorder) commit(ctx context.Context, fields []string, batch []pending, unremoved []models.EntryKey) (CommitResult, error) {
	day := r.today()
	var res CommitResult
	for _, p := range batch {
		rec := buildRecord(p, fields, day)
		if rec.Fields.AllBlank() {
			res.Skipped = append(res.Skipped, p.entry.Size)
			continue
		}
		if err := r.measurements.Append(ctx, rec); err != nil {
			cerr := &CommitError{Committed: res.Committed, Failed: p.entry.Size, Op: "append", Err: err}
			if keys := withUnremoved(unremoved, res.Committed); len(keys) > 0 {
				if n, rmErr := r.catalog.Remove(ctx, keys); rmErr != nil {
					cerr.Err = errors.Join(err, rmErr)
					cerr.Unremoved = keys
				} else {
					res.Removed = n
				}
			}
			r.log.Error("measurement commit failed", "managementId", p.entry.ManagementID,
				"size", p.entry.Size, "committed", len(res.Committed), "error", err)
			return res, cerr
		}
		res.Committed = append(res.Committed, p.entry.Key())
		res.Records = append(res.Records, rec)
	}
	keys := withUnremoved(unremoved, res.Committed)
	if len(keys) == 0 {
		return res, nil
	}
	n, err := r.catalog.Remove(ctx, keys)
	if err != nil {
		r.log.Error("catalog removal failed after commit", "committed", len(res.Committed),
			"unremoved", len(keys), "error", err)
		return res, &CommitError{Committed: res.Committed, Unremoved: keys, Op: "remove", Err: err}
	}
	res.Removed = n
	r.log.Info("measurements committed", "committed", len(res.Committed),
		"skipped", len(res.Skipped), "removed", n)
	return res, nil
}

func withUnremoved(unremoved, committed []models.EntryKey) []models.EntryKey {
	if len(unremoved) == 0 {
		return committed
	}
	return append(append([]models.EntryKey(nil), unremoved...), committed...)
}

func buildRecord(p pending, fields []string, day time.Time) models.MeasurementRecord {
	id := models.IdentityFromEntry(p.entry, day)
	id.Remark = strings.TrimSpace(p.input.Remark)
	rec := models.MeasurementRecord{Identity: id, Fields: make(models.Fields, 0, len(fields))}
	for _, f := range fields {
		rec.Fields = append(rec.Fields, models.FieldValue{Name: f, Value: strings.TrimSpace(p.input.Values[f])})
	}
	return rec
}
