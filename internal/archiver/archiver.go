// Package archiver moves aged measurement records from the recent
// partition into the archive partition.
package archiver

import (
	"context"
	"strings"
	"time"

	"github.com/xelth-com/saisun/internal/logger"
	"github.com/xelth-com/saisun/internal/measurement"
	"github.com/xelth-com/saisun/internal/models"
)

// DefaultRetentionDays is how long records stay in the recent partition.
const DefaultRetentionDays = 30

var dateLayouts = []string{"2006-1-2", "2006/1/2", "2006.1.2"}

// ParseDate reads a record date written as YYYY-MM-DD, YYYY/MM/DD or
// YYYY.MM.DD. A trailing time of day is ignored.
func ParseDate(raw string, loc *time.Location) (time.Time, bool) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, fields[0], loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Archiver relocates records older than a retention window.
type Archiver struct {
	store *measurement.Store
	loc   *time.Location
	now   func() time.Time
	log   *logger.Logger
}

// Option configures an Archiver.
type Option func(*Archiver)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Archiver) { a.now = now }
}

// WithLocation sets the zone record dates are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(a *Archiver) { a.loc = loc }
}

func New(store *measurement.Store, log *logger.Logger, opts ...Option) *Archiver {
	a := &Archiver{store: store, loc: time.Local, now: time.Now, log: log}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Cutoff returns the first calendar day that is still recent for days.
func (a *Archiver) Cutoff(days int) time.Time {
	now := a.now().In(a.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, a.loc)
	return today.AddDate(0, 0, -days)
}

// ArchiveOlderThan moves every recent record dated before today minus days.
// Records whose date cannot be parsed stay recent. Running it again with
// the same clock moves nothing.
func (a *Archiver) ArchiveOlderThan(ctx context.Context, days int) (int, error) {
	if days < 0 {
		days = 0
	}
	cutoff := a.Cutoff(days)
	unparsed := 0
	moved, err := a.store.MoveToArchive(ctx, func(rec models.MeasurementRecord) bool {
		d, ok := ParseDate(rec.Date, a.loc)
		if !ok {
			unparsed++
			return false
		}
		return d.Before(cutoff)
	})
	if err != nil {
		a.log.Error("archive run failed", "days", days, "error", err)
		return 0, err
	}
	a.log.Info("archive run finished", "days", days, "cutoff", cutoff.Format(models.DateLayout),
		"moved", moved, "unparsedDates", unparsed)
	return moved, nil
}
