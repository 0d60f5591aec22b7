package archiver

import (
	"context"
	"testing"
	"time"

	"github.com/xelth-com/saisun/internal/logger"
	"github.com/xelth-com/saisun/internal/measurement"
	"github.com/xelth-com/saisun/internal/models"
	"github.com/xelth-com/saisun/internal/tabular"
	"github.com/xelth-com/saisun/internal/tabular/memory"
)

var (
	tokyo, _ = time.LoadLocation("Asia/Tokyo")
	now      = time.Date(2024, 6, 30, 23, 30, 0, 0, tokyo)
)

func newArchiver(t *testing.T, dates ...string) (*Archiver, *measurement.Store) {
	t.Helper()
	ctx := context.Background()
	store := measurement.NewStore(tabular.NewTransactor(memory.NewStore(), nil), "recent", "archive", logger.Nop())
	if err := store.Ensure(ctx); err != nil {
		t.Fatal(err)
	}
	for i, d := range dates {
		rec := models.MeasurementRecord{
			Identity: models.Identity{Date: d, ManagementID: d, Size: "M"},
			Fields:   models.Fields{{Name: "肩幅", Value: string(rune('0' + i))}},
		}
		if err := store.Append(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}
	a := New(store, logger.Nop(), WithLocation(tokyo), WithClock(func() time.Time { return now }))
	return a, store
}

func ids(recs []models.MeasurementRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ManagementID
	}
	return out
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		raw string
		ok  bool
		day int
	}{
		{"2024-05-01", true, 1},
		{"2024/05/02", true, 2},
		{"2024.05.03", true, 3},
		{"2024-5-4", true, 4},
		{"2024-05-05 10:30:00", true, 5},
		{"N/A", false, 0},
		{"", false, 0},
		{"05/01/2024", false, 0},
	}
	for _, tt := range tests {
		got, ok := ParseDate(tt.raw, tokyo)
		if ok != tt.ok {
			t.Errorf("ParseDate(%q) ok = %v, want %v", tt.raw, ok, tt.ok)
			continue
		}
		if ok && (got.Day() != tt.day || got.Month() != time.May || got.Year() != 2024) {
			t.Errorf("ParseDate(%q) = %v", tt.raw, got)
		}
	}
}

func TestArchiveOlderThan(t *testing.T) {
	ctx := context.Background()
	// now is 2024-06-30 in Tokyo: cutoff for 30 days is 2024-05-31.
	a, store := newArchiver(t, "2024-05-30", "2024/05/31", "2024.06.29", "N/A", "2020-01-01")

	moved, err := a.ArchiveOlderThan(ctx, 30)
	if err != nil {
		t.Fatal(err)
	}
	if moved != 2 {
		t.Errorf("moved = %d, want 2", moved)
	}
	recent, _ := store.Recent(ctx)
	archived, _ := store.Archived(ctx)
	if got := ids(recent); len(got) != 3 || got[0] != "2024/05/31" || got[2] != "N/A" {
		t.Errorf("recent = %v", got)
	}
	if got := ids(archived); len(got) != 2 || got[0] != "2024-05-30" || got[1] != "2020-01-01" {
		t.Errorf("archived = %v", got)
	}
	if v, _ := archived[0].Fields.Get("肩幅"); v != "0" {
		t.Errorf("archived field = %q", v)
	}
}

func TestArchiveIdempotent(t *testing.T) {
	ctx := context.Background()
	a, store := newArchiver(t, "2024-01-01", "2024-06-15")
	if _, err := a.ArchiveOlderThan(ctx, 30); err != nil {
		t.Fatal(err)
	}
	firstRecent, _ := store.Recent(ctx)
	firstArchived, _ := store.Archived(ctx)

	moved, err := a.ArchiveOlderThan(ctx, 30)
	if err != nil {
		t.Fatal(err)
	}
	if moved != 0 {
		t.Errorf("second run moved %d rows", moved)
	}
	recent, _ := store.Recent(ctx)
	archived, _ := store.Archived(ctx)
	if len(recent) != len(firstRecent) || len(archived) != len(firstArchived) {
		t.Errorf("partition split changed: %v/%v", ids(recent), ids(archived))
	}
}

func TestUnparseableDateNeverArchived(t *testing.T) {
	ctx := context.Background()
	a, store := newArchiver(t, "N/A", "昨日")
	if _, err := a.ArchiveOlderThan(ctx, 0); err != nil {
		t.Fatal(err)
	}
	recent, _ := store.Recent(ctx)
	if len(recent) != 2 {
		t.Errorf("recent = %v", ids(recent))
	}
}

func TestArchiveStoreFailure(t *testing.T) {
	store := measurement.NewStore(tabular.NewTransactor(memory.NewStore(), nil), "recent", "archive", logger.Nop())
	a := New(store, logger.Nop())
	if _, err := a.ArchiveOlderThan(context.Background(), 30); err == nil {
		t.Error("expected error for missing tables")
	}
}

func TestSchedulerRunsOnStartup(t *testing.T) {
	a, store := newArchiver(t, "2024-01-01")
	done := make(chan int, 1)
	s := NewScheduler(a, 30, 0, true, func(moved int) { done <- moved })
	s.Start(context.Background())
	select {
	case moved := <-done:
		if moved != 1 {
			t.Errorf("moved = %d", moved)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("startup run did not happen")
	}
	s.Stop()
	archived, _ := store.Archived(context.Background())
	if len(archived) != 1 {
		t.Errorf("archived = %v", ids(archived))
	}
}

func TestSchedulerDisabled(t *testing.T) {
	a, _ := newArchiver(t)
	s := NewScheduler(a, 30, 0, false, nil)
	s.Start(context.Background())
	s.Stop()
}

func TestSchedulerSkipsCallbackWhenNothingMoved(t *testing.T) {
	a, _ := newArchiver(t, "2024-06-29")
	calls := 0
	s := NewScheduler(a, 30, 0, true, func(int) { calls++ })
	s.Start(context.Background())
	s.Stop()
	if calls != 0 {
		t.Errorf("callback ran %d times for an empty run", calls)
	}
}
