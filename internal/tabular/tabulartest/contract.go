// Package tabulartest holds the behavioural contract every tabular driver
// must satisfy. Driver packages call Run from their own tests.
package tabulartest

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/xelth-com/saisun/internal/tabular"
)

// Run exercises store against the shared contract. newStore must return a
// fresh, empty store on each call.
func Run(t *testing.T, newStore func(t *testing.T) tabular.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("EnsureTableCreatesHeader", func(t *testing.T) {
		s := newStore(t)
		if err := s.EnsureTable(ctx, "在庫", []string{"管理番号", "サイズ"}); err != nil {
			t.Fatalf("EnsureTable: %v", err)
		}
		tbl, err := s.ReadAll(ctx, "在庫")
		if err != nil {
			t.Fatalf("ReadAll: %v", err)
		}
		if !reflect.DeepEqual(tbl.Header, []string{"管理番号", "サイズ"}) {
			t.Errorf("header = %v", tbl.Header)
		}
		if len(tbl.Rows) != 0 {
			t.Errorf("expected no rows, got %d", len(tbl.Rows))
		}
	})

	t.Run("EnsureTableKeepsExisting", func(t *testing.T) {
		s := newStore(t)
		mustEnsure(t, s, "t", []string{"a", "b"})
		if err := s.AppendRow(ctx, "t", tabular.Row{"a": "1", "b": "2"}); err != nil {
			t.Fatalf("AppendRow: %v", err)
		}
		mustEnsure(t, s, "t", []string{"x"})
		tbl, err := s.ReadAll(ctx, "t")
		if err != nil {
			t.Fatalf("ReadAll: %v", err)
		}
		if !reflect.DeepEqual(tbl.Header, []string{"a", "b"}) {
			t.Errorf("header replaced: %v", tbl.Header)
		}
		if len(tbl.Rows) != 1 {
			t.Errorf("rows lost: %d", len(tbl.Rows))
		}
	})

	t.Run("AppendPreservesOrderAndBlanks", func(t *testing.T) {
		s := newStore(t)
		mustEnsure(t, s, "t", []string{"a", "b"})
		for _, r := range []tabular.Row{{"a": "1"}, {"a": "2", "b": "x"}, {"b": "y"}} {
			if err := s.AppendRow(ctx, "t", r); err != nil {
				t.Fatalf("AppendRow: %v", err)
			}
		}
		tbl, err := s.ReadAll(ctx, "t")
		if err != nil {
			t.Fatalf("ReadAll: %v", err)
		}
		want := []tabular.Row{{"a": "1", "b": ""}, {"a": "2", "b": "x"}, {"a": "", "b": "y"}}
		if !reflect.DeepEqual(tbl.Rows, want) {
			t.Errorf("rows = %v, want %v", tbl.Rows, want)
		}
	})

	t.Run("AppendRejectsUnknownColumn", func(t *testing.T) {
		s := newStore(t)
		mustEnsure(t, s, "t", []string{"a"})
		if err := s.AppendRow(ctx, "t", tabular.Row{"z": "1"}); err == nil {
			t.Fatal("expected error for column outside header")
		}
	})

	t.Run("OverwriteReplacesHeaderAndRows", func(t *testing.T) {
		s := newStore(t)
		mustEnsure(t, s, "t", []string{"a"})
		if err := s.AppendRow(ctx, "t", tabular.Row{"a": "old"}); err != nil {
			t.Fatalf("AppendRow: %v", err)
		}
		next := tabular.Table{
			Header: []string{"a", "b"},
			Rows:   []tabular.Row{{"a": "1", "b": "2"}, {"a": "3", "b": ""}},
		}
		if err := s.OverwriteAll(ctx, "t", next); err != nil {
			t.Fatalf("OverwriteAll: %v", err)
		}
		tbl, err := s.ReadAll(ctx, "t")
		if err != nil {
			t.Fatalf("ReadAll: %v", err)
		}
		if !reflect.DeepEqual(tbl.Header, next.Header) {
			t.Errorf("header = %v", tbl.Header)
		}
		if !reflect.DeepEqual(tbl.Rows, next.Rows) {
			t.Errorf("rows = %v", tbl.Rows)
		}
	})

	t.Run("OverwriteWithNoRows", func(t *testing.T) {
		s := newStore(t)
		mustEnsure(t, s, "t", []string{"a"})
		if err := s.AppendRow(ctx, "t", tabular.Row{"a": "1"}); err != nil {
			t.Fatalf("AppendRow: %v", err)
		}
		if err := s.OverwriteAll(ctx, "t", tabular.Table{Header: []string{"a"}}); err != nil {
			t.Fatalf("OverwriteAll: %v", err)
		}
		tbl, err := s.ReadAll(ctx, "t")
		if err != nil {
			t.Fatalf("ReadAll: %v", err)
		}
		if len(tbl.Rows) != 0 || !reflect.DeepEqual(tbl.Header, []string{"a"}) {
			t.Errorf("unexpected table %+v", tbl)
		}
	})

	t.Run("ReadMissingTable", func(t *testing.T) {
		s := newStore(t)
		_, err := s.ReadAll(ctx, "missing")
		if err == nil {
			t.Fatal("expected error for missing table")
		}
		if !errors.Is(err, tabular.ErrTableNotFound) {
			t.Errorf("error %v does not wrap ErrTableNotFound", err)
		}
	})

	t.Run("ReadReturnsCopy", func(t *testing.T) {
		s := newStore(t)
		mustEnsure(t, s, "t", []string{"a"})
		if err := s.AppendRow(ctx, "t", tabular.Row{"a": "1"}); err != nil {
			t.Fatalf("AppendRow: %v", err)
		}
		tbl, _ := s.ReadAll(ctx, "t")
		tbl.Rows[0]["a"] = "mutated"
		again, _ := s.ReadAll(ctx, "t")
		if again.Rows[0]["a"] != "1" {
			t.Errorf("store shares row memory with caller")
		}
	})
}

func mustEnsure(t *testing.T, s tabular.Store, table string, header []string) {
	t.Helper()
	if err := s.EnsureTable(context.Background(), table, header); err != nil {
		t.Fatalf("EnsureTable %s: %v", table, err)
	}
}
