package tabular_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/xelth-com/saisun/internal/tabular"
	"github.com/xelth-com/saisun/internal/tabular/memory"
)

type failingStore struct {
	tabular.Store
	failRead  bool
	failWrite bool
}

func (f *failingStore) ReadAll(ctx context.Context, table string) (tabular.Table, error) {
	if f.failRead {
		return tabular.Table{}, errors.New("network down")
	}
	return f.Store.ReadAll(ctx, table)
}

func (f *failingStore) OverwriteAll(ctx context.Context, table string, t tabular.Table) error {
	if f.failWrite {
		return errors.New("quota exceeded")
	}
	return f.Store.OverwriteAll(ctx, table, t)
}

func TestUpdateConcurrentNoLostUpdates(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	if err := store.EnsureTable(ctx, "counter", []string{"n"}); err != nil {
		t.Fatal(err)
	}
	tx := tabular.NewTransactor(store, nil)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := tx.Update(ctx, "counter", func(tbl *tabular.Table) error {
				tbl.Rows = append(tbl.Rows, tabular.Row{"n": fmt.Sprint(i)})
				return nil
			})
			if err != nil {
				t.Errorf("update %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	tbl, err := tx.Read(ctx, "counter")
	if err != nil {
		t.Fatal(err)
	}
	if len(tbl.Rows) != writers {
		t.Errorf("expected %d rows, got %d", writers, len(tbl.Rows))
	}
}

func TestUpdateAbortsOnCallbackError(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	_ = store.EnsureTable(ctx, "t", []string{"a"})
	_ = store.AppendRow(ctx, "t", tabular.Row{"a": "keep"})
	tx := tabular.NewTransactor(store, nil)

	boom := errors.New("boom")
	err := tx.Update(ctx, "t", func(tbl *tabular.Table) error {
		tbl.Rows = nil
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	tbl, _ := store.ReadAll(ctx, "t")
	if len(tbl.Rows) != 1 {
		t.Errorf("table modified despite abort: %+v", tbl)
	}
}

func TestUpdateReadFailureIsStoreRead(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{Store: memory.NewStore(), failRead: true}
	tx := tabular.NewTransactor(store, nil)
	err := tx.Update(ctx, "t", func(*tabular.Table) error { return nil })
	if !errors.Is(err, tabular.ErrStoreRead) {
		t.Fatalf("expected ErrStoreRead, got %v", err)
	}
	var se *tabular.StoreError
	if !errors.As(err, &se) || se.Table != "t" {
		t.Errorf("expected StoreError for table t, got %#v", err)
	}
}

func TestUpdateWriteFailureIsStoreWrite(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewStore()
	_ = mem.EnsureTable(ctx, "t", []string{"a"})
	tx := tabular.NewTransactor(&failingStore{Store: mem, failWrite: true}, nil)
	err := tx.Update(ctx, "t", func(*tabular.Table) error { return nil })
	if !errors.Is(err, tabular.ErrStoreWrite) {
		t.Fatalf("expected ErrStoreWrite, got %v", err)
	}
}

func TestUpdateManyWritesInGivenOrder(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	_ = store.EnsureTable(ctx, "b", []string{"x"})
	_ = store.EnsureTable(ctx, "a", []string{"x"})
	tx := tabular.NewTransactor(store, nil)

	err := tx.UpdateMany(ctx, []string{"b", "a", "b"}, func(tables map[string]*tabular.Table) error {
		tables["a"].Rows = append(tables["a"].Rows, tabular.Row{"x": "1"})
		tables["b"].Rows = append(tables["b"].Rows, tabular.Row{"x": "2"})
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateMany: %v", err)
	}
	a, _ := store.ReadAll(ctx, "a")
	b, _ := store.ReadAll(ctx, "b")
	if len(a.Rows) != 1 || len(b.Rows) != 1 {
		t.Errorf("unexpected rows a=%v b=%v", a.Rows, b.Rows)
	}
}

func TestAppendWithHeaderWidens(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	_ = store.EnsureTable(ctx, "m", []string{"日付", "管理番号"})
	_ = store.AppendRow(ctx, "m", tabular.Row{"日付": "2024-05-01", "管理番号": "A0"})
	tx := tabular.NewTransactor(store, nil)

	row := tabular.Row{"日付": "2024-05-02", "管理番号": "A1", "肩幅": "45"}
	if err := tx.AppendWithHeader(ctx, "m", row, []string{"日付", "管理番号", "肩幅"}); err != nil {
		t.Fatalf("AppendWithHeader: %v", err)
	}
	tbl, _ := store.ReadAll(ctx, "m")
	if len(tbl.Header) != 3 || tbl.Header[2] != "肩幅" {
		t.Fatalf("header not widened: %v", tbl.Header)
	}
	if tbl.Rows[0]["肩幅"] != "" || tbl.Rows[1]["肩幅"] != "45" {
		t.Errorf("rows = %v", tbl.Rows)
	}
}

func TestLocalLockerHonorsContext(t *testing.T) {
	l := tabular.NewLocalLocker()
	unlock, err := l.Lock(context.Background(), "t")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.Lock(ctx, "t"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	unlock()
	unlock()
	u2, err := l.Lock(context.Background(), "t")
	if err != nil {
		t.Fatalf("lock after release: %v", err)
	}
	u2()
}

func TestLocalLockerIndependentTables(t *testing.T) {
	l := tabular.NewLocalLocker()
	u1, _ := l.Lock(context.Background(), "a")
	defer u1()
	u2, err := l.Lock(context.Background(), "b")
	if err != nil {
		t.Fatalf("second table should not block: %v", err)
	}
	u2()
}
