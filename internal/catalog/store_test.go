package catalog

import (
	"context"
	"reflect"
	"testing"

	"github.com/xelth-com/saisun/internal/logger"
	"github.com/xelth-com/saisun/internal/models"
	"github.com/xelth-com/saisun/internal/tabular"
	"github.com/xelth-com/saisun/internal/tabular/memory"
)

const table = "在庫"

func newTestStore(t *testing.T) (*Store, *memory.Store) {
	t.Helper()
	mem := memory.NewStore()
	s := NewStore(tabular.NewTransactor(mem, nil), table, logger.Nop())
	if err := s.Ensure(context.Background()); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	return s, mem
}

func entry(id, brand, size string) models.CatalogEntry {
	return models.CatalogEntry{ManagementID: id, Brand: brand, Genre: "シャツ", ProductName: "Shirt " + id, Size: size}
}

func TestImportDedupesKeepingLatest(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	first := entry("A1", "Acme", "S")
	first.Color = "白"
	if _, err := s.Import(ctx, []models.CatalogEntry{first, entry("A1", "Acme", "M")}); err != nil {
		t.Fatal(err)
	}
	updated := entry("A1", "Acme", "S")
	updated.Color = "黒"
	res, err := s.Import(ctx, []models.CatalogEntry{updated, entry("B2", "Beta", "L"), entry("B2", "Beta", "L"), {ManagementID: "", Size: "M"}})
	if err != nil {
		t.Fatal(err)
	}
	if res.Added != 1 || res.Replaced != 1 || res.Total != 3 || res.Received != 4 {
		t.Errorf("result = %+v", res)
	}
	got, ok, err := s.Find(ctx, "A1", "S")
	if err != nil || !ok {
		t.Fatalf("Find: %v %v", ok, err)
	}
	if got.Color != "黒" {
		t.Errorf("expected latest color, got %q", got.Color)
	}
	all, _ := s.All(ctx)
	if len(all) != 3 {
		t.Errorf("expected 3 entries, got %d: %v", len(all), all)
	}
}

func TestSelectionQueries(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_, err := s.Import(ctx, []models.CatalogEntry{
		entry("B2", "Beta", "L"),
		entry("A1", "Acme", "S"),
		entry("A1", "Acme", "M"),
		entry("A0", "Acme", "F"),
	})
	if err != nil {
		t.Fatal(err)
	}
	brands, _ := s.Brands(ctx)
	if !reflect.DeepEqual(brands, []string{"Acme", "Beta"}) {
		t.Errorf("brands = %v", brands)
	}
	ids, _ := s.ManagementIDs(ctx, "Acme")
	if !reflect.DeepEqual(ids, []string{"A0", "A1"}) {
		t.Errorf("ids = %v", ids)
	}
	sizes, _ := s.Sizes(ctx, "A1")
	if !reflect.DeepEqual(sizes, []string{"S", "M"}) {
		t.Errorf("sizes = %v", sizes)
	}
	if _, ok, _ := s.Find(ctx, "A1", "XL"); ok {
		t.Error("unexpected match for missing size")
	}
}

func TestRemoveOnlyListedKeys(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore(t)
	_, _ = s.Import(ctx, []models.CatalogEntry{entry("A1", "Acme", "S"), entry("A1", "Acme", "M"), entry("X1", "Acme", "L")})

	n, err := s.Remove(ctx, []models.EntryKey{{ManagementID: "A1", Size: "S"}, {ManagementID: "Z9", Size: "S"}})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("removed = %d, want 1", n)
	}
	tbl, _ := mem.ReadAll(ctx, table)
	if len(tbl.Rows) != 2 || tbl.Rows[0][models.ColSize] != "M" {
		t.Errorf("remaining rows = %v", tbl.Rows)
	}
	if n, _ := s.Remove(ctx, nil); n != 0 {
		t.Error("empty key list should be a no-op")
	}
}

func TestAllSkipsIncompleteRows(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore(t)
	_ = mem.AppendRow(ctx, table, tabular.Row{models.ColManagementID: "A1"})
	_ = mem.AppendRow(ctx, table, tabular.Row{models.ColManagementID: "A1", models.ColSize: " M "})
	all, err := s.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0].Size != "M" {
		t.Errorf("all = %v", all)
	}
}

func TestReadFailureIsStoreRead(t *testing.T) {
	s := NewStore(tabular.NewTransactor(memory.NewStore(), nil), "missing", logger.Nop())
	if _, err := s.All(context.Background()); err == nil {
		t.Fatal("expected error for missing table")
	} else if !isRead(err) {
		t.Errorf("expected ErrStoreRead, got %v", err)
	}
}

func TestImportKeepsExtraColumns(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewStore()
	header := append(append([]string(nil), models.CatalogHeader...), "仕入値")
	if err := mem.EnsureTable(ctx, table, header); err != nil {
		t.Fatal(err)
	}
	for _, size := range []string{"S", "M"} {
		row := entry("A1", "Acme", size).ToRow()
		row["仕入値"] = "1200"
		if err := mem.AppendRow(ctx, table, row); err != nil {
			t.Fatal(err)
		}
	}
	s := NewStore(tabular.NewTransactor(mem, nil), table, logger.Nop())

	updated := entry("A1", "Acme", "M")
	updated.Color = "黒"
	res, err := s.Import(ctx, []models.CatalogEntry{entry("B2", "Beta", "L"), updated})
	if err != nil {
		t.Fatal(err)
	}
	if res.Added != 1 || res.Replaced != 1 || res.Total != 3 {
		t.Errorf("result = %+v", res)
	}

	tbl, _ := mem.ReadAll(ctx, table)
	if !reflect.DeepEqual(tbl.Header, header) {
		t.Errorf("header = %v", tbl.Header)
	}
	cost := map[string]string{}
	color := map[string]string{}
	for _, r := range tbl.Rows {
		key := r[models.ColManagementID] + "/" + r[models.ColSize]
		cost[key] = r["仕入値"]
		color[key] = r[models.ColColor]
	}
	want := map[string]string{"A1/S": "1200", "A1/M": "1200", "B2/L": ""}
	if !reflect.DeepEqual(cost, want) {
		t.Errorf("仕入値 by row = %v, want %v", cost, want)
	}
	if color["A1/M"] != "黒" {
		t.Errorf("replaced row color = %q", color["A1/M"])
	}
}
