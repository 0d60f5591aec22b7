package reference

import (
	"context"
	"reflect"
	"testing"

	"github.com/xelth-com/saisun/internal/logger"
	"github.com/xelth-com/saisun/internal/models"
	"github.com/xelth-com/saisun/internal/tabular"
	"github.com/xelth-com/saisun/internal/tabular/memory"
)

func TestImportAndLookup(t *testing.T) {
	ctx := context.Background()
	s := NewStore(tabular.NewTransactor(memory.NewStore(), nil), "基準寸法", logger.Nop())
	if err := s.Ensure(ctx); err != nil {
		t.Fatal(err)
	}
	n, err := s.Import(ctx, []models.ReferenceStandard{
		{ManagementID: "A1", Size: "S", Fields: models.Fields{{Name: "肩幅", Value: "44"}}},
		{ManagementID: "P1", Size: "30", Fields: models.Fields{{Name: "ウエスト", Value: "38"}}},
		{ManagementID: "A1", Size: "S", Fields: models.Fields{{Name: "肩幅", Value: "45"}, {Name: "着丈", Value: "70"}}},
		{ManagementID: "", Size: "S"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("imported %d rows, want 2", n)
	}

	ref, ok, err := s.Lookup(ctx, "A1", " S")
	if err != nil || !ok {
		t.Fatalf("Lookup: %v %v", ok, err)
	}
	want := models.Fields{{Name: "肩幅", Value: "45"}, {Name: "着丈", Value: "70"}}
	if !reflect.DeepEqual(ref.Fields, want) {
		t.Errorf("fields = %v, want %v", ref.Fields, want)
	}

	if _, ok, _ := s.Lookup(ctx, "A1", "M"); ok {
		t.Error("unexpected standard for A1/M")
	}
}
