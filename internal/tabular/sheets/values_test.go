package sheets

import (
	"reflect"
	"testing"

	"github.com/xelth-com/saisun/internal/tabular"
)

func TestQuoteSheet(t *testing.T) {
	if got := quoteSheet("在庫"); got != "'在庫'" {
		t.Errorf("quoteSheet = %q", got)
	}
	if got := quoteSheet("Bob's"); got != "'Bob''s'" {
		t.Errorf("quoteSheet escaping = %q", got)
	}
}

func TestTableFromValuesPadsAndSkipsEmpty(t *testing.T) {
	values := [][]interface{}{
		{"日付", "管理番号", "肩幅"},
		{"2024-05-01", "A1"},
		{},
		{"", "", ""},
		{"2024-05-02", "A2", float64(45)},
	}
	tbl := tableFromValues(values)
	if !reflect.DeepEqual(tbl.Header, []string{"日付", "管理番号", "肩幅"}) {
		t.Fatalf("header = %v", tbl.Header)
	}
	want := []tabular.Row{
		{"日付": "2024-05-01", "管理番号": "A1", "肩幅": ""},
		{"日付": "2024-05-02", "管理番号": "A2", "肩幅": "45"},
	}
	if !reflect.DeepEqual(tbl.Rows, want) {
		t.Errorf("rows = %v, want %v", tbl.Rows, want)
	}
}

func TestTableFromValuesEmptySheet(t *testing.T) {
	tbl := tableFromValues(nil)
	if len(tbl.Header) != 0 || len(tbl.Rows) != 0 {
		t.Errorf("expected empty table, got %+v", tbl)
	}
}

func TestValuesFromTableRoundTrip(t *testing.T) {
	tbl := tabular.Table{
		Header: []string{"a", "b"},
		Rows:   []tabular.Row{{"a": "1", "b": "2"}, {"b": "x"}},
	}
	values := valuesFromTable(tbl)
	if len(values) != 3 {
		t.Fatalf("expected 3 value rows, got %d", len(values))
	}
	back := tableFromValues(values)
	if !reflect.DeepEqual(back.Rows[1], tabular.Row{"a": "", "b": "x"}) {
		t.Errorf("second row = %v", back.Rows[1])
	}
}

func TestClientOptions(t *testing.T) {
	if n := len(ClientOptions("")); n != 1 {
		t.Errorf("empty creds should only set scopes, got %d options", n)
	}
	if n := len(ClientOptions(`{"type":"service_account"}`)); n != 2 {
		t.Errorf("inline creds: got %d options", n)
	}
	if n := len(ClientOptions("credentials.json")); n != 2 {
		t.Errorf("file creds: got %d options", n)
	}
}
