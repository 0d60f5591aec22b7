package tabular

import (
	"errors"
	"reflect"
	"testing"
)

func TestRowFromValuesPadsAndTruncates(t *testing.T) {
	header := []string{"a", "", "c"}
	row := RowFromValues(header, []string{"1", "skip", "3", "extra"})
	if !reflect.DeepEqual(row, Row{"a": "1", "c": "3"}) {
		t.Errorf("row = %v", row)
	}
	short := RowFromValues([]string{"a", "b"}, []string{"1"})
	if !reflect.DeepEqual(short, Row{"a": "1", "b": ""}) {
		t.Errorf("short row = %v", short)
	}
}

func TestRowValues(t *testing.T) {
	got := Row{"b": "2"}.Values([]string{"a", "b"})
	if !reflect.DeepEqual(got, []string{"", "2"}) {
		t.Errorf("values = %v", got)
	}
}

func TestMergeHeader(t *testing.T) {
	got := MergeHeader([]string{"a", "b"}, "b", "", "c", "c")
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("merged = %v", got)
	}
}

func TestCheckRow(t *testing.T) {
	if err := CheckRow([]string{"a"}, Row{"a": "1"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := CheckRow([]string{"a"}, Row{"z": "1"}); err == nil {
		t.Error("expected unknown column error")
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := Table{Header: []string{"a"}, Rows: []Row{{"a": "1"}}}
	c := orig.Clone()
	c.Header[0] = "x"
	c.Rows[0]["a"] = "2"
	if orig.Header[0] != "a" || orig.Rows[0]["a"] != "1" {
		t.Errorf("clone shares state: %+v", orig)
	}
}

func TestStoreErrorKinds(t *testing.T) {
	cause := errors.New("io")
	err := ReadError("在庫", "read", cause)
	if !errors.Is(err, ErrStoreRead) || errors.Is(err, ErrStoreWrite) {
		t.Errorf("read error kind mismatch: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not unwrapped")
	}
	if WriteError("t", "op", err) != err {
		t.Error("already classified error should pass through")
	}
	if ReadError("t", "op", nil) != nil {
		t.Error("nil error should stay nil")
	}
}
