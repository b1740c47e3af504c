package queryfold

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func TestRecordPreservesInsertionOrder(t *testing.T) {
	rec := NewRecord()
	rec.Set("z", 1)
	rec.Set("a", 2)
	rec.Set("m", 3)
	rec.Set("a", 4) // update keeps position

	if diff := cmp.Diff([]string{"z", "a", "m"}, rec.Keys()); diff != "" {
		t.Errorf("unexpected key order (-want +got):\n%s", diff)
	}
	if v, _ := rec.Get("a"); v != 4 {
		t.Errorf("updated entry = %v, want 4", v)
	}
}

func TestOverflowTagIsAuthoritative(t *testing.T) {
	numericLooking := NewRecord()
	numericLooking.Set("0", "a")
	numericLooking.Set("1", "b")
	if IsOverflow(numericLooking) {
		t.Error("numeric-looking keys must not imply overflow")
	}

	MarkOverflow(numericLooking)
	if !IsOverflow(numericLooking) {
		t.Error("marked record must report overflow")
	}
	if numericLooking.NextIndex() != 2 {
		t.Errorf("next index = %d, want 2", numericLooking.NextIndex())
	}

	if IsOverflow(nil) || IsOverflow("a") || IsOverflow([]any{"a"}) {
		t.Error("non-records must never report overflow")
	}
}

func TestMarkerStaysOutOfKeyEnumeration(t *testing.T) {
	rec := NewRecord()
	rec.Set("0", "a")
	MarkOverflow(rec)
	if rec.Len() != 1 {
		t.Errorf("record has %d entries, want 1", rec.Len())
	}
	for k := range rec.All() {
		if k != "0" {
			t.Errorf("unexpected enumerated key %q", k)
		}
	}
}

func TestPlainRecordFlag(t *testing.T) {
	if NewRecord().Plain() {
		t.Error("default record must not be plain")
	}
	if !NewPlainRecord().Plain() {
		t.Error("NewPlainRecord must be plain")
	}
}

func TestRecordMarshalJSONKeepsOrder(t *testing.T) {
	rec := NewRecord()
	rec.Set("b", 1)
	rec.Set("a", []any{"x", Null})
	inner := NewRecord()
	inner.Set("k", "v")
	rec.Set("c", inner)

	got, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	want := `{"b":1,"a":["x",null],"c":{"k":"v"}}`
	if string(got) != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestRecordMarshalYAMLKeepsOrder(t *testing.T) {
	rec := NewRecord()
	rec.Set("b", "1")
	rec.Set("a", Null)

	got, err := yaml.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	want := "b: \"1\"\na: null\n"
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestToNative(t *testing.T) {
	rec := NewRecord()
	rec.Set("a", Null)
	rec.Set("b", []any{"x", Null})
	inner := NewRecord()
	inner.Set("k", "v")
	rec.Set("c", inner)

	want := map[string]any{
		"a": nil,
		"b": []any{"x", nil},
		"c": map[string]any{"k": "v"},
	}
	if diff := cmp.Diff(want, ToNative(rec)); diff != "" {
		t.Errorf("unexpected result (-want +got):\n%s", diff)
	}
}
