package queryfold

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAssignSourceWinsOnCollision(t *testing.T) {
	target := NewRecord()
	target.Set("a", "1")
	target.Set("b", "2")
	source := NewRecord()
	source.Set("b", "override")
	source.Set("c", "3")

	got := Assign(target, source)
	if got != target {
		t.Fatal("Assign must return the target reference")
	}
	want := map[string]any{"a": "1", "b": "override", "c": "3"}
	if diff := cmp.Diff(want, ToNative(target)); diff != "" {
		t.Errorf("unexpected result (-want +got):\n%s", diff)
	}
}

func TestAssignLeavesSourceUntouched(t *testing.T) {
	target := NewRecord()
	source := NewRecord()
	source.Set("a", "1")
	Assign(target, source)
	target.Set("a", "changed")

	if v, _ := source.Get("a"); v != "1" {
		t.Errorf("source entry = %v, want 1", v)
	}
	if source.Len() != 1 {
		t.Errorf("source has %d entries, want 1", source.Len())
	}
}

func TestAssignDoesNotRecurse(t *testing.T) {
	nested := NewRecord()
	nested.Set("x", "1")
	source := NewRecord()
	source.Set("n", nested)

	target := NewRecord()
	old := NewRecord()
	old.Set("y", "2")
	target.Set("n", old)

	Assign(target, source)
	got, _ := target.Get("n")
	if got != any(nested) {
		t.Error("nested value must be replaced by reference, not merged")
	}
}

func TestAssignNilSource(t *testing.T) {
	target := NewRecord()
	target.Set("a", "1")
	if got := Assign(target, nil); got != target {
		t.Error("Assign(target, nil) must return target")
	}
}
