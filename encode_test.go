package queryfold

import (
	"strings"
	"testing"
	"time"
)

func mustStringify(t *testing.T, v any, opts ...StringifyOptions) string {
	t.Helper()
	s, err := Stringify(v, opts...)
	if err != nil {
		t.Fatalf("Stringify failed: %v", err)
	}
	return s
}

func TestStringifySimpleRecord(t *testing.T) {
	rec := NewRecord()
	rec.Set("a", "b")
	if got := mustStringify(t, rec); got != "a=b" {
		t.Errorf("got %q, want a=b", got)
	}
}

func TestStringifyKeepsInsertionOrder(t *testing.T) {
	rec := NewRecord()
	rec.Set("z", "1")
	rec.Set("a", "2")
	rec.Set("m", "3")
	if got := mustStringify(t, rec); got != "z=1&a=2&m=3" {
		t.Errorf("got %q, want z=1&a=2&m=3", got)
	}
}

func TestStringifyNestedRecord(t *testing.T) {
	inner := NewRecord()
	inner.Set("b", "c")
	rec := NewRecord()
	rec.Set("a", inner)

	if got := mustStringify(t, rec); got != "a%5Bb%5D=c" {
		t.Errorf("got %q, want a%%5Bb%%5D=c", got)
	}

	opts := DefaultStringifyOptions()
	opts.EncodeValuesOnly = true
	if got := mustStringify(t, rec, opts); got != "a[b]=c" {
		t.Errorf("got %q, want a[b]=c", got)
	}
}

func TestStringifyArrayFormats(t *testing.T) {
	rec := NewRecord()
	rec.Set("a", []any{"b", "c"})

	cases := []struct {
		format string
		want   string
	}{
		{ArrayFormatIndices, "a[0]=b&a[1]=c"},
		{ArrayFormatBrackets, "a[]=b&a[]=c"},
		{ArrayFormatRepeat, "a=b&a=c"},
		{ArrayFormatComma, "a=b,c"},
	}
	for _, tc := range cases {
		opts := DefaultStringifyOptions()
		opts.ArrayFormat = tc.format
		opts.Encode = false
		if got := mustStringify(t, rec, opts); got != tc.want {
			t.Errorf("format %s: got %q, want %q", tc.format, got, tc.want)
		}
	}
}

func TestStringifyCommaEncodesSeparator(t *testing.T) {
	rec := NewRecord()
	rec.Set("a", []any{"b", "c"})
	opts := DefaultStringifyOptions()
	opts.ArrayFormat = ArrayFormatComma
	if got := mustStringify(t, rec, opts); got != "a=b%2Cc" {
		t.Errorf("got %q, want a=b%%2Cc", got)
	}
}

func TestStringifyCommaRoundTrip(t *testing.T) {
	rec := NewRecord()
	rec.Set("a", []any{"b"})
	opts := DefaultStringifyOptions()
	opts.ArrayFormat = ArrayFormatComma
	opts.CommaRoundTrip = true
	opts.EncodeValuesOnly = true
	if got := mustStringify(t, rec, opts); got != "a[]=b" {
		t.Errorf("got %q, want a[]=b", got)
	}
}

func TestStringifyNullHandling(t *testing.T) {
	rec := NewRecord()
	rec.Set("a", Null)
	rec.Set("b", "x")

	if got := mustStringify(t, rec); got != "a=&b=x" {
		t.Errorf("default: got %q, want a=&b=x", got)
	}

	opts := DefaultStringifyOptions()
	opts.StrictNullHandling = true
	if got := mustStringify(t, rec, opts); got != "a&b=x" {
		t.Errorf("strict: got %q, want a&b=x", got)
	}

	opts = DefaultStringifyOptions()
	opts.SkipNulls = true
	if got := mustStringify(t, rec, opts); got != "b=x" {
		t.Errorf("skip: got %q, want b=x", got)
	}
}

func TestStringifyDate(t *testing.T) {
	rec := NewRecord()
	rec.Set("when", time.Date(2020, 3, 14, 15, 9, 26, 0, time.UTC))
	opts := DefaultStringifyOptions()
	opts.EncodeValuesOnly = true
	if got := mustStringify(t, rec, opts); got != "when=2020-03-14T15%3A09%3A26Z" {
		t.Errorf("got %q", got)
	}

	opts.DateFormat = "%s"
	if got := mustStringify(t, rec, opts); got != "when=1584198566" {
		t.Errorf("epoch format: got %q", got)
	}
}

func TestStringifyFormats(t *testing.T) {
	rec := NewRecord()
	rec.Set("a", "b c(d)")

	if got := mustStringify(t, rec); got != "a=b%20c%28d%29" {
		t.Errorf("rfc3986: got %q", got)
	}

	opts := DefaultStringifyOptions()
	opts.Format = FormatRFC1738
	if got := mustStringify(t, rec, opts); got != "a=b+c(d)" {
		t.Errorf("rfc1738: got %q", got)
	}
}

func TestStringifyAddQueryPrefix(t *testing.T) {
	rec := NewRecord()
	rec.Set("a", "b")
	opts := DefaultStringifyOptions()
	opts.AddQueryPrefix = true
	if got := mustStringify(t, rec, opts); got != "?a=b" {
		t.Errorf("got %q, want ?a=b", got)
	}

	empty := NewRecord()
	if got := mustStringify(t, empty, opts); got != "" {
		t.Errorf("empty record: got %q, want empty string", got)
	}
}

func TestStringifySortAndFilter(t *testing.T) {
	rec := NewRecord()
	rec.Set("c", "3")
	rec.Set("a", "1")
	rec.Set("b", "2")

	opts := DefaultStringifyOptions()
	opts.Sort = strings.Compare
	if got := mustStringify(t, rec, opts); got != "a=1&b=2&c=3" {
		t.Errorf("sorted: got %q", got)
	}

	opts = DefaultStringifyOptions()
	opts.Filter = []string{"b", "c"}
	if got := mustStringify(t, rec, opts); got != "c=3&b=2" {
		t.Errorf("filtered: got %q", got)
	}
}

func TestStringifyAllowDots(t *testing.T) {
	inner := NewRecord()
	inner.Set("b", "c")
	rec := NewRecord()
	rec.Set("a", inner)

	opts := DefaultStringifyOptions()
	opts.AllowDots = true
	opts.EncodeValuesOnly = true
	if got := mustStringify(t, rec, opts); got != "a.b=c" {
		t.Errorf("got %q, want a.b=c", got)
	}
}

func TestStringifyEmptyArrays(t *testing.T) {
	rec := NewRecord()
	rec.Set("a", []any{})
	rec.Set("b", "x")

	if got := mustStringify(t, rec); got != "b=x" {
		t.Errorf("default: got %q, want b=x", got)
	}

	opts := DefaultStringifyOptions()
	opts.AllowEmptyArrays = true
	opts.EncodeValuesOnly = true
	if got := mustStringify(t, rec, opts); got != "a[]&b=x" {
		t.Errorf("allowed: got %q, want a[]&b=x", got)
	}
}

func TestStringifyOverflowRecord(t *testing.T) {
	over := Combine([]any{"a", "b", "c"}, "d", 3, true).(*Record)
	rec := NewRecord()
	rec.Set("k", over)
	opts := DefaultStringifyOptions()
	opts.EncodeValuesOnly = true
	want := "k[0]=a&k[1]=b&k[2]=c&k[3]=d"
	if got := mustStringify(t, rec, opts); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestStringifyMapInputSorted(t *testing.T) {
	m := map[string]any{"b": "2", "a": "1"}
	if got := mustStringify(t, m); got != "a=1&b=2" {
		t.Errorf("got %q, want a=1&b=2", got)
	}
}

func TestStringifyBlob(t *testing.T) {
	rec := NewRecord()
	rec.Set("data", []byte("hi there"))
	if got := mustStringify(t, rec); got != "data=hi%20there" {
		t.Errorf("got %q", got)
	}
}

func TestStringifyRejectsBareScalars(t *testing.T) {
	if _, err := Stringify("just a string"); err == nil {
		t.Fatal("expected error for non-keyed top-level value")
	}
}

func TestParseStringifyRoundTrip(t *testing.T) {
	const in = "a[0]=b&a[1]=c&d[e]=f"
	rec := mustParse(t, in)
	opts := DefaultStringifyOptions()
	opts.EncodeValuesOnly = true
	if got := mustStringify(t, rec, opts); got != in {
		t.Errorf("round trip changed the string: got %q, want %q", got, in)
	}
}
