package queryfold

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/itchyny/timefmt-go"
)

// Array serialization formats.
const (
	ArrayFormatIndices  = "indices"
	ArrayFormatBrackets = "brackets"
	ArrayFormatRepeat   = "repeat"
	ArrayFormatComma    = "comma"
)

// Percent-encoding formats.
const (
	FormatRFC3986 = "RFC3986"
	FormatRFC1738 = "RFC1738"
)

// StringifyOptions configures Stringify.
type StringifyOptions struct {
	// Delimiter joins the serialized pairs (default "&").
	Delimiter string
	// AddQueryPrefix prepends "?" to non-empty output.
	AddQueryPrefix bool

	// Encode percent-encodes keys and values (default true).
	// EncodeValuesOnly leaves keys, bracket syntax included, as is.
	Encode           bool
	EncodeValuesOnly bool

	// ArrayFormat selects how sequence elements are keyed: "indices"
	// a[0]=x (default), "brackets" a[]=x, "repeat" a=x, or "comma"
	// a=x,y. CommaRoundTrip appends [] to single-element comma output
	// so it parses back as a sequence.
	ArrayFormat    string
	CommaRoundTrip bool

	// AllowDots writes nested keys as a.b instead of a[b];
	// EncodeDotInKeys escapes literal dots inside key names so they
	// stay distinguishable.
	AllowDots       bool
	EncodeDotInKeys bool

	// SkipNulls drops Null entries entirely; StrictNullHandling writes
	// them as a bare key with no "=".
	SkipNulls          bool
	StrictNullHandling bool

	// AllowEmptyArrays writes an empty sequence as "key[]".
	AllowEmptyArrays bool

	// Sort orders sibling keys; nil keeps record insertion order (map
	// input is always sorted for determinism).
	Sort func(a, b string) int

	// Filter restricts the top-level keys that are serialized.
	Filter []string

	// Format selects the percent-encoding flavor (default RFC 3986;
	// RFC 1738 writes spaces as "+" and leaves parentheses bare).
	Format string

	// DateFormat is the strftime layout for time.Time values, applied
	// in UTC (default "%Y-%m-%dT%H:%M:%SZ").
	DateFormat string
}

// DefaultStringifyOptions returns the serializer defaults.
func DefaultStringifyOptions() StringifyOptions {
	return StringifyOptions{
		Delimiter:   "&",
		Encode:      true,
		ArrayFormat: ArrayFormatIndices,
		Format:      FormatRFC3986,
		DateFormat:  "%Y-%m-%dT%H:%M:%SZ",
	}
}

// Stringify serializes a composite back into a flat query string. The
// top-level value must be keyed: a *Record or a map[string]any.
func Stringify(value any, opts ...StringifyOptions) (string, error) {
	opt := DefaultStringifyOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	if opt.Delimiter == "" {
		opt.Delimiter = "&"
	}
	if opt.ArrayFormat == "" {
		opt.ArrayFormat = ArrayFormatIndices
	}
	if opt.Format == "" {
		opt.Format = FormatRFC3986
	}
	if opt.DateFormat == "" {
		opt.DateFormat = "%Y-%m-%dT%H:%M:%SZ"
	}
	switch opt.Format {
	case FormatRFC3986, FormatRFC1738:
	default:
		return "", fmt.Errorf("unsupported format %q", opt.Format)
	}

	s := &stringifier{opt: opt}

	keys, get, err := topLevel(value)
	if err != nil {
		return "", err
	}
	if len(opt.Filter) > 0 {
		allowed := make(map[string]bool, len(opt.Filter))
		for _, k := range opt.Filter {
			allowed[k] = true
		}
		kept := keys[:0]
		for _, k := range keys {
			if allowed[k] {
				kept = append(kept, k)
			}
		}
		keys = kept
	}
	if opt.Sort != nil {
		sort.SliceStable(keys, func(i, j int) bool { return opt.Sort(keys[i], keys[j]) < 0 })
	}

	var pairs []string
	for _, k := range keys {
		if err := s.walk(s.keySegment(k), get(k), &pairs); err != nil {
			return "", err
		}
	}

	out := strings.Join(pairs, opt.Delimiter)
	if opt.AddQueryPrefix && out != "" {
		out = "?" + out
	}
	return out, nil
}

// topLevel views the input as an ordered set of keyed entries.
func topLevel(value any) ([]string, func(string) any, error) {
	switch t := value.(type) {
	case *Record:
		return t.Keys(), func(k string) any {
			v, _ := t.Get(k)
			return v
		}, nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys, func(k string) any { return t[k] }, nil
	default:
		return nil, nil, fmt.Errorf("cannot stringify top-level value of type %T", value)
	}
}

type stringifier struct {
	opt StringifyOptions
}

// walk serializes one node under the given key prefix, appending pairs.
func (s *stringifier) walk(prefix string, v any, out *[]string) error {
	if s.skip(v) {
		return nil
	}
	if t, ok := v.(time.Time); ok {
		v = timefmt.Format(t.UTC(), s.opt.DateFormat)
	}
	switch t := v.(type) {
	case nil:
		return nil
	case nullValue:
		if s.opt.StrictNullHandling {
			*out = append(*out, s.encodeKey(prefix))
			return nil
		}
		s.emit(prefix, "", out)
		return nil
	case *Record:
		keys := t.Keys()
		if s.opt.Sort != nil {
			sort.SliceStable(keys, func(i, j int) bool { return s.opt.Sort(keys[i], keys[j]) < 0 })
		}
		for _, k := range keys {
			child, _ := t.Get(k)
			if s.skip(child) {
				continue
			}
			if err := s.walk(prefix+s.childSegment(k), child, out); err != nil {
				return err
			}
		}
		return nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if s.skip(t[k]) {
				continue
			}
			if err := s.walk(prefix+s.childSegment(k), t[k], out); err != nil {
				return err
			}
		}
		return nil
	case []any:
		return s.walkSequence(prefix, t, out)
	default:
		if IsBuffer(v) {
			s.emit(prefix, scalarKey(v), out)
			return nil
		}
		switch v.(type) {
		case string, bool, int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64, float32, float64:
			s.emit(prefix, leafString(v), out)
			return nil
		}
		return fmt.Errorf("cannot stringify value of type %T at %q", v, prefix)
	}
}

func (s *stringifier) walkSequence(prefix string, seq []any, out *[]string) error {
	if len(seq) == 0 {
		if s.opt.AllowEmptyArrays {
			*out = append(*out, s.encodeKey(prefix+"[]"))
		}
		return nil
	}

	if s.opt.ArrayFormat == ArrayFormatComma {
		parts := make([]string, 0, len(seq))
		for _, e := range seq {
			if s.skip(e) {
				continue
			}
			if t, ok := e.(time.Time); ok {
				e = timefmt.Format(t.UTC(), s.opt.DateFormat)
			}
			parts = append(parts, leafString(e))
		}
		key := prefix
		if s.opt.CommaRoundTrip && len(parts) == 1 {
			key += "[]"
		}
		s.emit(key, strings.Join(parts, ","), out)
		return nil
	}

	for i, e := range seq {
		if s.skip(e) {
			continue
		}
		var key string
		switch s.opt.ArrayFormat {
		case ArrayFormatBrackets:
			key = prefix + "[]"
		case ArrayFormatRepeat:
			key = prefix
		default: // indices
			key = prefix + "[" + strconv.Itoa(i) + "]"
		}
		if err := s.walk(key, e, out); err != nil {
			return err
		}
	}
	return nil
}

func (s *stringifier) skip(v any) bool {
	if !s.opt.SkipNulls {
		return false
	}
	if v == nil {
		return true
	}
	_, isNull := v.(nullValue)
	return isNull
}

func (s *stringifier) emit(key, value string, out *[]string) {
	*out = append(*out, s.encodeKey(key)+"="+s.encodeComponent(value))
}

func (s *stringifier) encodeKey(key string) string {
	if !s.opt.Encode || s.opt.EncodeValuesOnly {
		return key
	}
	return escape(key, s.opt.Format)
}

func (s *stringifier) encodeComponent(v string) string {
	if !s.opt.Encode {
		return v
	}
	return escape(v, s.opt.Format)
}

// keySegment renders a top-level key, escaping dots when dot notation is
// in play so literal dots in names survive a round trip.
func (s *stringifier) keySegment(key string) string {
	if s.opt.AllowDots && s.opt.EncodeDotInKeys {
		return strings.ReplaceAll(key, ".", "%2E")
	}
	return key
}

// childSegment renders a nested key step in bracket or dot notation.
func (s *stringifier) childSegment(key string) string {
	if s.opt.AllowDots {
		if s.opt.EncodeDotInKeys {
			key = strings.ReplaceAll(key, ".", "%2E")
		}
		return "." + key
	}
	return "[" + key + "]"
}

// leafString renders a leaf for serialization.
func leafString(v any) string {
	switch v.(type) {
	case nil, nullValue:
		return ""
	}
	return scalarKey(v)
}

// escape percent-encodes every byte outside the unreserved set, keeping
// bracket characters' encoded form stable across charsets. RFC 1738
// leaves parentheses bare and writes spaces as "+".
func escape(s, format string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9':
			b.WriteByte(c)
		case c == '-' || c == '.' || c == '_' || c == '~':
			b.WriteByte(c)
		case format == FormatRFC1738 && (c == '(' || c == ')'):
			b.WriteByte(c)
		case format == FormatRFC1738 && c == ' ':
			b.WriteByte('+')
		default:
			const hex = "0123456789ABCDEF"
			b.WriteByte('%')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0xf])
		}
	}
	return b.String()
}
