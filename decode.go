package queryfold

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Duplicates selects how repeated occurrences of the same raw key are
// handled before merging.
type Duplicates int

const (
	// DuplicatesCombine folds repeated values together (the default).
	DuplicatesCombine Duplicates = iota
	// DuplicatesFirst keeps the first occurrence and drops the rest.
	DuplicatesFirst
	// DuplicatesLast keeps only the last occurrence.
	DuplicatesLast
)

// Supported charsets for percent-decoding.
const (
	CharsetUTF8   = "utf-8"
	CharsetLatin1 = "iso-8859-1"
)

// ParseOptions configures Parse.
type ParseOptions struct {
	// Delimiter separates key/value pairs (default "&").
	Delimiter string
	// IgnoreQueryPrefix strips a leading "?" before parsing.
	IgnoreQueryPrefix bool

	// Depth bounds how many bracket groups of a key are interpreted as
	// nesting; the remainder becomes a single literal segment. Zero
	// disables bracket parsing entirely (default 5).
	Depth int
	// StrictDepth errors out instead of collapsing the remainder.
	StrictDepth bool

	// ParameterLimit bounds how many pairs are read (default 1000,
	// non-positive means unlimited). Excess pairs are dropped unless
	// StrictParameterLimit errors instead.
	ParameterLimit       int
	StrictParameterLimit bool

	// ArrayLimit bounds both the numeric bracket indexes interpreted as
	// sequence positions and the sequence length the merge engine
	// allows before overflow conversion (default 20).
	ArrayLimit int
	// ParseArrays interprets bracket syntax as sequences; when false
	// every segment becomes a record key (default true).
	ParseArrays bool
	// AllowEmptyArrays lets "a[]" with an empty value produce an empty
	// sequence instead of [""].
	AllowEmptyArrays bool

	// AllowDots treats "a.b" as "a[b]". DecodeDotInKeys additionally
	// turns a percent-encoded dot inside a key segment into a literal
	// one.
	AllowDots       bool
	DecodeDotInKeys bool

	// Comma splits an unbracketed value on commas into a sequence.
	Comma bool

	// Duplicates is the repeated-raw-key policy.
	Duplicates Duplicates

	// StrictNullHandling decodes a bare key with no "=" as an explicit
	// Null instead of the empty string.
	StrictNullHandling bool

	// AllowPrototype propagates to MergeOptions.AllowPrototype; false
	// makes every record of the decode pass a plain record.
	AllowPrototype bool

	// Charset selects the percent-decoding charset. CharsetSentinel
	// lets a leading utf8=✓ pair override it, the way legacy HTML forms
	// announce their encoding. InterpretNumericEntities decodes &#NNN;
	// sequences when the charset is iso-8859-1.
	Charset                  string
	CharsetSentinel          bool
	InterpretNumericEntities bool

	// AllowSparse keeps absent sequence slots instead of compacting
	// them away after the pass.
	AllowSparse bool

	// Logger receives debug output for each decoded pair. Defaults to a
	// no-op logger.
	Logger Logger
}

// DefaultParseOptions returns the decoder defaults.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{
		Delimiter:      "&",
		Depth:          5,
		ParameterLimit: 1000,
		ArrayLimit:     20,
		ParseArrays:    true,
		Duplicates:     DuplicatesCombine,
		AllowPrototype: true,
		Charset:        CharsetUTF8,
		Logger:         newNoopLogger(),
	}
}

// MergeOptions derives the merge configuration threaded through the
// decode pass.
func (o ParseOptions) MergeOptions() MergeOptions {
	return MergeOptions{
		ArrayLimit:     o.ArrayLimit,
		AllowPrototype: o.AllowPrototype,
	}
}

// Parse decodes a query string into a record, folding every decoded
// (keyPath, value) pair into one accumulator via Merge.
func Parse(query string, opts ...ParseOptions) (*Record, error) {
	opt := DefaultParseOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	if opt.Delimiter == "" {
		opt.Delimiter = "&"
	}
	if opt.Charset == "" {
		opt.Charset = CharsetUTF8
	}
	if opt.Logger == nil {
		opt.Logger = newNoopLogger()
	}
	if opt.Charset != CharsetUTF8 && opt.Charset != CharsetLatin1 {
		return nil, fmt.Errorf("unsupported charset %q", opt.Charset)
	}

	if query == "" {
		return newRecord(opt.AllowPrototype), nil
	}

	pairs, err := parseValues(query, opt)
	if err != nil {
		return nil, err
	}

	mopts := opt.MergeOptions()
	acc := newRecord(opt.AllowPrototype)
	for key, val := range pairs.All() {
		node, err := parseKeyPath(key, val, opt)
		if err != nil {
			return nil, err
		}
		if node == nil {
			continue
		}
		opt.Logger.Debugf("merging decoded pair key=%s", key)
		acc = Merge(acc, node, mopts).(*Record)
	}

	if !opt.AllowSparse {
		compactRecord(acc)
	}
	return acc, nil
}

// parseValues splits the raw string into a flat ordered key/value record,
// applying the duplicate policy as it goes.
func parseValues(query string, opt ParseOptions) (*Record, error) {
	str := query
	if opt.IgnoreQueryPrefix {
		str = strings.TrimPrefix(str, "?")
	}
	// Normalize encoded brackets before key splitting.
	str = strings.ReplaceAll(str, "%5B", "[")
	str = strings.ReplaceAll(str, "%5b", "[")
	str = strings.ReplaceAll(str, "%5D", "]")
	str = strings.ReplaceAll(str, "%5d", "]")

	parts := strings.Split(str, opt.Delimiter)
	if opt.ParameterLimit > 0 && len(parts) > opt.ParameterLimit {
		if opt.StrictParameterLimit {
			return nil, fmt.Errorf("parameter limit exceeded: %d pairs, limit %d", len(parts), opt.ParameterLimit)
		}
		parts = parts[:opt.ParameterLimit]
	}

	charset := opt.Charset
	skip := -1
	if opt.CharsetSentinel {
		for i, part := range parts {
			if !strings.HasPrefix(part, "utf8=") {
				continue
			}
			switch part[len("utf8="):] {
			case "%E2%9C%93": // ✓ percent-encoded as UTF-8
				charset = CharsetUTF8
			case "%26%2310003%3B": // ✓ as a numeric entity, latin1 form submission
				charset = CharsetLatin1
			}
			skip = i
			break
		}
	}

	res := newRecord(opt.AllowPrototype)
	for i, part := range parts {
		if i == skip || part == "" {
			continue
		}

		// "]=" wins over a plain "=" so bracket contents may contain one.
		pos := strings.Index(part, "]=")
		if pos != -1 {
			pos++
		} else {
			pos = strings.Index(part, "=")
		}

		var key string
		var val any
		if pos == -1 {
			key = decodeComponent(part, charset)
			if opt.StrictNullHandling {
				val = Null
			} else {
				val = ""
			}
		} else {
			key = decodeComponent(part[:pos], charset)
			raw := part[pos+1:]
			if opt.Comma && strings.Contains(raw, ",") {
				pieces := strings.Split(raw, ",")
				seq := make([]any, len(pieces))
				for j, p := range pieces {
					seq[j] = decodeEntity(decodeComponent(p, charset), charset, opt)
				}
				val = seq
			} else {
				val = decodeEntity(decodeComponent(raw, charset), charset, opt)
			}
			if strings.Contains(part[:pos+1], "[]=") {
				// a[]=x,y keeps the comma split as one element
				if seq, ok := val.([]any); ok {
					val = []any{seq}
				}
			}
		}

		existing, ok := res.Get(key)
		if !ok {
			res.Set(key, val)
			continue
		}
		switch opt.Duplicates {
		case DuplicatesCombine:
			// The limit applies here too: repeated raw keys collapse into
			// one value before path expansion, so an unbounded combine
			// would smuggle oversized sequences past it.
			res.Set(key, Combine(existing, val, opt.ArrayLimit, opt.AllowPrototype))
		case DuplicatesLast:
			res.Set(key, val)
		case DuplicatesFirst:
			// keep the first occurrence
		}
	}
	return res, nil
}

var (
	bracketSegment = regexp.MustCompile(`\[[^\[\]]*\]`)
	dotSegment     = regexp.MustCompile(`\.([^.\[]+)`)
)

// parseKeyPath splits a raw key like "a[b][0]" into segments honoring the
// depth bound, then builds the nested composite for val from the leaf up.
func parseKeyPath(key string, val any, opt ParseOptions) (any, error) {
	if key == "" {
		return nil, nil
	}
	if opt.AllowDots {
		key = dotSegment.ReplaceAllString(key, "[$1]")
	}

	var segments []string
	if opt.Depth <= 0 {
		segments = []string{key}
	} else {
		matches := bracketSegment.FindAllStringIndex(key, -1)
		parentEnd := len(key)
		if len(matches) > 0 {
			parentEnd = matches[0][0]
		}
		if parent := key[:parentEnd]; parent != "" {
			segments = append(segments, parent)
		}
		for n, m := range matches {
			if n >= opt.Depth {
				if opt.StrictDepth {
					return nil, fmt.Errorf("key %q nests deeper than depth %d", key, opt.Depth)
				}
				// Collapse the remainder into one literal segment.
				segments = append(segments, "["+key[m[0]:]+"]")
				break
			}
			segments = append(segments, key[m[0]:m[1]])
		}
	}

	return buildPath(segments, val, opt), nil
}

// buildPath assembles segments into nested composites, innermost first.
func buildPath(segments []string, val any, opt ParseOptions) any {
	leaf := val
	for i := len(segments) - 1; i >= 0; i-- {
		seg := segments[i]

		if seg == "[]" && opt.ParseArrays {
			switch {
			case IsOverflow(leaf):
				// Already the numeric-record form of an array; wrapping it
				// in a fresh sequence would nest it one level too deep.
			case opt.AllowEmptyArrays && (leaf == any("") || (opt.StrictNullHandling && leaf == any(Null))):
				leaf = []any{}
			default:
				leaf = Combine([]any{}, leaf, NoArrayLimit, opt.AllowPrototype)
			}
			continue
		}

		key := seg
		bracketed := false
		if strings.HasPrefix(seg, "[") && strings.HasSuffix(seg, "]") {
			key = seg[1 : len(seg)-1]
			bracketed = true
		}
		if opt.DecodeDotInKeys {
			key = strings.ReplaceAll(key, "%2E", ".")
			key = strings.ReplaceAll(key, "%2e", ".")
		}

		if !opt.ParseArrays && key == "" {
			rec := newRecord(opt.AllowPrototype)
			rec.Set("0", leaf)
			leaf = rec
			continue
		}

		idx, err := strconv.Atoi(key)
		if opt.ParseArrays && bracketed && err == nil && idx >= 0 &&
			strconv.Itoa(idx) == key && idx <= opt.ArrayLimit {
			seq := make([]any, idx+1)
			seq[idx] = leaf
			leaf = seq
			continue
		}

		rec := newRecord(opt.AllowPrototype)
		rec.Set(key, leaf)
		leaf = rec
	}
	return leaf
}

// compactRecord removes absent sequence slots left behind by sparse
// numeric indexes, recursively.
func compactRecord(r *Record) {
	for _, k := range r.Keys() {
		v, _ := r.Get(k)
		r.Set(k, compactValue(v))
	}
}

func compactValue(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, 0, len(t))
		for _, e := range t {
			if e == nil {
				continue
			}
			out = append(out, compactValue(e))
		}
		return out
	case *Record:
		compactRecord(t)
		return t
	default:
		return v
	}
}
