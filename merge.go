package queryfold

import (
	"fmt"
	"strconv"
)

// Merge folds source into target and returns the resulting accumulator.
// It is the top-level recursive folding algorithm: the decoder calls it
// once per decoded (keyPath, value) pair, threading the same options
// through the whole pass.
//
// The shape rules, in evaluation order:
//
//   - source absent or Null: target is returned unchanged.
//   - target absent: source is returned, sequences cloned so later
//     merges can append in place.
//   - record target, non-mapping source: overflow records append the
//     source at their next free index; plain records treat the source as
//     a flag, inserting its string form with value true (once per
//     element when the source is a sequence).
//   - leaf target, overflow source: a new overflow record with the
//     target at index 0 and every prior entry shifted up by one.
//   - leaf target, plain record source: the two-element sequence
//     [target, source].
//   - sequence target, record source: the sequence is converted to a
//     numerically keyed record and the source's keys folded in, so that
//     iterative parses of the same array-valued key keep flattening into
//     the trailing element.
//   - anything else: Combine, which concatenates and applies the
//     sequence length bound.
//
// Merge prefers in-place mutation of composites it produced itself;
// callers who alias target elsewhere must clone first.
func Merge(target, source any, opts MergeOptions) any {
	if source == nil || source == any(Null) {
		return target
	}
	if target == nil {
		return normalizeSource(source)
	}

	srcRec, srcIsRec := source.(*Record)

	switch tgt := target.(type) {
	case *Record:
		if !srcIsRec {
			if tgt.overflow {
				return appendLeaves(tgt, source)
			}
			return addFlags(tgt, source)
		}
		return mergeRecords(tgt, srcRec, opts)

	case []any:
		if srcIsRec {
			conv := recordFromSequence(tgt, opts.AllowPrototype)
			return mergeRecords(conv, srcRec, opts)
		}
		return Combine(tgt, source, opts.ArrayLimit, opts.AllowPrototype)

	default:
		if srcIsRec {
			if srcRec.overflow {
				return shiftInto(target, srcRec)
			}
			return []any{target, source}
		}
		return Combine(target, source, opts.ArrayLimit, opts.AllowPrototype)
	}
}

// normalizeSource prepares a first-merge source for later appends.
// Sequences are cloned into an owned slice; everything else passes
// through.
func normalizeSource(source any) any {
	seq, ok := source.([]any)
	if !ok || IsBuffer(source) {
		return source
	}
	out := make([]any, len(seq))
	for i := 0; i < len(seq); i++ {
		out[i] = seq[i]
	}
	return out
}

// appendLeaves appends a leaf, or each element of a sequence, at the
// overflow record's next free index. Marker state overrides key-shape
// heuristics: values land at numeric indexes, never as named keys.
func appendLeaves(r *Record, source any) *Record {
	if seq, ok := source.([]any); ok && !IsBuffer(source) {
		for i := 0; i < len(seq); i++ {
			r.appendNext(seq[i])
		}
		return r
	}
	r.appendNext(source)
	return r
}

// addFlags inserts source into a keyed accumulator as presence flags:
// the scalar's string form becomes a key with value true. Sequences are
// flagged once per element.
func addFlags(r *Record, source any) *Record {
	if seq, ok := source.([]any); ok && !IsBuffer(source) {
		for i := 0; i < len(seq); i++ {
			if seq[i] == nil || seq[i] == any(Null) {
				continue
			}
			r.Set(scalarKey(seq[i]), true)
		}
		return r
	}
	r.Set(scalarKey(source), true)
	return r
}

// scalarKey renders a leaf as a record key.
func scalarKey(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// mergeRecords merges source into target key by key: colliding keys
// recurse, keys only in target are untouched, new keys copy over. An
// overflow target keeps its next index ahead of any numeric key gained
// from source.
func mergeRecords(target, source *Record, opts MergeOptions) *Record {
	for k, v := range source.All() {
		if cur, ok := target.Get(k); ok {
			target.Set(k, Merge(cur, v, opts))
			continue
		}
		target.Set(k, v)
		if target.overflow {
			if idx, err := strconv.Atoi(k); err == nil && idx >= target.next {
				target.next = idx + 1
			}
		}
	}
	return target
}

// recordFromSequence converts a sequence accumulator into a numerically
// keyed record. Absent slots left behind by sparse bracket indexes are
// dropped and the remaining values renumbered, keeping the keys
// contiguous. The result carries no overflow tag: it was not produced by
// a limit-exceeding combine.
func recordFromSequence(seq []any, allowPrototype bool) *Record {
	r := newRecord(allowPrototype)
	n := 0
	for i := 0; i < len(seq); i++ {
		if seq[i] == nil {
			continue
		}
		r.Set(strconv.Itoa(n), seq[i])
		n++
	}
	return r
}

// shiftInto builds a new overflow record holding target at index 0 and
// every entry of src shifted up by one.
func shiftInto(target any, src *Record) *Record {
	out := newRecord(!src.plain)
	out.Set("0", target)
	for i := 0; i < src.next; i++ {
		key := strconv.Itoa(i)
		if v, ok := src.Get(key); ok {
			out.Set(strconv.Itoa(i+1), v)
		}
	}
	return MarkOverflow(out)
}
