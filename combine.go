package queryfold

import "strconv"

// Combine joins two values into a bounded sequence, or into an overflow
// record once arrayLimit (NoArrayLimit for unbounded) is exceeded.
//
// If a is already an overflow record, b is inserted at its next free
// index and the same reference is returned; this is the only case where
// an operand is mutated. Otherwise both operands are wrapped as
// one-element sequences if needed and concatenated, a first. A result of
// length L stays a plain sequence while L <= arrayLimit; beyond that it
// becomes a record keyed "0".."L-1" carrying the overflow tag, built
// without inherited members when allowPrototype is false. arrayLimit 0
// therefore always converts.
func Combine(a, b any, arrayLimit int, allowPrototype bool) any {
	if r, ok := a.(*Record); ok && r.overflow {
		r.appendNext(b)
		return r
	}

	as := asSequence(a)
	bs := asSequence(b)
	n := len(as) + len(bs)

	// Explicit indexed copies: each slot is read once and written once.
	out := make([]any, n)
	for i := 0; i < len(as); i++ {
		out[i] = as[i]
	}
	for i := 0; i < len(bs); i++ {
		out[len(as)+i] = bs[i]
	}

	if arrayLimit == NoArrayLimit || n <= arrayLimit {
		return out
	}
	return sequenceToRecord(out, allowPrototype)
}

// asSequence views v as a sequence without copying: sequences pass
// through, everything else (blobs included) becomes a single element.
func asSequence(v any) []any {
	if seq, ok := v.([]any); ok {
		return seq
	}
	return []any{v}
}

// sequenceToRecord converts a sequence into an overflow record with
// contiguous numeric keys.
func sequenceToRecord(seq []any, allowPrototype bool) *Record {
	r := newRecord(allowPrototype)
	for i := 0; i < len(seq); i++ {
		r.Set(strconv.Itoa(i), seq[i])
	}
	return MarkOverflow(r)
}
