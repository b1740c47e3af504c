// Package queryfold folds repeated and nested key assignments, as produced
// while decoding a flat key/value surface such as a query string, into a
// single composite in-memory value.
//
// The value domain is open: scalars are ordinary Go strings, bools and
// numbers; sequences are []any; keyed composites are *Record. An untyped
// nil means "absent" (no accumulator yet), while the Null sentinel is an
// explicit null leaf that participates in merging like any other leaf.
package queryfold

import (
	"iter"
	"strconv"

	"github.com/speakeasy-api/openapi/sequencedmap"
)

// nullValue is the type of the Null sentinel.
type nullValue struct{}

func (nullValue) String() string { return "null" }

// Null is the explicit null leaf. It is distinct from an absent value
// (untyped nil): Merge(nil, x) returns x, while Merge(Null, x) combines
// the two into a sequence.
var Null = nullValue{}

// Record is a keyed composite with unique keys and insertion-order
// preserving iteration. The overflow tag and next append index live out
// of band and never show up in key enumeration.
type Record struct {
	entries *sequencedmap.Map[string, any]

	// overflow marks a record produced by a limit-exceeding combine;
	// next is its first free numeric index.
	overflow bool
	next     int

	// plain records carry no inherited members. Go maps have no
	// prototype chain, so lookup is unaffected, but the flag is kept
	// observable for parity with ports that do distinguish.
	plain bool
}

// NewRecord creates an empty record.
func NewRecord() *Record {
	return &Record{entries: sequencedmap.New[string, any]()}
}

// NewPlainRecord creates an empty record with no inherited members.
func NewPlainRecord() *Record {
	r := NewRecord()
	r.plain = true
	return r
}

// newRecord picks the constructor matching the allowPrototype policy.
func newRecord(allowPrototype bool) *Record {
	if allowPrototype {
		return NewRecord()
	}
	return NewPlainRecord()
}

// Set stores value under key, appending the key on first insertion.
func (r *Record) Set(key string, value any) {
	r.entries.Set(key, value)
}

// Get returns the value stored under key.
func (r *Record) Get(key string) (any, bool) {
	return r.entries.Get(key)
}

// Has reports whether key is present.
func (r *Record) Has(key string) bool {
	_, ok := r.entries.Get(key)
	return ok
}

// Len returns the number of entries.
func (r *Record) Len() int {
	return r.entries.Len()
}

// All iterates entries in insertion order.
func (r *Record) All() iter.Seq2[string, any] {
	return r.entries.All()
}

// Keys returns the keys in insertion order.
func (r *Record) Keys() []string {
	keys := make([]string, 0, r.entries.Len())
	for k := range r.entries.All() {
		keys = append(keys, k)
	}
	return keys
}

// Plain reports whether the record carries no inherited members.
func (r *Record) Plain() bool {
	return r.plain
}

// Overflow reports whether the record was produced by a limit-exceeding
// combine.
func (r *Record) Overflow() bool {
	return r.overflow
}

// NextIndex returns the first free numeric index of an overflow record,
// zero otherwise.
func (r *Record) NextIndex() int {
	return r.next
}

// appendNext inserts value at the next free numeric index. Only
// meaningful on overflow records.
func (r *Record) appendNext(value any) {
	r.entries.Set(strconv.Itoa(r.next), value)
	r.next++
}

// MarkOverflow tags r as the product of a limit-exceeding combine and
// records its next free index. Returns r for chaining.
func MarkOverflow(r *Record) *Record {
	r.overflow = true
	r.next = r.entries.Len()
	return r
}

// IsOverflow reports whether v is a record carrying the overflow tag.
// Only the tag is consulted: a plain record whose keys happen to look
// numeric is not overflow.
func IsOverflow(v any) bool {
	r, ok := v.(*Record)
	return ok && r.overflow
}
