package queryfold

import (
	"bytes"
	"reflect"
)

// IsBuffer reports whether v is an opaque binary blob: a []byte, any
// named byte-slice type, or a *bytes.Buffer. Blobs are always leaves to
// the merge engine, never iterated or key-merged.
//
// The decision is made on the value's intrinsic kind. A record or struct
// that merely exposes a buffer-shaped field is not a buffer.
func IsBuffer(v any) bool {
	switch v.(type) {
	case nil:
		return false
	case []byte:
		return true
	case *bytes.Buffer:
		return true
	}
	rt := reflect.TypeOf(v)
	return rt.Kind() == reflect.Slice && rt.Elem().Kind() == reflect.Uint8
}
