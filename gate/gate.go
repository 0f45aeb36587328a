// Package gate classifies data-source results by size and shape.
//
// The gate measures a result once and tags it with a shape kind (scalar,
// sequence, or mapping) so downstream components never re-derive the shape.
// Measurement never fails: when a value cannot be serialized, the size falls
// back to the length of its string representation.
package gate

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Kind is the shape of a measured result.
type Kind string

const (
	// KindScalar covers strings, numbers, booleans, and nil.
	KindScalar Kind = "scalar"

	// KindSequence covers ordered collections of records.
	KindSequence Kind = "sequence"

	// KindMapping covers single structured mappings.
	KindMapping Kind = "mapping"
)

// Size is a derived estimate of a result's magnitude.
type Size struct {
	// Items is the element count for sequences, the key count for
	// mappings, and zero for scalars.
	Items int

	// Chars is the length of the canonical serialized form.
	Chars int

	// Kind is the result's shape.
	Kind Kind
}

// Thresholds are the limits that separate large results from small ones.
type Thresholds struct {
	Items int
	Chars int
}

// Exceeded reports whether the size crosses either threshold.
func (t Thresholds) Exceeded(s Size) bool {
	return s.Items > t.Items || s.Chars > t.Chars
}

// Measure estimates the item count, serialized size, and shape of v.
func Measure(v any) Size {
	s := Size{Kind: classify(v)}
	switch t := v.(type) {
	case nil:
		return s
	case []any:
		s.Items = len(t)
	case map[string]any:
		s.Items = len(t)
	case string:
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Slice, reflect.Array, reflect.Map:
			s.Items = rv.Len()
		}
	}
	s.Chars = charLen(v)
	return s
}

// IsLarge reports whether v exceeds the thresholds. Nil and empty values
// are never large.
func IsLarge(v any, t Thresholds) bool {
	if v == nil {
		return false
	}
	s := Measure(v)
	switch s.Kind {
	case KindSequence, KindMapping:
		if s.Items == 0 {
			return false
		}
	default:
		if s.Chars == 0 {
			return false
		}
	}
	return t.Exceeded(s)
}

func classify(v any) Kind {
	switch v.(type) {
	case nil, string, bool, int, int32, int64, float32, float64, json.Number:
		return KindScalar
	case []any:
		return KindSequence
	case map[string]any:
		return KindMapping
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return KindSequence
	case reflect.Map, reflect.Struct, reflect.Pointer:
		return KindMapping
	}
	return KindScalar
}

func charLen(v any) int {
	if s, ok := v.(string); ok {
		return len(s)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return len(fmt.Sprint(v))
	}
	return len(b)
}
