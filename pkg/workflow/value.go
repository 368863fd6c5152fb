package workflow

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// ValueKind identifies which member of the [Value] union is populated.
type ValueKind int

const (
	// KindString is a free-form text value.
	KindString ValueKind = iota
	// KindNumber is a numeric value, stored as float64.
	KindNumber
	// KindBool is a boolean value.
	KindBool
	// KindList is an ordered sequence of values.
	KindList
	// KindMap is a string-keyed mapping of values.
	KindMap
)

// Value is the configuration value union: string | number | bool | list | map.
// Block configuration observed in workflow documents is free-form, but an
// explicit union keeps comparison structural and deterministic, which the
// diff engine and validator depend on.
//
// The zero value is the empty string. Use the constructor functions to build
// values of other kinds.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
	List []Value
	Map  map[string]Value
}

// String creates a string value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Number creates a numeric value.
func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }

// Bool creates a boolean value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// List creates a list value from the given elements.
func List(elems ...Value) Value { return Value{Kind: KindList, List: elems} }

// Map creates a map value. The input map is used directly, not copied.
func Map(m map[string]Value) Value { return Value{Kind: KindMap, Map: m} }

// Equal reports whether two values are structurally identical: same kind
// and same contents, recursively for lists and maps.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindString:
		return v.Str == o.Str
	case KindNumber:
		return v.Num == o.Num
	case KindBool:
		return v.Bool == o.Bool
	case KindList:
		return slices.EqualFunc(v.List, o.List, Value.Equal)
	case KindMap:
		return maps.EqualFunc(v.Map, o.Map, Value.Equal)
	}
	return false
}

// Clone returns a deep copy of the value.
func (v Value) Clone() Value {
	switch v.Kind {
	case KindList:
		out := v
		out.List = make([]Value, len(v.List))
		for i, e := range v.List {
			out.List[i] = e.Clone()
		}
		return out
	case KindMap:
		out := v
		out.Map = make(map[string]Value, len(v.Map))
		for k, e := range v.Map {
			out.Map[k] = e.Clone()
		}
		return out
	default:
		return v
	}
}

// GoString renders the value in a compact literal form, primarily for
// diagnostics and conflict messages.
func (v Value) GoString() string {
	switch v.Kind {
	case KindString:
		return strconv.Quote(v.Str)
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindList:
		parts := make([]string, len(v.List))
		for i, e := range v.List {
			parts[i] = e.GoString()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		keys := slices.Sorted(maps.Keys(v.Map))
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s: %s", k, v.Map[k].GoString())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return "?"
}

// EqualConfigs reports whether two configuration maps are structurally equal.
func EqualConfigs(a, b map[string]Value) bool {
	return maps.EqualFunc(a, b, Value.Equal)
}

// CloneConfig returns a deep copy of a configuration map.
// Returns nil for a nil input.
func CloneConfig(m map[string]Value) map[string]Value {
	if m == nil {
		return nil
	}
	out := make(map[string]Value, len(m))
	for k, v := range m {
		out[k] = v.Clone()
	}
	return out
}
