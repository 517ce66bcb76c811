package tap

import "strings"

// ValueKind identifies the variant held by a Value.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindScalar
	KindMap
	KindList
)

// Value is a diagnostic value: a scalar string, a nested Diagnostic or a
// list. Only nested mappings are searched recursively.
type Value struct {
	kind   ValueKind
	scalar string
	nested Diagnostic
	list   []Value
}

// Scalar returns a scalar value.
func Scalar(s string) Value {
	return Value{kind: KindScalar, scalar: s}
}

// Nested returns a value wrapping a nested mapping.
func Nested(d Diagnostic) Value {
	return Value{kind: KindMap, nested: d}
}

// List returns a value wrapping a sequence.
func List(items ...Value) Value {
	return Value{kind: KindList, list: items}
}

// Kind returns the variant of v.
func (v Value) Kind() ValueKind {
	return v.kind
}

// IsNull reports whether v is an explicit YAML null or the zero Value.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// AsScalar returns the scalar text and whether v is a scalar.
func (v Value) AsScalar() (string, bool) {
	return v.scalar, v.kind == KindScalar
}

// AsMap returns the nested mapping and whether v is a mapping.
func (v Value) AsMap() (Diagnostic, bool) {
	return v.nested, v.kind == KindMap
}

// AsList returns the list items and whether v is a list.
func (v Value) AsList() ([]Value, bool) {
	return v.list, v.kind == KindList
}

// String renders the value for display.
func (v Value) String() string {
	switch v.kind {
	case KindScalar:
		return v.scalar
	case KindMap:
		return v.nested.String()
	case KindList:
		parts := make([]string, len(v.list))
		for i, item := range v.list {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return ""
	}
}

// Entry is one key/value pair of a Diagnostic.
type Entry struct {
	Key   string
	Value Value
}

// Diagnostic is an ordered mapping from key to Value, preserving the
// document order of the YAML block it was read from.
type Diagnostic []Entry

// Get returns the value stored under key.
func (d Diagnostic) Get(key string) (Value, bool) {
	for _, e := range d {
		if e.Key == key {
			return e.Value, true
		}
	}
	return Value{}, false
}

// GetFold returns the value stored under key, compared case-insensitively.
func (d Diagnostic) GetFold(key string) (Value, bool) {
	for _, e := range d {
		if strings.EqualFold(e.Key, key) {
			return e.Value, true
		}
	}
	return Value{}, false
}

// Keys returns the keys in order.
func (d Diagnostic) Keys() []string {
	keys := make([]string, len(d))
	for i, e := range d {
		keys[i] = e.Key
	}
	return keys
}

func (d Diagnostic) String() string {
	parts := make([]string, len(d))
	for i, e := range d {
		parts[i] = e.Key + ": " + e.Value.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
