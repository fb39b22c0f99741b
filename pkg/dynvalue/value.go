// Package dynvalue holds the JSON-like tagged union used for request
// parameters: int, float, string, bool, array and object.
package dynvalue

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"unicode/utf8"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt
	KindFloat
	KindString
	KindBool
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "invalid"
	}
}

var (
	// ErrUnsupportedParameterType is returned when a native value has no Value shape.
	ErrUnsupportedParameterType = errors.New("dynvalue: unsupported parameter type")
	// ErrTypeMismatch is returned when wire data matches none of the shapes.
	ErrTypeMismatch = errors.New("dynvalue: type mismatch")
)

// Value is an immutable tagged union. The zero Value is invalid.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    bool
	arr  []Value
	obj  map[string]Value
}

func Int(i int64) Value     { return Value{kind: KindInt, i: i} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func String(s string) Value { return Value{kind: KindString, s: s} }
func Bool(b bool) Value     { return Value{kind: KindBool, b: b} }

// Array copies vs into a new array Value.
func Array(vs ...Value) Value {
	out := make([]Value, len(vs))
	copy(out, vs)
	return Value{kind: KindArray, arr: out}
}

// Object copies m into a new object Value.
func Object(m map[string]Value) Value {
	out := make(map[string]Value, len(m))
	for k, v := range m {
		out[k] = v
	}
	return Value{kind: KindObject, obj: out}
}

func (v Value) Kind() Kind    { return v.kind }
func (v Value) IsValid() bool { return v.kind != KindInvalid }

func (v Value) AsInt() (int64, bool)      { return v.i, v.kind == KindInt }
func (v Value) AsFloat() (float64, bool)  { return v.f, v.kind == KindFloat }
func (v Value) AsString() (string, bool)  { return v.s, v.kind == KindString }
func (v Value) AsBool() (bool, bool)      { return v.b, v.kind == KindBool }
func (v Value) AsArray() ([]Value, bool)  { return v.arr, v.kind == KindArray }
func (v Value) AsObject() (map[string]Value, bool) {
	return v.obj, v.kind == KindObject
}

// Keys returns the object's keys in sorted order, or nil for non-objects.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	keys := make([]string, 0, len(v.obj))
	for k := range v.obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports structural equality. Floats compare by value.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindString:
		return v.s == o.s
	case KindBool:
		return v.b == o.b
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.obj) != len(o.obj) {
			return false
		}
		for k, x := range v.obj {
			y, ok := o.obj[k]
			if !ok || !x.Equal(y) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// Interface converts v back to plain Go values: int64, float64, string,
// bool, []any and map[string]any.
func (v Value) Interface() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindBool:
		return v.b
	case KindArray:
		out := make([]any, len(v.arr))
		for i, x := range v.arr {
			out[i] = x.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.obj))
		for k, x := range v.obj {
			out[k] = x.Interface()
		}
		return out
	default:
		return nil
	}
}

func (v Value) String() string {
	b, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<%s: %v>", v.kind, err)
	}
	return string(b)
}

// From builds a Value from a native Go value. Anything outside the six
// shapes, including nil and non-finite floats, fails with
// ErrUnsupportedParameterType.
func From(x any) (Value, error) {
	switch t := x.(type) {
	case Value:
		if !t.IsValid() {
			return Value{}, fmt.Errorf("%w: invalid Value", ErrUnsupportedParameterType)
		}
		return t, nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return fromUint(uint64(t))
	case uint8:
		return Int(int64(t)), nil
	case uint16:
		return Int(int64(t)), nil
	case uint32:
		return Int(int64(t)), nil
	case uint64:
		return fromUint(t)
	case float32:
		return fromFloat(float64(t))
	case float64:
		return fromFloat(t)
	case string:
		if !utf8.ValidString(t) {
			return Value{}, fmt.Errorf("%w: string is not valid UTF-8", ErrUnsupportedParameterType)
		}
		return String(t), nil
	case bool:
		return Bool(t), nil
	case []Value:
		for i, e := range t {
			if !e.IsValid() {
				return Value{}, fmt.Errorf("%w: [%d]: invalid Value", ErrUnsupportedParameterType, i)
			}
		}
		return Array(t...), nil
	case []any:
		out := make([]Value, len(t))
		for i, e := range t {
			ev, err := From(e)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = ev
		}
		return Value{kind: KindArray, arr: out}, nil
	case map[string]Value:
		for k, e := range t {
			if err := checkKey(k); err != nil {
				return Value{}, err
			}
			if !e.IsValid() {
				return Value{}, fmt.Errorf("%w: %q: invalid Value", ErrUnsupportedParameterType, k)
			}
		}
		return Object(t), nil
	case map[string]any:
		out := make(map[string]Value, len(t))
		for k, e := range t {
			if err := checkKey(k); err != nil {
				return Value{}, err
			}
			ev, err := From(e)
			if err != nil {
				return Value{}, fmt.Errorf("%q: %w", k, err)
			}
			out[k] = ev
		}
		return Value{kind: KindObject, obj: out}, nil
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedParameterType, x)
	}
}

// FromMap converts a parameter map, failing on the first unsupported entry.
func FromMap(m map[string]any) (map[string]Value, error) {
	if m == nil {
		return nil, nil
	}
	out := make(map[string]Value, len(m))
	for k, x := range m {
		if err := checkKey(k); err != nil {
			return nil, err
		}
		v, err := From(x)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

// checkKey rejects object keys JSON could not carry unchanged.
func checkKey(k string) error {
	if !utf8.ValidString(k) {
		return fmt.Errorf("%w: key %q is not valid UTF-8", ErrUnsupportedParameterType, k)
	}
	return nil
}

func fromUint(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return Value{}, fmt.Errorf("%w: uint64 %d overflows int64", ErrUnsupportedParameterType, u)
	}
	return Int(int64(u)), nil
}

func fromFloat(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, fmt.Errorf("%w: non-finite float %v", ErrUnsupportedParameterType, f)
	}
	return Float(f), nil
}
