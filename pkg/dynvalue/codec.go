package dynvalue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"unicode/utf8"
)

// MarshalJSON encodes v. Floats always carry a fraction or exponent so
// that the wire keeps them apart from ints.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes data using the same priority order as Decode.
func (v *Value) UnmarshalJSON(data []byte) error {
	out, err := Decode(data)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindInt:
		buf.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return fmt.Errorf("%w: non-finite float %v", ErrUnsupportedParameterType, v.f)
		}
		buf.WriteString(formatFloat(v.f))
	case KindString:
		return encodeString(buf, v.s)
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindArray:
		buf.WriteByte('[')
		for i, e := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := e.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, k := range v.Keys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := v.obj[k].encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("%w: invalid Value", ErrUnsupportedParameterType)
	}
	return nil
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '.', 'e', 'E':
			return s
		}
	}
	return s + ".0"
}

// encodeString refuses invalid UTF-8; encoding/json would replace it
// with U+FFFD and the value would not survive a round trip.
func encodeString(buf *bytes.Buffer, s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: string %q is not valid UTF-8", ErrUnsupportedParameterType, s)
	}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encoder appends a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

// Decode parses one JSON document into a Value.
//
// Interpretation order is int, float, string, bool, array, object; the
// first that type-checks wins. A number literal without a fraction or
// exponent that fits in int64 is an int; every other number is a float.
// null matches no shape.
func Decode(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Value{}, fmt.Errorf("dynvalue: decode: %w", err)
	}
	var extra any
	if err := dec.Decode(&extra); err != io.EOF {
		return Value{}, fmt.Errorf("dynvalue: trailing content")
	}
	return fromWire(raw)
}

// DecodeObject decodes a JSON object into a parameter map.
func DecodeObject(data []byte) (map[string]Value, error) {
	v, err := Decode(data)
	if err != nil {
		return nil, err
	}
	m, ok := v.AsObject()
	if !ok {
		return nil, fmt.Errorf("%w: want object, got %s", ErrTypeMismatch, v.Kind())
	}
	return m, nil
}

func fromWire(raw any) (Value, error) {
	if n, ok := raw.(json.Number); ok {
		if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			return Int(i), nil
		}
		if f, err := strconv.ParseFloat(n.String(), 64); err == nil {
			return Float(f), nil
		}
		return Value{}, fmt.Errorf("%w: number %s out of range", ErrTypeMismatch, n)
	}
	if s, ok := raw.(string); ok {
		return String(s), nil
	}
	if b, ok := raw.(bool); ok {
		return Bool(b), nil
	}
	if arr, ok := raw.([]any); ok {
		out := make([]Value, len(arr))
		for i, e := range arr {
			v, err := fromWire(e)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = v
		}
		return Value{kind: KindArray, arr: out}, nil
	}
	if m, ok := raw.(map[string]any); ok {
		out := make(map[string]Value, len(m))
		for k, e := range m {
			v, err := fromWire(e)
			if err != nil {
				return Value{}, fmt.Errorf("%q: %w", k, err)
			}
			out[k] = v
		}
		return Value{kind: KindObject, obj: out}, nil
	}
	return Value{}, fmt.Errorf("%w: %T", ErrTypeMismatch, raw)
}
