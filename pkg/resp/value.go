package resp

import (
	"fmt"
	"strconv"
)

// Kind identifies the wire type a Value was parsed from.
type Kind int

const (
	// KindNil is a null bulk string ($-1).
	KindNil Kind = iota
	// KindNilArray is a null array (*-1). Callers usually treat it the
	// same as KindNil; transactions use it to report an aborted EXEC.
	KindNilArray
	// KindSimple is a simple string (+OK).
	KindSimple
	// KindInteger is an integer reply (:1).
	KindInteger
	// KindBulk is a bulk string ($5\r\nhello).
	KindBulk
	// KindArray is an array reply (*2...).
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindNilArray:
		return "nil-array"
	case KindSimple:
		return "simple"
	case KindInteger:
		return "integer"
	case KindBulk:
		return "bulk"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Value is a single reply. The zero value is a nil reply.
type Value struct {
	kind Kind
	str  []byte
	num  int64
	arr  []Value
}

func NilValue() Value {
	return Value{kind: KindNil}
}

func NilArrayValue() Value {
	return Value{kind: KindNilArray}
}

func SimpleValue(s string) Value {
	return Value{kind: KindSimple, str: []byte(s)}
}

func IntegerValue(n int64) Value {
	return Value{kind: KindInteger, num: n}
}

func BulkValue(s string) Value {
	return Value{kind: KindBulk, str: []byte(s)}
}

func BytesValue(b []byte) Value {
	return Value{kind: KindBulk, str: b}
}

func ArrayValue(vals ...Value) Value {
	if vals == nil {
		vals = []Value{}
	}
	return Value{kind: KindArray, arr: vals}
}

func (v Value) Kind() Kind {
	return v.kind
}

// IsNil reports whether the reply was a null bulk string or a null array.
func (v Value) IsNil() bool {
	return v.kind == KindNil || v.kind == KindNilArray
}

// Text returns the reply as a string. Integer replies are formatted in
// decimal; nil replies return ErrNil.
func (v Value) Text() (string, error) {
	switch v.kind {
	case KindSimple, KindBulk:
		return string(v.str), nil
	case KindInteger:
		return strconv.FormatInt(v.num, 10), nil
	case KindNil, KindNilArray:
		return "", ErrNil
	default:
		return "", fmt.Errorf("unexpected %s reply", v.kind)
	}
}

// Int returns the reply as an int64, parsing string replies if needed.
func (v Value) Int() (int64, error) {
	switch v.kind {
	case KindInteger:
		return v.num, nil
	case KindSimple, KindBulk:
		n, err := strconv.ParseInt(string(v.str), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parsing %q as integer: %w", v.str, err)
		}
		return n, nil
	case KindNil, KindNilArray:
		return 0, ErrNil
	default:
		return 0, fmt.Errorf("unexpected %s reply", v.kind)
	}
}

// Float returns the reply as a float64, parsing string replies if needed.
func (v Value) Float() (float64, error) {
	switch v.kind {
	case KindInteger:
		return float64(v.num), nil
	case KindSimple, KindBulk:
		f, err := strconv.ParseFloat(string(v.str), 64)
		if err != nil {
			return 0, fmt.Errorf("parsing %q as float: %w", v.str, err)
		}
		return f, nil
	case KindNil, KindNilArray:
		return 0, ErrNil
	default:
		return 0, fmt.Errorf("unexpected %s reply", v.kind)
	}
}

// Bool returns the reply as a boolean. Integer replies report n != 0.
func (v Value) Bool() (bool, error) {
	switch v.kind {
	case KindInteger:
		return v.num != 0, nil
	case KindSimple, KindBulk:
		b, err := strconv.ParseBool(string(v.str))
		if err != nil {
			return false, fmt.Errorf("parsing %q as bool: %w", v.str, err)
		}
		return b, nil
	case KindNil, KindNilArray:
		return false, ErrNil
	default:
		return false, fmt.Errorf("unexpected %s reply", v.kind)
	}
}

// Slice returns the elements of an array reply.
func (v Value) Slice() ([]Value, error) {
	switch v.kind {
	case KindArray:
		return v.arr, nil
	case KindNil, KindNilArray:
		return nil, ErrNil
	default:
		return nil, fmt.Errorf("unexpected %s reply", v.kind)
	}
}

// Strings returns an array reply as a string slice. It fails if any
// element is nil; use Slice for replies that may hold nil elements.
func (v Value) Strings() ([]string, error) {
	vals, err := v.Slice()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(vals))
	for i, val := range vals {
		s, err := val.Text()
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}

// StringMap interprets an array reply of alternating field/value pairs,
// as returned by HGETALL and CONFIG GET.
func (v Value) StringMap() (map[string]string, error) {
	vals, err := v.Slice()
	if err != nil {
		return nil, err
	}
	if len(vals)%2 != 0 {
		return nil, fmt.Errorf("map reply has odd length %d", len(vals))
	}
	out := make(map[string]string, len(vals)/2)
	for i := 0; i < len(vals); i += 2 {
		field, err := vals[i].Text()
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i/2, err)
		}
		value, err := vals[i+1].Text()
		if err != nil {
			return nil, fmt.Errorf("value for %q: %w", field, err)
		}
		out[field] = value
	}
	return out, nil
}

// String renders the value for logs and test failures.
func (v Value) String() string {
	switch v.kind {
	case KindNil, KindNilArray:
		return "(nil)"
	case KindSimple:
		return string(v.str)
	case KindInteger:
		return strconv.FormatInt(v.num, 10)
	case KindBulk:
		return strconv.Quote(string(v.str))
	case KindArray:
		return fmt.Sprint(v.arr)
	default:
		return "(unknown)"
	}
}
