// pkg/core/value.go
package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrValueCoercion = errors.New("value does not match field type")

// Value is an annotation cell: int64, float64, string, or nil when unset.
type Value = any

// Coerce converts raw user input into the Go value for the declared type.
// Strings are passed through untouched.
func Coerce(raw string, t FieldType) (Value, error) {
	switch t {
	case FieldInt:
		v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an int", ErrValueCoercion, raw)
		}
		return v, nil
	case FieldFloat:
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a float", ErrValueCoercion, raw)
		}
		return finite(v)
	case FieldString:
		return raw, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidFieldType, int(t))
	}
}

// Normalize maps a value read back from persistence or passed by a caller
// onto the declared type. Nil stays nil.
func Normalize(v Value, t FieldType) (Value, error) {
	if v == nil {
		return nil, nil
	}
	switch t {
	case FieldInt:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int32:
			return int64(n), nil
		case int64:
			return n, nil
		case float64:
			if n != math.Trunc(n) {
				return nil, fmt.Errorf("%w: %v is not an int", ErrValueCoercion, n)
			}
			return int64(n), nil
		case json.Number:
			i, err := n.Int64()
			if err != nil {
				return nil, fmt.Errorf("%w: %v is not an int", ErrValueCoercion, n)
			}
			return i, nil
		case string:
			return Coerce(n, t)
		}
	case FieldFloat:
		switch n := v.(type) {
		case float64:
			return finite(n)
		case float32:
			return finite(float64(n))
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case json.Number:
			f, err := n.Float64()
			if err != nil {
				return nil, fmt.Errorf("%w: %v is not a float", ErrValueCoercion, n)
			}
			return finite(f)
		case string:
			return Coerce(n, t)
		}
	case FieldString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidFieldType, int(t))
	}
	return nil, fmt.Errorf("%w: %T for %s field", ErrValueCoercion, v, t)
}

// finite rejects NaN and infinities, which JSON cannot carry.
func finite(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: %v is not a finite float", ErrValueCoercion, f)
	}
	return f, nil
}

// FormatValue renders a value as text: empty for nil, base-10 ints and the
// shortest float form that round-trips.
func FormatValue(v Value) string {
	switch n := v.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(n, 10)
	case int:
		return strconv.Itoa(n)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case string:
		return n
	default:
		return fmt.Sprint(n)
	}
}
