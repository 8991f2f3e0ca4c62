package operators

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/sieve/internal/ir"
)

var (
	// ErrInvalidValue marks a filter value of the wrong shape or type for
	// its field.
	ErrInvalidValue = errors.New("invalid filter value")

	// ErrMalformedCondition marks a structured condition that is neither a
	// flat mapping nor a (field, equals, value) tuple.
	ErrMalformedCondition = errors.New("malformed condition")
)

func invalidValue(f ir.FieldDescriptor, v ir.IRValue, reason string) error {
	return fmt.Errorf("field %q (%s): %w: %s, got %s", f.Name, f.Type, ErrInvalidValue, reason, describe(v))
}

func describe(v ir.IRValue) string {
	switch v.(type) {
	case nil, ir.IRNull:
		return "null"
	case ir.IRString:
		return "string"
	case ir.IRInt, ir.IRFloat:
		return "number"
	case ir.IRBool:
		return "boolean"
	case ir.IRTime:
		return "time"
	case ir.IRArray:
		return "list"
	case ir.IRObject:
		return "map"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// dateLayout is the date-only form accepted for temporal fields.
const dateLayout = "2006-01-02"

// Coerce checks a scalar filter value against the field's type and returns
// it in normalized form: identifier values of declared type uuid are
// parsed and re-rendered canonically, and temporal strings are parsed into
// IRTime.
func Coerce(f ir.FieldDescriptor, v ir.IRValue) (ir.IRValue, error) {
	if !ir.IsScalar(v) {
		return nil, invalidValue(f, v, "expected a scalar")
	}
	if ir.IsNull(v) {
		return ir.IRNull{}, nil
	}

	switch f.Type {
	case ir.TypeIdentifier:
		return coerceIdentifier(f, v)
	case ir.TypeNumeric:
		switch v.(type) {
		case ir.IRInt, ir.IRFloat:
			return v, nil
		}
		return nil, invalidValue(f, v, "expected a number")
	case ir.TypeString:
		if _, ok := v.(ir.IRString); ok {
			return v, nil
		}
		return nil, invalidValue(f, v, "expected a string")
	case ir.TypeBoolean:
		if _, ok := v.(ir.IRBool); ok {
			return v, nil
		}
		return nil, invalidValue(f, v, "expected a boolean")
	case ir.TypeTemporal:
		return coerceTemporal(f, v)
	default:
		return v, nil
	}
}

func coerceIdentifier(f ir.FieldDescriptor, v ir.IRValue) (ir.IRValue, error) {
	if strings.EqualFold(strings.TrimSpace(f.Declared), "uuid") {
		s, ok := v.(ir.IRString)
		if !ok {
			return nil, invalidValue(f, v, "expected a uuid string")
		}
		u, err := uuid.Parse(string(s))
		if err != nil {
			return nil, invalidValue(f, v, "malformed uuid")
		}
		return ir.IRString(u.String()), nil
	}

	switch v.(type) {
	case ir.IRString, ir.IRInt:
		return v, nil
	}
	return nil, invalidValue(f, v, "expected a string or integer identifier")
}

func coerceTemporal(f ir.FieldDescriptor, v ir.IRValue) (ir.IRValue, error) {
	switch val := v.(type) {
	case ir.IRTime:
		return val, nil
	case ir.IRString:
		s := string(val)
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return ir.IRTime(t.UTC()), nil
		}
		if t, err := time.Parse(dateLayout, s); err == nil {
			return ir.IRTime(t), nil
		}
		return nil, invalidValue(f, v, "expected an RFC 3339 timestamp or YYYY-MM-DD date")
	default:
		return nil, invalidValue(f, v, "expected a time")
	}
}

// Condition normalizes a structured equality condition into the
// containment document it stands for.
//
// Accepted shapes, nested at any depth:
//   - a flat mapping {"field": value, ...}
//   - a tuple ["field", "equals", value] (":equals" is also accepted)
//   - a list of such tuples, merged left to right
//
// A nested value that is itself a mapping or a tuple is normalized the
// same way; other lists are kept as literal array values.
func Condition(v ir.IRValue) (ir.IRObject, error) {
	switch val := v.(type) {
	case ir.IRObject:
		out := make(ir.IRObject, len(val))
		for k, inner := range val {
			n, err := conditionValue(inner)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = n
		}
		return out, nil

	case ir.IRArray:
		if k, inner, ok := tuple(val); ok {
			n, err := conditionValue(inner)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			return ir.IRObject{k: n}, nil
		}
		if len(val) == 0 {
			return nil, fmt.Errorf("%w: empty condition list", ErrMalformedCondition)
		}
		out := ir.IRObject{}
		for i, elem := range val {
			arr, ok := elem.(ir.IRArray)
			if !ok {
				return nil, fmt.Errorf("%w: element %d is %s, expected a tuple", ErrMalformedCondition, i, describe(elem))
			}
			k, inner, ok := tuple(arr)
			if !ok {
				return nil, fmt.Errorf("%w: element %d is not a (field, equals, value) tuple", ErrMalformedCondition, i)
			}
			n, err := conditionValue(inner)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = n
		}
		return out, nil

	default:
		return nil, fmt.Errorf("%w: expected a mapping or (field, equals, value) tuple, got %s", ErrMalformedCondition, describe(v))
	}
}

func conditionValue(v ir.IRValue) (ir.IRValue, error) {
	switch val := v.(type) {
	case ir.IRObject:
		return Condition(val)
	case ir.IRArray:
		if _, _, ok := tuple(val); ok {
			return Condition(val)
		}
		return val, nil
	default:
		return v, nil
	}
}

// tuple matches ["field", "equals", value].
func tuple(arr ir.IRArray) (string, ir.IRValue, bool) {
	if len(arr) != 3 {
		return "", nil, false
	}
	field, ok := arr[0].(ir.IRString)
	if !ok || field == "" {
		return "", nil, false
	}
	op, ok := arr[1].(ir.IRString)
	if !ok || (op != "equals" && op != ":equals") {
		return "", nil, false
	}
	return string(field), arr[2], true
}
