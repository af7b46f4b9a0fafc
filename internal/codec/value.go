package codec

import (
	"fmt"
	"time"
)

// Value is a single typed column value. Exactly one of the fields below is
// meaningful, selected by Kind; this mirrors the tagged-union shape the
// original type_conversion module used, just expressed with Go's static
// fields instead of Python's dynamic dispatch.
type Value struct {
	Kind Kind

	Int   int32
	Float float32
	// Date is the full Unix timestamp in seconds, at UTC midnight of the
	// given day, matching how original_source's _date_to_key converts a
	// parsed '%Y-%m-%d' date via int(dt.timestamp()).
	Date uint32
	Str  string
	// Point holds an ARRAY[FLOAT] value's two coordinates.
	Point [2]float32
}

func IntValue(v int32) Value     { return Value{Kind: KindInt, Int: v} }
func FloatValue(v float32) Value { return Value{Kind: KindFloat, Float: v} }
func DateValue(v uint32) Value   { return Value{Kind: KindDate, Date: v} }
func VarcharValue(v string) Value { return Value{Kind: KindVarchar, Str: v} }
func PointValue(x, y float32) Value {
	return Value{Kind: KindArrayFloat, Point: [2]float32{x, y}}
}

const dateLayout = "2006-01-02"

// ToAny converts a decoded Value into the representation returned to query
// callers: plain ints and floats, an ISO-8601 date string, a trimmed
// string, or a two-element []float64 for ARRAY[FLOAT].
func (v Value) ToAny() any {
	switch v.Kind {
	case KindInt:
		return int64(v.Int)
	case KindFloat:
		return float64(v.Float)
	case KindDate:
		t := time.Unix(int64(v.Date), 0).UTC()
		return t.Format(dateLayout)
	case KindVarchar:
		return v.Str
	case KindArrayFloat:
		return []float64{float64(v.Point[0]), float64(v.Point[1])}
	default:
		return nil
	}
}

// CoerceValue converts a loosely-typed input (as it arrives from a decoded
// JSON query object: float64 for numbers, string, or []any for a point)
// into a Value matching ct. It is the boundary where TypeMismatch is
// detected, before anything is written to disk.
func CoerceValue(raw any, ct ColumnType) (Value, error) {
	switch ct.Kind {
	case KindInt:
		n, err := asInt64(raw)
		if err != nil {
			return Value{}, typeMismatch("INT", raw)
		}
		return IntValue(int32(n)), nil

	case KindFloat:
		f, err := asFloat64(raw)
		if err != nil {
			return Value{}, typeMismatch("FLOAT", raw)
		}
		return FloatValue(float32(f)), nil

	case KindDate:
		s, ok := raw.(string)
		if !ok {
			return Value{}, typeMismatch("DATE", raw)
		}
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return Value{}, typeMismatch("DATE", raw)
		}
		return DateValue(uint32(t.Unix())), nil

	case KindVarchar:
		s, ok := raw.(string)
		if !ok {
			return Value{}, typeMismatch("VARCHAR", raw)
		}
		if len(s) > ct.Size {
			return Value{}, fmt.Errorf("codec: varchar value %q exceeds column size %d", s, ct.Size)
		}
		return VarcharValue(s), nil

	case KindArrayFloat:
		pair, ok := raw.([]any)
		if !ok || len(pair) != 2 {
			return Value{}, typeMismatch("ARRAY[FLOAT]", raw)
		}
		x, err1 := asFloat64(pair[0])
		y, err2 := asFloat64(pair[1])
		if err1 != nil || err2 != nil {
			return Value{}, typeMismatch("ARRAY[FLOAT]", raw)
		}
		return PointValue(float32(x), float32(y)), nil

	default:
		return Value{}, fmt.Errorf("codec: unknown column kind %v", ct.Kind)
	}
}

func typeMismatch(want string, got any) error {
	return fmt.Errorf("codec: expected %s, got %T(%v)", want, got, got)
}

func asInt64(raw any) (int64, error) {
	switch n := raw.(type) {
	case float64:
		return int64(n), nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("not a number")
	}
}

func asFloat64(raw any) (float64, error) {
	switch n := raw.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("not a number")
	}
}
