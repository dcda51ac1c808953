package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// ValueKind tags a Value.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindText
	KindJSON
	// KindUnmapped is the text rendering of a type without a specific rule.
	KindUnmapped
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindJSON:
		return "json"
	case KindUnmapped:
		return "unmapped"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is the generic, engine-independent representation of one result cell.
type Value struct {
	Kind  ValueKind
	Bool  bool
	Int   int64
	Float float64
	Text  string
	JSON  any
}

func Null() Value             { return Value{Kind: KindNull} }
func Bool(b bool) Value       { return Value{Kind: KindBool, Bool: b} }
func Int(i int64) Value       { return Value{Kind: KindInt, Int: i} }
func Text(s string) Value     { return Value{Kind: KindText, Text: s} }
func JSON(v any) Value        { return Value{Kind: KindJSON, JSON: v} }
func Unmapped(s string) Value { return Value{Kind: KindUnmapped, Text: s} }

// Float builds a float value. NaN and infinities have no JSON number form and
// become text ("NaN", "Infinity", "-Infinity").
func Float(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Text(FormatNonFinite(f))
	}
	return Value{Kind: KindFloat, Float: f}
}

// FormatNonFinite renders NaN and infinities the way Postgres prints them.
func FormatNonFinite(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

func (v Value) IsNull() bool { return v.Kind == KindNull }

// Any returns the plain Go value, as encoding/json would see it.
func (v Value) Any() any {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindText, KindUnmapped:
		return v.Text
	case KindJSON:
		return v.JSON
	default:
		return nil
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return strconv.AppendBool(nil, v.Bool), nil
	case KindInt:
		return strconv.AppendInt(nil, v.Int, 10), nil
	case KindFloat:
		if math.IsNaN(v.Float) || math.IsInf(v.Float, 0) {
			return json.Marshal(FormatNonFinite(v.Float))
		}
		return json.Marshal(v.Float)
	case KindText, KindUnmapped:
		return json.Marshal(v.Text)
	case KindJSON:
		return json.Marshal(v.JSON)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts any JSON value. Structured values come back as KindJSON
// and numbers without a fraction as KindInt.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case nil:
		*v = Null()
	case bool:
		*v = Bool(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			*v = Int(i)
			return nil
		}
		f, err := x.Float64()
		if err != nil {
			return err
		}
		*v = Float(f)
	case string:
		*v = Text(x)
	default:
		*v = JSON(x)
	}
	return nil
}
