package engine

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/pkg/errors"
)

// ============================================================================
// VALUE — Closed scalar variant for record fields
// ============================================================================
// Records carry one of four kinds: Null, Number, Text, Bool.
// Equality is strict: Number(5) never equals Text("5").
// The zero Value is Null, so a missing map entry reads as Null.
// ============================================================================

// Kind identifies which scalar a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindText
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	default:
		return "null"
	}
}

// Value is an immutable scalar. Construct with Null, Number, Text or Bool.
type Value struct {
	kind Kind
	num  float64
	text string
	b    bool
}

// Null returns the null Value.
func Null() Value { return Value{} }

// Number returns a numeric Value. -0 is stored as 0.
func Number(f float64) Value {
	if f == 0 {
		f = 0
	}
	return Value{kind: KindNumber, num: f}
}

// Text returns a string Value.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsNull() bool   { return v.kind == KindNull }
func (v Value) IsText() bool   { return v.kind == KindText }
func (v Value) IsNumber() bool { return v.kind == KindNumber }

// Float returns the number held by v and whether v is a Number.
func (v Value) Float() (float64, bool) { return v.num, v.kind == KindNumber }

// Str returns the text held by v and whether v is Text.
func (v Value) Str() (string, bool) { return v.text, v.kind == KindText }

// Truth returns the boolean held by v and whether v is a Bool.
func (v Value) Truth() (bool, bool) { return v.b, v.kind == KindBool }

// Equal reports strict kind+value equality. NaN equals NaN so that
// distinct-value sets stay finite.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		if math.IsNaN(v.num) {
			return math.IsNaN(o.num)
		}
		return v.num == o.num
	case KindText:
		return v.text == o.text
	case KindBool:
		return v.b == o.b
	default:
		return true
	}
}

// Key returns a canonical, collision-free encoding of v: a kind tag,
// the payload length, a colon, then the payload. Equal values share a key.
func (v Value) Key() string {
	var tag byte
	var payload string
	switch v.kind {
	case KindNumber:
		tag, payload = 'n', formatNumber(v.num)
	case KindText:
		tag, payload = 's', v.text
	case KindBool:
		tag, payload = 'b', strconv.FormatBool(v.b)
	default:
		tag = 'z'
	}
	buf := make([]byte, 0, len(payload)+8)
	buf = append(buf, tag)
	buf = strconv.AppendInt(buf, int64(len(payload)), 10)
	buf = append(buf, ':')
	buf = append(buf, payload...)
	return string(buf)
}

// String renders v for labels. Null renders as "(null)".
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return formatNumber(v.num)
	case KindText:
		return v.text
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return "(null)"
	}
}

// Interface returns v as a plain Go value (nil, float64, string or bool).
func (v Value) Interface() any {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindText:
		return v.text
	case KindBool:
		return v.b
	default:
		return nil
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ============================================================================
// CONVERSION
// ============================================================================

// FromAny converts a plain Go scalar into a Value.
// Accepted: nil, bool, string, json.Number, every int/uint/float type, and Value.
// Anything else (maps, slices, structs) is not a scalar and is rejected.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case string:
		return Text(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, errors.Wrapf(err, "invalid number %q", t.String())
		}
		return Number(f), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Number(float64(t)), nil
	case int8:
		return Number(float64(t)), nil
	case int16:
		return Number(float64(t)), nil
	case int32:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case uint:
		return Number(float64(t)), nil
	case uint8:
		return Number(float64(t)), nil
	case uint16:
		return Number(float64(t)), nil
	case uint32:
		return Number(float64(t)), nil
	case uint64:
		return Number(float64(t)), nil
	default:
		return Value{}, errors.Errorf("unsupported value type %T", x)
	}
}

// MarshalJSON encodes v as a native JSON scalar. Non-finite numbers encode as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindNumber && (math.IsNaN(v.num) || math.IsInf(v.num, 0)) {
		return []byte("null"), nil
	}
	return json.Marshal(v.Interface())
}

// UnmarshalJSON decodes a JSON scalar. Objects and arrays are rejected.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	val, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = val
	return nil
}
