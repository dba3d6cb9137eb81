package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Value is a nullable scalar read from a feature property. Numbers keep their
// numeric type so coordinate columns stay numeric in storage.
type Value struct {
	v     any
	valid bool
}

// StringValue returns a non-null text value.
func StringValue(s string) Value { return Value{v: s, valid: true} }

// NumberValue returns a non-null numeric value.
func NumberValue(f float64) Value { return Value{v: f, valid: true} }

// IntValue returns a non-null integer value.
func IntValue(i int64) Value { return Value{v: i, valid: true} }

// Valid reports whether the property was present and non-null.
func (v Value) Valid() bool { return v.valid }

// Any returns the underlying value, or nil when null.
func (v Value) Any() any {
	if !v.valid {
		return nil
	}
	return v.v
}

// String renders the value as cell text. Null renders as "".
func (v Value) String() string {
	return CellText(v.Any())
}

// CellText renders a [Row] cell as text. nil renders as "".
func CellText(cell any) string {
	switch t := cell.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*v = Value{}
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("decode property: %w", err)
	}

	switch t := raw.(type) {
	case string:
		*v = StringValue(t)
	case bool:
		*v = Value{v: t, valid: true}
	case json.Number:
		if i, err := t.Int64(); err == nil {
			*v = IntValue(i)
			return nil
		}
		f, err := t.Float64()
		if err != nil {
			return fmt.Errorf("decode number %q: %w", t, err)
		}
		*v = NumberValue(f)
	default:
		// Nested objects and arrays are kept as their JSON text.
		*v = StringValue(string(b))
	}
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.v)
}
