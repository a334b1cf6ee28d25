// Package metric holds the DSP measurements a feedback request carries.
//
// Every measurement is optional. A Value is either a finite float64 or absent: NaN, infinities,
// JSON null and values of the wrong JSON type all decode to absent and never produce an error.
package metric

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
)

//nolint:gochecknoglobals // immutable
var jsonNull = []byte("null")

// Value is an optional finite measurement. The zero value is absent.
type Value struct {
	value float64
	valid bool
}

// None is the absent value.
//
//nolint:gochecknoglobals // zero value, effectively const
var None = Value{}

// Of returns a present value for finite inputs, and None otherwise.
func Of(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return None
	}

	return Value{value: v, valid: true}
}

// Ptr converts a nullable float into a Value.
func Ptr(v *float64) Value {
	if v == nil {
		return None
	}

	return Of(*v)
}

// Get returns the value and whether it is present.
func (v Value) Get() (float64, bool) {
	return v.value, v.valid
}

// Valid reports whether the value is present.
func (v Value) Valid() bool {
	return v.valid
}

// Or returns the value, or fallback when absent.
func (v Value) Or(fallback float64) float64 {
	if !v.valid {
		return fallback
	}

	return v.value
}

// Map applies fn to a present value. The result goes through Of, so fn may return NaN to drop it.
func (v Value) Map(fn func(float64) float64) Value {
	if !v.valid {
		return None
	}

	return Of(fn(v.value))
}

// Round returns the value rounded to the given number of decimals.
func (v Value) Round(decimals int) Value {
	return v.Map(func(f float64) float64 {
		return Round(f, decimals)
	})
}

// MarshalJSON renders absent values as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.valid {
		return jsonNull, nil
	}

	return json.Marshal(v.value)
}

// UnmarshalJSON accepts JSON numbers. Anything else leaves the value absent.
func (v *Value) UnmarshalJSON(data []byte) error {
	*v = None

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, jsonNull) || data[0] == '"' {
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return nil //nolint:nilerr // malformed measurements are treated as absent
	}

	*v = Of(f)

	return nil
}

// Round rounds f to the given number of decimals. Negative zero is normalized to zero.
// Magnitudes too large to scale are returned unchanged, so a finite input stays finite.
func Round(f float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))

	scaled := f * scale
	if math.IsInf(scaled, 0) {
		return f
	}

	rounded := math.Round(scaled) / scale

	if rounded == 0 {
		return 0
	}

	return rounded
}

// Text is an optional string measurement such as a codec risk label.
// Non-string JSON values decode to the empty string.
type Text string

// UnmarshalJSON accepts JSON strings only.
func (t *Text) UnmarshalJSON(data []byte) error {
	*t = ""

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil //nolint:nilerr // wrong-typed labels are treated as absent
	}

	*t = Text(strings.TrimSpace(s))

	return nil
}

// Normalized returns the lower-cased label.
func (t Text) Normalized() string {
	return strings.ToLower(strings.TrimSpace(string(t)))
}
