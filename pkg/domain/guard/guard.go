// Package guard provides total coercion helpers for numbers, percentages and
// calendar days. Every function returns a finite value for any input.
package guard

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Float coerces v into a finite float64, returning fallback when v is absent,
// unparseable or non-finite.
func Float(v any, fallback float64) float64 {
	var f float64
	switch n := v.(type) {
	case nil:
		return fallback
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case Number:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return fallback
		}
		f = parsed
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(n), "%"))
		if s == "" {
			return fallback
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fallback
		}
		f = parsed
	default:
		return fallback
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fallback
	}
	return f
}

// Int coerces v into an int, truncating toward zero. Unusable input yields 0.
func Int(v any) int {
	return int(Float(v, 0))
}

// NonNegInt is Int clamped at zero.
func NonNegInt(v any) int {
	n := Int(v)
	if n < 0 {
		return 0
	}
	return n
}

// Round1 rounds to one decimal place, half away from zero.
func Round1(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return math.Round(f*10) / 10
}

// Pct normalizes v into a percentage in [0, 100] with one decimal.
// Values in (0, 1] are read as fractions.
func Pct(v any) float64 {
	f := Float(v, 0)
	if f > 0 && f <= 1 {
		f *= 100
	}
	return Round1(clamp(f, 0, 100))
}

// Ratio returns num/den as a percentage with one decimal, or 0 when den <= 0.
func Ratio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return Round1(num / den * 100)
}

func clamp(f, lo, hi float64) float64 {
	if f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}

// Number is a float64 that decodes leniently from JSON numbers, numeric
// strings and null. Anything else decodes to zero instead of failing.
type Number float64

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	*n = Number(Float(s, 0))
	return nil
}

// Float returns the number as a finite float64.
func (n Number) Float() float64 {
	return Float(float64(n), 0)
}

// Int returns the number truncated toward zero.
func (n Number) Int() int {
	return int(n.Float())
}
