// Package money provides fixed-point currency arithmetic in minor units.
//
// All amounts are carried as integer cents internally; decimal parsing and
// formatting happen only at the wire boundary. Rounding is half away from
// zero at 2 decimal places throughout.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value in currency minor units (cents).
type Amount int64

// FromDecimal converts a decimal amount to minor units, rounding half away
// from zero at 2 decimal places.
func FromDecimal(d decimal.Decimal) Amount {
	return Amount(d.Round(2).Shift(2).IntPart())
}

// FromFloat converts a float amount to minor units.
func FromFloat(f float64) Amount {
	return FromDecimal(decimal.NewFromFloat(f))
}

// Parse converts a decimal string to minor units.
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return FromDecimal(d), nil
}

// Decimal returns the amount as a decimal with 2 fractional digits.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -2)
}

// String formats the amount with exactly 2 decimal places, e.g. "12.50".
func (a Amount) String() string {
	return a.Decimal().StringFixed(2)
}

// Abs returns the absolute value of the amount.
func (a Amount) Abs() Amount {
	if a < 0 {
		return -a
	}
	return a
}

// Value is an optional amount decoded from JSON. The inbound payload allows
// both numbers and numeric strings for monetary fields, so decoding is
// tolerant: a present but non-numeric value sets Invalid instead of failing
// the whole decode, letting the caller attach a field-specific error code.
type Value struct {
	Dec     decimal.Decimal
	Set     bool
	Invalid bool
}

// UnmarshalJSON accepts numbers, numeric strings, and null.
func (v *Value) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		*v = Value{}
		return nil
	}
	if strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) && len(s) >= 2 {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if s == "" {
		*v = Value{}
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		*v = Value{Set: true, Invalid: true}
		return nil
	}
	*v = Value{Dec: d, Set: true}
	return nil
}

// MarshalJSON renders the value as a 2dp decimal string, or null when unset.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Set || v.Invalid {
		return []byte("null"), nil
	}
	return []byte(`"` + v.Dec.StringFixed(2) + `"`), nil
}

// Minor converts the value to minor units. Zero when unset.
func (v Value) Minor() Amount {
	if !v.Set || v.Invalid {
		return 0
	}
	return FromDecimal(v.Dec)
}
