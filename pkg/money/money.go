// Package money provides currency-safe handling of statement amounts using
// integer cents and the Fowler Money pattern. Luxembourg statutory filings
// are denominated in euro; EUR is the package default.
package money

import (
	"encoding/json"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// EUR is the ISO-4217 code every statement amount carries.
const EUR = "EUR"

// Amount is a monetary statement value. It wraps go-money for safe
// arithmetic and shopspring/decimal for precision conversions.
type Amount struct {
	m *money.Money
}

// New creates an Amount from cents (minor units).
func New(cents int64) *Amount {
	return &Amount{m: money.New(cents, EUR)}
}

// FromDecimal creates an Amount from a decimal euro value, rounding to the
// nearest cent.
func FromDecimal(d decimal.Decimal) *Amount {
	cents := d.Mul(decimal.New(1, 2)).Round(0).IntPart()
	return New(cents)
}

// Zero returns a zero euro amount.
func Zero() *Amount {
	return New(0)
}

// Cents returns the amount in minor units.
func (a *Amount) Cents() int64 {
	if a == nil || a.m == nil {
		return 0
	}
	return a.m.Amount()
}

// ToDecimal converts to decimal euros for precise calculations.
func (a *Amount) ToDecimal() decimal.Decimal {
	if a == nil || a.m == nil {
		return decimal.Zero
	}
	return decimal.NewFromInt(a.m.Amount()).Div(decimal.New(1, 2))
}

// IsZero reports whether the amount is zero.
func (a *Amount) IsZero() bool {
	return a == nil || a.m == nil || a.m.IsZero()
}

// IsNegative reports whether the amount is below zero.
func (a *Amount) IsNegative() bool {
	return a != nil && a.m != nil && a.m.IsNegative()
}

// Abs returns the absolute value.
func (a *Amount) Abs() *Amount {
	if a == nil || a.m == nil {
		return Zero()
	}
	return &Amount{m: a.m.Absolute()}
}

// Add sums two euro amounts.
func (a *Amount) Add(other *Amount) *Amount {
	if a == nil || a.m == nil {
		return other
	}
	if other == nil || other.m == nil {
		return a
	}
	// Same-currency by construction; go-money cannot fail here.
	sum, _ := a.m.Add(other.m)
	return &Amount{m: sum}
}

// Sub subtracts other from a.
func (a *Amount) Sub(other *Amount) *Amount {
	if other == nil || other.m == nil {
		return a
	}
	if a == nil || a.m == nil {
		return &Amount{m: other.m.Negative()}
	}
	diff, _ := a.m.Subtract(other.m)
	return &Amount{m: diff}
}

// ApplyScale multiplies by a unit-scale factor (1, 1000, 1000000).
func (a *Amount) ApplyScale(multiplier decimal.Decimal) *Amount {
	if a == nil || a.m == nil {
		return Zero()
	}
	return FromDecimal(a.ToDecimal().Mul(multiplier))
}

// PercentageOf returns this amount as a percentage of total, zero when the
// total is zero.
func (a *Amount) PercentageOf(total *Amount) decimal.Decimal {
	if a == nil || a.m == nil || total == nil || total.IsZero() {
		return decimal.Zero
	}
	return a.ToDecimal().Div(total.ToDecimal()).Mul(decimal.NewFromInt(100))
}

// Display returns the locale-formatted string, e.g. "€1,234.56".
func (a *Amount) Display() string {
	if a == nil || a.m == nil {
		return money.New(0, EUR).Display()
	}
	return a.m.Display()
}

// String returns the plain decimal string, e.g. "1234.56".
func (a *Amount) String() string {
	return a.ToDecimal().StringFixed(2)
}

// MarshalJSON emits cents plus display form.
func (a *Amount) MarshalJSON() ([]byte, error) {
	if a == nil || a.m == nil {
		return json.Marshal(nil)
	}
	return json.Marshal(map[string]any{
		"cents":    a.Cents(),
		"currency": EUR,
		"display":  a.Display(),
	})
}

// UnmarshalJSON accepts the MarshalJSON shape.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var v struct {
		Cents int64 `json:"cents"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	a.m = money.New(v.Cents, EUR)
	return nil
}
