// Package amount implements a signed fixed-point monetary value with four
// decimal places of precision.
//
// Values are stored as an int64 count of 1/10000 units, so the representable
// range is roughly ±922 billion. Add and Sub do not check for overflow.
package amount

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits an Amount carries.
const Scale = 4

var ErrFormat = errors.New("invalid amount format")

var (
	maxUnits = decimal.NewFromInt(math.MaxInt64)
	minUnits = decimal.NewFromInt(math.MinInt64)
)

// Amount is an immutable fixed-point value. The zero value is 0.0000.
type Amount struct {
	units int64
}

var Zero = Amount{}

// FromUnits builds an Amount from a raw count of 1/10000 units.
func FromUnits(units int64) Amount {
	return Amount{units: units}
}

// Parse reads a plain decimal string such as "1.5" or "-0.0001". Exponent
// notation is not accepted.
//
// Digits beyond the fourth fractional place are rejected rather than rounded
// or truncated; trailing zeros ("1.50000") are accepted because the value is
// still exact.
func Parse(text string) (Amount, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return Zero, fmt.Errorf("%w: empty value", ErrFormat)
	}

	if strings.ContainsAny(s, "eE") {
		return Zero, fmt.Errorf("%w: %q uses exponent notation", ErrFormat, text)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q", ErrFormat, text)
	}

	if !d.Equal(d.Truncate(Scale)) {
		return Zero, fmt.Errorf("%w: %q has more than %d fractional digits", ErrFormat, text, Scale)
	}

	scaled := d.Shift(Scale)
	if scaled.GreaterThan(maxUnits) || scaled.LessThan(minUnits) {
		return Zero, fmt.Errorf("%w: %q is out of range", ErrFormat, text)
	}

	return Amount{units: scaled.IntPart()}, nil
}

// MustParse is Parse for constants and tests. It panics on error.
func MustParse(text string) Amount {
	a, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) Units() int64 {
	return a.units
}

func (a Amount) Add(b Amount) Amount {
	return Amount{units: a.units + b.units}
}

func (a Amount) Sub(b Amount) Amount {
	return Amount{units: a.units - b.units}
}

// Cmp returns -1, 0 or +1 depending on whether a is less than, equal to or
// greater than b.
func (a Amount) Cmp(b Amount) int {
	switch {
	case a.units < b.units:
		return -1
	case a.units > b.units:
		return 1
	default:
		return 0
	}
}

func (a Amount) Equal(b Amount) bool {
	return a.units == b.units
}

func (a Amount) GreaterOrEqual(b Amount) bool {
	return a.units >= b.units
}

func (a Amount) LessThan(b Amount) bool {
	return a.units < b.units
}

func (a Amount) IsZero() bool {
	return a.units == 0
}

func (a Amount) IsPositive() bool {
	return a.units > 0
}

func (a Amount) IsNegative() bool {
	return a.units < 0
}

// Decimal converts the amount to a shopspring decimal without loss.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(a.units, -Scale)
}

// String renders the amount with exactly four fractional digits.
func (a Amount) String() string {
	return a.Decimal().StringFixed(Scale)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	text := strings.Trim(string(data), `"`)
	parsed, err := Parse(text)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
