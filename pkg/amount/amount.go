// Package amount converts operator-entered amounts between display and base units.
package amount

import (
	"encoding/json"
	"fmt"
	"math/big"
	"math/rand"
	"strings"

	"github.com/shopspring/decimal"
)

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL = 1_000_000_000

var maxUint64 = decimal.RequireFromString("18446744073709551615")

// Clean strips thousands separators and surrounding spaces.
func Clean(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
}

// Parse reads a decimal amount such as "1,000.5".
func Parse(s string) (decimal.Decimal, error) {
	c := Clean(s)
	if c == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(c)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return d, nil
}

// ParseOrZero is Parse with the empty string read as zero.
func ParseOrZero(s string) (decimal.Decimal, error) {
	if Clean(s) == "" {
		return decimal.Zero, nil
	}
	return Parse(s)
}

// Normalize returns a canonical text form used to compare amounts. Empty
// input becomes "0"; unparsable input is returned cleaned.
func Normalize(s string) string {
	c := Clean(s)
	if c == "" {
		return "0"
	}
	d, err := decimal.NewFromString(c)
	if err != nil {
		return c
	}
	return d.String()
}

// Number returns s as a JSON number in canonical form. Empty input is zero.
func Number(s string) (json.Number, error) {
	d, err := ParseOrZero(s)
	if err != nil {
		return "", err
	}
	return json.Number(d.String()), nil
}

// Equal compares two amounts after normalization.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// ToBaseUnits scales d by 10^decimals and truncates toward zero.
func ToBaseUnits(d decimal.Decimal, decimals uint8) (uint64, error) {
	if d.IsNegative() {
		return 0, fmt.Errorf("negative amount %s", d)
	}
	scaled := d.Shift(int32(decimals)).Truncate(0)
	if scaled.GreaterThan(maxUint64) {
		return 0, fmt.Errorf("amount %s overflows with %d decimals", d, decimals)
	}
	return scaled.BigInt().Uint64(), nil
}

// FromBaseUnits converts a raw integer amount to display units.
func FromBaseUnits(raw uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(raw), -int32(decimals))
}

// SOLToLamports converts a SOL amount to lamports.
func SOLToLamports(sol decimal.Decimal) (uint64, error) {
	return ToBaseUnits(sol, 9)
}

// Format renders d with a fixed number of decimal places.
func Format(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}

// FormatBaseUnits renders a raw amount with 4 decimal places.
func FormatBaseUnits(raw uint64, decimals uint8) string {
	return Format(FromBaseUnits(raw, decimals), 4)
}

// Percent returns raw * percent / 100, floored.
func Percent(raw uint64, percent decimal.Decimal) uint64 {
	v := decimal.NewFromBigInt(new(big.Int).SetUint64(raw), 0).
		Mul(percent).
		Div(decimal.NewFromInt(100)).
		Floor()
	if v.IsNegative() {
		return 0
	}
	if v.GreaterThan(maxUint64) {
		return raw
	}
	return v.BigInt().Uint64()
}

// RandomInRange returns an integer in [lo, hi]; reversed bounds are swapped.
func RandomInRange(rng *rand.Rand, lo, hi int64) int64 {
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo == hi {
		return lo
	}
	return lo + rng.Int63n(hi-lo+1)
}
