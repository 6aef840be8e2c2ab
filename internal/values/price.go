// Package values holds the fixed-point value types shared by every layer of
// the matching core: Price, Quantity, and Symbol. The hot matching path
// itself never allocates or calls into a decimal library — it compares raw
// int64 mantissas — but every decimal string that crosses the wire/JSON/CLI
// boundary is parsed and rendered through shopspring/decimal rather than
// hand-rolled strconv splitting, so that boundary gets the same
// arbitrary-precision parsing the rest of the corpus relies on.
package values

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of implied decimal digits every Price and Quantity
// carries. It is a package-level constant rather than a per-value field: the
// source material mixed raw integer cents with an arbitrary-precision
// decimal type across crates, and SPEC_FULL.md resolves that ambiguity in
// favor of a single fixed scale shared by the whole process.
const Scale uint8 = 8

// scaleFactor is 10^Scale, precomputed since Scale never changes at runtime.
var scaleFactor = int64(math.Pow10(int(Scale)))

// Price is a fixed-point price, stored as an integer count of 10^-Scale
// units. Zero is reserved for market orders, where price is ignored.
// Negative prices are never constructed by ParsePrice.
type Price int64

// Quantity is a fixed-point quantity using the same Scale as Price.
type Quantity int64

// ZeroPrice is the sentinel used by market orders.
const ZeroPrice Price = 0

// ParsePrice parses a decimal string (e.g. "50001.00000000") into a Price.
// The string must represent a non-negative value; more fractional digits
// than Scale are rejected rather than silently truncated, since silent
// truncation would violate the "lossless within declared scale" invariant.
func ParsePrice(s string) (Price, error) {
	v, err := parseFixed(s)
	if err != nil {
		return 0, fmt.Errorf("price %q: %w", s, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("price %q: negative price is invalid", s)
	}
	return Price(v), nil
}

// ParseQuantity parses a decimal string into a Quantity. Quantity must be
// strictly positive for any resting or incoming order; zero/negative values
// are rejected by the validator, not here, so this parser only rejects
// malformed input.
func ParseQuantity(s string) (Quantity, error) {
	v, err := parseFixed(s)
	if err != nil {
		return 0, fmt.Errorf("quantity %q: %w", s, err)
	}
	return Quantity(v), nil
}

// parseFixed converts a decimal string to the shared fixed-point integer
// representation via shopspring/decimal's arbitrary-precision parser, so
// round-tripping is exact within Scale and a float64 intermediate never
// enters the picture.
func parseFixed(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid decimal: %w", err)
	}
	if -d.Exponent() > int32(Scale) {
		return 0, fmt.Errorf("more than %d fractional digits", Scale)
	}

	scaled := d.Shift(int32(Scale))
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("value does not fit in a %d-digit fixed-point scale", Scale)
	}
	return scaled.IntPart(), nil
}

// Decimal renders p as a decimal string with exactly Scale fractional
// digits, e.g. Price(5000100000000).Decimal() == "50001.00000000".
func (p Price) Decimal() string {
	return formatFixed(int64(p))
}

// Decimal renders q as a decimal string with exactly Scale fractional
// digits.
func (q Quantity) Decimal() string {
	return formatFixed(int64(q))
}

func formatFixed(v int64) string {
	return decimal.New(v, -int32(Scale)).StringFixed(int32(Scale))
}

// MarshalJSON encodes Price as a decimal string, matching the wire protocol's
// `[[price,qty]]` string-pair convention rather than a bare JSON number
// (which would invite float round-off in consumers).
func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(p.Decimal())), nil
}

// UnmarshalJSON accepts both a quoted decimal string and a bare JSON number.
func (p *Price) UnmarshalJSON(data []byte) error {
	v, err := unmarshalFixed(data)
	if err != nil {
		return err
	}
	*p = Price(v)
	return nil
}

// MarshalJSON encodes Quantity as a decimal string.
func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(q.Decimal())), nil
}

// UnmarshalJSON accepts both a quoted decimal string and a bare JSON number.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	v, err := unmarshalFixed(data)
	if err != nil {
		return err
	}
	*q = Quantity(v)
	return nil
}

func unmarshalFixed(data []byte) (int64, error) {
	s := strings.TrimSpace(string(data))
	s = strings.Trim(s, `"`)
	if s == "" || s == "null" {
		return 0, nil
	}
	return parseFixed(s)
}

// MulDiv scales a Quantity by an integer numerator/denominator pair, flooring
// toward zero. Used by the pro-rata allocator to distribute an incoming
// quantity proportional to a resting order's remaining size. The product is
// formed in arbitrary precision, since two Scale-scaled quantities overflow
// int64 well before realistic order sizes.
func (q Quantity) MulDiv(numerator, denominator int64) Quantity {
	if denominator == 0 {
		return 0
	}
	var r big.Int
	r.Mul(big.NewInt(int64(q)), big.NewInt(numerator))
	r.Quo(&r, big.NewInt(denominator))
	return Quantity(r.Int64())
}

// FloorToLot rounds q down to the nearest multiple of lot.
func (q Quantity) FloorToLot(lot Quantity) Quantity {
	if lot <= 0 {
		return q
	}
	return (q / lot) * lot
}

// IsAlignedTo reports whether q is an exact multiple of lot. A lot of 0
// imposes no constraint.
func (q Quantity) IsAlignedTo(lot Quantity) bool {
	if lot <= 0 {
		return true
	}
	return q%lot == 0
}

// IsAlignedTo reports whether p is an exact multiple of tick. A tick of 0
// imposes no constraint.
func (p Price) IsAlignedTo(tick Price) bool {
	if tick <= 0 {
		return true
	}
	return p%tick == 0
}

// Notional computes price * quantity, rescaled back down to the shared
// Scale (naive multiplication of two Scale-scaled integers would otherwise
// land at 2*Scale). Used by the validator's minimum-notional check. The
// intermediate product is formed in arbitrary precision so it cannot
// overflow int64.
func Notional(p Price, q Quantity) Price {
	var r big.Int
	r.Mul(big.NewInt(int64(p)), big.NewInt(int64(q)))
	r.Quo(&r, big.NewInt(scaleFactor))
	return Price(r.Int64())
}
