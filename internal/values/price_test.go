package values

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePrice_RoundTrip(t *testing.T) {
	cases := []string{"50001.00000000", "0.00000001", "150.25", "0", "1234567.89012345"}
	for _, s := range cases {
		p, err := ParsePrice(s)
		require.NoError(t, err)
		require.Equal(t, padToScale(t, s), p.Decimal())
	}
}

// padToScale pads a literal decimal string's fractional part to Scale
// digits so it can be compared against Decimal()'s canonical rendering.
func padToScale(t *testing.T, s string) string {
	t.Helper()
	whole, frac, hasFrac := cutOnce(s)
	if !hasFrac {
		frac = ""
	}
	for len(frac) < int(Scale) {
		frac += "0"
	}
	return whole + "." + frac
}

func cutOnce(s string) (before, after string, found bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}

func TestParsePrice_RejectsNegative(t *testing.T) {
	_, err := ParsePrice("-1.00")
	require.Error(t, err)
}

func TestParsePrice_RejectsExcessPrecision(t *testing.T) {
	_, err := ParsePrice("1.123456789")
	require.Error(t, err)
}

func TestParseQuantity_AllowsNegativeInput(t *testing.T) {
	q, err := ParseQuantity("-5")
	require.NoError(t, err)
	require.Equal(t, Quantity(-5*int64(scaleFactor)), q)
}

func TestPrice_IsAlignedTo(t *testing.T) {
	tick, err := ParsePrice("0.01")
	require.NoError(t, err)

	aligned, err := ParsePrice("50000.01")
	require.NoError(t, err)
	require.True(t, aligned.IsAlignedTo(tick))

	misaligned, err := ParsePrice("50000.001")
	require.NoError(t, err)
	require.False(t, misaligned.IsAlignedTo(tick))

	require.True(t, aligned.IsAlignedTo(0), "a zero tick imposes no constraint")
}

func TestQuantity_FloorToLot(t *testing.T) {
	lot, err := ParseQuantity("0.001")
	require.NoError(t, err)

	qty, err := ParseQuantity("1.0009")
	require.NoError(t, err)

	floored := qty.FloorToLot(lot)
	expected, err := ParseQuantity("1.000")
	require.NoError(t, err)
	require.Equal(t, expected, floored)
}

func TestNotional(t *testing.T) {
	price, err := ParsePrice("100.00")
	require.NoError(t, err)
	qty, err := ParseQuantity("2.5")
	require.NoError(t, err)

	notional := Notional(price, qty)
	expected, err := ParsePrice("250.00")
	require.NoError(t, err)
	require.Equal(t, expected, notional)
}

func TestPrice_JSONRoundTrip(t *testing.T) {
	p, err := ParsePrice("50001.50")
	require.NoError(t, err)

	data, err := p.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, `"50001.50000000"`, string(data))

	var decoded Price
	require.NoError(t, decoded.UnmarshalJSON(data))
	require.Equal(t, p, decoded)

	var fromNumber Price
	require.NoError(t, fromNumber.UnmarshalJSON([]byte("50001.5")))
	require.Equal(t, p, fromNumber)
}
