package amount

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStripsCommas(t *testing.T) {
	d, err := Parse(" 1,000,000.25 ")
	require.NoError(t, err)
	assert.Equal(t, "1000000.25", d.String())

	_, err = Parse("")
	assert.Error(t, err)
	_, err = Parse("abc")
	assert.Error(t, err)

	z, err := ParseOrZero("")
	require.NoError(t, err)
	assert.True(t, z.IsZero())
}

func TestNormalizeAndEqual(t *testing.T) {
	assert.Equal(t, "0", Normalize(""))
	assert.Equal(t, "1500", Normalize("1,500"))
	assert.Equal(t, "1.5", Normalize("1.50"))
	assert.True(t, Equal("", "0"))
	assert.True(t, Equal("2,000", "2000.0"))
	assert.False(t, Equal("0.1", "0.10001"))
	assert.Equal(t, "x1", Normalize("x1"))
}

func TestNumber(t *testing.T) {
	n, err := Number("1,000.50")
	require.NoError(t, err)
	assert.Equal(t, json.Number("1000.5"), n)

	n, err = Number(" ")
	require.NoError(t, err)
	assert.Equal(t, json.Number("0"), n)

	_, err = Number("abc")
	assert.Error(t, err)
}

func TestBaseUnits(t *testing.T) {
	raw, err := ToBaseUnits(decimal.RequireFromString("1.2345678919"), 9)
	require.NoError(t, err)
	assert.Equal(t, uint64(1234567891), raw)

	lamports, err := SOLToLamports(decimal.RequireFromString("0.01"))
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000_000), lamports)

	_, err = ToBaseUnits(decimal.NewFromInt(-1), 0)
	assert.Error(t, err)
	_, err = ToBaseUnits(decimal.RequireFromString("1e30"), 0)
	assert.Error(t, err)

	assert.Equal(t, "1.5000", FormatBaseUnits(1_500_000, 6))
	assert.Equal(t, "0.0000", FormatBaseUnits(0, 9))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, uint64(250), Percent(1000, decimal.NewFromInt(25)))
	assert.Equal(t, uint64(1000), Percent(1000, decimal.NewFromInt(100)))
	assert.Equal(t, uint64(3), Percent(10, decimal.RequireFromString("33.3")))
}

func TestRandomInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		v := RandomInRange(rng, 500, 100)
		if v < 100 || v > 500 {
			t.Fatalf("value %d outside [100, 500]", v)
		}
	}
	assert.Equal(t, int64(9), RandomInRange(rng, 9, 9))
}
