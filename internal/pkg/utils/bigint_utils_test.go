package utils

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatUnits(t *testing.T) {
	wei, _ := new(big.Int).SetString("1234500000000000000", 10)
	assert.Equal(t, "1.2345", FormatUnits(wei, 18))
	assert.Equal(t, "0", FormatUnits(big.NewInt(0), 18))
	assert.Equal(t, "1234500000000000000", FormatUnits(wei, 0))
	assert.Equal(t, "0.000001", FormatUnits(big.NewInt(1), 6))
	assert.Equal(t, "0", FormatUnits(nil, 18))
}

func TestParseUnits(t *testing.T) {
	got, err := ParseUnits("1.2345", 18)
	require.NoError(t, err)
	want, _ := new(big.Int).SetString("1234500000000000000", 10)
	assert.Equal(t, 0, got.Cmp(want))

	got, err = ParseUnits("10", 6)
	require.NoError(t, err)
	assert.Equal(t, int64(10_000_000), got.Int64())

	got, err = ParseUnits(".5", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(50), got.Int64())
}

func TestParseUnitsRejectsBadInput(t *testing.T) {
	cases := []struct {
		name     string
		value    string
		decimals uint8
	}{
		{"empty", "", 18},
		{"whitespace", "   ", 18},
		{"negative", "-1", 18},
		{"letters", "1x0", 18},
		{"two dots", "1.2.3", 18},
		{"too precise", "0.1234567", 6},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseUnits(tc.value, tc.decimals)
			assert.Error(t, err)
		})
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, s := range []string{"1.2345", "0.5", "42", "0.000001"} {
		wei, err := ParseUnits(s, 18)
		require.NoError(t, err)
		assert.Equal(t, s, FormatUnits(wei, 18))
	}
}
