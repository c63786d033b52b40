package docparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"$1,234.56", 1234.56, true},
		{"(1,234.56)", -1234.56, true},
		{"($1,234.56)", -1234.56, true},
		{"-1234.56", -1234.56, true},
		{"1360479", 1360479, true},
		{"$ 204,096.14", 204096.14, true},
		{"0", 0, true},
		{"garbage", 0, false},
		{"", 0, false},
		{"$", 0, false},
		{"12.34.56", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseMoney(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		if tt.ok {
			assert.InDelta(t, tt.want, got, 0.001, "input %q", tt.in)
		}
	}
}

func TestIsMoneyShaped(t *testing.T) {
	assert.True(t, IsMoneyShaped("$1065"))
	assert.True(t, IsMoneyShaped("1,065"))
	assert.True(t, IsMoneyShaped("1065.00"))
	assert.False(t, IsMoneyShaped("1065"))
	assert.False(t, IsMoneyShaped("1065.1"))
}

func TestLastMoneyToken(t *testing.T) {
	tok, ok := LastMoneyToken("Rent  1,200.00  1,250.00")
	require.True(t, ok)
	assert.Equal(t, "1,250.00", tok)

	_, ok = LastMoneyToken("no numbers here")
	assert.False(t, ok)
}
