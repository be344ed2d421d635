package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromDecimal(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		cents int64
	}{
		{"whole euros", "1234", 123400},
		{"cents preserved", "1234.56", 123456},
		{"sub-cent rounds to nearest", "10.005", 1001},
		{"negative", "-45.10", -4510},
		{"zero", "0", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := FromDecimal(decimal.RequireFromString(tt.in))
			assert.Equal(t, tt.cents, a.Cents())
		})
	}
}

func TestRoundTripDecimal(t *testing.T) {
	d := decimal.RequireFromString("1234567.89")
	a := FromDecimal(d)
	assert.True(t, a.ToDecimal().Equal(d))
}

func TestArithmetic(t *testing.T) {
	a := FromDecimal(decimal.RequireFromString("100.50"))
	b := FromDecimal(decimal.RequireFromString("-30.25"))

	assert.Equal(t, int64(7025), a.Add(b).Cents())
	assert.Equal(t, int64(13075), a.Sub(b).Cents())
	assert.Equal(t, int64(3025), b.Abs().Cents())
	assert.True(t, b.IsNegative())
	assert.False(t, a.IsNegative())
}

func TestNilReceivers(t *testing.T) {
	var a *Amount
	assert.True(t, a.IsZero())
	assert.Zero(t, a.Cents())
	assert.True(t, a.ToDecimal().IsZero())
	assert.Equal(t, int64(0), a.Abs().Cents())

	b := FromDecimal(decimal.NewFromInt(10))
	assert.Equal(t, int64(1000), a.Add(b).Cents())
	assert.Equal(t, int64(-1000), a.Sub(b).Cents())
}

func TestApplyScale(t *testing.T) {
	a := FromDecimal(decimal.NewFromInt(1234))

	thousands := a.ApplyScale(decimal.NewFromInt(1000))
	assert.True(t, thousands.ToDecimal().Equal(decimal.NewFromInt(1_234_000)))

	units := a.ApplyScale(decimal.NewFromInt(1))
	assert.Equal(t, a.Cents(), units.Cents())
}

func TestPercentageOf(t *testing.T) {
	part := FromDecimal(decimal.NewFromInt(250))
	total := FromDecimal(decimal.NewFromInt(1000))

	assert.True(t, part.PercentageOf(total).Equal(decimal.NewFromInt(25)))
	assert.True(t, part.PercentageOf(Zero()).IsZero())
}

func TestJSONRoundTrip(t *testing.T) {
	a := FromDecimal(decimal.RequireFromString("-1234.56"))

	raw, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"currency":"EUR"`)

	var back Amount
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, a.Cents(), back.Cents())
}

func TestDisplay(t *testing.T) {
	a := FromDecimal(decimal.RequireFromString("1234.50"))
	assert.Equal(t, "1234.50", a.String())
	assert.NotEmpty(t, a.Display())
}
