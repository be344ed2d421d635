package numeric

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		format Format
	}{
		{"1.234.567,89", "1234567.89", FormatEuropean},
		{"1,234,567.89", "1234567.89", FormatAmerican},
		{"(1.000)", "-1000", FormatEuropean},
		{"1234", "1234", FormatPlain},
		{"-42", "-42", FormatPlain},
		{"42-", "-42", FormatPlain},
		{"1 234 567", "1234567", FormatPlain},
		{"€ 1.500,00", "1500", FormatEuropean},
		{"EUR 2,500.00", "2500", FormatAmerican},
		{"TEUR 1.234", "1234", FormatEuropean},
		{"KEUR 500", "500", FormatPlain},
		{"1.234 TEUR", "1234", FormatEuropean},
		{"1,234", "1234", FormatAmerican},
		{"1.234", "1234", FormatEuropean},
		{"(12,50)", "-12.5", FormatEuropean},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			p, err := ParseAmount(tc.raw)
			require.NoError(t, err)
			assert.True(t, p.Value.Equal(decimal.RequireFromString(tc.want)),
				"got %s, want %s", p.Value, tc.want)
			assert.Equal(t, tc.format, p.Format)
		})
	}
}

func TestParseAmount_Confidence(t *testing.T) {
	t.Run("bare integer is certain", func(t *testing.T) {
		p, err := ParseAmount("123456")
		require.NoError(t, err)
		assert.Equal(t, 1.0, p.Confidence)
	})

	t.Run("single comma with two trailing digits is european decimal", func(t *testing.T) {
		for _, raw := range []string{"1234,56", "12,50", "999,00"} {
			p, err := ParseAmount(raw)
			require.NoError(t, err)
			assert.Equal(t, FormatEuropean, p.Format, raw)
			assert.GreaterOrEqual(t, p.Confidence, 0.85, raw)
		}
	})

	t.Run("both separators resolve to rightmost decimal", func(t *testing.T) {
		p, err := ParseAmount("1.234,56")
		require.NoError(t, err)
		assert.Equal(t, FormatEuropean, p.Format)
		assert.True(t, p.Value.Equal(decimal.RequireFromString("1234.56")))
	})
}

func TestParseAmount_Errors(t *testing.T) {
	for _, raw := range []string{"", "   ", "n/a", "---"} {
		_, err := ParseAmount(raw)
		assert.Error(t, err, "raw=%q", raw)
	}
}

func TestParseRate(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"5,25%", "0.0525"},
		{"5.25%", "0.0525"},
		{"150 bps", "0.015"},
		{"25 basis points", "0.0025"},
		{"3 percent", "0.03"},
		{"0.05", "0.05"},
		{"12", "0.12"},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			p, err := ParseRate(tc.raw)
			require.NoError(t, err)
			assert.True(t, p.Value.Equal(decimal.RequireFromString(tc.want)),
				"got %s, want %s", p.Value, tc.want)
		})
	}
}

func BenchmarkParseAmount(b *testing.B) {
	inputs := []string{"1.234.567,89", "1,234,567.89", "(1.000)", "123456"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ParseAmount(inputs[i%len(inputs)])
	}
}

func BenchmarkParseAmount_Batch(b *testing.B) {
	inputs := make([]string, 500)
	for i := range inputs {
		inputs[i] = fmt.Sprintf("%d.%03d,%02d", i, i%1000, i%100)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, in := range inputs {
			_, _ = ParseAmount(in)
		}
	}
}
