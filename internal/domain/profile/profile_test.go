package profile

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dptr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestClassifySize(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name string
		in   Inputs
		want Size
	}{
		{
			name: "all below small cutoffs",
			in:   Inputs{BalanceSheetTotal: dptr("2000000"), NetTurnover: dptr("3000000"), AverageEmployees: dptr("12")},
			want: SizeSmall,
		},
		{
			name: "one metric over small is not enough",
			in:   Inputs{BalanceSheetTotal: dptr("6000000"), NetTurnover: dptr("3000000"), AverageEmployees: dptr("12")},
			want: SizeSmall,
		},
		{
			name: "two metrics over small",
			in:   Inputs{BalanceSheetTotal: dptr("6000000"), NetTurnover: dptr("9000000"), AverageEmployees: dptr("12")},
			want: SizeMedium,
		},
		{
			name: "two metrics over medium",
			in:   Inputs{BalanceSheetTotal: dptr("25000000"), NetTurnover: dptr("45000000"), AverageEmployees: dptr("12")},
			want: SizeLarge,
		},
		{
			name: "missing metric never counts as exceeding",
			in:   Inputs{BalanceSheetTotal: dptr("25000000"), NetTurnover: dptr("3000000"), AverageEmployees: dptr("10")},
			want: SizeSmall,
		},
		{
			name: "fewer than two metrics known",
			in:   Inputs{BalanceSheetTotal: dptr("25000000")},
			want: SizeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, evidence := classifySize(tt.in, th)
			assert.Equal(t, tt.want, got)
			assert.NotEmpty(t, evidence)
		})
	}
}

func TestClassifier_KeywordEngines(t *testing.T) {
	c := NewClassifier(DefaultThresholds())

	t.Run("consolidated wins over standalone markers", func(t *testing.T) {
		p := c.Classify(Inputs{Text: "Comptes annuels consolidés au 31 décembre 2023"}, Overrides{})
		assert.Equal(t, string(ConsolidationConsolidated), p.Consolidation.Value)
		assert.Contains(t, p.Consolidation.Evidence, "consolidés")
	})

	t.Run("standalone annual accounts", func(t *testing.T) {
		p := c.Classify(Inputs{Text: "Annual accounts for the year ended 31 December 2023"}, Overrides{})
		assert.Equal(t, string(ConsolidationStandalone), p.Consolidation.Value)
	})

	t.Run("no markers leaves consolidation unresolved", func(t *testing.T) {
		p := c.Classify(Inputs{Text: "Some unrelated narrative."}, Overrides{})
		assert.Equal(t, string(ConsolidationUnresolved), p.Consolidation.Value)
		assert.NotEmpty(t, p.Consolidation.Evidence)
	})

	t.Run("abridged account type", func(t *testing.T) {
		p := c.Classify(Inputs{Text: "Bilan abrégé au 31 décembre 2023"}, Overrides{})
		assert.Equal(t, string(AccountAbridged), p.AccountType.Value)
	})

	t.Run("account type defaults to full", func(t *testing.T) {
		p := c.Classify(Inputs{Text: "Balance sheet as at 31 December 2023"}, Overrides{})
		assert.Equal(t, string(AccountFull), p.AccountType.Value)
	})

	t.Run("lux gaap beats a stray ifrs mention", func(t *testing.T) {
		text := "prepared in accordance with Luxembourg legal and regulatory requirements; IFRS is not applied"
		p := c.Classify(Inputs{Text: text}, Overrides{})
		assert.Equal(t, string(StandardLuxGAAP), p.ReportingStandard.Value)
	})
}

func TestClassifier_HoldingScore(t *testing.T) {
	c := NewClassifier(DefaultThresholds())

	t.Run("soparfi with zero turnover and no staff", func(t *testing.T) {
		in := Inputs{
			Text:              "The company is a SOPARFI whose object is the acquisition and holding of participations.",
			BalanceSheetTotal: dptr("50000000"),
			NetTurnover:       dptr("0"),
			AverageEmployees:  dptr("0"),
		}
		p := c.Classify(in, Overrides{})

		// Two keywords, low headcount with large assets, zero turnover.
		assert.InDelta(t, 0.15+0.15+0.25+0.3, p.Holding.Score, 1e-9)
		assert.True(t, p.Holding.Likely)
		assert.Len(t, p.Holding.Evidence, 4)
	})

	t.Run("score is capped at 1.0", func(t *testing.T) {
		in := Inputs{
			Text: "SOPARFI société de participations financières holding company société holding " +
				"beteiligungsgesellschaft acquisition and holding of participations prise de participations",
			BalanceSheetTotal: dptr("50000000"),
			NetTurnover:       dptr("0"),
			AverageEmployees:  dptr("1"),
		}
		p := c.Classify(in, Overrides{})
		assert.Equal(t, 1.0, p.Holding.Score)
	})

	t.Run("trading company scores low", func(t *testing.T) {
		in := Inputs{
			Text:              "The company trades building materials.",
			BalanceSheetTotal: dptr("5000000"),
			NetTurnover:       dptr("9000000"),
			AverageEmployees:  dptr("40"),
		}
		p := c.Classify(in, Overrides{})
		assert.Zero(t, p.Holding.Score)
		assert.False(t, p.Holding.Likely)
	})

	t.Run("balance sheet to turnover ratio", func(t *testing.T) {
		in := Inputs{
			Text:              "narrative",
			BalanceSheetTotal: dptr("120000000"),
			NetTurnover:       dptr("1000000"),
		}
		p := c.Classify(in, Overrides{})
		assert.InDelta(t, 0.2, p.Holding.Score, 1e-9)
		assert.False(t, p.Holding.Likely)
	})
}

func TestClassifier_RegistrationAndOverrides(t *testing.T) {
	c := NewClassifier(DefaultThresholds())

	t.Run("rcs number from text", func(t *testing.T) {
		p := c.Classify(Inputs{Text: "registered with the R.C.S. Luxembourg B 123456"}, Overrides{})
		assert.Equal(t, "B123456", p.RCSNumber)
	})

	t.Run("legal form from text", func(t *testing.T) {
		p := c.Classify(Inputs{Text: "Alpha Invest S.à r.l., société à responsabilité limitée"}, Overrides{})
		assert.Equal(t, "S.à r.l.", p.LegalForm)
	})

	t.Run("overrides beat text-derived values", func(t *testing.T) {
		in := Inputs{Text: "registered with the RCS Luxembourg B 99999"}
		ov := Overrides{LegalName: "Alpha Invest S.à r.l.", RCSNumber: "B123456", YearEnd: "2023-12-31"}
		p := c.Classify(in, ov)
		require.Equal(t, "B123456", p.RCSNumber)
		assert.Equal(t, "Alpha Invest S.à r.l.", p.LegalName)
		assert.Equal(t, "2023-12-31", p.YearEnd)
	})
}

func BenchmarkClassify(b *testing.B) {
	c := NewClassifier(DefaultThresholds())
	in := Inputs{
		Text:              "Comptes annuels au 31 décembre 2023. The company is a SOPARFI. R.C.S. Luxembourg B 123456.",
		BalanceSheetTotal: dptr("50000000"),
		NetTurnover:       dptr("0"),
		AverageEmployees:  dptr("1"),
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Classify(in, Overrides{})
	}
}
