package metrics

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// VolatilityFlag marks a year-over-year movement beyond a fixed threshold.
// Each flag carries a transfer-pricing relevance note for the reviewer.
type VolatilityFlag struct {
	Metric    string          `json:"metric"`
	Change    decimal.Decimal `json:"change"`
	Threshold decimal.Decimal `json:"threshold"`
	Note      string          `json:"note"`
}

// Volatility thresholds, expressed as fractions of the prior-year value.
var (
	turnoverSwingThreshold = decimal.RequireFromString("0.2")
	icDebtGrowthThreshold  = decimal.RequireFromString("0.5")
	staffContractThreshold = decimal.RequireFromString("-0.2")
)

// computeYoY flags significant movements. It runs only when prior-year
// values exist; a missing prior year is not an error.
func computeYoY(in Inputs) []VolatilityFlag {
	if len(in.Prior) == 0 {
		return nil
	}
	var flags []VolatilityFlag

	if change, ok := relativeChange(in, codeTurnover); ok {
		if change.Abs().GreaterThan(turnoverSwingThreshold) {
			flags = append(flags, VolatilityFlag{
				Metric:    "turnover_swing",
				Change:    change,
				Threshold: turnoverSwingThreshold,
				Note: fmt.Sprintf("net turnover moved %s%% year over year; material swings in a related-party context can indicate a change in the intercompany charging model", pct(change)),
			})
		}
	}

	if change, ok := icDebtChange(in); ok {
		if change.GreaterThan(icDebtGrowthThreshold) {
			flags = append(flags, VolatilityFlag{
				Metric:    "ic_debt_growth",
				Change:    change,
				Threshold: icDebtGrowthThreshold,
				Note: fmt.Sprintf("intercompany debt grew %s%%; new or expanded group financing should be covered by transfer-pricing documentation", pct(change)),
			})
		}
	}

	if change, ok := magnitudeChange(in, codeStaffCosts); ok {
		if change.LessThan(staffContractThreshold) {
			flags = append(flags, VolatilityFlag{
				Metric:    "staff_cost_contraction",
				Change:    change,
				Threshold: staffContractThreshold,
				Note: fmt.Sprintf("staff costs contracted %s%%; reduced local substance weakens the support for retained intercompany margins", pct(change)),
			})
		}
	}
	return flags
}

// relativeChange is (current - prior) / |prior| for one code; false when
// either year is missing or the prior value is zero.
func relativeChange(in Inputs, code string) (decimal.Decimal, bool) {
	cur, curOK := in.Current[code]
	prior, priorOK := in.Prior[code]
	if !curOK || !priorOK || prior.IsZero() {
		return decimal.Zero, false
	}
	return cur.Sub(prior).Div(prior.Abs()), true
}

// magnitudeChange compares absolute values, so expense codes flag the same
// way whether the filing states them as negatives or positives.
func magnitudeChange(in Inputs, code string) (decimal.Decimal, bool) {
	cur, curOK := in.Current[code]
	prior, priorOK := in.Prior[code]
	if !curOK || !priorOK || prior.IsZero() {
		return decimal.Zero, false
	}
	return cur.Abs().Sub(prior.Abs()).Div(prior.Abs()), true
}

// icDebtChange aggregates both intercompany debt directions so a shift from
// payables to receivables financing is still visible.
func icDebtChange(in Inputs) (decimal.Decimal, bool) {
	sum := func(values map[string]decimal.Decimal) (decimal.Decimal, bool) {
		total := decimal.Zero
		found := false
		for _, code := range []string{codeICPayables, codeICReceivables} {
			if v, ok := values[code]; ok {
				total = total.Add(v.Abs())
				found = true
			}
		}
		return total, found
	}
	cur, curOK := sum(in.Current)
	prior, priorOK := sum(in.Prior)
	if !curOK || !priorOK || prior.IsZero() {
		return decimal.Zero, false
	}
	return cur.Sub(prior).Div(prior), true
}

func pct(d decimal.Decimal) string {
	return d.Mul(decimal.NewFromInt(100)).Round(1).String()
}
