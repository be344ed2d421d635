package numeric

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Discrepancy reports that a summary-level figure and the same figure in
// the statutory statements differ by a consistent power-of-thousand ratio,
// evidence that the summary section uses a different unit scale. It is
// reported to the caller, never silently corrected.
type Discrepancy struct {
	Ratio        decimal.Decimal `json:"ratio"`
	ImpliedScale Scale           `json:"implied_scale"`
	Evidence     string          `json:"evidence"`
}

var ratioTolerance = decimal.NewFromFloat(0.02)

// CrossValidate compares a summary figure against the statement figure for
// the same line. It returns nil when the two agree (or when either side is
// zero, which carries no scale information).
func CrossValidate(summary, statement decimal.Decimal) *Discrepancy {
	if summary.IsZero() || statement.IsZero() {
		return nil
	}
	ratio := statement.Abs().Div(summary.Abs())

	for _, cand := range []struct {
		factor decimal.Decimal
		scale  Scale
	}{
		{decimal.NewFromInt(1_000), ScaleThousands},
		{decimal.NewFromInt(1_000_000), ScaleMillions},
	} {
		if withinTolerance(ratio, cand.factor) {
			return &Discrepancy{
				Ratio:        ratio,
				ImpliedScale: cand.scale,
				Evidence: fmt.Sprintf(
					"statement value %s is ~%sx the summary value %s; summary section likely stated in %s",
					statement.String(), cand.factor.String(), summary.String(), cand.scale),
			}
		}
		// The summary may also be the larger side.
		if withinTolerance(decimal.NewFromInt(1).Div(ratio), cand.factor) {
			return &Discrepancy{
				Ratio:        ratio,
				ImpliedScale: cand.scale,
				Evidence: fmt.Sprintf(
					"summary value %s is ~%sx the statement value %s; statement section likely stated in %s",
					summary.String(), cand.factor.String(), statement.String(), cand.scale),
			}
		}
	}
	return nil
}

func withinTolerance(ratio, target decimal.Decimal) bool {
	diff := ratio.Sub(target).Abs().Div(target)
	return diff.LessThanOrEqual(ratioTolerance)
}
