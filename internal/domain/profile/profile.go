package profile

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Size is the company-size classification under the 2-of-3 threshold test.
type Size string

const (
	SizeSmall   Size = "small"
	SizeMedium  Size = "medium"
	SizeLarge   Size = "large"
	SizeUnknown Size = "unknown"
)

// AccountType distinguishes the statutory filing variants.
type AccountType string

const (
	AccountFull        AccountType = "full"
	AccountAbridged    AccountType = "abridged"
	AccountAbbreviated AccountType = "abbreviated"
)

// Consolidation is the consolidation status derived from the document text.
type Consolidation string

const (
	ConsolidationStandalone   Consolidation = "standalone"
	ConsolidationConsolidated Consolidation = "consolidated"
	ConsolidationUnresolved   Consolidation = "unresolved"
)

// ReportingStandard is the accounting framework the statements claim.
type ReportingStandard string

const (
	StandardLuxGAAP ReportingStandard = "lux_gaap"
	StandardIFRS    ReportingStandard = "ifrs"
	StandardUnknown ReportingStandard = "unknown"
)

// Classification pairs a detected value with the text evidence that produced
// it, so later stages can cite provenance instead of a bare label.
type Classification struct {
	Value    string `json:"value"`
	Evidence string `json:"evidence"`
}

// HoldingIndicators is the heuristic holding-company verdict. The score is a
// confidence, not a legal determination.
type HoldingIndicators struct {
	Score    float64  `json:"score"`
	Likely   bool     `json:"likely"`
	Evidence []string `json:"evidence"`
}

// Profile is the company classification record, created once per document.
type Profile struct {
	LegalName         string            `json:"legal_name,omitempty"`
	LegalForm         string            `json:"legal_form,omitempty"`
	RCSNumber         string            `json:"rcs_number,omitempty"`
	YearEnd           string            `json:"year_end,omitempty"`
	Size              Size              `json:"size"`
	SizeEvidence      []string          `json:"size_evidence"`
	AccountType       Classification    `json:"account_type"`
	ReportingStandard Classification    `json:"reporting_standard"`
	Consolidation     Classification    `json:"consolidation"`
	AverageEmployees  *decimal.Decimal  `json:"average_employees,omitempty"`
	Holding           HoldingIndicators `json:"holding"`
}

// Overrides carries caller-supplied authoritative fields. Non-empty values
// take precedence over anything derived from the document text.
type Overrides struct {
	LegalName string
	RCSNumber string
	YearEnd   string
}

// SizeTier is one cutoff row of the threshold test.
type SizeTier struct {
	BalanceSheetTotal decimal.Decimal
	NetTurnover       decimal.Decimal
	Headcount         decimal.Decimal
}

// Thresholds are the two cutoff tiers of the 2-of-3 size test. The values
// derive from Directive 2013/34/EU as transposed in Luxembourg and are
// configurable because they are revised periodically.
type Thresholds struct {
	Small  SizeTier
	Medium SizeTier
}

// DefaultThresholds returns the cutoffs in force for 2020+ filings.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Small: SizeTier{
			BalanceSheetTotal: decimal.NewFromInt(4_400_000),
			NetTurnover:       decimal.NewFromInt(8_800_000),
			Headcount:         decimal.NewFromInt(50),
		},
		Medium: SizeTier{
			BalanceSheetTotal: decimal.NewFromInt(20_000_000),
			NetTurnover:       decimal.NewFromInt(40_000_000),
			Headcount:         decimal.NewFromInt(250),
		},
	}
}

// Inputs are the already-resolved figures the classifier needs alongside the
// raw text. Values are post-scale; nil means the code was not extracted.
type Inputs struct {
	Text              string
	BalanceSheetTotal *decimal.Decimal
	NetTurnover       *decimal.Decimal
	AverageEmployees  *decimal.Decimal
}

// classifySize runs the 2-of-3 test: a tier counts as exceeded only when at
// least two of the three metrics are above that tier's cutoffs. A missing
// metric never counts as exceeding.
func classifySize(in Inputs, t Thresholds) (Size, []string) {
	known := 0
	for _, v := range []*decimal.Decimal{in.BalanceSheetTotal, in.NetTurnover, in.AverageEmployees} {
		if v != nil {
			known++
		}
	}
	if known < 2 {
		return SizeUnknown, []string{"fewer than two size metrics available"}
	}

	overMedium, mediumEv := tierExceedances(in, t.Medium, "medium")
	overSmall, smallEv := tierExceedances(in, t.Small, "small")

	switch {
	case overMedium >= 2:
		return SizeLarge, mediumEv
	case overSmall >= 2:
		return SizeMedium, smallEv
	default:
		ev := smallEv
		if len(ev) == 0 {
			ev = []string{"no size cutoff exceeded by two metrics"}
		}
		return SizeSmall, ev
	}
}

func tierExceedances(in Inputs, tier SizeTier, label string) (int, []string) {
	count := 0
	var evidence []string
	check := func(name string, value *decimal.Decimal, cutoff decimal.Decimal) {
		if value == nil || !value.GreaterThan(cutoff) {
			return
		}
		count++
		evidence = append(evidence, fmt.Sprintf("%s %s exceeds %s cutoff %s", name, value.String(), label, cutoff.String()))
	}
	check("balance sheet total", in.BalanceSheetTotal, tier.BalanceSheetTotal)
	check("net turnover", in.NetTurnover, tier.NetTurnover)
	check("average headcount", in.AverageEmployees, tier.Headcount)
	return count, evidence
}
