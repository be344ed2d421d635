package gate

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Readiness is the three-state verdict of the pre-analysis gate. It is
// recomputed fresh per extraction and never transitions in place.
type Readiness string

const (
	ReadyFull    Readiness = "READY_FULL"
	ReadyLimited Readiness = "READY_LIMITED"
	Blocked      Readiness = "BLOCKED"
)

// ConsolidationStatus is the consolidation sub-gate input.
type ConsolidationStatus string

const (
	ConsolidationStandalone   ConsolidationStatus = "standalone"
	ConsolidationConsolidated ConsolidationStatus = "consolidated"
	ConsolidationPending      ConsolidationStatus = "pending_resolution"
	ConsolidationBlocked      ConsolidationStatus = "blocked"
)

// Coverage thresholds of the readiness rule.
const (
	fullHighFloor       = 0.8
	fullHighMediumFloor = 0.7
	limitedFloor        = 0.4
	maxReviewActions    = 10
)

// Completeness weights: balance sheet and P&L carry the analysis, notes and
// the management report refine it.
const (
	weightBalanceSheet     = 35
	weightProfitLoss       = 35
	weightNotes            = 20
	weightManagementReport = 10
)

// Mapping is the mapping-confidence sub-gate input: how many extracted codes
// landed in each confidence band, and which transfer-pricing-critical codes
// fell below the confidence floor.
type Mapping struct {
	Total              int      `json:"total"`
	High               int      `json:"high"`
	Medium             int      `json:"medium"`
	Low                int      `json:"low"`
	CriticalBelowFloor []string `json:"critical_below_floor,omitempty"`
}

// HighShare is the fraction of codes mapped at high confidence.
func (m Mapping) HighShare() float64 {
	if m.Total == 0 {
		return 0
	}
	return float64(m.High) / float64(m.Total)
}

// HighMediumShare is the fraction of codes mapped at high or medium confidence.
func (m Mapping) HighMediumShare() float64 {
	if m.Total == 0 {
		return 0
	}
	return float64(m.High+m.Medium) / float64(m.Total)
}

// Sections records which statement parts were present in the document.
type Sections struct {
	BalanceSheet     bool `json:"balance_sheet"`
	ProfitLoss       bool `json:"profit_loss"`
	Notes            bool `json:"notes"`
	ManagementReport bool `json:"management_report"`
}

// Score is the weighted 0-100 completeness score.
func (s Sections) Score() int {
	score := 0
	if s.BalanceSheet {
		score += weightBalanceSheet
	}
	if s.ProfitLoss {
		score += weightProfitLoss
	}
	if s.Notes {
		score += weightNotes
	}
	if s.ManagementReport {
		score += weightManagementReport
	}
	return score
}

// TrustScores are the per-module confidence scores consumed only by the
// opportunity gate; they never alter the readiness level.
type TrustScores struct {
	Anchors   float64 `json:"anchors"`
	Context   float64 `json:"context"`
	Narrative float64 `json:"narrative"`
}

// Inputs is everything the gate decision needs, already computed by earlier
// stages. Evaluate reads it and nothing else.
type Inputs struct {
	ScaleValidated   bool
	ScaleUncertain   bool
	BalanceDelta     *decimal.Decimal // assets minus liabilities, post-scale; nil when either total is missing
	BalanceTolerance decimal.Decimal
	Consolidation    ConsolidationStatus
	Mapping          Mapping
	Sections         Sections
	AccountAbridged  bool

	// Per-module mean mapping confidences feeding the trust scores.
	AnchorConfidence    float64
	ContextConfidence   float64
	NarrativeConfidence float64
}

// Gates is the gate object attached to every canonical model. A fresh
// instance is produced per evaluation; instances are never merged across
// extraction runs.
type Gates struct {
	ID                uuid.UUID   `json:"id"`
	EvaluatedAt       time.Time   `json:"evaluated_at"`
	Readiness         Readiness   `json:"readiness"`
	Mapping           Mapping     `json:"mapping"`
	Sections          Sections    `json:"sections"`
	CompletenessScore int         `json:"completeness_score"`
	Trust             TrustScores `json:"trust"`
	ScaleValidated    bool        `json:"scale_validated"`
	AccountAbridged   bool        `json:"account_abridged"`
	Warnings          []string    `json:"warnings"`
	ReviewActions     []string    `json:"review_actions"`
	BlockingIssues    []string    `json:"blocking_issues,omitempty"`
}

// Evaluate runs the readiness decision over the sub-gate inputs and stamps a
// fresh gate object. The decision itself is the pure decide function; this
// wrapper only adds identity and timestamp.
func Evaluate(in Inputs) Gates {
	g := decide(in)
	g.ID = uuid.New()
	g.EvaluatedAt = time.Now().UTC()
	return g
}

// decide is the pure decision core: no I/O, no clock, no randomness.
func decide(in Inputs) Gates {
	g := Gates{
		Mapping:           in.Mapping,
		Sections:          in.Sections,
		CompletenessScore: in.Sections.Score(),
		Trust:             trustScores(in),
		ScaleValidated:    in.ScaleValidated,
		AccountAbridged:   in.AccountAbridged,
		Warnings:          []string{},
		ReviewActions:     []string{},
	}

	// Scale uncertainty and balance imbalance are warnings, never blockers;
	// statutory rounding differences make both too common to block on.
	if in.ScaleUncertain {
		g.Warnings = append(g.Warnings, "unit scale detection is uncertain")
		g.ReviewActions = append(g.ReviewActions, "confirm the document unit scale against the statement headers")
	}
	if in.BalanceDelta != nil && in.BalanceDelta.Abs().GreaterThan(in.BalanceTolerance) {
		g.Warnings = append(g.Warnings,
			fmt.Sprintf("balance sheet does not balance: assets minus liabilities = %s", in.BalanceDelta.String()))
		g.ReviewActions = append(g.ReviewActions, "verify balance sheet totals against the source document")
	}
	if len(in.Mapping.CriticalBelowFloor) > 0 {
		g.Warnings = append(g.Warnings,
			fmt.Sprintf("%d transfer-pricing-critical codes below the confidence floor", len(in.Mapping.CriticalBelowFloor)))
		for _, code := range in.Mapping.CriticalBelowFloor {
			g.ReviewActions = append(g.ReviewActions, "manually verify the mapping of code "+code)
		}
	}
	if !in.Sections.BalanceSheet {
		g.Warnings = append(g.Warnings, "no balance sheet section detected")
	}
	if !in.Sections.ProfitLoss {
		g.Warnings = append(g.Warnings, "no profit and loss section detected")
	}
	if !in.Sections.Notes {
		g.Warnings = append(g.Warnings, "no notes section detected")
	}
	if len(g.ReviewActions) > maxReviewActions {
		g.ReviewActions = g.ReviewActions[:maxReviewActions]
	}

	switch {
	case in.Consolidation == ConsolidationBlocked || in.Consolidation == ConsolidationPending:
		g.Readiness = Blocked
		g.BlockingIssues = append(g.BlockingIssues, "consolidation status unresolved")
	case in.Mapping.Total == 0:
		g.Readiness = Blocked
		g.BlockingIssues = append(g.BlockingIssues, "no statutory codes extracted")
	case in.Mapping.HighShare() >= fullHighFloor,
		in.ScaleValidated && in.Mapping.HighMediumShare() >= fullHighMediumFloor:
		g.Readiness = ReadyFull
	default:
		// Any extracted codes at all keep the document at limited readiness.
		g.Readiness = ReadyLimited
	}
	return g
}

// trustScores derives the three module trust levels. Context confidence is
// penalized when the notes section is absent; narrative drops to zero
// without a management report.
func trustScores(in Inputs) TrustScores {
	t := TrustScores{
		Anchors:   in.AnchorConfidence,
		Context:   in.ContextConfidence,
		Narrative: in.NarrativeConfidence,
	}
	if !in.Sections.Notes {
		t.Context *= 0.5
	}
	if !in.Sections.ManagementReport {
		t.Narrative = 0
	}
	return t
}
