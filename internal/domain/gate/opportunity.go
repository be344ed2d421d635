package gate

import (
	"github.com/FACorreiaa/ecdf-canonical/internal/domain/metrics"
)

// Finding is a candidate conclusion produced by the downstream analyzer.
// The gate accepts or drops findings; it never edits their content.
type Finding struct {
	Type        string    `json:"type"`
	Severity    string    `json:"severity"`
	Description string    `json:"description"`
	Readiness   Readiness `json:"readiness,omitempty"` // stamped on acceptance
}

// Trust modules referenced by the eligibility table.
const (
	moduleAnchors   = "anchors"
	moduleContext   = "context"
	moduleNarrative = "narrative"
)

// eligibility is one row of the static per-type table.
type eligibility struct {
	allowedAtLimited  bool
	requiredMetrics   []string
	blockedIfAbridged bool
	minTrust          map[string]float64
}

// The closed set of finding types the analyzer may produce. Anything not
// listed here is treated as unrecognized and accepted only at READY_FULL.
var eligibilityTable = map[string]eligibility{
	"intercompany_financing_spread": {
		allowedAtLimited: false,
		requiredMetrics:  []string{"ic_interest_spread"},
		minTrust:         map[string]float64{moduleAnchors: 0.7},
	},
	"thin_capitalization": {
		allowedAtLimited:  false,
		requiredMetrics:   []string{"debt_to_equity", "equity_ratio"},
		blockedIfAbridged: true,
		minTrust:          map[string]float64{moduleAnchors: 0.7},
	},
	"substance_risk": {
		allowedAtLimited: true,
		requiredMetrics:  []string{"staff_cost_ratio"},
		minTrust:         map[string]float64{moduleAnchors: 0.5, moduleContext: 0.4},
	},
	"holding_structure": {
		allowedAtLimited: true,
	},
	"intercompany_balance_concentration": {
		allowedAtLimited: true,
		requiredMetrics:  []string{"ic_receivable_share"},
		minTrust:         map[string]float64{moduleAnchors: 0.5},
	},
	"profit_volatility": {
		allowedAtLimited:  false,
		requiredMetrics:   []string{"net_margin"},
		blockedIfAbridged: true,
		minTrust:          map[string]float64{moduleAnchors: 0.6, moduleNarrative: 0.3},
	},
	"management_fee_pressure": {
		allowedAtLimited: false,
		requiredMetrics:  []string{"net_margin", "staff_cost_ratio"},
		minTrust:         map[string]float64{moduleAnchors: 0.6, moduleContext: 0.5},
	},
}

// Filter applies the opportunity gate: a mechanical eligibility check over
// candidate findings. Rejections are silent; accepted findings are stamped
// with the readiness level they were generated under.
func Filter(g Gates, set metrics.Set, findings []Finding) []Finding {
	if g.Readiness == Blocked {
		return nil
	}

	accepted := make([]Finding, 0, len(findings))
	for _, f := range findings {
		rule, known := eligibilityTable[f.Type]
		if !known {
			if g.Readiness != ReadyFull {
				continue
			}
			f.Readiness = g.Readiness
			accepted = append(accepted, f)
			continue
		}
		if g.Readiness == ReadyLimited && !rule.allowedAtLimited {
			continue
		}
		if rule.blockedIfAbridged && g.AccountAbridged {
			continue
		}
		if !metricsAvailable(set, rule.requiredMetrics) {
			continue
		}
		if !trustMet(g.Trust, rule.minTrust) {
			continue
		}
		f.Readiness = g.Readiness
		accepted = append(accepted, f)
	}
	return accepted
}

func metricsAvailable(set metrics.Set, required []string) bool {
	for _, name := range required {
		if !set.Available(name) {
			return false
		}
	}
	return true
}

func trustMet(t TrustScores, minimums map[string]float64) bool {
	for module, min := range minimums {
		var score float64
		switch module {
		case moduleAnchors:
			score = t.Anchors
		case moduleContext:
			score = t.Context
		case moduleNarrative:
			score = t.Narrative
		}
		if score < min {
			return false
		}
	}
	return true
}
