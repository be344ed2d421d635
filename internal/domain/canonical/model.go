package canonical

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/ecdf-canonical/internal/domain/extraction"
	"github.com/FACorreiaa/ecdf-canonical/internal/domain/gate"
	"github.com/FACorreiaa/ecdf-canonical/internal/domain/metrics"
	"github.com/FACorreiaa/ecdf-canonical/internal/domain/numeric"
	"github.com/FACorreiaa/ecdf-canonical/internal/domain/profile"
)

// SchemaVersion identifies the canonical model layout. Bump on any breaking
// shape change; persisted models carry the version they were written with.
const SchemaVersion = "1.0"

// Metadata describes how the model was produced. All values attached to
// line items are post-scale; no consumer re-applies the unit scale.
type Metadata struct {
	SchemaVersion     string        `json:"schema_version"`
	DictionaryVersion string        `json:"dictionary_version"`
	Language          string        `json:"language,omitempty"`
	Scale             numeric.Scale `json:"scale"`
	ScaleValidated    bool          `json:"scale_validated"`
	ScaleConfidence   float64       `json:"scale_confidence"`
	AccountType       string        `json:"account_type"`
	CompanySize       profile.Size  `json:"company_size"`
	OverallConfidence float64       `json:"overall_confidence"`
	Warnings          []string      `json:"warnings"`
	GeneratedAt       time.Time     `json:"generated_at"`
}

// LineItem is one canonical statement line. Values are post-scale euros.
type LineItem struct {
	Code         string                 `json:"code"`
	Caption      string                 `json:"caption"`
	CurrentValue *decimal.Decimal       `json:"current_value,omitempty"`
	PriorValue   *decimal.Decimal       `json:"prior_value,omitempty"`
	Confidence   float64                `json:"confidence"`
	Page         int                    `json:"page,omitempty"`
	Source       extraction.MatchSource `json:"match_source"`
}

// Model is the canonical, code-indexed financial model: the single output
// of the pipeline for one document.
type Model struct {
	Metadata     Metadata        `json:"metadata"`
	Profile      profile.Profile `json:"profile"`
	BalanceSheet []LineItem      `json:"balance_sheet"`
	ProfitLoss   []LineItem      `json:"profit_loss"`
	Notes        []LineItem      `json:"notes,omitempty"`
	Metrics      metrics.Set     `json:"metrics"`
	Gates        gate.Gates      `json:"gates"`
}

// Value returns the current-year value for a code, searching all statement
// sections. The boolean is false when the code is absent or has no value.
func (m *Model) Value(code string) (decimal.Decimal, bool) {
	for _, section := range [][]LineItem{m.BalanceSheet, m.ProfitLoss, m.Notes} {
		for _, item := range section {
			if item.Code == code && item.CurrentValue != nil {
				return *item.CurrentValue, true
			}
		}
	}
	return decimal.Zero, false
}
