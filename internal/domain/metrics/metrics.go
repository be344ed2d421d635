package metrics

import (
	"github.com/shopspring/decimal"
)

// Statutory codes the engine reads. Values are post-scale; the engine never
// re-applies the unit scale.
const (
	codeTotalAssets      = "109"
	codeTotalLiabilities = "405"
	codeEquity           = "131"
	codeICReceivables    = "1121"
	codeICPayables       = "1435"
	codeBankDebt         = "1451"
	codeTurnover         = "7010"
	codeStaffCosts       = "6050"
	codeInterestIncome   = "7530"
	codeInterestExpense  = "6550"
	codeNetResult        = "141"
)

// NotCalculable records a metric that could not be computed and why. Every
// unavailable metric must appear here; nothing is silently omitted or
// defaulted to zero.
type NotCalculable struct {
	Metric        string   `json:"metric"`
	Reason        string   `json:"reason"`
	MissingInputs []string `json:"missing_inputs,omitempty"`
}

// Set is the flat record of nullable ratios. A nil field always has a
// matching NotCalculable entry.
type Set struct {
	NetMargin      *decimal.Decimal `json:"net_margin,omitempty"`
	ReturnOnEquity *decimal.Decimal `json:"return_on_equity,omitempty"`
	ReturnOnAssets *decimal.Decimal `json:"return_on_assets,omitempty"`
	EquityRatio    *decimal.Decimal `json:"equity_ratio,omitempty"`
	DebtToEquity   *decimal.Decimal `json:"debt_to_equity,omitempty"`
	AssetTurnover  *decimal.Decimal `json:"asset_turnover,omitempty"`

	// Transfer-pricing ratios.
	ICReceivableShare *decimal.Decimal `json:"ic_receivable_share,omitempty"`
	ICPayableShare    *decimal.Decimal `json:"ic_payable_share,omitempty"`
	ICInterestSpread  *decimal.Decimal `json:"ic_interest_spread,omitempty"`
	StaffCostRatio    *decimal.Decimal `json:"staff_cost_ratio,omitempty"`

	YoY []VolatilityFlag `json:"yoy_flags,omitempty"`

	NotCalculable []NotCalculable `json:"metrics_not_calculable"`
}

// Available reports whether the named metric was calculable. Names follow
// the JSON field names; unknown names are never available.
func (s Set) Available(name string) bool {
	switch name {
	case "net_margin":
		return s.NetMargin != nil
	case "return_on_equity":
		return s.ReturnOnEquity != nil
	case "return_on_assets":
		return s.ReturnOnAssets != nil
	case "equity_ratio":
		return s.EquityRatio != nil
	case "debt_to_equity":
		return s.DebtToEquity != nil
	case "asset_turnover":
		return s.AssetTurnover != nil
	case "ic_receivable_share":
		return s.ICReceivableShare != nil
	case "ic_payable_share":
		return s.ICPayableShare != nil
	case "ic_interest_spread":
		return s.ICInterestSpread != nil
	case "staff_cost_ratio":
		return s.StaffCostRatio != nil
	}
	return false
}

// Inputs are resolved code values keyed by statutory code. A missing key
// means the code was not extracted; zero is a real extracted zero.
type Inputs struct {
	Current map[string]decimal.Decimal
	Prior   map[string]decimal.Decimal
}

// Compute derives every ratio by explicit formula. Pure and bounded-time:
// no I/O, identical input yields identical output.
func Compute(in Inputs) Set {
	e := engine{values: in.Current}
	s := Set{NotCalculable: []NotCalculable{}}

	s.NetMargin = e.ratio(&s, "net_margin",
		codeNetResult, codeTurnover, requirePositive)
	s.ReturnOnEquity = e.ratio(&s, "return_on_equity",
		codeNetResult, codeEquity, requirePositive)
	s.ReturnOnAssets = e.ratio(&s, "return_on_assets",
		codeNetResult, codeTotalAssets, requirePositive)
	s.EquityRatio = e.ratio(&s, "equity_ratio",
		codeEquity, codeTotalAssets, requirePositive)
	s.AssetTurnover = e.ratio(&s, "asset_turnover",
		codeTurnover, codeTotalAssets, requirePositive)
	s.DebtToEquity = e.debtToEquity(&s)

	s.ICReceivableShare = e.ratio(&s, "ic_receivable_share",
		codeICReceivables, codeTotalAssets, requirePositive)
	s.ICPayableShare = e.icPayableShare(&s)
	s.ICInterestSpread = e.icInterestSpread(&s)
	s.StaffCostRatio = e.staffCostRatio(&s)

	s.YoY = computeYoY(in)
	return s
}

type engine struct {
	values map[string]decimal.Decimal
}

type denominatorRule int

const (
	requireNonZero denominatorRule = iota
	requirePositive
)

// ratio computes numerator/denominator, recording a NotCalculable entry when
// either code is missing or the denominator guard fails.
func (e engine) ratio(s *Set, name, numCode, denCode string, rule denominatorRule) *decimal.Decimal {
	num, numOK := e.values[numCode]
	den, denOK := e.values[denCode]

	var missing []string
	if !numOK {
		missing = append(missing, numCode)
	}
	if !denOK {
		missing = append(missing, denCode)
	}
	if len(missing) > 0 {
		s.NotCalculable = append(s.NotCalculable, NotCalculable{
			Metric:        name,
			Reason:        "required code not extracted",
			MissingInputs: missing,
		})
		return nil
	}

	switch rule {
	case requirePositive:
		if !den.IsPositive() {
			s.NotCalculable = append(s.NotCalculable, NotCalculable{
				Metric: name,
				Reason: "denominator " + denCode + " is not positive",
			})
			return nil
		}
	case requireNonZero:
		if den.IsZero() {
			s.NotCalculable = append(s.NotCalculable, NotCalculable{
				Metric: name,
				Reason: "denominator " + denCode + " is zero",
			})
			return nil
		}
	}

	v := num.Div(den)
	return &v
}

// debtToEquity is (intercompany payables + bank debt) / equity. Both debt
// codes are required; a missing one is reported, never zero-defaulted.
func (e engine) debtToEquity(s *Set) *decimal.Decimal {
	ic, icOK := e.values[codeICPayables]
	bank, bankOK := e.values[codeBankDebt]
	equity, eqOK := e.values[codeEquity]

	var missing []string
	if !icOK {
		missing = append(missing, codeICPayables)
	}
	if !bankOK {
		missing = append(missing, codeBankDebt)
	}
	if !eqOK {
		missing = append(missing, codeEquity)
	}
	if len(missing) > 0 {
		s.NotCalculable = append(s.NotCalculable, NotCalculable{
			Metric:        "debt_to_equity",
			Reason:        "required code not extracted",
			MissingInputs: missing,
		})
		return nil
	}
	if !equity.IsPositive() {
		s.NotCalculable = append(s.NotCalculable, NotCalculable{
			Metric: "debt_to_equity",
			Reason: "denominator " + codeEquity + " is not positive",
		})
		return nil
	}
	v := ic.Abs().Add(bank.Abs()).Div(equity)
	return &v
}

// icPayableShare is |intercompany payables| / balance sheet total. The
// absolute value makes the share independent of the filing's sign
// convention for liabilities.
func (e engine) icPayableShare(s *Set) *decimal.Decimal {
	pay, payOK := e.values[codeICPayables]
	total, totalOK := e.values[codeTotalLiabilities]

	var missing []string
	if !payOK {
		missing = append(missing, codeICPayables)
	}
	if !totalOK {
		missing = append(missing, codeTotalLiabilities)
	}
	if len(missing) > 0 {
		s.NotCalculable = append(s.NotCalculable, NotCalculable{
			Metric:        "ic_payable_share",
			Reason:        "required code not extracted",
			MissingInputs: missing,
		})
		return nil
	}
	if !total.IsPositive() {
		s.NotCalculable = append(s.NotCalculable, NotCalculable{
			Metric: "ic_payable_share",
			Reason: "denominator " + codeTotalLiabilities + " is not positive",
		})
		return nil
	}
	v := pay.Abs().Div(total)
	return &v
}

// icInterestSpread is the effective rate earned on intercompany receivables
// minus the effective rate paid on intercompany payables.
func (e engine) icInterestSpread(s *Set) *decimal.Decimal {
	var missing []string
	for _, code := range []string{codeInterestIncome, codeICReceivables, codeInterestExpense, codeICPayables} {
		if _, ok := e.values[code]; !ok {
			missing = append(missing, code)
		}
	}
	if len(missing) > 0 {
		s.NotCalculable = append(s.NotCalculable, NotCalculable{
			Metric:        "ic_interest_spread",
			Reason:        "required code not extracted",
			MissingInputs: missing,
		})
		return nil
	}

	recv := e.values[codeICReceivables]
	pay := e.values[codeICPayables].Abs()
	if !recv.IsPositive() || !pay.IsPositive() {
		s.NotCalculable = append(s.NotCalculable, NotCalculable{
			Metric: "ic_interest_spread",
			Reason: "intercompany balances must be positive to derive effective rates",
		})
		return nil
	}
	earned := e.values[codeInterestIncome].Div(recv)
	paid := e.values[codeInterestExpense].Abs().Div(pay)
	v := earned.Sub(paid)
	return &v
}

// staffCostRatio is |staff costs| / turnover, a substance indicator.
func (e engine) staffCostRatio(s *Set) *decimal.Decimal {
	staff, staffOK := e.values[codeStaffCosts]
	turnover, tOK := e.values[codeTurnover]

	var missing []string
	if !staffOK {
		missing = append(missing, codeStaffCosts)
	}
	if !tOK {
		missing = append(missing, codeTurnover)
	}
	if len(missing) > 0 {
		s.NotCalculable = append(s.NotCalculable, NotCalculable{
			Metric:        "staff_cost_ratio",
			Reason:        "required code not extracted",
			MissingInputs: missing,
		})
		return nil
	}
	if !turnover.IsPositive() {
		s.NotCalculable = append(s.NotCalculable, NotCalculable{
			Metric: "staff_cost_ratio",
			Reason: "denominator " + codeTurnover + " is not positive",
		})
		return nil
	}
	v := staff.Abs().Div(turnover)
	return &v
}
