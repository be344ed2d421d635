package canonical

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/ecdf-canonical/pkg/money"
)

// Sheet names of the workbook layout.
const (
	sheetBalanceSheet = "Balance Sheet"
	sheetProfitLoss   = "Profit & Loss"
	sheetMetrics      = "Metrics"
	sheetGate         = "Gate"
)

// ExportXLSX writes the model as a reviewer-friendly workbook: one sheet
// per statement plus metrics and the gate verdict.
func ExportXLSX(m *Model, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeLineItemSheet(f, sheetBalanceSheet, m.BalanceSheet); err != nil {
		return err
	}
	if err := writeLineItemSheet(f, sheetProfitLoss, m.ProfitLoss); err != nil {
		return err
	}
	if err := writeMetricsSheet(f, m); err != nil {
		return err
	}
	if err := writeGateSheet(f, m); err != nil {
		return err
	}

	// Drop the default sheet excelize creates.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeLineItemSheet(f *excelize.File, name string, items []LineItem) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}

	headers := []any{"Code", "Caption", "Current Year (EUR)", "Prior Year (EUR)", "Confidence", "Source", "Page"}
	if err := f.SetSheetRow(name, "A1", &headers); err != nil {
		return err
	}

	for i, item := range items {
		row := []any{
			item.Code,
			item.Caption,
			displayAmount(item.CurrentValue),
			displayAmount(item.PriorValue),
			item.Confidence,
			string(item.Source),
			item.Page,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+2, name, err)
		}
	}
	return nil
}

func writeMetricsSheet(f *excelize.File, m *Model) error {
	if _, err := f.NewSheet(sheetMetrics); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheetMetrics, err)
	}

	headers := []any{"Metric", "Value"}
	if err := f.SetSheetRow(sheetMetrics, "A1", &headers); err != nil {
		return err
	}

	rows := [][]any{
		{"net_margin", ratioString(m.Metrics.NetMargin)},
		{"return_on_equity", ratioString(m.Metrics.ReturnOnEquity)},
		{"return_on_assets", ratioString(m.Metrics.ReturnOnAssets)},
		{"equity_ratio", ratioString(m.Metrics.EquityRatio)},
		{"debt_to_equity", ratioString(m.Metrics.DebtToEquity)},
		{"asset_turnover", ratioString(m.Metrics.AssetTurnover)},
		{"ic_receivable_share", ratioString(m.Metrics.ICReceivableShare)},
		{"ic_payable_share", ratioString(m.Metrics.ICPayableShare)},
		{"ic_interest_spread", ratioString(m.Metrics.ICInterestSpread)},
		{"staff_cost_ratio", ratioString(m.Metrics.StaffCostRatio)},
	}
	line := 2
	for _, row := range rows {
		r := row
		if err := f.SetSheetRow(sheetMetrics, fmt.Sprintf("A%d", line), &r); err != nil {
			return err
		}
		line++
	}

	for _, nc := range m.Metrics.NotCalculable {
		row := []any{nc.Metric, "not calculable: " + nc.Reason}
		if err := f.SetSheetRow(sheetMetrics, fmt.Sprintf("A%d", line), &row); err != nil {
			return err
		}
		line++
	}
	return nil
}

func writeGateSheet(f *excelize.File, m *Model) error {
	if _, err := f.NewSheet(sheetGate); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheetGate, err)
	}

	rows := [][]any{
		{"Readiness", string(m.Gates.Readiness)},
		{"Completeness score", m.Gates.CompletenessScore},
		{"Scale", string(m.Metadata.Scale)},
		{"Scale validated", m.Metadata.ScaleValidated},
		{"Overall confidence", m.Metadata.OverallConfidence},
		{"Trust anchors", m.Gates.Trust.Anchors},
		{"Trust context", m.Gates.Trust.Context},
		{"Trust narrative", m.Gates.Trust.Narrative},
	}
	line := 1
	for _, row := range rows {
		r := row
		if err := f.SetSheetRow(sheetGate, fmt.Sprintf("A%d", line), &r); err != nil {
			return err
		}
		line++
	}

	for _, w := range m.Gates.Warnings {
		row := []any{"Warning", w}
		if err := f.SetSheetRow(sheetGate, fmt.Sprintf("A%d", line), &row); err != nil {
			return err
		}
		line++
	}
	for _, a := range m.Gates.ReviewActions {
		row := []any{"Review action", a}
		if err := f.SetSheetRow(sheetGate, fmt.Sprintf("A%d", line), &row); err != nil {
			return err
		}
		line++
	}
	return nil
}

func displayAmount(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return money.FromDecimal(*d).Display()
}

func ratioString(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.Round(4).String()
}
