package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/ecdf-canonical/internal/domain/dictionary"
	"github.com/FACorreiaa/ecdf-canonical/internal/domain/gate"
	"github.com/FACorreiaa/ecdf-canonical/internal/domain/layout"
	"github.com/FACorreiaa/ecdf-canonical/internal/domain/numeric"
	"github.com/FACorreiaa/ecdf-canonical/internal/domain/profile"
	"github.com/FACorreiaa/ecdf-canonical/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Pipeline: config.PipelineConfig{
			BalanceTolerance:        100,
			ScaleUncertainBelow:     0.8,
			MappingHighFloor:        0.9,
			MappingMediumFloor:      0.7,
			CriticalConfidenceFloor: 0.7,
		},
		Thresholds: config.ThresholdConfig{
			SmallBalanceSheet:  4_400_000,
			SmallTurnover:      8_800_000,
			SmallHeadcount:     50,
			MediumBalanceSheet: 20_000_000,
			MediumTurnover:     40_000_000,
			MediumHeadcount:    250,
		},
	}
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	dict, err := dictionary.Load()
	require.NoError(t, err)
	return NewService(testConfig(), dict, slog.Default())
}

func cells(texts ...string) []layout.Cell {
	row := make([]layout.Cell, len(texts))
	for i, s := range texts {
		row[i] = layout.Cell{Text: s, Confidence: 0.98}
	}
	return row
}

func statementDocument() *layout.Document {
	return &layout.Document{
		Text: "Annual accounts as at 31 December 2023, expressed in thousands of euros.\n" +
			"Notes to the annual accounts follow the statements.\n" +
			"R.C.S. Luxembourg B 123456",
		Pages: []layout.Page{
			{
				Number: 2,
				Tables: []layout.Table{{
					Page:       2,
					HeaderRows: [][]layout.Cell{cells("Référence", "Libellé", "2023", "2022")},
					BodyRows: [][]layout.Cell{
						cells("1121", "Amounts owed by affiliated undertakings", "1.500", "1.200"),
						cells("109", "Total (assets)", "2.000", "1.800"),
						cells("131", "Total capital and reserves", "800", "700"),
						cells("405", "Total (liabilities)", "2.000", "1.800"),
					},
				}},
			},
			{
				Number: 4,
				Tables: []layout.Table{{
					Page:       4,
					HeaderRows: [][]layout.Cell{cells("Référence", "Libellé", "2023", "2022")},
					BodyRows: [][]layout.Cell{
						cells("7010", "Net turnover", "950", "870"),
						cells("141", "Profit for the year", "80", "60"),
						cells("9010", "Average number of employees", "12", "11"),
					},
				}},
			},
		},
	}
}

func TestService_Run(t *testing.T) {
	svc := newTestService(t)

	model, err := svc.Run(context.Background(), statementDocument(), profile.Overrides{})
	require.NoError(t, err)

	t.Run("scale applied exactly once to monetary codes", func(t *testing.T) {
		assert.Equal(t, numeric.ScaleThousands, model.Metadata.Scale)
		assert.True(t, model.Metadata.ScaleValidated)

		v, ok := model.Value("109")
		require.True(t, ok)
		assert.True(t, v.Equal(decimal.NewFromInt(2_000_000)), "got %s", v)

		v, ok = model.Value("7010")
		require.True(t, ok)
		assert.True(t, v.Equal(decimal.NewFromInt(950_000)))
	})

	t.Run("headcount codes are never scaled", func(t *testing.T) {
		v, ok := model.Value("9010")
		require.True(t, ok)
		assert.True(t, v.Equal(decimal.NewFromInt(12)), "got %s", v)
	})

	t.Run("sections are routed by dictionary category", func(t *testing.T) {
		assert.Len(t, model.BalanceSheet, 4)
		assert.Len(t, model.ProfitLoss, 2)
		assert.Len(t, model.Notes, 1)
	})

	t.Run("gate sees a clean extraction", func(t *testing.T) {
		assert.Equal(t, gate.ReadyFull, model.Gates.Readiness)
		assert.Equal(t, 7, model.Gates.Mapping.High)
		assert.Zero(t, model.Gates.Mapping.Low)
		assert.True(t, model.Gates.Sections.Notes)
	})

	t.Run("balanced sheet stays quiet", func(t *testing.T) {
		for _, w := range model.Gates.Warnings {
			assert.NotContains(t, w, "does not balance")
		}
	})

	t.Run("profile derived from text and figures", func(t *testing.T) {
		assert.Equal(t, "B123456", model.Profile.RCSNumber)
		assert.Equal(t, string(profile.ConsolidationStandalone), model.Profile.Consolidation.Value)
		assert.Equal(t, profile.SizeSmall, model.Profile.Size)
	})

	t.Run("metadata is stamped", func(t *testing.T) {
		assert.Equal(t, dictionary.Version, model.Metadata.DictionaryVersion)
		assert.Equal(t, "en", model.Metadata.Language)
		assert.InDelta(t, 0.95, model.Metadata.OverallConfidence, 1e-9)
	})
}

func TestService_Run_FatalOnEmptyInput(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Run(context.Background(), &layout.Document{}, profile.Overrides{})
	require.Error(t, err)
	assert.ErrorIs(t, err, layout.ErrEmptyDocument)
}

func TestService_Run_ImbalanceWarnsButCompletes(t *testing.T) {
	svc := newTestService(t)

	doc := statementDocument()
	// Break the balance sheet: 405 no longer equals 109.
	doc.Pages[0].Tables[0].BodyRows[3] = cells("405", "Total (liabilities)", "1.500", "1.800")

	model, err := svc.Run(context.Background(), doc, profile.Overrides{})
	require.NoError(t, err)

	assert.Equal(t, gate.ReadyFull, model.Gates.Readiness, "imbalance is a warning, not a blocker")
	found := false
	for _, w := range model.Gates.Warnings {
		if strings.Contains(w, "does not balance") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestService_Run_FrenchWordsDoNotImplyScale(t *testing.T) {
	svc := newTestService(t)

	doc := statementDocument()
	doc.Text = "Comptes annuels au 31 décembre 2023. Autres débiteurs et créditeurs divers. " +
		"Rapport des administrateurs."
	// Figures stated in full units, large enough for the magnitude tier.
	doc.Pages[0].Tables[0].BodyRows = [][]layout.Cell{
		cells("1121", "Créances sur des entreprises liées", "15.000.000", "12.000.000"),
		cells("109", "Total (actif)", "20.000.000", "18.000.000"),
		cells("405", "Total (passif)", "20.000.000", "18.000.000"),
	}

	model, err := svc.Run(context.Background(), doc, profile.Overrides{})
	require.NoError(t, err)

	assert.Equal(t, numeric.ScaleUnits, model.Metadata.Scale,
		"débiteurs/créditeurs must not read as scale abbreviations")

	v, ok := model.Value("109")
	require.True(t, ok)
	assert.True(t, v.Equal(decimal.NewFromInt(20_000_000)), "got %s", v)
}

func TestService_Run_UnresolvedConsolidationBlocks(t *testing.T) {
	svc := newTestService(t)

	doc := statementDocument()
	doc.Text = "expressed in thousands of euros" // no consolidation markers

	model, err := svc.Run(context.Background(), doc, profile.Overrides{})
	require.NoError(t, err)
	assert.Equal(t, gate.Blocked, model.Gates.Readiness)
}

func TestService_FilterFindings(t *testing.T) {
	svc := newTestService(t)

	model, err := svc.Run(context.Background(), statementDocument(), profile.Overrides{})
	require.NoError(t, err)
	require.Equal(t, gate.ReadyFull, model.Gates.Readiness)

	findings := []gate.Finding{
		{Type: "holding_structure", Severity: "low"},
		{Type: "intercompany_financing_spread", Severity: "high"}, // spread not calculable here
	}
	accepted := svc.FilterFindings(model, findings)
	require.Len(t, accepted, 1)
	assert.Equal(t, "holding_structure", accepted[0].Type)
}
