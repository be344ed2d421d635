package extraction

import (
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/ecdf-canonical/internal/domain/dictionary"
	"github.com/FACorreiaa/ecdf-canonical/internal/domain/layout"
)

func mustDict(t testing.TB) *dictionary.Dictionary {
	t.Helper()
	d, err := dictionary.Load()
	require.NoError(t, err)
	return d
}

func cells(texts ...string) []layout.Cell {
	row := make([]layout.Cell, len(texts))
	for i, s := range texts {
		row[i] = layout.Cell{Text: s, Confidence: 0.98}
	}
	return row
}

func balanceSheetTable() layout.Table {
	return layout.Table{
		Page: 2,
		HeaderRows: [][]layout.Cell{
			cells("Référence", "Libellé", "2023", "2022"),
		},
		BodyRows: [][]layout.Cell{
			cells("1121", "Créances sur des entreprises liées", "1.500.000", "1.200.000"),
			cells("1131", "Avoirs en banques", "250.000", "310.000"),
			cells("109", "Total (actif)", "1.750.000", "1.510.000"),
		},
	}
}

func TestTableExtractor_HeaderKeywords(t *testing.T) {
	te := NewTableExtractor(mustDict(t))

	records, found := te.Extract(balanceSheetTable())
	require.True(t, found)
	require.Len(t, records, 3)

	ic := records[0]
	assert.Equal(t, "1121", ic.Code)
	assert.Equal(t, "Créances sur des entreprises liées", ic.Caption)
	assert.Equal(t, SourceReferenceColumn, ic.Source)
	assert.Equal(t, 0.95, ic.Confidence)
	assert.Equal(t, 2, ic.Page)
	require.NotNil(t, ic.CurrentValue)
	require.NotNil(t, ic.PriorValue)
	assert.True(t, ic.CurrentValue.Equal(decimal.RequireFromString("1500000")))
	assert.True(t, ic.PriorValue.Equal(decimal.RequireFromString("1200000")))
}

func TestTableExtractor_InferredReferenceColumn(t *testing.T) {
	te := NewTableExtractor(mustDict(t))

	// No header at all: the code column must be inferred from body rows.
	table := layout.Table{
		Page: 3,
		BodyRows: [][]layout.Cell{
			cells("Net turnover", "7010", "900.000"),
			cells("Staff costs", "6050", "(120.000)"),
			cells("Result for the year", "141", "80.000"),
		},
	}

	records, found := te.Extract(table)
	require.True(t, found)
	require.Len(t, records, 3)
	assert.Equal(t, "7010", records[0].Code)
	assert.Equal(t, "Net turnover", records[0].Caption)
	require.NotNil(t, records[1].CurrentValue)
	assert.True(t, records[1].CurrentValue.Equal(decimal.RequireFromString("-120000")))
}

func TestTableExtractor_UnknownCodeConfidence(t *testing.T) {
	te := NewTableExtractor(mustDict(t))

	table := layout.Table{
		HeaderRows: [][]layout.Cell{cells("Code", "Description", "2023")},
		BodyRows: [][]layout.Cell{
			cells("8888", "Some exotic line", "42.000"),
			cells("7010", "Net turnover", "900.000"),
		},
	}

	records, found := te.Extract(table)
	require.True(t, found)
	require.Len(t, records, 2)
	assert.Equal(t, 0.7, records[0].Confidence)
	assert.Equal(t, 0.95, records[1].Confidence)
}

func TestTableExtractor_NoReferenceColumn(t *testing.T) {
	te := NewTableExtractor(mustDict(t))

	table := layout.Table{
		HeaderRows: [][]layout.Cell{cells("Description", "Amount")},
		BodyRows: [][]layout.Cell{
			cells("Some narrative", "not a number"),
			cells("More narrative", "still none"),
		},
	}

	_, found := te.Extract(table)
	assert.False(t, found)
}

func TestTextScanner_ExplicitMarker(t *testing.T) {
	ts := NewTextScanner(mustDict(t))

	records := ts.Scan("Amounts owed to affiliated undertakings code 1435: 2.400.000 1.900.000")
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "1435", rec.Code)
	assert.Equal(t, SourceReferenceColumn, rec.Source)
	assert.Equal(t, 0.95, rec.Confidence)
	require.NotNil(t, rec.CurrentValue)
	assert.True(t, rec.CurrentValue.Equal(decimal.RequireFromString("2400000")))
	require.NotNil(t, rec.PriorValue)
	assert.True(t, rec.PriorValue.Equal(decimal.RequireFromString("1900000")))
}

func TestTextScanner_LinePatterns(t *testing.T) {
	ts := NewTextScanner(mustDict(t))

	t.Run("code first", func(t *testing.T) {
		records := ts.Scan("7010 Chiffre d'affaires net 950.000 870.000")
		require.Len(t, records, 1)
		assert.Equal(t, "7010", records[0].Code)
		assert.Equal(t, "Chiffre d'affaires net", records[0].Caption)
		assert.True(t, records[0].CurrentValue.Equal(decimal.RequireFromString("950000")))
	})

	t.Run("caption first", func(t *testing.T) {
		records := ts.Scan("Frais de personnel 6050 (45.000)")
		require.Len(t, records, 1)
		assert.Equal(t, "6050", records[0].Code)
		assert.True(t, records[0].CurrentValue.Equal(decimal.RequireFromString("-45000")))
	})

	t.Run("calendar years are not codes", func(t *testing.T) {
		records := ts.Scan("Incorporated in Luxembourg in 2019 1.000")
		assert.Empty(t, records)
	})
}

func TestTextScanner_CaptionKeywords(t *testing.T) {
	ts := NewTextScanner(mustDict(t))

	t.Run("known total resolved by caption", func(t *testing.T) {
		records := ts.Scan("Total assets 109 1,234,000")
		require.Len(t, records, 1)

		rec := records[0]
		assert.Equal(t, "109", rec.Code)
		assert.Equal(t, SourceCaptionMatch, rec.Source)
		assert.Equal(t, 0.55, rec.Confidence)
		require.NotNil(t, rec.CurrentValue)
		assert.True(t, rec.CurrentValue.Equal(decimal.RequireFromString("1234000")),
			"code token must be skipped when reading the value run, got %s", rec.CurrentValue)
	})

	t.Run("each code accepted only once", func(t *testing.T) {
		text := "Total assets 1,234,000\nTotal assets 9,999,999"
		records := ts.Scan(text)
		require.Len(t, records, 1)
		assert.True(t, records[0].CurrentValue.Equal(decimal.RequireFromString("1234000")))
	})

	t.Run("french caption", func(t *testing.T) {
		records := ts.Scan("Chiffre d'affaires net 950.000")
		require.Len(t, records, 1)
		assert.Equal(t, "7010", records[0].Code)
	})

	t.Run("caption without a value is skipped", func(t *testing.T) {
		records := ts.Scan("The total assets of the company increased during the year.")
		assert.Empty(t, records)
	})
}

func TestMergeRecords_Precedence(t *testing.T) {
	v1 := decimal.RequireFromString("100")
	v2 := decimal.RequireFromString("200")

	tableRec := ExtractedCode{Code: "109", CurrentValue: &v1, Confidence: 0.95, Source: SourceReferenceColumn, tier: tierTable}
	captionRec := ExtractedCode{Code: "109", CurrentValue: &v2, Confidence: 0.55, Source: SourceCaptionMatch, tier: tierCaptionKeyword}

	t.Run("higher tier wins regardless of input order", func(t *testing.T) {
		merged := MergeRecords([]ExtractedCode{captionRec}, []ExtractedCode{tableRec})
		require.Len(t, merged, 1)
		assert.True(t, merged[0].CurrentValue.Equal(v1))
		assert.Equal(t, SourceReferenceColumn, merged[0].Source)
	})

	t.Run("same tier keeps higher confidence", func(t *testing.T) {
		low := ExtractedCode{Code: "7010", Confidence: 0.7, tier: tierTable}
		high := ExtractedCode{Code: "7010", Confidence: 0.95, tier: tierTable}
		merged := MergeRecords([]ExtractedCode{low, high})
		require.Len(t, merged, 1)
		assert.Equal(t, 0.95, merged[0].Confidence)
	})

	t.Run("distinct codes all kept and sorted", func(t *testing.T) {
		a := ExtractedCode{Code: "405", tier: tierTable}
		b := ExtractedCode{Code: "109", tier: tierTable}
		merged := MergeRecords([]ExtractedCode{a, b})
		require.Len(t, merged, 2)
		assert.Equal(t, "109", merged[0].Code)
		assert.Equal(t, "405", merged[1].Code)
	})
}

func TestExtractor_OverallConfidence(t *testing.T) {
	e := NewExtractor(mustDict(t), slog.Default())

	doc := &layout.Document{
		Text:  "irrelevant",
		Pages: []layout.Page{{Number: 2, Tables: []layout.Table{balanceSheetTable()}}},
	}

	res := e.Extract(doc)
	require.NotEmpty(t, res.Codes)

	sum := 0.0
	for _, c := range res.Codes {
		sum += c.Confidence
	}
	assert.InDelta(t, sum/float64(len(res.Codes)), res.OverallConfidence, 1e-9)
	assert.Equal(t, dictionary.Version, res.DictionaryVersion)
	assert.False(t, res.UsedTextFallback)
}

func TestExtractor_TextFallback(t *testing.T) {
	e := NewExtractor(mustDict(t), slog.Default())

	doc := &layout.Document{
		Text: "Total assets 109 1,234,000\nNet turnover 7010 950.000",
	}

	res := e.Extract(doc)
	assert.True(t, res.UsedTextFallback)
	require.NotEmpty(t, res.Codes)
}

func TestExtractor_NothingFound(t *testing.T) {
	e := NewExtractor(mustDict(t), slog.Default())

	res := e.Extract(&layout.Document{Text: "pure narrative with no figures"})
	assert.Empty(t, res.Codes)
	assert.Zero(t, res.OverallConfidence)
	assert.NotEmpty(t, res.Warnings)
}
