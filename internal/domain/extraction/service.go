package extraction

import (
	"log/slog"

	"github.com/FACorreiaa/ecdf-canonical/internal/domain/dictionary"
	"github.com/FACorreiaa/ecdf-canonical/internal/domain/layout"
)

// Extractor orchestrates table extraction and the text-scanning fallback
// for one document. It holds only read-only state and is safe to share
// across concurrently processed documents.
type Extractor struct {
	tables  *TableExtractor
	scanner *TextScanner
	dict    *dictionary.Dictionary
	logger  *slog.Logger
}

// NewExtractor wires the extractor against the code dictionary.
func NewExtractor(dict *dictionary.Dictionary, logger *slog.Logger) *Extractor {
	return &Extractor{
		tables:  NewTableExtractor(dict),
		scanner: NewTextScanner(dict),
		dict:    dict,
		logger:  logger,
	}
}

// Extract runs tables first, then the text fallback, merges by precedence
// and stamps the dictionary version for reproducibility.
func (e *Extractor) Extract(doc *layout.Document) Result {
	res := Result{DictionaryVersion: e.dict.Version()}

	var tableRecords []ExtractedCode
	for _, table := range doc.Tables() {
		res.TablesScanned++
		records, found := e.tables.Extract(table)
		if !found {
			continue
		}
		if len(records) > 0 {
			res.TablesWithCodes++
		}
		tableRecords = append(tableRecords, records...)
	}

	// Text fallback runs whenever tables alone produced nothing usable; it
	// also supplements partial table coverage with the known-totals tier.
	var textRecords []ExtractedCode
	if len(tableRecords) == 0 {
		res.UsedTextFallback = true
		textRecords = e.scanner.Scan(doc.Text)
		if len(textRecords) == 0 {
			res.Warnings = append(res.Warnings, "no statutory codes found in tables or text")
		}
	}

	res.Codes = MergeRecords(tableRecords, textRecords)
	res.OverallConfidence = meanConfidence(res.Codes)

	e.logger.Info("code extraction complete",
		slog.Int("tables_scanned", res.TablesScanned),
		slog.Int("codes", len(res.Codes)),
		slog.Bool("text_fallback", res.UsedTextFallback),
		slog.Float64("overall_confidence", res.OverallConfidence),
		slog.String("dictionary_version", res.DictionaryVersion),
	)
	return res
}

// ScanText runs the text scanner alone, without the table tier. Callers use
// it to cross-check narrative figures against table-extracted values.
func (e *Extractor) ScanText(text string) []ExtractedCode {
	return e.scanner.Scan(text)
}

// meanConfidence is the reported overall confidence: the arithmetic mean
// of per-record confidences.
func meanConfidence(codes []ExtractedCode) float64 {
	if len(codes) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range codes {
		sum += c.Confidence
	}
	return sum / float64(len(codes))
}
