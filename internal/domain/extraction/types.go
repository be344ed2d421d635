// Package extraction locates statutory line-item codes in detected tables
// and, when no reference column exists, in raw text. It produces immutable
// ExtractedCode records with per-record confidence and provenance.
package extraction

import (
	"regexp"

	"github.com/shopspring/decimal"
)

// MatchSource records how a code record was located.
type MatchSource string

const (
	// SourceReferenceColumn means the code itself was present, either in a
	// table reference column or as an explicit marker in text.
	SourceReferenceColumn MatchSource = "reference_column"
	// SourceCaptionMatch means the code was inferred from a caption.
	SourceCaptionMatch MatchSource = "caption_match"
)

// tier orders extraction evidence; lower values always win a merge.
type tier int

const (
	tierTable tier = iota
	tierExplicitMarker
	tierLinePattern
	tierCaptionKeyword
)

// ExtractedCode is one (code, caption, values) record. Records are
// immutable once created; duplicates are resolved by MergeRecords.
type ExtractedCode struct {
	Code         string           `json:"code"`
	Caption      string           `json:"caption"`
	CurrentValue *decimal.Decimal `json:"current_value"`
	PriorValue   *decimal.Decimal `json:"prior_value"`
	Page         int              `json:"page"`
	Confidence   float64          `json:"confidence"`
	Source       MatchSource      `json:"match_source"`
	RawValue     string           `json:"raw_value_string"`

	tier tier
}

// Result is the full extraction outcome for one document.
type Result struct {
	Codes             []ExtractedCode `json:"codes"`
	DictionaryVersion string          `json:"dictionary_version"`
	OverallConfidence float64         `json:"overall_confidence"`
	TablesScanned     int             `json:"tables_scanned"`
	TablesWithCodes   int             `json:"tables_with_codes"`
	UsedTextFallback  bool            `json:"used_text_fallback"`
	Warnings          []string        `json:"warnings,omitempty"`
}

// Confidence levels assigned by the extractors.
const (
	confidenceKnownCode   = 0.95 // code present and found in the dictionary
	confidenceUnknownCode = 0.7  // code present but not in the dictionary
	confidenceCaptionOnly = 0.55 // code inferred from a caption keyword
)

// codePattern matches a statutory 3-4 digit line code.
var codePattern = regexp.MustCompile(`^\d{3,4}$`)

// ValueOf returns the current value for a code in a record set.
func ValueOf(codes []ExtractedCode, code string) *decimal.Decimal {
	for _, c := range codes {
		if c.Code == code {
			return c.CurrentValue
		}
	}
	return nil
}

// PriorOf returns the prior-year value for a code in a record set.
func PriorOf(codes []ExtractedCode, code string) *decimal.Decimal {
	for _, c := range codes {
		if c.Code == code {
			return c.PriorValue
		}
	}
	return nil
}
