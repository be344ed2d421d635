package extraction

import (
	"regexp"
	"strings"

	"github.com/FACorreiaa/ecdf-canonical/internal/domain/dictionary"
	"github.com/FACorreiaa/ecdf-canonical/internal/domain/numeric"
	"github.com/shopspring/decimal"
)

// Text-scanning fallback, used when no table yields a reference column.
// Three tiers run in priority order; MergeRecords guarantees that a record
// from a higher tier is never overwritten by a lower one.

// Tier (a): explicit "code 1234" / "réf. 1234" markers.
var explicitMarkerPattern = regexp.MustCompile(`(?i)\b(?:code|ref\.?|réf\.?|poste)\s*[:.]?\s*(\d{4})\b`)

// Tier (b): a 4-digit code paired with a caption and a trailing numeric
// run, in either order.
var (
	codeFirstPattern = regexp.MustCompile(`^\s*(\d{4})\s+(\pL[\pL\d\s'’,()./&-]*?)\s+((?:\(?-?[\d.,\s]+\)?\s*){1,2})$`)
	captionFirst     = regexp.MustCompile(`^\s*(\pL[\pL\d\s'’,()./&-]*?)\s+(\d{4})\s+((?:\(?-?[\d.,\s]+\)?\s*){1,2})$`)
)

// Tier (c): per-language caption keywords for a fixed set of known totals.
// Each code is accepted at most once at reduced confidence.
type captionKeywordRule struct {
	code    string
	pattern *regexp.Regexp
}

var captionKeywordRules = []captionKeywordRule{
	{"109", regexp.MustCompile(`(?i)\b(?:total assets|balance sheet total|total de l'actif|total \(actif\)|total du bilan|bilanzsumme|summe aktiva)\b`)},
	{"405", regexp.MustCompile(`(?i)\b(?:total liabilities|total equity and liabilities|total du passif|total \(passif\)|summe passiva)\b`)},
	{"131", regexp.MustCompile(`(?i)\b(?:total equity|capitaux propres|eigenkapital|shareholders'? equity)\b`)},
	{"7010", regexp.MustCompile(`(?i)\b(?:net turnover|turnover|chiffre d'affaires(?: net)?|umsatzerl(?:ö|o)se)\b`)},
	{"141", regexp.MustCompile(`(?i)\b(?:net result|(?:profit|loss) for the (?:financial )?year|r(?:é|e)sultat de l'exercice|jahresergebnis|jahres(?:ü|u)berschuss)\b`)},
	{"6050", regexp.MustCompile(`(?i)\b(?:staff costs|frais de personnel|personalaufwand)\b`)},
}

// TextScanner extracts code records from raw document text.
type TextScanner struct {
	dict *dictionary.Dictionary
}

// NewTextScanner returns a text scanner bound to the code dictionary.
func NewTextScanner(dict *dictionary.Dictionary) *TextScanner {
	return &TextScanner{dict: dict}
}

// Scan runs all three tiers over the document text and returns the raw
// record list; callers merge it with table records via MergeRecords.
func (ts *TextScanner) Scan(text string) []ExtractedCode {
	var records []ExtractedCode
	lines := strings.Split(text, "\n")

	for _, line := range lines {
		if rec, ok := ts.scanExplicitMarker(line); ok {
			records = append(records, rec)
			continue
		}
		if rec, ok := ts.scanLinePattern(line); ok {
			records = append(records, rec)
		}
	}

	found := map[string]bool{}
	for _, rec := range records {
		found[rec.Code] = true
	}
	records = append(records, ts.scanCaptionKeywords(lines, found)...)
	return records
}

func (ts *TextScanner) scanExplicitMarker(line string) (ExtractedCode, bool) {
	loc := explicitMarkerPattern.FindStringSubmatchIndex(line)
	if loc == nil {
		return ExtractedCode{}, false
	}
	code := line[loc[2]:loc[3]]

	rec := ExtractedCode{
		Code:       code,
		Caption:    strings.Trim(strings.TrimSpace(line[:loc[0]]), ":-"),
		Confidence: ts.codeConfidence(code),
		Source:     SourceReferenceColumn,
		tier:       tierExplicitMarker,
	}
	rest := line[loc[1]:]
	rec.RawValue = strings.TrimSpace(rest)
	current, prior := parseValueRun(rest, code)
	rec.CurrentValue, rec.PriorValue = current, prior
	return rec, true
}

func (ts *TextScanner) scanLinePattern(line string) (ExtractedCode, bool) {
	var code, caption, values string
	if m := codeFirstPattern.FindStringSubmatch(line); m != nil {
		code, caption, values = m[1], m[2], m[3]
	} else if m := captionFirst.FindStringSubmatch(line); m != nil {
		caption, code, values = m[1], m[2], m[3]
	} else {
		return ExtractedCode{}, false
	}
	if looksLikeYear(code) && !ts.dict.Has(code) {
		return ExtractedCode{}, false
	}

	rec := ExtractedCode{
		Code:       code,
		Caption:    strings.TrimSpace(caption),
		Confidence: ts.codeConfidence(code),
		Source:     SourceReferenceColumn,
		RawValue:   strings.TrimSpace(values),
		tier:       tierLinePattern,
	}
	rec.CurrentValue, rec.PriorValue = parseValueRun(values, code)
	if rec.CurrentValue == nil {
		return ExtractedCode{}, false
	}
	return rec, true
}

func (ts *TextScanner) scanCaptionKeywords(lines []string, seen map[string]bool) []ExtractedCode {
	var records []ExtractedCode

	for _, line := range lines {
		for _, rule := range captionKeywordRules {
			if seen[rule.code] {
				continue
			}
			loc := rule.pattern.FindStringIndex(line)
			if loc == nil {
				continue
			}
			rest := line[loc[1]:]
			current, prior := parseValueRun(rest, rule.code)
			if current == nil {
				continue
			}
			caption := strings.TrimSpace(line[loc[0]:loc[1]])
			records = append(records, ExtractedCode{
				Code:         rule.code,
				Caption:      caption,
				CurrentValue: current,
				PriorValue:   prior,
				Confidence:   confidenceCaptionOnly,
				Source:       SourceCaptionMatch,
				RawValue:     strings.TrimSpace(rest),
				tier:         tierCaptionKeyword,
			})
			seen[rule.code] = true
			// One total per line; avoids a second rule rematching the tail.
			break
		}
	}
	return records
}

func (ts *TextScanner) codeConfidence(code string) float64 {
	if ts.dict.Has(code) {
		return confidenceKnownCode
	}
	return confidenceUnknownCode
}

// parseValueRun extracts up to two amounts from the tail of a line. A bare
// token equal to the already-known code is skipped so that lines like
// "Total assets 109 1,234,000" yield the value and not the code.
func parseValueRun(rest, code string) (current, prior *decimal.Decimal) {
	var parsed []decimal.Decimal
	for _, tok := range strings.Fields(rest) {
		tok = strings.Trim(tok, ":;")
		if tok == code {
			continue
		}
		p, err := numeric.ParseAmount(tok)
		if err != nil {
			continue
		}
		parsed = append(parsed, p.Value)
		if len(parsed) == 2 {
			break
		}
	}
	if len(parsed) >= 1 {
		current = &parsed[0]
	}
	if len(parsed) == 2 {
		prior = &parsed[1]
	}
	return current, prior
}

// looksLikeYear filters 4-digit tokens that are almost certainly calendar
// years, not statutory codes.
func looksLikeYear(code string) bool {
	return strings.HasPrefix(code, "19") || strings.HasPrefix(code, "20")
}
