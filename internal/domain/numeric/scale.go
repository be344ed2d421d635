package numeric

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cloudflare/ahocorasick"
	"github.com/shopspring/decimal"
)

// Scale is the magnitude multiplier implicitly applied to every number in a
// financial statement.
type Scale string

const (
	ScaleUnits     Scale = "units"
	ScaleThousands Scale = "thousands"
	ScaleMillions  Scale = "millions"
)

// Multiplier returns the factor that converts stated values into units.
func (s Scale) Multiplier() decimal.Decimal {
	switch s {
	case ScaleThousands:
		return decimal.NewFromInt(1_000)
	case ScaleMillions:
		return decimal.NewFromInt(1_000_000)
	default:
		return decimal.NewFromInt(1)
	}
}

// DetectionSource records which tier of evidence produced the detection.
type DetectionSource string

const (
	SourceExplicitText      DetectionSource = "explicit_text"
	SourceMagnitudeAnalysis DetectionSource = "magnitude_analysis"
	SourceCrossValidation   DetectionSource = "cross_validation"
	SourceDefault           DetectionSource = "default"
)

// Detection is the document-wide unit-scale verdict. It is computed once
// per document and never recomputed mid-pipeline.
type Detection struct {
	Scale      Scale           `json:"scale"`
	Confidence float64         `json:"confidence"`
	Source     DetectionSource `json:"source"`
	Evidence   []string        `json:"evidence"`
	Uncertain  bool            `json:"uncertain"`
}

type scaleKeyword struct {
	phrase     string
	scale      Scale
	confidence float64
	abbrev     bool // must stand alone as a token, not inside a word
}

// Keyword phrases in the three filing languages. Full phrases score 0.9,
// short abbreviations 0.85 since OCR confuses them more easily. The bare
// abbreviations are substrings of ordinary French words ("débiteurs",
// "administrateur"), so they only count when token-delimited.
var scaleKeywords = []scaleKeyword{
	{phrase: "in thousands", scale: ScaleThousands, confidence: 0.9},
	{phrase: "in eur thousands", scale: ScaleThousands, confidence: 0.9},
	{phrase: "in thousands of euros", scale: ScaleThousands, confidence: 0.9},
	{phrase: "en milliers", scale: ScaleThousands, confidence: 0.9},
	{phrase: "en milliers d'euros", scale: ScaleThousands, confidence: 0.9},
	{phrase: "in tausend euro", scale: ScaleThousands, confidence: 0.9},
	{phrase: "angaben in teur", scale: ScaleThousands, confidence: 0.9},
	{phrase: "teur", scale: ScaleThousands, confidence: 0.85, abbrev: true},
	{phrase: "keur", scale: ScaleThousands, confidence: 0.85, abbrev: true},
	{phrase: "in millions", scale: ScaleMillions, confidence: 0.9},
	{phrase: "in millions of euros", scale: ScaleMillions, confidence: 0.9},
	{phrase: "en millions", scale: ScaleMillions, confidence: 0.9},
	{phrase: "en millions d'euros", scale: ScaleMillions, confidence: 0.9},
	{phrase: "in millionen euro", scale: ScaleMillions, confidence: 0.9},
	{phrase: "meur", scale: ScaleMillions, confidence: 0.85, abbrev: true},
}

// Detector detects the document unit scale. It is safe for concurrent use:
// the matcher is built once and only read afterwards.
type Detector struct {
	matcher        *ahocorasick.Matcher
	keywords       []scaleKeyword
	uncertainBelow float64
}

// NewDetector builds the keyword matcher. uncertainBelow is the confidence
// floor under which a detection is flagged uncertain (0.8 in production).
func NewDetector(uncertainBelow float64) *Detector {
	patterns := make([][]byte, len(scaleKeywords))
	for i, kw := range scaleKeywords {
		patterns[i] = []byte(kw.phrase)
	}
	return &Detector{
		matcher:        ahocorasick.NewMatcher(patterns),
		keywords:       scaleKeywords,
		uncertainBelow: uncertainBelow,
	}
}

// Detect runs the keyword tier over the full document text and, absent
// keyword evidence, the magnitude heuristic over the parsed statement
// values. The function is pure: identical input yields identical output.
func (d *Detector) Detect(text string, values []decimal.Decimal) Detection {
	if det, ok := d.detectFromKeywords(text); ok {
		det.Uncertain = det.Confidence < d.uncertainBelow
		return det
	}
	if det, ok := detectFromMagnitude(values); ok {
		det.Uncertain = det.Confidence < d.uncertainBelow
		return det
	}
	return Detection{
		Scale:      ScaleUnits,
		Confidence: 0.5,
		Source:     SourceDefault,
		Evidence:   []string{"no scale keywords found; magnitude distribution inconclusive"},
		Uncertain:  true,
	}
}

func (d *Detector) detectFromKeywords(text string) (Detection, bool) {
	lower := strings.ToLower(text)
	hits := d.matcher.Match([]byte(lower))
	if len(hits) == 0 {
		return Detection{}, false
	}

	// The same phrase family can hit multiple patterns ("in thousands" is a
	// prefix of "in thousands of euros"); keep the best hit per scale.
	best := map[Scale]scaleKeyword{}
	for _, idx := range hits {
		if idx < 0 || idx >= len(d.keywords) {
			continue
		}
		kw := d.keywords[idx]
		if kw.abbrev && !standaloneToken(lower, kw.phrase) {
			continue
		}
		if cur, ok := best[kw.scale]; !ok || kw.confidence > cur.confidence {
			best[kw.scale] = kw
		}
	}
	if len(best) == 0 {
		return Detection{}, false
	}

	candidates := make([]scaleKeyword, 0, len(best))
	for _, kw := range best {
		candidates = append(candidates, kw)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].confidence != candidates[j].confidence {
			return candidates[i].confidence > candidates[j].confidence
		}
		return candidates[i].phrase < candidates[j].phrase
	})

	top := candidates[0]
	det := Detection{
		Scale:      top.scale,
		Confidence: top.confidence,
		Source:     SourceExplicitText,
		Evidence:   []string{"matched phrase: " + top.phrase},
	}
	if len(best) > 1 {
		// Conflicting keywords for different scales; keep the strongest but
		// degrade confidence so the gate raises a review action.
		det.Confidence -= 0.2
		for _, kw := range candidates[1:] {
			det.Evidence = append(det.Evidence, "conflicting phrase: "+kw.phrase)
		}
	}
	return det, true
}

// standaloneToken reports whether phrase occurs in s with no letter
// touching it on either side.
func standaloneToken(s, phrase string) bool {
	for from := 0; ; {
		idx := strings.Index(s[from:], phrase)
		if idx < 0 {
			return false
		}
		idx += from
		if !letterAt(s, idx-1, false) && !letterAt(s, idx+len(phrase), true) {
			return true
		}
		from = idx + 1
	}
}

// letterAt reports whether a letter rune ends (forward=true: starts) at
// byte position i. Out-of-range positions count as non-letters.
func letterAt(s string, i int, forward bool) bool {
	if i < 0 || i >= len(s) {
		return false
	}
	var r rune
	if forward {
		r, _ = utf8.DecodeRuneInString(s[i:])
	} else {
		r, _ = utf8.DecodeLastRuneInString(s[:i+1])
	}
	return unicode.IsLetter(r)
}

// Magnitude cutoffs: a balance-sheet total above 10M stated units is
// implausible for a scaled document, totals below 10k suggest the document
// states thousands, below 100 millions.
var (
	magnitudeUnitsFloor    = decimal.NewFromInt(10_000_000)
	magnitudeThousandsCeil = decimal.NewFromInt(10_000)
	magnitudeMillionsCeil  = decimal.NewFromInt(100)
)

func detectFromMagnitude(values []decimal.Decimal) (Detection, bool) {
	if len(values) == 0 {
		return Detection{}, false
	}
	maxAbs := decimal.Zero
	for _, v := range values {
		if a := v.Abs(); a.GreaterThan(maxAbs) {
			maxAbs = a
		}
	}
	switch {
	case maxAbs.GreaterThanOrEqual(magnitudeUnitsFloor):
		return Detection{
			Scale:      ScaleUnits,
			Confidence: 0.75,
			Source:     SourceMagnitudeAnalysis,
			Evidence:   []string{"maximum value " + maxAbs.String() + " implies unscaled units"},
		}, true
	case maxAbs.LessThan(magnitudeMillionsCeil):
		return Detection{
			Scale:      ScaleMillions,
			Confidence: 0.5,
			Source:     SourceMagnitudeAnalysis,
			Evidence:   []string{"maximum value " + maxAbs.String() + " implies figures stated in millions"},
		}, true
	case maxAbs.LessThan(magnitudeThousandsCeil):
		return Detection{
			Scale:      ScaleThousands,
			Confidence: 0.6,
			Source:     SourceMagnitudeAnalysis,
			Evidence:   []string{"maximum value " + maxAbs.String() + " implies figures stated in thousands"},
		}, true
	}
	return Detection{}, false
}
