package profile

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cloudflare/ahocorasick"
	"github.com/shopspring/decimal"
)

// keywordEngine is a shared ahocorasick wrapper: phrases are matched over the
// lowercased document text and resolved back to their labels, so every
// classification carries the phrase that produced it.
type keywordEngine struct {
	matcher *ahocorasick.Matcher
	entries []keywordEntry
}

type keywordEntry struct {
	phrase string
	label  string
}

func newKeywordEngine(entries []keywordEntry) *keywordEngine {
	patterns := make([][]byte, len(entries))
	for i, e := range entries {
		patterns[i] = []byte(e.phrase)
	}
	return &keywordEngine{matcher: ahocorasick.NewMatcher(patterns), entries: entries}
}

// hits returns the distinct matched phrases grouped by label, in entry order.
func (e *keywordEngine) hits(lower string) map[string][]string {
	idxs := e.matcher.Match([]byte(lower))
	if len(idxs) == 0 {
		return nil
	}
	matched := map[int]bool{}
	for _, i := range idxs {
		if i >= 0 && i < len(e.entries) {
			matched[i] = true
		}
	}
	out := map[string][]string{}
	for i, entry := range e.entries {
		if matched[i] {
			out[entry.label] = append(out[entry.label], entry.phrase)
		}
	}
	return out
}

var consolidationEntries = []keywordEntry{
	{"consolidated financial statements", string(ConsolidationConsolidated)},
	{"consolidated annual accounts", string(ConsolidationConsolidated)},
	{"comptes consolidés", string(ConsolidationConsolidated)},
	{"comptes annuels consolidés", string(ConsolidationConsolidated)},
	{"konzernabschluss", string(ConsolidationConsolidated)},
	{"annual accounts", string(ConsolidationStandalone)},
	{"financial statements for the year", string(ConsolidationStandalone)},
	{"comptes annuels", string(ConsolidationStandalone)},
	{"jahresabschluss", string(ConsolidationStandalone)},
}

var accountTypeEntries = []keywordEntry{
	{"abridged balance sheet", string(AccountAbridged)},
	{"abridged profit and loss", string(AccountAbridged)},
	{"bilan abrégé", string(AccountAbridged)},
	{"compte de profits et pertes abrégé", string(AccountAbridged)},
	{"verkürzte bilanz", string(AccountAbridged)},
	{"abbreviated accounts", string(AccountAbbreviated)},
	{"comptes abrégés", string(AccountAbbreviated)},
}

var standardEntries = []keywordEntry{
	{"international financial reporting standards", string(StandardIFRS)},
	{"ifrs as adopted by the european union", string(StandardIFRS)},
	{"ifrs", string(StandardIFRS)},
	{"luxembourg legal and regulatory requirements", string(StandardLuxGAAP)},
	{"lux gaap", string(StandardLuxGAAP)},
	{"principes comptables luxembourgeois", string(StandardLuxGAAP)},
	{"prescriptions légales et réglementaires luxembourgeoises", string(StandardLuxGAAP)},
}

var holdingEntries = []keywordEntry{
	{"soparfi", "holding"},
	{"société de participations financières", "holding"},
	{"holding company", "holding"},
	{"société holding", "holding"},
	{"beteiligungsgesellschaft", "holding"},
	{"acquisition and holding of participations", "holding"},
	{"prise de participations", "holding"},
}

var (
	rcsPattern = regexp.MustCompile(`(?i)\bR\.?C\.?S\.?(?:\s+Luxembourg)?\s*:?\s*(B\s?\d{4,6})\b`)

	legalFormPatterns = []struct {
		pattern *regexp.Regexp
		form    string
	}{
		{regexp.MustCompile(`(?i)société à responsabilité limitée|s\.à r\.l\.|sàrl`), "S.à r.l."},
		{regexp.MustCompile(`(?i)société anonyme|\bs\.a\.(?:\s|$)`), "S.A."},
		{regexp.MustCompile(`(?i)société en commandite par actions|s\.c\.a\.`), "S.C.A."},
		{regexp.MustCompile(`(?i)société en commandite spéciale|s\.c\.sp\.`), "S.C.Sp."},
	}
)

// Holding-score weights. Hand-tuned against filed SOPARFI accounts.
const (
	holdingKeywordWeight    = 0.15
	holdingRatioWeight      = 0.2
	holdingHeadcountWeight  = 0.25
	holdingNoTurnoverWeight = 0.3
	holdingLikelyFloor      = 0.4
)

var (
	holdingRatioFloor    = decimal.NewFromInt(10)
	holdingAssetsFloor   = decimal.NewFromInt(1_000_000)
	holdingHeadcountCeil = decimal.NewFromInt(3)
)

// Classifier derives the company profile from document text and resolved
// figures. Matchers are built once; the classifier is safe to share.
type Classifier struct {
	thresholds    Thresholds
	consolidation *keywordEngine
	accountType   *keywordEngine
	standard      *keywordEngine
	holding       *keywordEngine
}

// NewClassifier builds the keyword engines against the given size cutoffs.
func NewClassifier(t Thresholds) *Classifier {
	return &Classifier{
		thresholds:    t,
		consolidation: newKeywordEngine(consolidationEntries),
		accountType:   newKeywordEngine(accountTypeEntries),
		standard:      newKeywordEngine(standardEntries),
		holding:       newKeywordEngine(holdingEntries),
	}
}

// Classify derives the full profile. Caller overrides win over text-derived
// values; everything else degrades to an "unknown" classification rather
// than failing.
func (c *Classifier) Classify(in Inputs, ov Overrides) Profile {
	lower := strings.ToLower(in.Text)

	p := Profile{
		AverageEmployees:  in.AverageEmployees,
		Consolidation:     c.classifyConsolidation(lower),
		AccountType:       c.classifyAccountType(lower),
		ReportingStandard: c.classifyStandard(lower),
		Holding:           c.scoreHolding(lower, in),
	}
	p.Size, p.SizeEvidence = classifySize(in, c.thresholds)
	p.RCSNumber = extractRCS(in.Text)
	p.LegalForm = extractLegalForm(in.Text)

	if ov.LegalName != "" {
		p.LegalName = ov.LegalName
	}
	if ov.RCSNumber != "" {
		p.RCSNumber = ov.RCSNumber
	}
	if ov.YearEnd != "" {
		p.YearEnd = ov.YearEnd
	}
	return p
}

func (c *Classifier) classifyConsolidation(lower string) Classification {
	hits := c.consolidation.hits(lower)
	// Consolidated markers are more specific than standalone ones; a document
	// carrying both ("consolidated annual accounts") is consolidated.
	if phrases, ok := hits[string(ConsolidationConsolidated)]; ok {
		return Classification{Value: string(ConsolidationConsolidated), Evidence: "matched: " + phrases[0]}
	}
	if phrases, ok := hits[string(ConsolidationStandalone)]; ok {
		return Classification{Value: string(ConsolidationStandalone), Evidence: "matched: " + phrases[0]}
	}
	return Classification{Value: string(ConsolidationUnresolved), Evidence: "no consolidation markers found"}
}

func (c *Classifier) classifyAccountType(lower string) Classification {
	hits := c.accountType.hits(lower)
	if phrases, ok := hits[string(AccountAbridged)]; ok {
		return Classification{Value: string(AccountAbridged), Evidence: "matched: " + phrases[0]}
	}
	if phrases, ok := hits[string(AccountAbbreviated)]; ok {
		return Classification{Value: string(AccountAbbreviated), Evidence: "matched: " + phrases[0]}
	}
	return Classification{Value: string(AccountFull), Evidence: "no abridged or abbreviated markers found"}
}

func (c *Classifier) classifyStandard(lower string) Classification {
	hits := c.standard.hits(lower)
	if phrases, ok := hits[string(StandardLuxGAAP)]; ok {
		return Classification{Value: string(StandardLuxGAAP), Evidence: "matched: " + phrases[0]}
	}
	if phrases, ok := hits[string(StandardIFRS)]; ok {
		return Classification{Value: string(StandardIFRS), Evidence: "matched: " + phrases[0]}
	}
	return Classification{Value: string(StandardUnknown), Evidence: "no reporting standard markers found"}
}

func (c *Classifier) scoreHolding(lower string, in Inputs) HoldingIndicators {
	var ind HoldingIndicators

	for _, phrase := range c.holding.hits(lower)["holding"] {
		ind.Score += holdingKeywordWeight
		ind.Evidence = append(ind.Evidence, "keyword: "+phrase)
	}

	if in.BalanceSheetTotal != nil && in.NetTurnover != nil && in.NetTurnover.IsPositive() {
		ratio := in.BalanceSheetTotal.Div(*in.NetTurnover)
		if ratio.GreaterThan(holdingRatioFloor) {
			ind.Score += holdingRatioWeight
			ind.Evidence = append(ind.Evidence, fmt.Sprintf("balance sheet is %s× turnover", ratio.Round(1).String()))
		}
	}

	if in.AverageEmployees != nil && in.AverageEmployees.LessThan(holdingHeadcountCeil) &&
		in.BalanceSheetTotal != nil && in.BalanceSheetTotal.GreaterThan(holdingAssetsFloor) {
		ind.Score += holdingHeadcountWeight
		ind.Evidence = append(ind.Evidence, fmt.Sprintf("headcount %s with assets %s", in.AverageEmployees.String(), in.BalanceSheetTotal.String()))
	}

	if in.NetTurnover != nil && in.NetTurnover.IsZero() {
		ind.Score += holdingNoTurnoverWeight
		ind.Evidence = append(ind.Evidence, "zero net turnover")
	}

	if ind.Score > 1.0 {
		ind.Score = 1.0
	}
	ind.Likely = ind.Score >= holdingLikelyFloor
	return ind
}

func extractRCS(text string) string {
	m := rcsPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.ToUpper(strings.ReplaceAll(m[1], " ", ""))
}

func extractLegalForm(text string) string {
	for _, lf := range legalFormPatterns {
		if lf.pattern.MatchString(text) {
			return lf.form
		}
	}
	return ""
}
