package dictionary

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// CaptionMatch is a fuzzy caption-to-code match with its confidence.
type CaptionMatch struct {
	Code       string
	Caption    string // the dictionary caption or synonym that matched
	Language   string // "en", "fr", "de" or "synonym"
	Confidence float64
	Synonym    bool
}

// Scoring constants from the caption-matching rules: containment matches
// are discounted against exact matches, synonym matches a little more, and
// nothing below the floor is ever returned.
const (
	captionFloor      = 0.5
	containmentFactor = 0.78
	synonymFactor     = 0.9
	levenshteinFloor  = 0.82 // near-identical strings only, OCR noise
)

type captionEntry struct {
	normalized string
	original   string
	code       string
	language   string
	synonym    bool
}

// CaptionMatcher resolves free-text captions to statutory codes. Built once
// from the dictionary and read-only afterwards.
type CaptionMatcher struct {
	entries []captionEntry
}

// NewCaptionMatcher indexes every canonical caption and synonym.
func NewCaptionMatcher(d *Dictionary) *CaptionMatcher {
	m := &CaptionMatcher{}
	for _, def := range d.Definitions() {
		for lang, caption := range map[string]string{
			"en": def.CaptionEN,
			"fr": def.CaptionFR,
			"de": def.CaptionDE,
		} {
			if caption == "" {
				continue
			}
			m.entries = append(m.entries, captionEntry{
				normalized: normalizeCaption(caption),
				original:   caption,
				code:       def.Code,
				language:   lang,
			})
		}
		for _, syn := range def.Synonyms() {
			m.entries = append(m.entries, captionEntry{
				normalized: normalizeCaption(syn),
				original:   syn,
				code:       def.Code,
				language:   "synonym",
				synonym:    true,
			})
		}
	}
	return m
}

// Match returns the best caption match, or nil when nothing clears the
// acceptance floor.
func (m *CaptionMatcher) Match(caption string) *CaptionMatch {
	results := m.MatchAll(caption, 1)
	if len(results) == 0 {
		return nil
	}
	return &results[0]
}

// MatchAll returns all matches above the floor, sorted by descending
// confidence. limit <= 0 means no limit.
func (m *CaptionMatcher) MatchAll(caption string, limit int) []CaptionMatch {
	query := normalizeCaption(caption)
	if query == "" {
		return nil
	}

	var results []CaptionMatch
	best := map[string]int{} // code -> index into results, keep best per code
	for _, e := range m.entries {
		score := captionScore(query, e.normalized)
		if e.synonym {
			score *= synonymFactor
		}
		if score <= captionFloor {
			continue
		}
		match := CaptionMatch{
			Code:       e.code,
			Caption:    e.original,
			Language:   e.language,
			Confidence: score,
			Synonym:    e.synonym,
		}
		if idx, seen := best[e.code]; seen {
			if score > results[idx].Confidence {
				results[idx] = match
			}
			continue
		}
		best[e.code] = len(results)
		results = append(results, match)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})
	if limit > 0 && limit < len(results) {
		results = results[:limit]
	}
	return results
}

// captionScore compares two normalized captions. Exact match is 1.0;
// containment scores by length ratio with a discount; otherwise a
// Levenshtein similarity is accepted only for near-identical strings
// (typical OCR character noise), backed by a subsequence check.
func captionScore(query, candidate string) float64 {
	if query == candidate {
		return 1.0
	}

	if strings.Contains(query, candidate) {
		ratio := float64(len(candidate)) / float64(len(query))
		return containmentFactor * ratio
	}
	if strings.Contains(candidate, query) {
		ratio := float64(len(query)) / float64(len(candidate))
		return containmentFactor * ratio
	}

	maxLen := len(query)
	if len(candidate) > maxLen {
		maxLen = len(candidate)
	}
	if maxLen == 0 {
		return 0
	}
	similarity := float64(maxLen-fuzzy.LevenshteinDistance(query, candidate)) / float64(maxLen)
	if similarity >= levenshteinFloor {
		return similarity * containmentFactor
	}
	return 0
}

// normalizeCaption lowercases, strips punctuation and collapses whitespace
// so OCR artifacts do not break exact comparison.
func normalizeCaption(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r >= 0x00C0: // keep accented letters
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace && b.Len() > 0 {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}
