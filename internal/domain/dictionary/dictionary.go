// Package dictionary holds the static reference table of Luxembourg
// statutory (PCN/eCDF) line-item codes. The table is embedded as CSV,
// parsed once at startup into an immutable Dictionary, and passed by
// reference into every pipeline stage; it is never mutated at runtime.
package dictionary

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/gocarina/gocsv"
)

// Version identifies the dictionary release in effect. It is stamped onto
// every extraction so results stay reproducible when definitions change.
const Version = "pcn-2020.3"

//go:embed codes.csv
var codesCSV string

// Category classifies where a code lives in the filing.
type Category string

const (
	CategoryBalanceSheet Category = "balance_sheet"
	CategoryProfitLoss   Category = "profit_loss"
	CategoryNotes        Category = "notes"
	CategoryOther        Category = "other"
)

// Priority is the transfer-pricing relevance of a code.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Definition is one reference entry. ExpectedSign is +1 for values normally
// positive, -1 for charges, 0 when either sign is normal.
type Definition struct {
	Code         string   `csv:"code"`
	Category     Category `csv:"category"`
	Priority     Priority `csv:"priority"`
	CaptionEN    string   `csv:"caption_en"`
	CaptionFR    string   `csv:"caption_fr"`
	CaptionDE    string   `csv:"caption_de"`
	RawSynonyms  string   `csv:"synonyms"`
	ExpectedSign int      `csv:"expected_sign"`
	Parent       string   `csv:"parent"`
	Note         string   `csv:"note"`

	synonyms []string
}

// Synonyms returns the parsed synonym list.
func (d Definition) Synonyms() []string { return d.synonyms }

// Captions returns the canonical captions in all three filing languages.
func (d Definition) Captions() []string {
	return []string{d.CaptionEN, d.CaptionFR, d.CaptionDE}
}

// Dictionary is the immutable code lookup structure.
type Dictionary struct {
	version string
	byCode  map[string]Definition
	ordered []Definition
}

// Load parses the embedded CSV table. It is called once at process start.
func Load() (*Dictionary, error) {
	var rows []*Definition
	if err := gocsv.UnmarshalString(codesCSV, &rows); err != nil {
		return nil, fmt.Errorf("dictionary: parse embedded csv: %w", err)
	}

	d := &Dictionary{
		version: Version,
		byCode:  make(map[string]Definition, len(rows)),
		ordered: make([]Definition, 0, len(rows)),
	}
	for _, row := range rows {
		def := *row
		def.Code = strings.TrimSpace(def.Code)
		if def.Code == "" {
			continue
		}
		if _, dup := d.byCode[def.Code]; dup {
			return nil, fmt.Errorf("dictionary: duplicate code %s", def.Code)
		}
		if def.RawSynonyms != "" {
			for _, syn := range strings.Split(def.RawSynonyms, "|") {
				if syn = strings.TrimSpace(syn); syn != "" {
					def.synonyms = append(def.synonyms, syn)
				}
			}
		}
		d.byCode[def.Code] = def
		d.ordered = append(d.ordered, def)
	}
	if len(d.ordered) == 0 {
		return nil, fmt.Errorf("dictionary: embedded table is empty")
	}
	return d, nil
}

// Version returns the dictionary version string.
func (d *Dictionary) Version() string { return d.version }

// Lookup returns the definition for an exact code.
func (d *Dictionary) Lookup(code string) (Definition, bool) {
	def, ok := d.byCode[strings.TrimSpace(code)]
	return def, ok
}

// Has reports whether the code is a known statutory code.
func (d *Dictionary) Has(code string) bool {
	_, ok := d.Lookup(code)
	return ok
}

// Definitions returns a copy of all entries in file order.
func (d *Dictionary) Definitions() []Definition {
	out := make([]Definition, len(d.ordered))
	copy(out, d.ordered)
	return out
}

// Len returns the number of known codes.
func (d *Dictionary) Len() int { return len(d.ordered) }
