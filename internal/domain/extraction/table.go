package extraction

import (
	"regexp"
	"strings"

	"github.com/FACorreiaa/ecdf-canonical/internal/domain/dictionary"
	"github.com/FACorreiaa/ecdf-canonical/internal/domain/layout"
	"github.com/FACorreiaa/ecdf-canonical/internal/domain/numeric"
)

// Localized header keywords for each column role.
var (
	referenceHeaderKeywords = []string{"reference", "référence", "ref", "réf", "code", "poste", "zeile", "kennzahl", "rubrique"}
	captionHeaderKeywords   = []string{"caption", "description", "libellé", "libelle", "désignation", "designation", "bezeichnung", "intitulé"}
	yearHeaderPattern       = regexp.MustCompile(`20\d{2}`)
	currentYearKeywords     = []string{"current", "exercice", "geschäftsjahr", "(n)"}
	priorYearKeywords       = []string{"prior", "previous", "précédent", "precedent", "vorjahr", "n-1"}
)

// TableExtractor pulls code records out of detected tables.
type TableExtractor struct {
	dict *dictionary.Dictionary
}

// NewTableExtractor returns a table extractor bound to the code dictionary.
func NewTableExtractor(dict *dictionary.Dictionary) *TableExtractor {
	return &TableExtractor{dict: dict}
}

// columnLayout is the resolved column role assignment for one table.
type columnLayout struct {
	reference int
	caption   int
	current   int
	prior     int
}

// Extract returns one record per body row that carries a valid code cell.
// The boolean reports whether a reference column was located at all.
func (te *TableExtractor) Extract(table layout.Table) ([]ExtractedCode, bool) {
	cols, ok := te.resolveColumns(table)
	if !ok {
		return nil, false
	}

	var records []ExtractedCode
	for _, row := range table.BodyRows {
		code := cellText(row, cols.reference)
		if !codePattern.MatchString(code) {
			continue
		}

		confidence := confidenceUnknownCode
		if te.dict.Has(code) {
			confidence = confidenceKnownCode
		}

		rec := ExtractedCode{
			Code:       code,
			Caption:    cellText(row, cols.caption),
			Page:       table.Page,
			Confidence: confidence,
			Source:     SourceReferenceColumn,
			tier:       tierTable,
		}

		if raw := cellText(row, cols.current); raw != "" {
			rec.RawValue = raw
			if parsed, err := numeric.ParseAmount(raw); err == nil {
				v := parsed.Value
				rec.CurrentValue = &v
			}
		}
		if raw := cellText(row, cols.prior); raw != "" {
			if parsed, err := numeric.ParseAmount(raw); err == nil {
				v := parsed.Value
				rec.PriorValue = &v
			}
		}

		records = append(records, rec)
	}
	return records, true
}

// resolveColumns finds the reference column from header keywords, falling
// back to scanning the first body rows for code-shaped cells, then infers
// the caption and value columns.
func (te *TableExtractor) resolveColumns(table layout.Table) (columnLayout, bool) {
	cols := columnLayout{reference: -1, caption: -1, current: -1, prior: -1}

	width := 0
	for _, row := range table.BodyRows {
		if len(row) > width {
			width = len(row)
		}
	}
	if width == 0 {
		return cols, false
	}

	// Header keyword pass.
	for _, row := range table.HeaderRows {
		for i, cell := range row {
			text := strings.ToLower(strings.TrimSpace(cell.Text))
			if text == "" {
				continue
			}
			if cols.reference < 0 && matchesAny(text, referenceHeaderKeywords) {
				cols.reference = i
			}
			if cols.caption < 0 && matchesAny(text, captionHeaderKeywords) {
				cols.caption = i
			}
			if yearHeaderPattern.MatchString(text) || matchesAny(text, currentYearKeywords) {
				if cols.current < 0 {
					cols.current = i
				} else if cols.prior < 0 && i != cols.current {
					cols.prior = i
				}
			}
			if matchesAny(text, priorYearKeywords) && cols.prior < 0 && i != cols.current {
				cols.prior = i
			}
		}
	}

	// Year columns in statements run current then prior; if the header gave
	// them in the other order, swap.
	if cols.current >= 0 && cols.prior >= 0 && cols.prior < cols.current {
		cols.current, cols.prior = cols.prior, cols.current
	}

	// Fallback: find the column where the first few body rows look like codes.
	if cols.reference < 0 {
		cols.reference = te.inferReferenceColumn(table.BodyRows, width)
	}
	if cols.reference < 0 {
		return cols, false
	}

	if cols.caption < 0 {
		cols.caption = widestTextColumn(table.BodyRows, width, cols.reference)
	}
	if cols.current < 0 {
		// Default: the column immediately following the caption.
		cols.current = cols.caption + 1
		if cols.current == cols.reference {
			cols.current++
		}
	}
	if cols.prior < 0 && cols.current+1 < width && cols.current+1 != cols.reference {
		cols.prior = cols.current + 1
	}
	return cols, true
}

const referenceScanRows = 5

func (te *TableExtractor) inferReferenceColumn(rows [][]layout.Cell, width int) int {
	limit := len(rows)
	if limit > referenceScanRows {
		limit = referenceScanRows
	}
	bestCol, bestHits := -1, 0
	for col := 0; col < width; col++ {
		hits := 0
		for _, row := range rows[:limit] {
			if codePattern.MatchString(cellText(row, col)) {
				hits++
			}
		}
		if hits > bestHits {
			bestCol, bestHits = col, hits
		}
	}
	if bestHits >= 2 || (limit == 1 && bestHits == 1) {
		return bestCol
	}
	return -1
}

// widestTextColumn picks the column with the longest average non-numeric
// text, which in statutory tables is the caption column.
func widestTextColumn(rows [][]layout.Cell, width, skip int) int {
	bestCol, bestLen := -1, 0
	for col := 0; col < width; col++ {
		if col == skip {
			continue
		}
		total := 0
		for _, row := range rows {
			text := cellText(row, col)
			if text == "" || codePattern.MatchString(text) {
				continue
			}
			if _, err := numeric.ParseAmount(text); err == nil {
				continue
			}
			total += len(text)
		}
		if total > bestLen {
			bestCol, bestLen = col, total
		}
	}
	if bestCol < 0 {
		// All-numeric body; caption defaults to the cell after the code.
		bestCol = skip + 1
	}
	return bestCol
}

func cellText(row []layout.Cell, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx].Text)
}

func matchesAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
