// Package layout defines the input structures produced by the external
// OCR/layout extraction service. The pipeline consumes these structures
// in-memory; it never performs OCR itself.
package layout

import (
	"errors"
	"strings"
)

// ErrEmptyDocument is the only fatal input error: a document with no text
// and no tables cannot be extracted at all. Everything else degrades
// confidence instead of failing.
var ErrEmptyDocument = errors.New("layout: document has no text and no tables")

// Point is a normalized coordinate in [0,1] page space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Cell is a single table cell as reported by the layout service.
type Cell struct {
	Text       string  `json:"text"`
	RowSpan    int     `json:"row_span"`
	ColSpan    int     `json:"col_span"`
	Confidence float64 `json:"confidence"`
	Polygon    []Point `json:"polygon,omitempty"`
}

// Table is a detected table with separated header and body rows.
type Table struct {
	Page       int      `json:"page"`
	HeaderRows [][]Cell `json:"header_rows"`
	BodyRows   [][]Cell `json:"body_rows"`
	Confidence float64  `json:"confidence"`
}

// TextBlock is a positioned run of text on a page.
type TextBlock struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Polygon    []Point `json:"polygon,omitempty"`
}

// Page carries the per-page structures from the layout service.
type Page struct {
	Number     int         `json:"number"`
	Width      float64     `json:"width"`
	Height     float64     `json:"height"`
	Blocks     []TextBlock `json:"blocks,omitempty"`
	Paragraphs []string    `json:"paragraphs,omitempty"`
	Tables     []Table     `json:"tables,omitempty"`
}

// Document is the complete OCR/layout output for one filing.
type Document struct {
	// Text is the full concatenated document text, used by keyword
	// detection and the text-scanning extraction fallback.
	Text string `json:"text"`
	// LanguageHint is the layout service's language guess (e.g. "fr");
	// empty when unknown.
	LanguageHint string `json:"language_hint,omitempty"`
	Pages        []Page `json:"pages"`
}

// Validate checks for the fatal-input case. A document that validates may
// still produce a low-confidence extraction; that is reported through the
// gate object, not through an error.
func (d *Document) Validate() error {
	if strings.TrimSpace(d.Text) != "" {
		return nil
	}
	for _, p := range d.Pages {
		if len(p.Tables) > 0 {
			return nil
		}
		for _, b := range p.Blocks {
			if strings.TrimSpace(b.Text) != "" {
				return nil
			}
		}
	}
	return ErrEmptyDocument
}

// Tables returns all tables across pages, preserving page order.
func (d *Document) Tables() []Table {
	var out []Table
	for _, p := range d.Pages {
		for _, t := range p.Tables {
			if t.Page == 0 {
				t.Page = p.Number
			}
			out = append(out, t)
		}
	}
	return out
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int {
	return len(d.Pages)
}
