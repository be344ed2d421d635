package dictionary

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/mapping"
)

// IndexedCaption is a searchable dictionary entry.
type IndexedCaption struct {
	Code        string `json:"code"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	Description string `json:"description"` // all captions plus synonyms
}

// IndexHit is a search result with bleve's relevance score.
type IndexHit struct {
	Code     string
	Category Category
	Priority Priority
	Score    float64
}

// CaptionIndex is an in-memory bleve full-text index over the dictionary.
// It widens recall for noisy OCR captions where the deterministic matcher
// finds nothing; the matcher's confidence scoring stays authoritative.
type CaptionIndex struct {
	index bleve.Index
}

// NewCaptionIndex builds the in-memory index from the dictionary.
func NewCaptionIndex(d *Dictionary) (*CaptionIndex, error) {
	index, err := bleve.NewMemOnly(buildCaptionMapping())
	if err != nil {
		return nil, fmt.Errorf("dictionary: create caption index: %w", err)
	}

	batch := index.NewBatch()
	for _, def := range d.Definitions() {
		parts := append(def.Captions(), def.Synonyms()...)
		doc := IndexedCaption{
			Code:        def.Code,
			Category:    string(def.Category),
			Priority:    string(def.Priority),
			Description: strings.Join(parts, " "),
		}
		if err := batch.Index(def.Code, doc); err != nil {
			return nil, fmt.Errorf("dictionary: index code %s: %w", def.Code, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		return nil, fmt.Errorf("dictionary: batch index: %w", err)
	}
	return &CaptionIndex{index: index}, nil
}

func buildCaptionMapping() mapping.IndexMapping {
	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = simple.Name

	keywordField := bleve.NewTextFieldMapping()
	keywordField.Analyzer = keyword.Name

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("code", keywordField)
	docMapping.AddFieldMappingsAt("category", keywordField)
	docMapping.AddFieldMappingsAt("priority", keywordField)
	docMapping.AddFieldMappingsAt("description", textField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = simple.Name
	return indexMapping
}

// Search runs a fuzzy-tolerant match query over captions and synonyms.
func (ci *CaptionIndex) Search(query string, limit int) ([]IndexHit, error) {
	if limit <= 0 {
		limit = 5
	}

	matchQuery := bleve.NewMatchQuery(query)
	matchQuery.SetField("description")
	matchQuery.SetFuzziness(1)

	req := bleve.NewSearchRequest(matchQuery)
	req.Size = limit
	req.Fields = []string{"code", "category", "priority"}

	res, err := ci.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("dictionary: caption search: %w", err)
	}

	hits := make([]IndexHit, 0, len(res.Hits))
	for _, hit := range res.Hits {
		h := IndexHit{Code: hit.ID, Score: hit.Score}
		if cat, ok := hit.Fields["category"].(string); ok {
			h.Category = Category(cat)
		}
		if prio, ok := hit.Fields["priority"].(string); ok {
			h.Priority = Priority(prio)
		}
		hits = append(hits, h)
	}
	return hits, nil
}

// Close releases the index.
func (ci *CaptionIndex) Close() error {
	if ci.index != nil {
		return ci.index.Close()
	}
	return nil
}

// DocCount returns the number of indexed codes.
func (ci *CaptionIndex) DocCount() (uint64, error) {
	return ci.index.DocCount()
}
