package keyword

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/hyperjump/glossary/internal/models"
)

// BleveIndex implements TermIndex and TermDictionary using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex creates or opens a Bleve index at path.
// An existing index is reopened as-is; remove the directory after changing the mapping.
func NewBleveIndex(path string) (*BleveIndex, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	index, err := bleve.New(path, newIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// NewMemoryBleveIndex creates an index that lives only in memory.
func NewMemoryBleveIndex() (*BleveIndex, error) {
	index, err := bleve.NewMemOnly(newIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

func newIndexMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()

	entryMapping := bleve.NewDocumentMapping()
	langField := bleve.NewTextFieldMapping()
	// simple = letter tokenizer + lowercase; keeps isiZulu word forms intact (no stemming).
	langField.Analyzer = simple.Name
	for _, f := range []string{FieldIsiZulu, FieldEnglish, FieldIsiXhosa, FieldSiSwati} {
		entryMapping.AddFieldMappingsAt(f, langField)
	}
	im.AddDocumentMapping("entry", entryMapping)
	im.DefaultType = "entry"
	im.DefaultMapping = entryMapping
	im.DefaultAnalyzer = simple.Name
	return im
}

// Index indexes the language fields of an entry under id.
func (b *BleveIndex) Index(ctx context.Context, id string, entry *models.Entry) error {
	doc := map[string]interface{}{
		FieldIsiZulu:  models.Text(entry.IsiZulu),
		FieldEnglish:  models.Text(entry.English),
		FieldIsiXhosa: models.Text(entry.IsiXhosa),
		FieldSiSwati:  models.Text(entry.SiSwati),
	}
	return b.index.Index(id, doc)
}

// Delete removes an entry from the index.
func (b *BleveIndex) Delete(ctx context.Context, id string) error {
	return b.index.Delete(id)
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

// DocCount returns the total number of entries in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// GetAllTerms returns the isiZulu vocabulary in dictionary order.
func (b *BleveIndex) GetAllTerms() ([]string, error) {
	dict, err := b.index.FieldDict(FieldIsiZulu)
	if err != nil {
		return nil, fmt.Errorf("failed to open term dictionary: %w", err)
	}
	defer dict.Close()

	terms := make([]string, 0)
	for {
		entry, err := dict.Next()
		if err != nil {
			return nil, fmt.Errorf("failed to read term dictionary: %w", err)
		}
		if entry == nil {
			break
		}
		terms = append(terms, entry.Term)
	}
	return terms, nil
}

// GetTermFrequency returns the number of entries whose isiZulu field contains term.
func (b *BleveIndex) GetTermFrequency(term string) (int, error) {
	q := bleve.NewTermQuery(term)
	q.SetField(FieldIsiZulu)
	req := bleve.NewSearchRequest(q)
	req.Size = 0
	results, err := b.index.Search(req)
	if err != nil {
		return 0, fmt.Errorf("failed to search for term frequency: %w", err)
	}
	return int(results.Total), nil
}

// ContainsTerm checks if a term exists in the isiZulu vocabulary.
func (b *BleveIndex) ContainsTerm(term string) (bool, error) {
	freq, err := b.GetTermFrequency(term)
	if err != nil {
		return false, err
	}
	return freq > 0, nil
}
