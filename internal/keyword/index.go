// Package keyword maintains the corpus term dictionary used for tokenisation and
// did-you-mean suggestions.
package keyword

import (
	"context"

	"github.com/hyperjump/glossary/internal/models"
)

// Field names in the term index.
const (
	FieldIsiZulu  = "isiZulu"
	FieldEnglish  = "English"
	FieldIsiXhosa = "isiXhosa"
	FieldSiSwati  = "siSwati"
)

// TermIndex defines term indexing operations over corpus entries.
type TermIndex interface {
	Index(ctx context.Context, id string, entry *models.Entry) error
	Delete(ctx context.Context, id string) error
	Close() error
	// DocCount returns the total number of entries in the index.
	DocCount() (uint64, error)
}

// TermDictionary provides access to the term dictionary for spell checking.
// This interface allows dependency injection for testing.
type TermDictionary interface {
	// GetAllTerms returns all unique terms in the vocabulary.
	GetAllTerms() ([]string, error)
	// GetTermFrequency returns the number of entries containing the term.
	GetTermFrequency(term string) (int, error)
	// ContainsTerm checks if a term exists in the vocabulary.
	ContainsTerm(term string) (bool, error)
}
