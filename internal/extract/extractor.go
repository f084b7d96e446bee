// Package extract reads uploaded documents and glossary spreadsheets.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/glossary/pkg/utils"
)

// ErrUnsupported is returned for formats text cannot be extracted from.
var ErrUnsupported = errors.New("unsupported format")

// Extractor extracts plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its text content.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, strings.ToLower(filepath.Ext(path)))
}

// ExtractBytes extracts text from content based on ext (with the leading dot).
// Legacy binary .doc files yield ErrUnsupported.
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	switch ext {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".doc":
		return "", fmt.Errorf("%w: %s", ErrUnsupported, ext)
	default:
		return extractPlain(content)
	}
}

// Preview returns the first maxLen runes of the extracted text with whitespace
// collapsed. An empty string is returned for documents without extractable text.
func (e *Extractor) Preview(content []byte, ext string, maxLen int) (string, error) {
	text, err := e.ExtractBytes(content, ext)
	if err != nil {
		return "", err
	}
	return utils.Truncate(strings.Join(strings.Fields(text), " "), maxLen), nil
}
