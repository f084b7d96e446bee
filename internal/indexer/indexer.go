// Package indexer keeps the corpus database and the term index in step: manual
// additions, glossary file imports, document uploads and full rebuilds.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/glossary/internal/extract"
	"github.com/hyperjump/glossary/internal/keyword"
	"github.com/hyperjump/glossary/internal/models"
	"github.com/hyperjump/glossary/internal/storage"
	"github.com/hyperjump/glossary/pkg/utils"
)

// ErrInvalidInput marks requests rejected before anything is stored.
var ErrInvalidInput = errors.New("invalid input")

// Indexer writes entries to storage and the term index.
type Indexer struct {
	storage      storage.Storage
	terms        keyword.TermIndex
	extractor    *extract.Extractor
	uploadDir    string
	previewLimit int
	onChange     func()
	logger       *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = utils.OrNop(l) }
}

// WithUploadDir sets the directory uploaded documents are written to.
func WithUploadDir(dir string) IndexerOption {
	return func(idx *Indexer) { idx.uploadDir = dir }
}

// WithPreviewLimit sets how many characters of an uploaded document become its Context.
func WithPreviewLimit(n int) IndexerOption {
	return func(idx *Indexer) {
		if n > 0 {
			idx.previewLimit = n
		}
	}
}

// WithOnChange registers a callback run after the corpus changes.
func WithOnChange(fn func()) IndexerOption {
	return func(idx *Indexer) { idx.onChange = fn }
}

// NewIndexer creates an indexer. extractor may be nil, in which case uploads get
// no text preview.
func NewIndexer(store storage.Storage, terms keyword.TermIndex, extractor *extract.Extractor, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		storage:      store,
		terms:        terms,
		extractor:    extractor,
		uploadDir:    "uploads",
		previewLimit: 200,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

func termID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (idx *Indexer) changed() {
	if idx.onChange != nil {
		idx.onChange()
	}
}

func (idx *Indexer) index(ctx context.Context, entries []*models.Entry) error {
	for _, e := range entries {
		if err := idx.terms.Index(ctx, termID(e.ID), e); err != nil {
			return fmt.Errorf("failed to index terms: %w", err)
		}
	}
	return nil
}

// AddEntry validates input and stores it as a new entry.
func (idx *Indexer) AddEntry(ctx context.Context, input *models.EntryInput) (*models.Entry, error) {
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	entry := input.Entry()
	if err := idx.storage.CreateEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to store entry: %w", err)
	}
	if err := idx.index(ctx, []*models.Entry{entry}); err != nil {
		return nil, err
	}
	idx.changed()
	idx.logger.Debug("entry added", zap.Int64("id", entry.ID), zap.String("isiZulu", models.Text(entry.IsiZulu)))
	return entry, nil
}

// Rebuild re-populates the term index from storage and returns the number of
// entries indexed.
func (idx *Indexer) Rebuild(ctx context.Context) (int, error) {
	const pageSize = 500
	n := 0
	for offset := 0; ; offset += pageSize {
		page, err := idx.storage.ListEntries(ctx, offset, pageSize)
		if err != nil {
			return n, fmt.Errorf("failed to list entries: %w", err)
		}
		if err := idx.index(ctx, page); err != nil {
			return n, err
		}
		n += len(page)
		if len(page) < pageSize {
			break
		}
	}
	idx.changed()
	idx.logger.Debug("term index rebuilt", zap.Int("entries", n))
	return n, nil
}

// StoreUpload saves an uploaded document under the upload directory and records it
// as a corpus entry linking to the file. The stored name is the sanitised filename
// prefixed with a random id.
func (idx *Indexer) StoreUpload(ctx context.Context, filename string, r io.Reader) (*models.Entry, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, fmt.Errorf("%w: no selected file", ErrInvalidInput)
	}
	if !AllowedUpload(filename) {
		return nil, fmt.Errorf("%w: file type not allowed", ErrInvalidInput)
	}
	name := UniqueFilename(filename)

	if err := os.MkdirAll(idx.uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if err := os.WriteFile(filepath.Join(idx.uploadDir, name), data, 0644); err != nil {
		return nil, fmt.Errorf("write upload: %w", err)
	}

	summary := "Uploaded document"
	if idx.extractor != nil {
		ext := strings.ToLower(filepath.Ext(name))
		preview, err := idx.extractor.Preview(data, ext, idx.previewLimit)
		if err != nil {
			idx.logger.Debug("no preview for upload", zap.String("file", name), zap.Error(err))
		} else if preview != "" {
			summary = preview
		}
	}

	entry := &models.Entry{
		IsiZulu:  models.StringPtr("File Upload"),
		English:  models.StringPtr(name),
		Context:  models.StringPtr(summary),
		FilePath: models.StringPtr(UploadURLPrefix + name),
	}
	if err := idx.storage.CreateEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to store entry: %w", err)
	}
	if err := idx.index(ctx, []*models.Entry{entry}); err != nil {
		return nil, err
	}
	idx.changed()
	idx.logger.Debug("upload stored", zap.String("file", name), zap.Int("bytes", len(data)))
	return entry, nil
}
