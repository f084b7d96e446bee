package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/glossary/internal/extract"
	"github.com/hyperjump/glossary/internal/models"
	"github.com/hyperjump/glossary/internal/storage"
)

// ImportResult summarises one glossary file import.
type ImportResult struct {
	Path      string `json:"path"`
	Imported  int    `json:"imported"`
	Skipped   int    `json:"skipped"`
	Unchanged bool   `json:"unchanged"`
}

// ImportFile imports the rows of a CSV or XLSX glossary file. The first row names
// the columns (isiZulu, English, isiXhosa, siSwati, Context, Page, file_path; case
// and spacing are ignored). Re-importing a changed file replaces the entries it
// produced before; an unchanged file (same mtime and size) is skipped.
func (idx *Indexer) ImportFile(ctx context.Context, path string) (*ImportResult, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(absPath))
	if !extract.IsTable(ext) {
		return nil, fmt.Errorf("%w: extension %q is not a glossary format", ErrInvalidInput, ext)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", absPath)
	}

	result := &ImportResult{Path: absPath}
	if rec, err := idx.storage.GetImport(ctx, absPath); err == nil {
		if rec.ModTime == info.ModTime().UnixNano() && rec.Size == info.Size() {
			idx.logger.Debug("skipping unchanged glossary file", zap.String("path", absPath))
			result.Unchanged = true
			return result, nil
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	f, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	rows, err := extract.Rows(f, ext)
	f.Close()
	if err != nil {
		return nil, err
	}

	entries, skipped, err := EntriesFromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(absPath), err)
	}
	for _, e := range entries {
		e.Source = absPath
	}

	removed, err := idx.storage.DeleteEntriesBySource(ctx, absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to remove previous import: %w", err)
	}
	for _, id := range removed {
		if err := idx.terms.Delete(ctx, termID(id)); err != nil {
			return nil, fmt.Errorf("failed to delete terms: %w", err)
		}
	}
	if err := idx.storage.BatchCreateEntries(ctx, entries); err != nil {
		return nil, fmt.Errorf("failed to store entries: %w", err)
	}
	if err := idx.index(ctx, entries); err != nil {
		return nil, err
	}
	if err := idx.storage.PutImport(ctx, &models.ImportRecord{
		Path:    absPath,
		ModTime: info.ModTime().UnixNano(),
		Size:    info.Size(),
		Entries: len(entries),
	}); err != nil {
		return nil, fmt.Errorf("failed to record import: %w", err)
	}
	idx.changed()

	result.Imported = len(entries)
	result.Skipped = skipped
	idx.logger.Info("glossary file imported",
		zap.String("path", absPath),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", skipped),
		zap.Int("replaced", len(removed)),
	)
	return result, nil
}

// ForgetFile removes the entries imported from path, e.g. after the file was deleted.
func (idx *Indexer) ForgetFile(ctx context.Context, path string) (int, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	removed, err := idx.storage.DeleteEntriesBySource(ctx, absPath)
	if err != nil {
		return 0, fmt.Errorf("failed to remove entries: %w", err)
	}
	for _, id := range removed {
		if err := idx.terms.Delete(ctx, termID(id)); err != nil {
			return 0, fmt.Errorf("failed to delete terms: %w", err)
		}
	}
	if err := idx.storage.DeleteImport(ctx, absPath); err != nil {
		return 0, fmt.Errorf("failed to forget import: %w", err)
	}
	if len(removed) > 0 {
		idx.changed()
	}
	idx.logger.Info("glossary file forgotten", zap.String("path", absPath), zap.Int("removed", len(removed)))
	return len(removed), nil
}

// ImportDirectory walks dir recursively and imports every CSV and XLSX file.
// It stops at the first failing file.
func (idx *Indexer) ImportDirectory(ctx context.Context, dir string) ([]*ImportResult, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return nil, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", absDir)
	}

	var results []*ImportResult
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !extract.IsTable(filepath.Ext(path)) {
			return nil
		}
		res, err := idx.ImportFile(ctx, path)
		if err != nil {
			return err
		}
		results = append(results, res)
		return nil
	})
	return results, err
}

type column int

const (
	colIsiZulu column = iota
	colEnglish
	colIsiXhosa
	colSiSwati
	colContext
	colPage
	colFilePath
	numColumns
)

var headerNames = map[string]column{
	"isizulu":   colIsiZulu,
	"zulu":      colIsiZulu,
	"english":   colEnglish,
	"isixhosa":  colIsiXhosa,
	"xhosa":     colIsiXhosa,
	"siswati":   colSiSwati,
	"swati":     colSiSwati,
	"context":   colContext,
	"page":      colPage,
	"file_path": colFilePath,
	"filepath":  colFilePath,
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.ReplaceAll(h, " ", "_")
}

// EntriesFromRows maps spreadsheet rows to entries using the header row. Rows
// with neither an isiZulu nor an English value are skipped and counted.
func EntriesFromRows(rows [][]string) (entries []*models.Entry, skipped int, err error) {
	if len(rows) == 0 {
		return nil, 0, nil
	}
	positions := make([]int, numColumns)
	for i := range positions {
		positions[i] = -1
	}
	for i, h := range rows[0] {
		if c, ok := headerNames[normalizeHeader(h)]; ok && positions[c] < 0 {
			positions[c] = i
		}
	}
	if positions[colIsiZulu] < 0 && positions[colEnglish] < 0 {
		return nil, 0, fmt.Errorf("%w: header row names neither isiZulu nor English", ErrInvalidInput)
	}

	cell := func(row []string, c column) string {
		at := positions[c]
		if at < 0 || at >= len(row) {
			return ""
		}
		return strings.Join(strings.Fields(row[at]), " ")
	}

	entries = make([]*models.Entry, 0, len(rows)-1)
	for _, row := range rows[1:] {
		in := &models.EntryInput{
			IsiZulu:  cell(row, colIsiZulu),
			English:  cell(row, colEnglish),
			IsiXhosa: cell(row, colIsiXhosa),
			SiSwati:  cell(row, colSiSwati),
			Context:  cell(row, colContext),
			Page:     cell(row, colPage),
			FilePath: cell(row, colFilePath),
		}
		if in.IsiZulu == "" && in.English == "" {
			skipped++
			continue
		}
		entries = append(entries, in.Entry())
	}
	return entries, skipped, nil
}
