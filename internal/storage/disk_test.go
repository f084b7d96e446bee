package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0644))
}

func TestMeasureUsage(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "corpus.db")
	writeFile(t, db, 5)
	writeFile(t, db+"-wal", 3)
	index := filepath.Join(dir, "terms.bleve")
	writeFile(t, filepath.Join(index, "store", "root.bolt"), 7)
	writeFile(t, filepath.Join(index, "index_meta.json"), 2)
	uploads := filepath.Join(dir, "uploads")
	writeFile(t, filepath.Join(uploads, "a.pdf"), 4)

	u, err := MeasureUsage(db, index, uploads)
	require.NoError(t, err)
	assert.Equal(t, Usage{Database: 8, TermIndex: 9, Uploads: 4}, u)
	assert.Equal(t, int64(21), u.Total())
}

func TestMeasureUsage_MissingPaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "uploads", "b.txt"), 6)

	u, err := MeasureUsage(filepath.Join(dir, "missing.db"), "", filepath.Join(dir, "uploads"))
	require.NoError(t, err)
	assert.Equal(t, Usage{Uploads: 6}, u)

	u, err = MeasureUsage("", "", "")
	require.NoError(t, err)
	assert.Zero(t, u.Total())
}
