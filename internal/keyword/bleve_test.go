package keyword

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/glossary/internal/models"
)

func TestBleveIndex_TermDictionary(t *testing.T) {
	idx, err := NewBleveIndex(filepath.Join(t.TempDir(), "terms.bleve"))
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	ctx := context.Background()
	require.NoError(t, idx.Index(ctx, "1", &models.Entry{
		IsiZulu: models.StringPtr("Umfula omkhulu"),
		English: models.StringPtr("big river"),
	}))
	require.NoError(t, idx.Index(ctx, "2", &models.Entry{
		IsiZulu:  models.StringPtr("umfula"),
		English:  models.StringPtr("river"),
		IsiXhosa: models.StringPtr("umlambo"),
	}))

	n, err := idx.DocCount()
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	terms, err := idx.GetAllTerms()
	require.NoError(t, err)
	assert.Equal(t, []string{"omkhulu", "umfula"}, terms, "only isiZulu terms, lowercased")

	freq, err := idx.GetTermFrequency("umfula")
	require.NoError(t, err)
	assert.Equal(t, 2, freq)

	ok, err := idx.ContainsTerm("umlambo")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, idx.Delete(ctx, "1"))
	freq, err = idx.GetTermFrequency("umfula")
	require.NoError(t, err)
	assert.Equal(t, 1, freq)
}

func TestBleveIndex_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "terms.bleve")
	idx, err := NewBleveIndex(path)
	require.NoError(t, err)
	require.NoError(t, idx.Index(context.Background(), "1", &models.Entry{IsiZulu: models.StringPtr("inja")}))
	require.NoError(t, idx.Close())

	idx, err = NewBleveIndex(path)
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()
	ok, err := idx.ContainsTerm("inja")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"umfula", "omkhulu", "river"}, Tokenize("Umfula omkhulu, RIVER!"))
	assert.Empty(t, Tokenize("  "))
	assert.Equal(t, []string{"e", "thekwini"}, Tokenize("e-Thekwini"))
}
