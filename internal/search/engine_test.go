package search

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/glossary/internal/config"
	"github.com/hyperjump/glossary/internal/keyword"
	"github.com/hyperjump/glossary/internal/models"
	"github.com/hyperjump/glossary/internal/storage"
)

func newTestEngine(t *testing.T, entries ...*models.Entry) *Engine {
	t.Helper()
	ctx := context.Background()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "corpus.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	terms, err := keyword.NewMemoryBleveIndex()
	require.NoError(t, err)
	t.Cleanup(func() { _ = terms.Close() })

	for _, e := range entries {
		require.NoError(t, store.CreateEntry(ctx, e))
		require.NoError(t, terms.Index(ctx, strconv.FormatInt(e.ID, 10), e))
	}

	cfg := &config.SearchConfig{SuggestionLimit: 5, SuggestionCutoff: 0.6, PairLimit: 10}
	return NewEngine(store, terms, cfg, nil)
}

func entry(zu, en, xh, ss string) *models.Entry {
	e := &models.Entry{
		IsiZulu: models.StringPtr(zu),
		English: models.StringPtr(en),
		Context: models.StringPtr("test"),
	}
	if xh != "" {
		e.IsiXhosa = models.StringPtr(xh)
	}
	if ss != "" {
		e.SiSwati = models.StringPtr(ss)
	}
	return e
}

func TestEngine_Search(t *testing.T) {
	engine := newTestEngine(t,
		entry("umfula", "river", "umlambo", "umfula"),
		entry("umfula omkhulu", "big river", "", ""),
		entry("inja", "dog", "inja", "inja"),
	)

	resp, err := engine.Search(context.Background(), "  UMFULA ")
	require.NoError(t, err)
	assert.Equal(t, "umfula", resp.Query)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "river", models.Text(resp.Results[0].English))
	assert.Empty(t, resp.DidYouMean)

	// tokens: umfula river umlambo umfula | umfula omkhulu big river
	assert.Equal(t, 3, resp.Frequency)
	assert.Equal(t, 8, resp.TotalWords)
	assert.Equal(t, 37.5, resp.UsagePercent)
	require.NotEmpty(t, resp.CommonPairs)
	assert.Equal(t, models.Pair{Pair: "umfula river", Count: 1}, resp.CommonPairs[0])
	for _, p := range resp.CommonPairs {
		assert.Contains(t, p.Pair, "umfula")
	}
}

func TestEngine_SearchDidYouMean(t *testing.T) {
	engine := newTestEngine(t,
		entry("umfula", "river", "", ""),
		entry("umfundi", "student", "", ""),
		entry("inja", "dog", "", ""),
	)

	resp, err := engine.Search(context.Background(), "umfulo")
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	require.NotEmpty(t, resp.DidYouMean)
	assert.Equal(t, "umfula", resp.DidYouMean[0])
	assert.NotContains(t, resp.DidYouMean, "inja")
	assert.Zero(t, resp.TotalWords)
	assert.Zero(t, resp.UsagePercent)
}

func TestEngine_EmptyQuery(t *testing.T) {
	engine := newTestEngine(t, entry("inja", "dog", "", ""))

	resp, err := engine.Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.Equal(t, "", resp.Query)
	assert.NotNil(t, resp.Results)
	assert.Empty(t, resp.Results)
	assert.Empty(t, resp.DidYouMean)
	assert.NotNil(t, resp.CommonPairs)

	freq, err := engine.Frequency(context.Background(), "")
	require.NoError(t, err)
	assert.Zero(t, freq.Frequency)
}

func TestEngine_FrequencyAndPairs(t *testing.T) {
	engine := newTestEngine(t,
		entry("amanzi", "water", "amanzi", "emanti"),
		entry("amanzi ashisayo", "hot water", "", ""),
	)
	ctx := context.Background()

	freq, err := engine.Frequency(ctx, "amanzi")
	require.NoError(t, err)
	assert.Equal(t, "amanzi", freq.Query)
	assert.Equal(t, 3, freq.Frequency)
	assert.Equal(t, 8, freq.TotalWords)

	pairs, err := engine.Pairs(ctx, "amanzi")
	require.NoError(t, err)
	assert.Equal(t, []models.Pair{
		{Pair: "amanzi water", Count: 1},
		{Pair: "water amanzi", Count: 1},
		{Pair: "amanzi emanti", Count: 1},
		{Pair: "amanzi ashisayo", Count: 1},
	}, pairs.CommonPairs)
}
