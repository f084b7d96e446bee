// Package search answers glossary lookups: matching entries, word statistics
// and did-you-mean suggestions.
package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/glossary/internal/config"
	"github.com/hyperjump/glossary/internal/keyword"
	"github.com/hyperjump/glossary/internal/models"
	"github.com/hyperjump/glossary/internal/storage"
	"github.com/hyperjump/glossary/pkg/utils"
)

// Engine runs corpus lookups against storage and the term dictionary.
type Engine struct {
	storage storage.Storage
	speller *keyword.SpellChecker
	config  *config.SearchConfig
	logger  *zap.Logger
}

// NewEngine creates a search engine. dict supplies the did-you-mean vocabulary.
func NewEngine(store storage.Storage, dict keyword.TermDictionary, cfg *config.SearchConfig, logger *zap.Logger) *Engine {
	return &Engine{
		storage: store,
		speller: keyword.NewSpellChecker(dict,
			keyword.WithCutoff(cfg.SuggestionCutoff),
			keyword.WithMaxSuggestions(cfg.SuggestionLimit),
		),
		config: cfg,
		logger: utils.OrNop(logger),
	}
}

// Refresh drops the cached vocabulary after the corpus changes.
func (e *Engine) Refresh() {
	e.speller.Invalidate()
}

// Search returns the entries matching query together with word statistics.
// Suggestions are only computed when nothing matched.
func (e *Engine) Search(ctx context.Context, raw string) (*models.SearchResponse, error) {
	m, err := e.match(ctx, raw)
	if err != nil {
		return nil, err
	}
	resp := &models.SearchResponse{
		Query:        m.query,
		Results:      m.entries,
		DidYouMean:   []string{},
		Frequency:    m.frequency,
		UsagePercent: UsagePercent(m.frequency, m.total),
		TotalWords:   m.total,
		CommonPairs:  m.corpus.Pairs(m.terms, e.config.PairLimit),
	}
	if m.query == "" || len(m.entries) > 0 {
		return resp, nil
	}

	suggestions, err := e.speller.SuggestTerms(m.query)
	if err != nil {
		// Suggestions are best-effort.
		e.logger.Warn("did-you-mean lookup failed", zap.String("query", m.query), zap.Error(err))
	} else if len(suggestions) > 0 {
		resp.DidYouMean = suggestions
	}
	return resp, nil
}

// Frequency returns how often query occurs in the entries that match it.
func (e *Engine) Frequency(ctx context.Context, raw string) (*models.FrequencyResponse, error) {
	m, err := e.match(ctx, raw)
	if err != nil {
		return nil, err
	}
	return &models.FrequencyResponse{
		Query:        m.query,
		Frequency:    m.frequency,
		UsagePercent: UsagePercent(m.frequency, m.total),
		TotalWords:   m.total,
	}, nil
}

// Pairs returns the word pairs containing query in the entries that match it.
func (e *Engine) Pairs(ctx context.Context, raw string) (*models.PairsResponse, error) {
	m, err := e.match(ctx, raw)
	if err != nil {
		return nil, err
	}
	return &models.PairsResponse{Query: m.query, CommonPairs: m.corpus.Pairs(m.terms, e.config.PairLimit)}, nil
}

type match struct {
	query     string
	terms     []string
	entries   []*models.Entry
	corpus    Corpus
	frequency int
	total     int
}

// match loads the entries containing the normalised query and tokenises them.
// An empty query matches nothing without touching storage.
func (e *Engine) match(ctx context.Context, raw string) (*match, error) {
	m := &match{query: models.NormalizeServerQuery(raw), entries: []*models.Entry{}}
	if m.query == "" {
		return m, nil
	}
	entries, err := e.storage.SearchEntries(ctx, m.query)
	if err != nil {
		return nil, fmt.Errorf("search entries: %w", err)
	}
	if len(entries) > 0 {
		m.entries = entries
	}
	m.terms = keyword.Tokenize(m.query)
	m.corpus = NewCorpus(entries)
	m.frequency = m.corpus.Count(m.terms)
	m.total = m.corpus.TotalWords()
	return m, nil
}
