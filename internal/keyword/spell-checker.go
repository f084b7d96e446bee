package keyword

import (
	"sort"
	"strings"
	"sync"
)

// Suggestion is a close match with its similarity to the query.
type Suggestion struct {
	Term  string
	Score float64
}

// SpellChecker finds close matches for a query in the term dictionary.
type SpellChecker struct {
	dictionary     TermDictionary
	cutoff         float64
	maxSuggestions int

	cacheMu    sync.RWMutex
	termsCache []string
	cacheValid bool
}

// SpellCheckerOption is a functional option for configuring SpellChecker.
type SpellCheckerOption func(*SpellChecker)

// WithCutoff sets the minimum similarity a term needs to be suggested.
func WithCutoff(c float64) SpellCheckerOption {
	return func(s *SpellChecker) {
		if c > 0 && c <= 1 {
			s.cutoff = c
		}
	}
}

// WithMaxSuggestions sets the maximum number of suggestions returned.
func WithMaxSuggestions(n int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if n > 0 {
			s.maxSuggestions = n
		}
	}
}

// NewSpellChecker creates a new SpellChecker with the given dictionary.
func NewSpellChecker(dict TermDictionary, opts ...SpellCheckerOption) *SpellChecker {
	s := &SpellChecker{
		dictionary:     dict,
		cutoff:         0.6,
		maxSuggestions: 5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RefreshCache reloads the vocabulary from the dictionary.
// Call it after the index changes.
func (s *SpellChecker) RefreshCache() error {
	terms, err := s.dictionary.GetAllTerms()
	if err != nil {
		return err
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.termsCache = terms
	s.cacheValid = true
	return nil
}

// Invalidate marks the cache stale so the next lookup reloads it.
func (s *SpellChecker) Invalidate() {
	s.cacheMu.Lock()
	s.cacheValid = false
	s.cacheMu.Unlock()
}

func (s *SpellChecker) terms() ([]string, error) {
	s.cacheMu.RLock()
	valid, terms := s.cacheValid, s.termsCache
	s.cacheMu.RUnlock()
	if valid {
		return terms, nil
	}
	if err := s.RefreshCache(); err != nil {
		return nil, err
	}
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	return s.termsCache, nil
}

// Suggest returns up to maxSuggestions vocabulary terms whose MatchRatio against
// query is at least the cutoff, best first. Equal scores are ordered by term,
// descending.
func (s *SpellChecker) Suggest(query string) ([]Suggestion, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, nil
	}
	terms, err := s.terms()
	if err != nil {
		return nil, err
	}

	suggestions := make([]Suggestion, 0)
	for _, t := range terms {
		score := MatchRatio(strings.ToLower(t), query)
		if score >= s.cutoff {
			suggestions = append(suggestions, Suggestion{Term: t, Score: score})
		}
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		return suggestions[i].Term > suggestions[j].Term
	})
	if len(suggestions) > s.maxSuggestions {
		suggestions = suggestions[:s.maxSuggestions]
	}
	return suggestions, nil
}

// SuggestTerms is Suggest without scores.
func (s *SpellChecker) SuggestTerms(query string) ([]string, error) {
	suggestions, err := s.Suggest(query)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(suggestions))
	for i, sg := range suggestions {
		out[i] = sg.Term
	}
	return out, nil
}
