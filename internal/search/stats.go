package search

import (
	"math"
	"sort"
	"strings"

	"github.com/hyperjump/glossary/internal/keyword"
	"github.com/hyperjump/glossary/internal/models"
)

// Corpus is the tokenised text of a set of entries. Each entry contributes one
// token sequence made of its four language fields in order.
type Corpus [][]string

// NewCorpus tokenises the language fields of entries.
func NewCorpus(entries []*models.Entry) Corpus {
	c := make(Corpus, 0, len(entries))
	for _, e := range entries {
		text := strings.Join([]string{
			models.Text(e.IsiZulu),
			models.Text(e.English),
			models.Text(e.IsiXhosa),
			models.Text(e.SiSwati),
		}, " ")
		c = append(c, keyword.Tokenize(text))
	}
	return c
}

// TotalWords returns the number of tokens in the corpus.
func (c Corpus) TotalWords() int {
	n := 0
	for _, toks := range c {
		n += len(toks)
	}
	return n
}

// Count returns how many times phrase occurs as a contiguous token run.
func (c Corpus) Count(phrase []string) int {
	if len(phrase) == 0 {
		return 0
	}
	n := 0
	for _, toks := range c {
		for i := 0; i+len(phrase) <= len(toks); i++ {
			if equalRun(toks[i:i+len(phrase)], phrase) {
				n++
			}
		}
	}
	return n
}

func equalRun(a, b []string) bool {
	for i := range b {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Pairs returns the bigrams that contain any of terms, most frequent first.
// Ties keep first-occurrence order. limit <= 0 means no limit.
func (c Corpus) Pairs(terms []string, limit int) []models.Pair {
	want := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		want[t] = struct{}{}
	}

	index := make(map[string]int)
	pairs := make([]models.Pair, 0)
	for _, toks := range c {
		for i := 0; i+1 < len(toks); i++ {
			_, first := want[toks[i]]
			_, second := want[toks[i+1]]
			if !first && !second {
				continue
			}
			key := toks[i] + " " + toks[i+1]
			if at, ok := index[key]; ok {
				pairs[at].Count++
				continue
			}
			index[key] = len(pairs)
			pairs = append(pairs, models.Pair{Pair: key, Count: 1})
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].Count > pairs[j].Count })
	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}

// UsagePercent returns count as a percentage of total, rounded to 4 decimal places.
func UsagePercent(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*100*1e4) / 1e4
}
