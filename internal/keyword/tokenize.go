package keyword

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
)

var analyzer = bleve.NewIndexMapping().AnalyzerNamed(simple.Name)

// Tokenize splits text into lowercase word tokens using the same analyzer as the index.
func Tokenize(text string) []string {
	if analyzer == nil {
		return nil
	}
	stream := analyzer.Analyze([]byte(text))
	tokens := make([]string, 0, len(stream))
	for _, tok := range stream {
		tokens = append(tokens, string(tok.Term))
	}
	return tokens
}
