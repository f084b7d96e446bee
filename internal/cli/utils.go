// Package cli writes lookup documents to the terminal.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fatih/color"

	"github.com/hyperjump/glossary/internal/page"
)

// OutputFormat is the format for lookup output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputHTML is the sanitised result area markup.
	OutputHTML OutputFormat = "html"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat maps a --output flag value to a format.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case OutputText, OutputHTML, OutputJSON:
		return f, nil
	case "":
		return OutputText, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text, html, or json", s)
	}
}

// Summary is what a user sees in the result area.
type Summary struct {
	Message string         `json:"message,omitempty"`
	IsError bool           `json:"is_error,omitempty"`
	Entries []EntrySummary `json:"entries"`
}

// EntrySummary is one rendered entry. Fields holds the visible lines: the
// previews when collapsed, the full values when expanded.
type EntrySummary struct {
	Index      int      `json:"index"`
	Title      string   `json:"title"`
	Expanded   bool     `json:"expanded"`
	Fields     []string `json:"fields"`
	Enrichment []string `json:"enrichment"`
	Errors     []string `json:"errors,omitempty"`
}

// Summarize reads the result area of a lookup document.
func Summarize(doc *page.Document) *Summary {
	s := &Summary{Entries: []EntrySummary{}}
	area := doc.ByID("results")
	items := area.ChildrenFiltered(".result-item")
	if items.Length() == 0 {
		msg := area.ChildrenFiltered("p").First()
		s.Message = strings.TrimSpace(msg.Text())
		s.IsError = isRed(msg)
		return s
	}
	items.Each(func(i int, item *goquery.Selection) {
		full := item.ChildrenFiltered(".full-view")
		e := EntrySummary{
			Index:      i,
			Title:      item.ChildrenFiltered("h3").Text(),
			Expanded:   !page.Hidden(full),
			Fields:     []string{},
			Enrichment: []string{},
		}
		lines := item.ChildrenFiltered("p")
		if e.Expanded {
			lines = full.ChildrenFiltered("p")
		}
		lines.Each(func(_ int, p *goquery.Selection) {
			if a := p.ChildrenFiltered("a"); a.Length() > 0 {
				e.Fields = append(e.Fields, a.Text()+": "+a.AttrOr("href", ""))
				return
			}
			e.Fields = append(e.Fields, p.Text())
		})
		item.ChildrenFiltered(".extra-info").Children().Each(func(_ int, c *goquery.Selection) {
			switch {
			case c.HasClass("enrich-error"):
				e.Errors = append(e.Errors, c.Text())
			case goquery.NodeName(c) == "ul":
				c.Find("li").Each(func(_ int, li *goquery.Selection) {
					e.Enrichment = append(e.Enrichment, "- "+li.Text())
				})
			default:
				e.Enrichment = append(e.Enrichment, c.Text())
			}
		})
		s.Entries = append(s.Entries, e)
	})
	return s
}

// WriteDocument writes the result area of doc to w in the given format.
func WriteDocument(w io.Writer, doc *page.Document, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(Summarize(doc))
	case OutputHTML:
		out, err := page.NewSanitizer().SanitizeSelection(doc.ByID("results"))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, out)
		return err
	default:
		writeText(w, Summarize(doc))
		return nil
	}
}

var (
	rule    = strings.Repeat("─", 57)
	red     = color.New(color.FgRed)
	heading = color.New(color.Bold)
)

func writeText(w io.Writer, s *Summary) {
	if len(s.Entries) == 0 {
		if s.IsError {
			red.Fprintln(w, s.Message)
			return
		}
		fmt.Fprintln(w, s.Message)
		return
	}
	for _, e := range s.Entries {
		fmt.Fprintln(w, rule)
		heading.Fprintf(w, "[%d] %s\n", e.Index, e.Title)
		for _, f := range e.Fields {
			fmt.Fprintf(w, "  %s\n", f)
		}
		for _, line := range e.Enrichment {
			fmt.Fprintf(w, "  %s\n", line)
		}
		for _, line := range e.Errors {
			red.Fprintf(w, "  %s\n", line)
		}
	}
}

func isRed(sel *goquery.Selection) bool {
	style := strings.ReplaceAll(sel.AttrOr("style", ""), " ", "")
	return strings.Contains(style, "color:red")
}

// ParseIndexes parses a comma-separated list of entry indexes such as "0,2".
func ParseIndexes(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid entry index %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}
