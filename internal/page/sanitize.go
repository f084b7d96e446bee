package page

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans rendered markup before it leaves the process.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer returns a sanitizer based on the UGC policy that also keeps the
// attributes the result markup depends on (classes, ids, data attributes, the
// display style and toggle buttons).
func NewSanitizer() *Sanitizer {
	p := bluemonday.UGCPolicy()
	p.AllowElements("button")
	p.AllowAttrs("class").Globally()
	p.AllowDataAttributes()
	p.AllowStyles("display", "color", "text-align").Globally()
	p.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
	p.RequireNoFollowOnLinks(true)
	return &Sanitizer{policy: p}
}

// Sanitize returns the cleaned form of fragment.
func (s *Sanitizer) Sanitize(fragment string) string {
	return s.policy.Sanitize(fragment)
}

// SanitizeSelection renders sel's outer HTML and cleans it.
func (s *Sanitizer) SanitizeSelection(sel *goquery.Selection) (string, error) {
	out, err := goquery.OuterHtml(sel)
	if err != nil {
		return "", err
	}
	return s.Sanitize(out), nil
}
