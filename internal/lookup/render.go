package lookup

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/hyperjump/glossary/internal/models"
	"github.com/hyperjump/glossary/internal/page"
	"github.com/hyperjump/glossary/pkg/utils"
)

const untitled = "Unknown"

type field struct {
	label string
	value func(e *models.Entry) *string
}

var languageFields = []field{
	{"isiZulu", func(e *models.Entry) *string { return e.IsiZulu }},
	{"English", func(e *models.Entry) *string { return e.English }},
	{"isiXhosa", func(e *models.Entry) *string { return e.IsiXhosa }},
	{"siSwati", func(e *models.Entry) *string { return e.SiSwati }},
}

// render fills the result area from a successful search response.
func (c *Controller) render(p *pass, resp *models.SearchResponse) {
	switch {
	case len(resp.Results) > 0:
		n := len(resp.Results)
		p.entries = make([]*models.Entry, n)
		p.slots = make([]*goquery.Selection, n)
		p.states = make([]Disclosure, n)
		for i, e := range resp.Results {
			if e == nil {
				e = &models.Entry{}
			}
			p.entries[i] = e
			p.area.AppendNodes(c.entryNode(i, e))
			p.slots[i] = p.area.Find("#" + slotID(i))
		}
		for i, e := range p.entries {
			c.enrich(p, i, models.Text(e.IsiZulu))
		}
	case len(resp.DidYouMean) > 0:
		p.area.AppendNodes(page.El("p", nil,
			page.Text("No exact results found. Did you mean: "),
			page.El("strong", nil, page.Text(strings.Join(resp.DidYouMean, ", "))),
			page.Text("?"),
		))
	default:
		p.area.AppendNodes(message("No results found."))
	}
}

// entryNode builds the container for entry i: title, collapsed previews, the
// expand control, the enrichment slot and the hidden full view.
func (c *Controller) entryNode(i int, e *models.Entry) *html.Node {
	idx := strconv.Itoa(i)

	title := c.truncate(e.English)
	if title == "" {
		title = untitled
	}
	container := page.El("div", page.Attrs("class", "result-item", "id", "result-"+idx, "data-index", idx),
		page.El("h3", nil, page.Text(title)),
	)
	for _, f := range languageFields {
		container.AppendChild(line(f.label, c.truncate(f.value(e))))
	}
	container.AppendChild(page.El("button",
		page.Attrs("class", "toggle-btn", "data-index", idx, "data-action", "expand"),
		page.Text("Show More"),
	))
	container.AppendChild(page.El("div", page.Attrs("class", "extra-info", "id", slotID(i))))

	full := page.El("div", page.Attrs("class", "full-view", "id", fullID(i), "style", "display:none"))
	for _, f := range languageFields {
		full.AppendChild(line(f.label, utils.OrDash(models.Text(f.value(e)))))
	}
	full.AppendChild(line("Context", utils.OrDash(models.Text(e.Context))))
	full.AppendChild(line("Page", utils.OrDash(models.Text(e.Page))))
	if href := models.Text(e.FilePath); href != "" {
		full.AppendChild(page.El("p", nil,
			page.El("a", page.Attrs("href", href, "target", "_blank"), page.Text("View File")),
		))
	}
	full.AppendChild(page.El("button",
		page.Attrs("class", "toggle-btn", "data-index", idx, "data-action", "collapse"),
		page.Text("Show Less"),
	))
	container.AppendChild(full)
	return container
}

// truncate shortens a preview value. Absent values preview as "".
func (c *Controller) truncate(s *string) string {
	return utils.Truncate(models.Text(s), c.previewLimit)
}

// line is a "<p><strong>Label:</strong> value</p>" row.
func line(label, value string) *html.Node {
	return page.El("p", nil,
		page.El("strong", nil, page.Text(label+":")),
		page.Text(" "+value),
	)
}

func message(text string) *html.Node {
	return page.El("p", nil, page.Text(text))
}

func errorMessage(text string) *html.Node {
	return page.El("p", page.Attrs("style", "color:red;"), page.Text(text))
}

func slotID(i int) string { return "extra-" + strconv.Itoa(i) }

func fullID(i int) string { return "full-" + strconv.Itoa(i) }
