package lookup

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/hyperjump/glossary/internal/models"
)

// pass is one search and everything rendered for it. Completions capture their
// pass and only touch the document while it is still the current one.
type pass struct {
	epoch  uint64
	query  string
	ctx    context.Context
	cancel context.CancelFunc

	area    *goquery.Selection
	entries []*models.Entry
	slots   []*goquery.Selection
	states  []Disclosure
}

// dispatch starts a new pass for q, replacing whatever the result area held.
func (c *Controller) dispatch(q string) {
	if c.pass != nil {
		c.pass.cancel()
	}
	c.epoch++
	ctx, cancel := context.WithCancel(context.Background())
	p := &pass{epoch: c.epoch, query: q, ctx: ctx, cancel: cancel, area: c.results}
	c.pass = p

	c.clear()
	p.area.AppendNodes(message("Loading..."))

	c.inflight.add()
	go func() {
		resp, err := c.backend.Search(p.ctx, q)
		c.deliver(p, func() { c.searchDone(p, resp, err) })
	}()
}

func (c *Controller) searchDone(p *pass, resp *models.SearchResponse, err error) {
	c.clear()
	if err != nil {
		c.logger.Error("search failed", zap.String("query", p.query), zap.Error(err))
		p.area.AppendNodes(errorMessage("Error fetching results."))
		return
	}
	if resp == nil {
		resp = &models.SearchResponse{}
	}
	c.render(p, resp)
}

// clear empties the result area.
func (c *Controller) clear() {
	c.doc.Forget(c.results.Children())
	c.results.Empty()
}
