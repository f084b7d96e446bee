package lookup

import (
	"context"
	"strconv"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/hyperjump/glossary/internal/models"
	"github.com/hyperjump/glossary/internal/page"
)

const (
	kindFrequency = "frequency"
	kindPairs     = "pairs"
)

// Outcome is the result of one enrichment request.
type Outcome[T any] struct {
	Value T
	Err   error
}

// enrich issues the frequency and pairs requests for entry i. Each one merges
// into the entry's slot on its own, in whatever order they finish.
func (c *Controller) enrich(p *pass, i int, key string) {
	slot := p.slots[i]
	spawn(c, p, func(ctx context.Context) (*models.Frequency, error) {
		return c.backend.Frequency(ctx, key)
	}, func(out Outcome[*models.Frequency]) {
		c.reduce(slot, key, kindFrequency, out.Err, func() []*html.Node {
			return frequencyNodes(out.Value)
		})
	})
	spawn(c, p, func(ctx context.Context) ([]models.Pair, error) {
		return c.backend.Pairs(ctx, key)
	}, func(out Outcome[[]models.Pair]) {
		c.reduce(slot, key, kindPairs, out.Err, func() []*html.Node {
			return pairsNodes(out.Value)
		})
	})
}

// spawn runs fetch under the enrichment semaphore and delivers its outcome to
// apply on the loop.
func spawn[T any](c *Controller, p *pass, fetch func(context.Context) (T, error), apply func(Outcome[T])) {
	c.inflight.add()
	go func() {
		var out Outcome[T]
		if err := c.sem.Acquire(p.ctx, 1); err != nil {
			out.Err = err
		} else {
			out.Value, out.Err = fetch(p.ctx)
			c.sem.Release(1)
		}
		c.deliver(p, func() { apply(out) })
	}()
}

// reduce appends one outcome to a slot. It never removes what is already there.
func (c *Controller) reduce(slot *goquery.Selection, key, kind string, err error, nodes func() []*html.Node) {
	if err != nil {
		c.logger.Warn("enrichment failed",
			zap.String("key", key),
			zap.String("kind", kind),
			zap.Error(err),
		)
		slot.AppendNodes(page.El("p", page.Attrs("class", "enrich-error", "style", "color:red;"),
			page.El("strong", nil, page.Text("Error loading "+kind)),
		))
		return
	}
	slot.AppendNodes(nodes()...)
}

func frequencyNodes(f *models.Frequency) []*html.Node {
	value := "0 (None found)"
	if f != nil && f.Count != nil {
		value = strconv.Itoa(*f.Count)
	}
	return []*html.Node{line("Frequency", value)}
}

func pairsNodes(pairs []models.Pair) []*html.Node {
	if len(pairs) == 0 {
		return []*html.Node{line("Common pairs", "None found")}
	}
	list := page.El("ul", nil)
	for _, p := range pairs {
		list.AppendChild(page.El("li", nil, page.Text(p.Pair+" ("+strconv.Itoa(p.Count)+")")))
	}
	label := page.El("p", nil, page.El("strong", nil, page.Text("Common pairs:")))
	return []*html.Node{label, list}
}
