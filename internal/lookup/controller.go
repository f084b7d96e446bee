// Package lookup is the result-aggregation and progressive-disclosure controller
// behind the glossary search page. It issues the primary search, renders each
// entry with a collapsed and an expanded view, and merges the frequency and
// common-pair data fetched independently per entry.
//
// A Controller owns one page.Document. Only the goroutine running Run touches
// it; network calls run on their own goroutines and hand their results back to
// that loop as closures.
package lookup

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/hyperjump/glossary/internal/models"
	"github.com/hyperjump/glossary/internal/page"
	"github.com/hyperjump/glossary/pkg/utils"
)

const (
	// DefaultPreviewLimit is the rune limit for titles and collapsed previews.
	DefaultPreviewLimit = 60
	// DefaultMaxInFlight bounds concurrent enrichment requests.
	DefaultMaxInFlight = 8

	resultsID = "results"
	queueSize = 64
)

// ErrStopped is returned when the controller's loop is not running any more.
var ErrStopped = errors.New("lookup: controller stopped")

// Backend is the set of endpoints the controller reads from.
// *client.Client implements it.
type Backend interface {
	Search(ctx context.Context, q string) (*models.SearchResponse, error)
	Frequency(ctx context.Context, q string) (*models.Frequency, error)
	Pairs(ctx context.Context, q string) ([]models.Pair, error)
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.logger = utils.OrNop(l) }
}

// WithPreviewLimit sets the truncation limit for titles and previews.
func WithPreviewLimit(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.previewLimit = n
		}
	}
}

// WithMaxInFlight bounds the number of enrichment requests running at once.
func WithMaxInFlight(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.maxInFlight = n
		}
	}
}

// Controller drives the lookup page.
type Controller struct {
	backend      Backend
	logger       *zap.Logger
	previewLimit int
	maxInFlight  int
	sem          *semaphore.Weighted

	// Loop-owned.
	doc     *page.Document
	results *goquery.Selection
	epoch   uint64
	pass    *pass

	events   chan func()
	done     chan struct{}
	running  atomic.Bool
	inflight tracker
}

// NewController builds a controller with an empty result area. Call Run before
// submitting queries.
func NewController(backend Backend, opts ...Option) *Controller {
	c := &Controller{
		backend:      backend,
		logger:       zap.NewNop(),
		previewLimit: DefaultPreviewLimit,
		maxInFlight:  DefaultMaxInFlight,
		events:       make(chan func(), queueSize),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.sem = semaphore.NewWeighted(int64(c.maxInFlight))

	c.doc = page.New()
	c.doc.Body().AppendNodes(page.El("div", page.Attrs("id", resultsID)))
	c.results = c.doc.ByID(resultsID)
	c.doc.AddEventListener(c.results, "click", c.onClick)
	return c
}

// Run processes queued work until ctx is done. It may be called once.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return errors.New("lookup: controller already running")
	}
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			if c.pass != nil {
				c.pass.cancel()
			}
			return nil
		case fn := <-c.events:
			fn()
		}
	}
}

// Submit starts a search for raw. Empty or whitespace-only input is ignored: no
// request is made and the document is left as it is.
func (c *Controller) Submit(raw string) {
	q, ok := models.NormalizeQuery(raw)
	if !ok {
		return
	}
	c.inflight.add()
	if !c.post(func() {
		defer c.inflight.done()
		c.dispatch(q)
	}) {
		c.inflight.done()
	}
}

// Wait blocks until every submitted search and its enrichment requests have
// settled, or ctx is done.
func (c *Controller) Wait(ctx context.Context) error {
	return c.inflight.wait(ctx)
}

// Toggle clicks the visible toggle control of entry i.
func (c *Controller) Toggle(ctx context.Context, i int) error {
	var err error
	if cerr := c.call(ctx, func() { err = c.clickToggle(i) }); cerr != nil {
		return cerr
	}
	return err
}

// Inspect runs fn on the loop with the document. fn must not keep the document.
func (c *Controller) Inspect(ctx context.Context, fn func(doc *page.Document)) error {
	return c.call(ctx, func() { fn(c.doc) })
}

// HTML renders the whole document.
func (c *Controller) HTML(ctx context.Context) (string, error) {
	var (
		out string
		err error
	)
	if cerr := c.call(ctx, func() { out, err = c.doc.HTML() }); cerr != nil {
		return "", cerr
	}
	return out, err
}

// ResultsHTML renders the contents of the result area.
func (c *Controller) ResultsHTML(ctx context.Context) (string, error) {
	var (
		out string
		err error
	)
	if cerr := c.call(ctx, func() { out, err = c.results.Html() }); cerr != nil {
		return "", cerr
	}
	return out, err
}

// post queues fn for the loop. It reports false once the loop has exited.
func (c *Controller) post(fn func()) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.events <- fn:
		return true
	case <-c.done:
		return false
	}
}

// call runs fn on the loop and waits for it.
func (c *Controller) call(ctx context.Context, fn func()) error {
	ran := make(chan struct{})
	if !c.post(func() {
		fn()
		close(ran)
	}) {
		return ErrStopped
	}
	select {
	case <-ran:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		select {
		case <-ran:
			return nil
		default:
			return ErrStopped
		}
	}
}

// deliver hands a completion for pass p back to the loop. Completions from a
// pass that is no longer current are dropped.
func (c *Controller) deliver(p *pass, fn func()) {
	posted := c.post(func() {
		defer c.inflight.done()
		if p.epoch != c.epoch {
			c.logger.Debug("discarding stale response",
				zap.Uint64("epoch", p.epoch),
				zap.Uint64("current_epoch", c.epoch),
			)
			return
		}
		fn()
	})
	if !posted {
		c.inflight.done()
	}
}

// tracker counts outstanding work and lets callers wait for it to drain.
type tracker struct {
	mu   sync.Mutex
	n    int
	idle chan struct{}
}

func (t *tracker) add() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.n == 0 {
		t.idle = make(chan struct{})
	}
	t.n++
}

func (t *tracker) done() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.n--
	if t.n == 0 {
		close(t.idle)
	}
}

func (t *tracker) wait(ctx context.Context) error {
	t.mu.Lock()
	idle := t.idle
	t.mu.Unlock()
	if idle == nil {
		return nil
	}
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
