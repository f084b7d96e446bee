package lookup

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hyperjump/glossary/internal/models"
	"github.com/hyperjump/glossary/internal/page"
)

type fakeBackend struct {
	mu    sync.Mutex
	calls map[string][]string

	search    func(q string) (*models.SearchResponse, error)
	frequency func(ctx context.Context, q string) (*models.Frequency, error)
	pairs     func(ctx context.Context, q string) ([]models.Pair, error)
}

func (f *fakeBackend) record(endpoint, q string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string][]string)
	}
	f.calls[endpoint] = append(f.calls[endpoint], q)
}

func (f *fakeBackend) Calls(endpoint string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls[endpoint]...)
}

func (f *fakeBackend) Search(_ context.Context, q string) (*models.SearchResponse, error) {
	f.record("search", q)
	if f.search == nil {
		return &models.SearchResponse{}, nil
	}
	return f.search(q)
}

func (f *fakeBackend) Frequency(ctx context.Context, q string) (*models.Frequency, error) {
	f.record("frequency", q)
	if f.frequency == nil {
		return &models.Frequency{}, nil
	}
	return f.frequency(ctx, q)
}

func (f *fakeBackend) Pairs(ctx context.Context, q string) ([]models.Pair, error) {
	f.record("pairs", q)
	if f.pairs == nil {
		return []models.Pair{}, nil
	}
	return f.pairs(ctx, q)
}

func entry(zu, en string) *models.Entry {
	return &models.Entry{IsiZulu: models.StringPtr(zu), English: models.StringPtr(en)}
}

func results(entries ...*models.Entry) func(string) (*models.SearchResponse, error) {
	return func(string) (*models.SearchResponse, error) {
		return &models.SearchResponse{Results: entries}, nil
	}
}

func count(n int) *models.Frequency {
	return &models.Frequency{Count: &n}
}

func start(t *testing.T, b Backend, opts ...Option) *Controller {
	t.Helper()
	opts = append([]Option{WithLogger(zap.NewNop())}, opts...)
	c := NewController(b, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- c.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-errc
	})
	return c
}

func settle(t *testing.T, c *Controller) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Wait(ctx))
}

func inspect(t *testing.T, c *Controller, fn func(doc *page.Document)) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Inspect(ctx, fn))
}

func outer(t *testing.T, sel *goquery.Selection) string {
	t.Helper()
	s, err := goquery.OuterHtml(sel)
	require.NoError(t, err)
	return s
}

func TestSubmit_EmptyInputIsNoop(t *testing.T) {
	b := &fakeBackend{}
	c := start(t, b)

	before, err := c.HTML(context.Background())
	require.NoError(t, err)

	for _, raw := range []string{"", "   ", "\t\n"} {
		c.Submit(raw)
	}
	settle(t, c)

	after, err := c.HTML(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Empty(t, b.Calls("search"))
}

func TestSubmit_Umfula(t *testing.T) {
	b := &fakeBackend{
		search: results(&models.Entry{
			IsiZulu:  models.StringPtr("umfula"),
			English:  models.StringPtr("river"),
			IsiXhosa: models.StringPtr("umlambo"),
			SiSwati:  models.StringPtr("umfula"),
			Context:  models.StringPtr("geography"),
			Page:     models.StringPtr("12"),
		}),
		frequency: func(context.Context, string) (*models.Frequency, error) { return count(3), nil },
		pairs: func(context.Context, string) ([]models.Pair, error) {
			return []models.Pair{{Pair: "umfula omkhulu", Count: 2}}, nil
		},
	}
	c := start(t, b)
	c.Submit("  umfula ")
	settle(t, c)

	assert.Equal(t, []string{"umfula"}, b.Calls("search"))
	assert.Equal(t, []string{"umfula"}, b.Calls("frequency"))
	assert.Equal(t, []string{"umfula"}, b.Calls("pairs"))

	inspect(t, c, func(doc *page.Document) {
		items := doc.Find("#results .result-item")
		require.Equal(t, 1, items.Length())
		assert.Equal(t, "river", items.Find("h3").Text())

		previews := items.ChildrenFiltered("p")
		require.Equal(t, 4, previews.Length())
		assert.Equal(t, "isiZulu: umfula", previews.Eq(0).Text())
		assert.Equal(t, "English: river", previews.Eq(1).Text())
		assert.Equal(t, "isiXhosa: umlambo", previews.Eq(2).Text())
		assert.Equal(t, "siSwati: umfula", previews.Eq(3).Text())

		assert.True(t, page.Hidden(doc.ByID("full-0")), "expanded view starts hidden")
		assert.Contains(t, doc.ByID("full-0").Text(), "Context: geography")
		assert.Contains(t, doc.ByID("full-0").Text(), "Page: 12")

		slot := doc.ByID("extra-0")
		assert.Contains(t, slot.Text(), "Frequency: 3")
		assert.Equal(t, "umfula omkhulu (2)", slot.Find("li").Text())
		assert.Zero(t, slot.Find(".enrich-error").Length())
	})
}

func TestRender_EntriesInResponseOrder(t *testing.T) {
	b := &fakeBackend{search: results(
		entry("a", "first"),
		entry("b", "second"),
		entry("c", "third"),
	)}
	c := start(t, b)
	c.Submit("x")
	settle(t, c)

	inspect(t, c, func(doc *page.Document) {
		items := doc.Find("#results > .result-item")
		require.Equal(t, 3, items.Length())
		items.Each(func(i int, s *goquery.Selection) {
			assert.Equal(t, []string{"result-0", "result-1", "result-2"}[i], s.AttrOr("id", ""))
			assert.Equal(t, []string{"first", "second", "third"}[i], s.Find("h3").Text())
			assert.True(t, page.Hidden(s.Find(".full-view")), "entry %d collapsed", i)
			assert.False(t, page.Hidden(s.ChildrenFiltered(".toggle-btn")), "entry %d expand control visible", i)
		})
	})
	assert.ElementsMatch(t, []string{"a", "b", "c"}, b.Calls("frequency"))
	assert.ElementsMatch(t, []string{"a", "b", "c"}, b.Calls("pairs"))
}

func TestRender_TruncationAndAbsentFields(t *testing.T) {
	long := strings.Repeat("w", 61)
	exact := strings.Repeat("z", 60)
	b := &fakeBackend{search: results(
		&models.Entry{IsiZulu: models.StringPtr(exact), English: models.StringPtr(long)},
		&models.Entry{IsiZulu: models.StringPtr("x")},
	)}
	c := start(t, b)
	c.Submit("x")
	settle(t, c)

	inspect(t, c, func(doc *page.Document) {
		first := doc.ByID("result-0")
		assert.Equal(t, strings.Repeat("w", 60)+"...", first.Find("h3").Text())
		previews := first.ChildrenFiltered("p")
		assert.Equal(t, "isiZulu: "+exact, previews.Eq(0).Text())
		assert.Equal(t, "English: "+strings.Repeat("w", 60)+"...", previews.Eq(1).Text())
		assert.Equal(t, "isiXhosa: ", previews.Eq(2).Text(), "absent previews are empty")

		full := doc.ByID("full-0").ChildrenFiltered("p")
		assert.Equal(t, "English: "+long, full.Eq(1).Text(), "full view is not truncated")
		assert.Equal(t, "isiXhosa: -", full.Eq(2).Text())
		assert.Equal(t, "Context: -", full.Eq(4).Text())
		assert.Equal(t, "Page: -", full.Eq(5).Text())

		assert.Equal(t, untitled, doc.ByID("result-1").Find("h3").Text())
	})
}

func TestRender_WhitespaceValuesKeptInFullView(t *testing.T) {
	b := &fakeBackend{search: results(&models.Entry{
		IsiZulu: models.StringPtr("inja"),
		English: models.StringPtr("dog"),
		SiSwati: models.StringPtr("   "),
		Context: models.StringPtr(""),
	})}
	c := start(t, b)
	c.Submit("inja")
	settle(t, c)

	inspect(t, c, func(doc *page.Document) {
		full := doc.ByID("full-0").ChildrenFiltered("p")
		assert.Equal(t, "siSwati:    ", full.Eq(3).Text())
		assert.Equal(t, "Context: -", full.Eq(4).Text())
	})
}

func TestRender_FileLink(t *testing.T) {
	e := entry("umfula", "river")
	e.FilePath = models.StringPtr("uploads/abc_river.pdf")
	b := &fakeBackend{search: results(e, entry("amanzi", "water"))}
	c := start(t, b)
	c.Submit("x")
	settle(t, c)

	inspect(t, c, func(doc *page.Document) {
		link := doc.ByID("full-0").Find("a")
		require.Equal(t, 1, link.Length())
		assert.Equal(t, "uploads/abc_river.pdf", link.AttrOr("href", ""))
		assert.Equal(t, "_blank", link.AttrOr("target", ""))
		assert.Equal(t, "View File", link.Text())
		assert.Zero(t, doc.ByID("full-1").Find("a").Length())
	})
}

func TestRender_DidYouMean(t *testing.T) {
	b := &fakeBackend{search: func(string) (*models.SearchResponse, error) {
		return &models.SearchResponse{Results: []*models.Entry{}, DidYouMean: []string{"umfula", "umlambo"}}, nil
	}}
	c := start(t, b)
	c.Submit("umfl")
	settle(t, c)

	inspect(t, c, func(doc *page.Document) {
		msg := doc.Find("#results > p")
		require.Equal(t, 1, msg.Length())
		assert.Equal(t, "No exact results found. Did you mean: umfula, umlambo?", msg.Text())
		assert.Equal(t, "umfula, umlambo", msg.Find("strong").Text())
	})
	assert.Empty(t, b.Calls("frequency"))
	assert.Empty(t, b.Calls("pairs"))
}

func TestRender_NoResults(t *testing.T) {
	c := start(t, &fakeBackend{})
	c.Submit("nothing")
	settle(t, c)

	html, err := c.ResultsHTML(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "<p>No results found.</p>", html)
}

func TestSubmit_SearchFailure(t *testing.T) {
	b := &fakeBackend{search: func(string) (*models.SearchResponse, error) {
		return nil, errors.New("connection refused")
	}}
	c := start(t, b)
	c.Submit("umfula")
	settle(t, c)

	inspect(t, c, func(doc *page.Document) {
		assert.Zero(t, doc.Find(".result-item").Length())
		assert.Equal(t, "Error fetching results.", doc.Find("#results").Text())
	})
	assert.Empty(t, b.Calls("frequency"))
}

func TestSubmit_LoadingPlaceholder(t *testing.T) {
	release := make(chan struct{})
	b := &fakeBackend{search: func(string) (*models.SearchResponse, error) {
		<-release
		return &models.SearchResponse{}, nil
	}}
	c := start(t, b)
	c.Submit("umfula")

	assert.Eventually(t, func() bool {
		html, err := c.ResultsHTML(context.Background())
		return err == nil && html == "<p>Loading...</p>"
	}, 2*time.Second, 5*time.Millisecond)

	close(release)
	settle(t, c)
	html, err := c.ResultsHTML(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "<p>No results found.</p>", html)
}

func TestEnrich_FrequencyWithoutCount(t *testing.T) {
	b := &fakeBackend{
		search: results(entry("umfula", "river")),
		frequency: func(context.Context, string) (*models.Frequency, error) {
			return &models.Frequency{}, nil
		},
	}
	c := start(t, b)
	c.Submit("umfula")
	settle(t, c)

	inspect(t, c, func(doc *page.Document) {
		slot := doc.ByID("extra-0")
		assert.Contains(t, slot.Text(), "Frequency: 0 (None found)")
		assert.Contains(t, slot.Text(), "Common pairs: None found")
		assert.Zero(t, slot.Find(".enrich-error").Length())
	})
}

func TestEnrich_FailuresAreIndependent(t *testing.T) {
	b := &fakeBackend{
		search: results(entry("a", "first"), entry("b", "second")),
		frequency: func(_ context.Context, q string) (*models.Frequency, error) {
			if q == "a" {
				return nil, errors.New("boom")
			}
			return count(7), nil
		},
		pairs: func(_ context.Context, q string) ([]models.Pair, error) {
			return []models.Pair{{Pair: q + " x", Count: 1}}, nil
		},
	}
	c := start(t, b)
	c.Submit("q")
	settle(t, c)

	inspect(t, c, func(doc *page.Document) {
		failed := doc.ByID("extra-0")
		errs := failed.Find(".enrich-error")
		require.Equal(t, 1, errs.Length())
		assert.Equal(t, "Error loading frequency", errs.Text())
		assert.Equal(t, "a x (1)", failed.Find("li").Text())
		assert.NotContains(t, failed.Text(), "Frequency:")

		ok := doc.ByID("extra-1")
		assert.Zero(t, ok.Find(".enrich-error").Length())
		assert.Contains(t, ok.Text(), "Frequency: 7")
		assert.Equal(t, "b x (1)", ok.Find("li").Text())
	})
}

func TestEnrich_PairsFailure(t *testing.T) {
	b := &fakeBackend{
		search:    results(entry("a", "first")),
		frequency: func(context.Context, string) (*models.Frequency, error) { return count(2), nil },
		pairs: func(context.Context, string) ([]models.Pair, error) {
			return nil, errors.New("bad gateway")
		},
	}
	c := start(t, b)
	c.Submit("a")
	settle(t, c)

	inspect(t, c, func(doc *page.Document) {
		slot := doc.ByID("extra-0")
		assert.Equal(t, "Error loading pairs", slot.Find(".enrich-error").Text())
		assert.Contains(t, slot.Text(), "Frequency: 2")
	})
}

func TestEnrich_PairsKeepReturnedOrder(t *testing.T) {
	b := &fakeBackend{
		search: results(entry("a", "first")),
		pairs: func(context.Context, string) ([]models.Pair, error) {
			return []models.Pair{{Pair: "z a", Count: 1}, {Pair: "a b", Count: 9}}, nil
		},
	}
	c := start(t, b)
	c.Submit("a")
	settle(t, c)

	inspect(t, c, func(doc *page.Document) {
		items := doc.ByID("extra-0").Find("li")
		require.Equal(t, 2, items.Length())
		assert.Equal(t, "z a (1)", items.Eq(0).Text())
		assert.Equal(t, "a b (9)", items.Eq(1).Text())
	})
}

func TestEnrich_BoundedInFlight(t *testing.T) {
	var running, peak atomic.Int32
	track := func() {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
	}
	b := &fakeBackend{
		search: results(entry("a", "1"), entry("b", "2"), entry("c", "3"), entry("d", "4")),
		frequency: func(context.Context, string) (*models.Frequency, error) {
			track()
			return count(1), nil
		},
		pairs: func(context.Context, string) ([]models.Pair, error) {
			track()
			return nil, nil
		},
	}
	c := start(t, b, WithMaxInFlight(2))
	c.Submit("x")
	settle(t, c)

	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Len(t, b.Calls("frequency"), 4)
	assert.Len(t, b.Calls("pairs"), 4)
}

func TestEpochGuard_DropsStaleEnrichment(t *testing.T) {
	release := make(chan struct{})
	blocked := make(chan struct{}, 1)
	b := &fakeBackend{
		search: func(q string) (*models.SearchResponse, error) {
			return &models.SearchResponse{Results: []*models.Entry{entry(q, q+" meaning")}}, nil
		},
		frequency: func(_ context.Context, q string) (*models.Frequency, error) {
			if q == "old" {
				blocked <- struct{}{}
				<-release
				return count(99), nil
			}
			return count(1), nil
		},
	}
	c := start(t, b)

	c.Submit("old")
	select {
	case <-blocked:
	case <-time.After(5 * time.Second):
		t.Fatal("old frequency request never started")
	}

	c.Submit("new")
	require.Eventually(t, func() bool {
		var done bool
		_ = c.Inspect(context.Background(), func(doc *page.Document) {
			slot := doc.ByID("extra-0")
			done = strings.Contains(slot.Text(), "Frequency: 1") && strings.Contains(slot.Text(), "Common pairs")
		})
		return done
	}, 5*time.Second, 5*time.Millisecond)

	close(release)
	settle(t, c)

	inspect(t, c, func(doc *page.Document) {
		items := doc.Find(".result-item")
		require.Equal(t, 1, items.Length())
		assert.Equal(t, "new meaning", items.Find("h3").Text())
		assert.NotContains(t, doc.Find("#results").Text(), "99")
		assert.Equal(t, 1, strings.Count(doc.ByID("extra-0").Text(), "Frequency:"))
	})
}

func TestEpochGuard_DropsStaleSearch(t *testing.T) {
	release := make(chan struct{})
	b := &fakeBackend{search: func(q string) (*models.SearchResponse, error) {
		if q == "slow" {
			<-release
		}
		return &models.SearchResponse{Results: []*models.Entry{entry(q, q)}}, nil
	}}
	c := start(t, b)

	c.Submit("slow")
	c.Submit("fast")
	require.Eventually(t, func() bool {
		html, err := c.ResultsHTML(context.Background())
		return err == nil && strings.Contains(html, "<h3>fast</h3>")
	}, 5*time.Second, 5*time.Millisecond)

	close(release)
	settle(t, c)

	inspect(t, c, func(doc *page.Document) {
		items := doc.Find(".result-item")
		require.Equal(t, 1, items.Length())
		assert.Equal(t, "fast", items.Find("h3").Text())
	})
	assert.Equal(t, []string{"fast"}, b.Calls("frequency"))
}

func TestToggle_IdempotentAndIsolated(t *testing.T) {
	b := &fakeBackend{
		search:    results(entry("a", "first"), entry("b", "second")),
		frequency: func(context.Context, string) (*models.Frequency, error) { return count(1), nil },
	}
	c := start(t, b)
	c.Submit("x")
	settle(t, c)

	var first0, first1 string
	inspect(t, c, func(doc *page.Document) {
		first0 = outer(t, doc.ByID("result-0"))
		first1 = outer(t, doc.ByID("result-1"))
	})

	ctx := context.Background()
	require.NoError(t, c.Toggle(ctx, 0))
	inspect(t, c, func(doc *page.Document) {
		item := doc.ByID("result-0")
		assert.False(t, page.Hidden(doc.ByID("full-0")), "expanded view shown")
		assert.True(t, page.Hidden(item.ChildrenFiltered(`.toggle-btn[data-action="expand"]`)), "expand control hidden")
		assert.Equal(t, first1, outer(t, doc.ByID("result-1")), "other entry untouched")
	})

	require.NoError(t, c.Toggle(ctx, 0))
	inspect(t, c, func(doc *page.Document) {
		assert.Equal(t, first0, outer(t, doc.ByID("result-0")), "two toggles restore the initial markup")
		assert.Equal(t, first1, outer(t, doc.ByID("result-1")))
	})

	assert.Error(t, c.Toggle(ctx, 5))
}

func TestToggle_ClickOutsideControlIgnored(t *testing.T) {
	c := start(t, &fakeBackend{search: results(entry("a", "first"))})
	c.Submit("x")
	settle(t, c)

	inspect(t, c, func(doc *page.Document) {
		before := outer(t, doc.ByID("result-0"))
		require.NoError(t, doc.Click("#result-0 h3"))
		assert.Equal(t, before, outer(t, doc.ByID("result-0")))

		require.NoError(t, doc.Click(`#result-0 .toggle-btn[data-action="expand"]`))
		assert.False(t, page.Hidden(doc.ByID("full-0")))
	})
}

func TestClickListenerBoundOnce(t *testing.T) {
	c := start(t, &fakeBackend{search: results(entry("a", "first"), entry("b", "second"))})
	for _, q := range []string{"one", "two", "three"} {
		c.Submit(q)
		settle(t, c)
	}
	inspect(t, c, func(doc *page.Document) {
		assert.Equal(t, 1, doc.ListenerCount("click"))
		assert.Equal(t, 2, doc.Find(".result-item").Length(), "previous passes are cleared")
	})
}

func TestDisclosureString(t *testing.T) {
	assert.Equal(t, "collapsed", Collapsed.String())
	assert.Equal(t, "expanded", Expanded.String())
	assert.Equal(t, "Disclosure(7)", Disclosure(7).String())
}

func TestStoppedController(t *testing.T) {
	c := NewController(&fakeBackend{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, c.Run(ctx))
	require.Error(t, c.Run(context.Background()), "second Run is rejected")

	_, err := c.HTML(context.Background())
	assert.ErrorIs(t, err, ErrStopped)

	c.Submit("umfula")
	require.NoError(t, c.Wait(context.Background()))
}

func TestSnapshot(t *testing.T) {
	b := &fakeBackend{search: results(entry("umfula", "river"), entry("amanzi", "water"))}
	html, err := Snapshot(context.Background(), b, "umfula", []int{1})
	require.NoError(t, err)

	doc, err := page.Parse(strings.NewReader(html))
	require.NoError(t, err)
	assert.True(t, page.Hidden(doc.ByID("full-0")))
	assert.False(t, page.Hidden(doc.ByID("full-1")))
	assert.Contains(t, doc.ByID("extra-0").Text(), "Frequency: 0 (None found)")

	_, err = Snapshot(context.Background(), b, "umfula", []int{9})
	assert.Error(t, err)
}
