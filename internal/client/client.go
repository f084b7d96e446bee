// Package client talks to the glossary backend over HTTP: /search, /frequency and /pairs.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hyperjump/glossary/internal/models"
	"github.com/hyperjump/glossary/pkg/utils"
)

// Endpoint paths.
const (
	SearchPath    = "/search"
	FrequencyPath = "/frequency"
	PairsPath     = "/pairs"
)

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Endpoint, e.StatusCode)
}

// Client is a typed GET client for the glossary endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds every request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRateLimit limits outgoing requests to rps per second. Zero or less means unlimited.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = utils.OrNop(l) }
}

// New creates a client for the backend at baseURL (e.g. "http://localhost:8080").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EscapeQuery escapes q the way browsers' encodeURIComponent does for query
// values: spaces become %20 rather than '+'.
func EscapeQuery(q string) string {
	return strings.ReplaceAll(url.QueryEscape(q), "+", "%20")
}

// get issues GET endpoint?q=<q> and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, endpoint, q string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s: rate limit: %w", endpoint, err)
		}
	}
	reqURL := c.baseURL + endpoint + "?q=" + EscapeQuery(q)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", endpoint, err)
	}
	c.logger.Debug("backend response",
		zap.String("endpoint", endpoint),
		zap.String("q", q),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}
	return body, nil
}

// Search fetches the entries matching q.
func (c *Client) Search(ctx context.Context, q string) (*models.SearchResponse, error) {
	body, err := c.get(ctx, SearchPath, q)
	if err != nil {
		return nil, err
	}
	var resp models.SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%s: decode json: %w", SearchPath, err)
	}
	return &resp, nil
}

// Frequency fetches the usage count of q. A body without a usable non-negative
// integer count yields Frequency{Count: nil}; only invalid JSON is an error.
func (c *Client) Frequency(ctx context.Context, q string) (*models.Frequency, error) {
	body, err := c.get(ctx, FrequencyPath, q)
	if err != nil {
		return nil, err
	}
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%s: decode json: %w", FrequencyPath, err)
	}
	return &models.Frequency{Count: countField(raw)}, nil
}

func countField(raw any) *int {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	v, ok := obj["frequency"].(float64)
	if !ok || v < 0 || v != float64(int(v)) {
		return nil
	}
	n := int(v)
	return &n
}

// Pairs fetches the common word pairs for q. A missing or malformed list yields
// no pairs; only invalid JSON is an error.
func (c *Client) Pairs(ctx context.Context, q string) ([]models.Pair, error) {
	body, err := c.get(ctx, PairsPath, q)
	if err != nil {
		return nil, err
	}
	var raw struct {
		CommonPairs json.RawMessage `json:"common_pairs"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		if _, syntax := err.(*json.SyntaxError); syntax {
			return nil, fmt.Errorf("%s: decode json: %w", PairsPath, err)
		}
		return []models.Pair{}, nil
	}
	var pairs []models.Pair
	if len(raw.CommonPairs) == 0 || json.Unmarshal(raw.CommonPairs, &pairs) != nil || pairs == nil {
		return []models.Pair{}, nil
	}
	return pairs, nil
}
