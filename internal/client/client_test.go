package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL + "/")
}

func TestEscapeQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"umfula", "umfula"},
		{"umfula omkhulu", "umfula%20omkhulu"},
		{"a&b=c", "a%26b%3Dc"},
		{"ŋ", "%C5%8B"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EscapeQuery(tt.in), tt.in)
	}
}

func TestSearch(t *testing.T) {
	var rawQuery string
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, SearchPath, r.URL.Path)
		rawQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"results":[{"isiZulu":"umfula","English":"river","Page":"12"}]}`))
	})

	resp, err := c.Search(context.Background(), "umfula omkhulu")
	require.NoError(t, err)
	assert.Equal(t, "q=umfula%20omkhulu", rawQuery)
	require.Len(t, resp.Results, 1)
	e := resp.Results[0]
	require.NotNil(t, e.English)
	assert.Equal(t, "river", *e.English)
	assert.Nil(t, e.IsiXhosa, "absent field stays nil")
	assert.Empty(t, resp.DidYouMean)
}

func TestSearch_DidYouMean(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[],"did_you_mean":["umfula","umlambo"]}`))
	})
	resp, err := c.Search(context.Background(), "umful")
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Equal(t, []string{"umfula", "umlambo"}, resp.DidYouMean)
}

func TestSearch_Errors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		_, err := c.Search(context.Background(), "umfula")
		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, SearchPath, se.Endpoint)
		assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
	})
	t.Run("bad json", func(t *testing.T) {
		c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		})
		_, err := c.Search(context.Background(), "umfula")
		require.Error(t, err)
	})
	t.Run("transport", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()
		_, err := New(srv.URL).Search(context.Background(), "umfula")
		require.Error(t, err)
	})
}

func TestFrequency(t *testing.T) {
	tests := []struct {
		name string
		body string
		want *int
	}{
		{"count", `{"frequency":3}`, intPtr(3)},
		{"zero", `{"frequency":0}`, intPtr(0)},
		{"missing", `{}`, nil},
		{"null", `{"frequency":null}`, nil},
		{"string", `{"frequency":"3"}`, nil},
		{"negative", `{"frequency":-1}`, nil},
		{"fraction", `{"frequency":1.5}`, nil},
		{"array body", `[1,2]`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, FrequencyPath, r.URL.Path)
				_, _ = w.Write([]byte(tt.body))
			})
			f, err := c.Frequency(context.Background(), "umfula")
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Count)
		})
	}

	t.Run("invalid json", func(t *testing.T) {
		c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{`))
		})
		_, err := c.Frequency(context.Background(), "umfula")
		require.Error(t, err)
	})

	t.Run("error status with count body", func(t *testing.T) {
		c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"frequency":0}`))
		})
		f, err := c.Frequency(context.Background(), "umfula")
		var se *StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, FrequencyPath, se.Endpoint)
		assert.Nil(t, f)
	})
}

func TestPairs(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"list", `{"common_pairs":[{"pair":"umfula omkhulu","count":2},{"pair":"omkhulu umfula","count":1}]}`, 2},
		{"empty", `{"common_pairs":[]}`, 0},
		{"missing", `{}`, 0},
		{"wrong type", `{"common_pairs":"x"}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, PairsPath, r.URL.Path)
				_, _ = w.Write([]byte(tt.body))
			})
			pairs, err := c.Pairs(context.Background(), "umfula")
			require.NoError(t, err)
			require.NotNil(t, pairs)
			assert.Len(t, pairs, tt.want)
		})
	}

	t.Run("order kept", func(t *testing.T) {
		c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"common_pairs":[{"pair":"b c","count":1},{"pair":"a b","count":5}]}`))
		})
		pairs, err := c.Pairs(context.Background(), "b")
		require.NoError(t, err)
		require.Len(t, pairs, 2)
		assert.Equal(t, "b c", pairs[0].Pair)
		assert.Equal(t, 5, pairs[1].Count)
	})

	t.Run("status", func(t *testing.T) {
		c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		_, err := c.Pairs(context.Background(), "umfula")
		var se *StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, PairsPath, se.Endpoint)
	})
}

func TestWithTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c := New(srv.URL, WithTimeout(50*time.Millisecond))
	_, err := c.Search(context.Background(), "umfula")
	require.Error(t, err)
}

func TestWithRateLimit(t *testing.T) {
	var hits atomic.Int32
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{}`))
	})
	WithRateLimit(1)(c)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := c.Frequency(ctx, "a")
	require.NoError(t, err)
	_, err = c.Frequency(ctx, "b")
	require.Error(t, err, "second request has to wait about a second for a token")
	assert.Equal(t, int32(1), hits.Load())
}

func intPtr(n int) *int { return &n }
