package collyfetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/catalog-scraper/internal/crawler"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/category", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("X-Agent", r.UserAgent())
		_, _ = w.Write([]byte("<html><body>catalog</body></html>"))
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/category?page=2", http.StatusFound)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(500 * time.Millisecond)
		_, _ = w.Write([]byte("late"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchReturnsPage(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	f := New(Config{UserAgent: "catalog-test-agent", Timeout: 2 * time.Second}, nil)

	page, err := f.Fetch(context.Background(), srv.URL+"/category")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Equal(t, "<html><body>catalog</body></html>", string(page.Body))
	assert.Equal(t, srv.URL+"/category", page.URL)
	assert.Equal(t, srv.URL+"/category", page.FinalURL)
	assert.Equal(t, "catalog-test-agent", page.Headers.Get("X-Agent"))
}

func TestFetchRevisitsSameURL(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	f := New(Config{}, nil)

	for i := 0; i < 2; i++ {
		_, err := f.Fetch(context.Background(), srv.URL+"/category")
		require.NoError(t, err)
	}
}

func TestFetchRecordsFinalURLAfterRedirect(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	f := New(Config{}, nil)

	page, err := f.Fetch(context.Background(), srv.URL+"/moved")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/moved", page.URL)
	assert.Equal(t, srv.URL+"/category?page=2", page.FinalURL)
}

func TestFetchHTTPErrorIsFetchFailure(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	f := New(Config{}, nil)

	_, err := f.Fetch(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, crawler.ErrFetchFailure)
}

func TestFetchUnreachableHostIsFetchFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	f := New(Config{Timeout: time.Second}, nil)
	_, err := f.Fetch(context.Background(), addr+"/category")
	require.ErrorIs(t, err, crawler.ErrFetchFailure)
}

func TestFetchHonorsContext(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	f := New(Config{}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := f.Fetch(ctx, srv.URL+"/slow")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConfigureCollectorHooks(t *testing.T) {
	t.Parallel()

	f := New(Config{}, nil)
	hooks := &stubHooks{}
	outcome := &fetchOutcome{}
	f.configureCollectorHooks(hooks, "https://example.com/a", outcome)
	require.NotNil(t, hooks.onResponse)
	require.NotNil(t, hooks.onError)

	hooks.onResponse(&colly.Response{
		StatusCode: http.StatusOK,
		Body:       []byte("body"),
		Headers:    &http.Header{"X-Resp": {"ok"}},
		Request:    &colly.Request{URL: mustParseURL(t, "https://example.com/b")},
	})
	assert.Equal(t, "https://example.com/a", outcome.page.URL)
	assert.Equal(t, "https://example.com/b", outcome.page.FinalURL)
	assert.Equal(t, "ok", outcome.page.Headers.Get("X-Resp"))

	hooks.onError(&colly.Response{StatusCode: http.StatusBadGateway}, errors.New("Bad Gateway"))
	require.Error(t, outcome.err)
	assert.Contains(t, outcome.err.Error(), "status 502")

	hooks.onError(nil, nil)
	assert.EqualError(t, outcome.err, "unknown colly error")
}

func TestNewAppliesDefaults(t *testing.T) {
	t.Parallel()

	f := New(Config{UserAgent: "agent", MaxBodySize: 1024}, nil)
	assert.Equal(t, defaultTimeout, f.cfg.Timeout)
	c := f.buildCollector()
	assert.Equal(t, "agent", c.UserAgent)
	assert.True(t, c.AllowURLRevisit)
	assert.Equal(t, 1024, c.MaxBodySize)
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse url %q: %v", raw, err)
	}
	return u
}

type stubHooks struct {
	onResponse colly.ResponseCallback
	onError    colly.ErrorCallback
}

func (s *stubHooks) OnResponse(cb colly.ResponseCallback) {
	s.onResponse = cb
}

func (s *stubHooks) OnError(cb colly.ErrorCallback) {
	s.onError = cb
}
