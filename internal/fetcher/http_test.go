package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestFetcher() *HTTPFetcher {
	f := NewHTTPFetcher(HTTPOptions{
		UserAgent:   "test-agent",
		Timeout:     5 * time.Second,
		MaxAttempts: 1,
	})
	f.backoff = func(context.Context, int) {}
	return f
}

func TestPostForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.Equal(t, "application/x-www-form-urlencoded; charset=UTF-8", r.Header.Get("Content-Type"))
		assert.Equal(t, "XMLHttpRequest", r.Header.Get("X-Requested-With"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "2", r.PostForm.Get("pageNo"))
		assert.Equal(t, "서울특별시", r.PostForm.Get("selectBoxCity"))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	f := newTestFetcher()
	form := url.Values{"pageNo": {"2"}, "selectBoxCity": {"서울특별시"}}
	hdr := http.Header{"X-Requested-With": {"XMLHttpRequest"}}

	body, err := f.PostForm(context.Background(), srv.URL+"/list", form, hdr)
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(data))
}

func TestPostForm_DefaultHeaderOverridden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://ref.example/b", r.Header.Get("Referer"))
		assert.Len(t, r.Header.Values("Referer"), 1)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{
		Header: http.Header{"Referer": {"https://ref.example/a"}},
	})
	body, err := f.PostForm(context.Background(), srv.URL, url.Values{}, http.Header{"Referer": {"https://ref.example/b"}})
	require.NoError(t, err)
	body.Close()
}

func TestPostForm_Non2xx(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := newTestFetcher()
	_, err := f.PostForm(context.Background(), srv.URL+"/list", url.Values{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 503")
	// A single attempt: no automatic retry by default.
	assert.Equal(t, int32(1), attempts.Load())
}

func TestPostForm_RetryOnServerError(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "1", r.PostForm.Get("pageNo"))
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("success"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{MaxAttempts: 3})
	f.backoff = func(context.Context, int) {}

	body, err := f.PostForm(context.Background(), srv.URL, url.Values{"pageNo": {"1"}}, nil)
	require.NoError(t, err)
	defer body.Close()

	data, _ := io.ReadAll(body)
	assert.Equal(t, "success", string(data))
	assert.Equal(t, int32(3), attempts.Load())
}

func TestPostForm_RetryExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{MaxAttempts: 2})
	f.backoff = func(context.Context, int) {}

	_, err := f.PostForm(context.Background(), srv.URL, url.Values{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 attempts failed")
}

func TestPostForm_ClientErrorNotRetried(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{MaxAttempts: 3})
	f.backoff = func(context.Context, int) {}

	_, err := f.PostForm(context.Background(), srv.URL, url.Values{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 403")
	assert.Equal(t, int32(1), attempts.Load())
}

func TestPostForm_Pacing(t *testing.T) {
	var reqTimes []time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqTimes = append(reqTimes, time.Now())
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{Delay: 100 * time.Millisecond})

	ctx := context.Background()
	for range 3 {
		body, err := f.PostForm(ctx, srv.URL, url.Values{}, nil)
		require.NoError(t, err)
		body.Close()
	}

	// Three requests with a 100ms spacing span at least ~200ms.
	require.Len(t, reqTimes, 3)
	duration := reqTimes[2].Sub(reqTimes[0])
	assert.GreaterOrEqual(t, duration.Milliseconds(), int64(180), "requests should be paced")
}

func TestPostForm_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := newTestFetcher()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.PostForm(ctx, srv.URL, url.Values{}, nil)
	require.Error(t, err)
}

func TestNewPacer(t *testing.T) {
	assert.Equal(t, rate.Inf, NewPacer(0).Limit())
	assert.InDelta(t, 5.0, float64(NewPacer(200*time.Millisecond).Limit()), 0.001)
}

func TestNewHTTPFetcher_Defaults(t *testing.T) {
	f := NewHTTPFetcher(HTTPOptions{})
	assert.Equal(t, "bluehands/1.0", f.opts.UserAgent)
	assert.Equal(t, 30*time.Second, f.opts.Timeout)
	assert.Equal(t, 1, f.opts.MaxAttempts)
}

func TestStatusError(t *testing.T) {
	err := &StatusError{StatusCode: 404, URL: "http://x/y"}
	assert.Equal(t, "unexpected status 404 from http://x/y", err.Error())
}
