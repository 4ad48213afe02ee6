package http_test

import (
	"context"
	"encoding/json"
	"errors"
	gohttp "net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alan-mat/webanswer/internal/http"
)

func TestRequestDecodesJSON(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		assert.Equal(t, "/v1/search", r.URL.Path)
		assert.Equal(t, "paris", r.URL.Query().Get("q"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "general", payload["topic"])

		w.Write([]byte(`{"results":[{"url":"https://a.example"}]}`))
	}))
	defer srv.Close()

	c := http.NewClient(srv.URL+"/v1", http.WithApiKey("secret"))
	resp, err := c.Request(context.Background(), http.MethodPost, "/search",
		url.Values{"q": {"paris"}}, map[string]any{"topic": "general"})
	require.NoError(t, err)
	assert.Len(t, resp["results"], 1)
}

func TestGetAbsoluteURL(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		assert.Equal(t, gohttp.MethodGet, r.Method)
		assert.Equal(t, "webanswer-test", r.Header.Get("User-Agent"))
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte("<p>hello</p>"))
	}))
	defer srv.Close()

	c := http.NewClient("", http.WithUserAgent("webanswer-test"))
	body, err := c.Get(context.Background(), srv.URL+"/page")
	require.NoError(t, err)
	assert.Equal(t, "<p>hello</p>", string(body))
}

func TestGetPageReturnsContentType(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		w.Header().Set("Content-Type", "text/html; charset=koi8-r")
		w.Write([]byte("<p>hi</p>"))
	}))
	defer srv.Close()

	c := http.NewClient("")
	body, contentType, err := c.GetPage(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>", string(body))
	assert.Equal(t, "text/html; charset=koi8-r", contentType)
}

func TestNonSuccessStatusIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		calls.Add(1)
		w.WriteHeader(gohttp.StatusServiceUnavailable)
		w.Write([]byte(strings.Repeat("x", 2048)))
	}))
	defer srv.Close()

	c := http.NewClient(srv.URL)
	_, err := c.Get(context.Background(), "/")
	require.Error(t, err)

	var statusErr *http.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, gohttp.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Len(t, statusErr.Body, 512)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := http.NewClient(srv.URL, http.WithTimeout(20*time.Millisecond))
	_, err := c.Get(context.Background(), "/")
	require.Error(t, err)
}

func TestMaxBodyBytes(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		w.Write([]byte("0123456789"))
	}))
	defer srv.Close()

	c := http.NewClient(srv.URL, http.WithMaxBodyBytes(4))
	body, err := c.Get(context.Background(), "/")
	require.NoError(t, err)
	assert.Equal(t, "0123", string(body))
}
