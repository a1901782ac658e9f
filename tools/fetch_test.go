package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageFetcherExtractsTitle(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`<html><head><TITLE>  John Doe | Profile </TITLE></head><body><title>second title</title></body></html>`))
	}))
	defer srv.Close()

	title, err := NewPageFetcher().FetchTitle(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "John Doe | Profile", title)
}

func TestPageFetcherNoTitle(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><h1>no title here</h1></body></html>`))
	}))
	defer srv.Close()

	title, err := NewPageFetcher().FetchTitle(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Empty(t, title)
}

func TestPageFetcherErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewPageFetcher().FetchTitle(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestPageFetcherUnreachable(t *testing.T) {
	t.Parallel()

	_, err := NewPageFetcher().FetchTitle(context.Background(), "http://127.0.0.1:1/unreachable")
	assert.Error(t, err)
}
