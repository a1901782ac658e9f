package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchResponse = `<html><body>
<div class="result">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fjohn&rut=abc">John Doe - Profile</a>
  <a class="result__snippet">Software engineer in Springfield.</a>
</div>
<div class="result">
  <a class="result__a" href="https://other.example/doe">Doe, John</a>
  <a class="result__snippet">Another John.</a>
</div>
<div class="result">
  <a class="result__a" href="https://third.example/john">Third John</a>
  <a class="result__snippet">Yet another.</a>
</div>
</body></html>`

func TestDuckDuckGoSearchParsesResults(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "John Doe", r.Form.Get("q"))
		_, _ = w.Write([]byte(searchResponse))
	}))
	defer srv.Close()

	search := NewDuckDuckGoSearch(WithSearchBaseURL(srv.URL))
	results, err := search.Search(context.Background(), "John Doe", 5)

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "John Doe - Profile", results[0].Title)
	assert.Equal(t, "https://example.com/john", results[0].URL)
	assert.Equal(t, "Software engineer in Springfield.", results[0].Body)
	assert.Equal(t, "https://other.example/doe", results[1].URL)
}

func TestDuckDuckGoSearchHonorsMaxResults(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(searchResponse))
	}))
	defer srv.Close()

	search := NewDuckDuckGoSearch(WithSearchBaseURL(srv.URL))
	results, err := search.Search(context.Background(), "John Doe", 2)

	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestDuckDuckGoSearchErrorOnBadStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	search := NewDuckDuckGoSearch(WithSearchBaseURL(srv.URL))
	_, err := search.Search(context.Background(), "John Doe", 5)
	assert.Error(t, err)
}

func TestResolveRedirect(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://example.com/john",
		resolveRedirect("//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fjohn&rut=abc"))
	assert.Equal(t, "https://plain.example/x", resolveRedirect("https://plain.example/x"))
	assert.Equal(t, "https://no-scheme.example/y", resolveRedirect("//no-scheme.example/y"))
}
