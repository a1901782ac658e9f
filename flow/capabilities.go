package flow

import "context"

// SearchResult is a raw hit returned by a search capability, before
// deduplication into a Candidate.
type SearchResult struct {
	Title string
	URL   string
	Body  string
}

// Searcher is the web-search capability. Implementations should return an
// empty slice rather than partial garbage on failure; the workflow tolerates
// both an error and an empty result for any individual query.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

// Fetcher is the page-fetch capability used to enrich a confirmed candidate.
// FetchTitle returns the page title, or an empty string when none was found.
type Fetcher interface {
	FetchTitle(ctx context.Context, url string) (string, error)
}

// Generator is the text-generation capability. Implementations are expected
// to degrade to a deterministic fallback rather than fail when the
// underlying provider is unreachable; the workflow additionally applies
// FallbackReport if an error does come back.
type Generator interface {
	GenerateText(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// SearcherFunc adapts a function to the Searcher interface.
type SearcherFunc func(ctx context.Context, query string, maxResults int) ([]SearchResult, error)

// Search calls f.
func (f SearcherFunc) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	return f(ctx, query, maxResults)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) (string, error)

// FetchTitle calls f.
func (f FetcherFunc) FetchTitle(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string, maxTokens int) (string, error)

// GenerateText calls f.
func (f GeneratorFunc) GenerateText(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return f(ctx, prompt, maxTokens)
}
