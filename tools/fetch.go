package tools

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/smallnest/search4people/flow"
)

// userAgent is sent with every outgoing request.
const userAgent = "Mozilla/5.0 (compatible; Search4People/1.0)"

// PageFetcher fetches a candidate's page and extracts its title.
type PageFetcher struct {
	UserAgent string
	client    *http.Client
}

var _ flow.Fetcher = (*PageFetcher)(nil)

// FetchOption configures a PageFetcher.
type FetchOption func(*PageFetcher)

// WithFetchTimeout sets the HTTP timeout for one fetch.
func WithFetchTimeout(timeout time.Duration) FetchOption {
	return func(f *PageFetcher) {
		f.client.Timeout = timeout
	}
}

// NewPageFetcher creates a new page fetcher.
func NewPageFetcher(opts ...FetchOption) *PageFetcher {
	f := &PageFetcher{
		UserAgent: userAgent,
		client:    &http.Client{Timeout: 8 * time.Second},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchTitle fetches the URL and returns the text of the first <title>
// element, or an empty string when the page has none. The caller treats an
// error and an empty title identically, as "no enrichment".
func (f *PageFetcher) FetchTitle(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create fetch request: %w", err)
	}
	req.Header.Set("User-Agent", f.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}

	return strings.TrimSpace(doc.Find("title").First().Text()), nil
}
