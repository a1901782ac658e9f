package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/smallnest/search4people/flow"
)

// defaultSearchBaseURL is the DuckDuckGo HTML endpoint. It needs no API key,
// which keeps the default install runnable without credentials.
const defaultSearchBaseURL = "https://html.duckduckgo.com/html/"

// DuckDuckGoSearch searches the web through the DuckDuckGo HTML endpoint.
type DuckDuckGoSearch struct {
	BaseURL   string
	UserAgent string
	client    *http.Client
}

var _ flow.Searcher = (*DuckDuckGoSearch)(nil)

// SearchOption configures a DuckDuckGoSearch.
type SearchOption func(*DuckDuckGoSearch)

// WithSearchBaseURL overrides the endpoint, mainly for tests.
func WithSearchBaseURL(baseURL string) SearchOption {
	return func(d *DuckDuckGoSearch) {
		d.BaseURL = baseURL
	}
}

// WithSearchTimeout sets the HTTP timeout for one query.
func WithSearchTimeout(timeout time.Duration) SearchOption {
	return func(d *DuckDuckGoSearch) {
		d.client.Timeout = timeout
	}
}

// NewDuckDuckGoSearch creates a new search client.
func NewDuckDuckGoSearch(opts ...SearchOption) *DuckDuckGoSearch {
	d := &DuckDuckGoSearch{
		BaseURL:   defaultSearchBaseURL,
		UserAgent: userAgent,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Search runs one query and returns up to maxResults hits. The flow layer
// treats an error the same as an empty result, so partial parses are
// returned as-is.
func (d *DuckDuckGoSearch) Search(ctx context.Context, query string, maxResults int) ([]flow.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.BaseURL, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", d.UserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search endpoint returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	var results []flow.SearchResult
	doc.Find("div.result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if maxResults > 0 && len(results) >= maxResults {
			return false
		}
		link := sel.Find("a.result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		results = append(results, flow.SearchResult{
			Title: strings.TrimSpace(link.Text()),
			URL:   resolveRedirect(href),
			Body:  strings.TrimSpace(sel.Find(".result__snippet").First().Text()),
		})
		return true
	})

	return results, nil
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= redirect links to the real
// target URL. Anything that does not look like a redirect is returned as-is.
func resolveRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" {
		return "https:" + href
	}
	return href
}
