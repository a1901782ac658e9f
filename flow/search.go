package flow

import (
	"context"
	"strings"

	"github.com/smallnest/search4people/log"
)

// SearchCandidates runs each query against the search capability and merges
// the hits into a deduplicated candidate list. The seen-URL set spans the
// whole call, so a URL surfaced by an earlier query is never repeated by a
// later one, and first-seen order is preserved. A failing or empty query
// never aborts the remaining queries.
func SearchCandidates(ctx context.Context, searcher Searcher, queries []string, maxResults int) []Candidate {
	if searcher == nil {
		return nil
	}

	var candidates []Candidate
	seen := make(map[string]bool)
	for _, q := range queries {
		results, err := searcher.Search(ctx, q, maxResults)
		if err != nil {
			log.Warn("search failed for query %q: %v", q, err)
			continue
		}
		for _, r := range results {
			href := strings.TrimSpace(r.URL)
			if href == "" || seen[href] {
				continue
			}
			seen[href] = true
			candidates = append(candidates, Candidate{
				Title:       r.Title,
				URL:         href,
				Snippet:     r.Body,
				SourceQuery: q,
			})
		}
	}
	return candidates
}
