package flow

import (
	"context"
	"time"

	"github.com/smallnest/search4people/log"
)

// fetchTimeout bounds a single enrichment fetch.
const fetchTimeout = 8 * time.Second

// CollectDetails returns a detail-augmented copy of the candidate. It tries
// to fetch the candidate's page title; a fetch failure or timeout leaves the
// copy unchanged, and an existing non-empty title is never overwritten.
func CollectDetails(ctx context.Context, fetcher Fetcher, candidate Candidate) Candidate {
	details := candidate
	if fetcher == nil || candidate.URL == "" {
		return details
	}

	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	title, err := fetcher.FetchTitle(fetchCtx, candidate.URL)
	if err != nil {
		log.Debug("title fetch failed for %s: %v", candidate.URL, err)
		return details
	}
	if title != "" && details.Title == "" {
		details.Title = title
	}
	return details
}
