// Package tools implements the external web capabilities consumed by the
// workflow: a DuckDuckGo-backed searcher and an HTTP page fetcher for title
// enrichment. Both are stateless per call and safe for concurrent use.
package tools
