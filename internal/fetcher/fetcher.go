// Package fetcher defines the article content fetching interface.
package fetcher

import "context"

// Fetcher retrieves the visible paragraph text of an article page.
//
// Implementations fail soft: any navigation error, timeout, or page without
// matching elements yields an empty string, never an error. Empty content is a
// valid pipeline state handled by the enrichment fallback path.
type Fetcher interface {
	FetchContent(ctx context.Context, url string) string
}

// Noop always returns empty content. Used when fetching is disabled.
type Noop struct{}

// NewNoop creates a Noop fetcher.
func NewNoop() *Noop {
	return &Noop{}
}

// FetchContent returns an empty string.
func (Noop) FetchContent(_ context.Context, _ string) string {
	return ""
}
