// Package search defines the full-text index used after a record is stored.
package search

import (
	"context"

	"github.com/fredjeong/news-data-processing/internal/article"
)

// Indexer writes stored records to the search index. The document ID must be
// the database ID so the two stores stay joinable.
type Indexer interface {
	Index(ctx context.Context, rec article.Record) error
}

// Noop discards every document.
type Noop struct{}

// Index implements Indexer.
func (Noop) Index(context.Context, article.Record) error { return nil }
