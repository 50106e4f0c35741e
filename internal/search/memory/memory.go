// Package memory provides an in-memory search indexer for tests and local runs.
package memory

import (
	"context"
	"sync"

	"github.com/fredjeong/news-data-processing/internal/article"
)

// Indexer keeps indexed records in a map keyed by database ID. FailWith makes
// subsequent Index calls return the given error, which tests use to exercise
// the rollback path.
type Indexer struct {
	mu   sync.Mutex
	docs map[int64]article.Record
	err  error
}

// New constructs an empty Indexer.
func New() *Indexer {
	return &Indexer{docs: make(map[int64]article.Record)}
}

// Index implements search.Indexer.
func (i *Indexer) Index(_ context.Context, rec article.Record) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.err != nil {
		return i.err
	}
	i.docs[rec.ID] = rec
	return nil
}

// FailWith makes every following Index call fail with err. Pass nil to clear.
func (i *Indexer) FailWith(err error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.err = err
}

// Get returns the indexed record for id.
func (i *Indexer) Get(id int64) (article.Record, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	rec, ok := i.docs[id]
	return rec, ok
}

// Len reports the number of indexed records.
func (i *Indexer) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.docs)
}
