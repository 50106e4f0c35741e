// Package snapshot persists a JSON copy of each stored record outside the
// database. Snapshots are best effort: the persistence flow logs failures and
// keeps going.
package snapshot

import (
	"context"
	"fmt"

	"github.com/fredjeong/news-data-processing/internal/article"
)

// Store writes one snapshot per stored record.
type Store interface {
	// Save writes the record and returns the URI of the stored object.
	Save(ctx context.Context, rec article.Record) (string, error)
}

// ObjectPath names the snapshot object for a record by its database ID.
func ObjectPath(rec article.Record) string {
	return fmt.Sprintf("article_%d.json", rec.ID)
}

// Noop discards snapshots.
type Noop struct{}

// Save implements Store.
func (Noop) Save(_ context.Context, rec article.Record) (string, error) {
	return "noop://" + ObjectPath(rec), nil
}
