// Package persist coordinates the three stores a record lands in: Postgres is
// authoritative, the snapshot store is best effort, and the search index must
// succeed or the database insert is rolled back.
package persist

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fredjeong/news-data-processing/internal/article"
	"github.com/fredjeong/news-data-processing/internal/metrics"
	"github.com/fredjeong/news-data-processing/internal/search"
	"github.com/fredjeong/news-data-processing/internal/snapshot"
)

// Outcome is the terminal state of one record's persistence attempt.
type Outcome string

// Persistence outcomes.
const (
	// OutcomePending means the flow failed before the insert resolved.
	OutcomePending Outcome = "pending"
	// OutcomeDuplicate means the URL was already stored; nothing was written.
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeIndexed means the row and the search document both committed.
	OutcomeIndexed Outcome = "indexed"
	// OutcomeIndexFailed means indexing failed and the insert was rolled back.
	OutcomeIndexFailed Outcome = "index_failed"
)

// Tx is one record's database transaction. Satisfied by postgres.ArticleTx.
type Tx interface {
	Insert(ctx context.Context, rec article.Record) (id int64, inserted bool, err error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store opens per-record transactions.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
}

// Result reports what happened to a record. ID is set only when the row
// committed.
type Result struct {
	Outcome Outcome
	ID      int64
}

// Coordinator runs the insert-snapshot-index sequence for each record.
type Coordinator struct {
	store     Store
	snapshots snapshot.Store
	indexer   search.Indexer
	logger    *zap.Logger
}

// New constructs a Coordinator.
func New(store Store, snapshots snapshot.Store, indexer search.Indexer, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if snapshots == nil {
		snapshots = snapshot.Noop{}
	}
	return &Coordinator{store: store, snapshots: snapshots, indexer: indexer, logger: logger}
}

// Persist stores one record. The database and the search index move together:
// either the row commits and the document is indexed, or neither survives.
// The snapshot is written between insert and index and is never allowed to
// fail the record. Duplicate URLs commit without writing anything.
func (c *Coordinator) Persist(ctx context.Context, rec article.Record) (Result, error) {
	result := Result{Outcome: OutcomePending}
	defer func() { metrics.ObservePersist(string(result.Outcome)) }()

	tx, err := c.store.Begin(ctx)
	if err != nil {
		return result, fmt.Errorf("begin persistence: %w", err)
	}

	id, inserted, err := tx.Insert(ctx, rec)
	if err != nil {
		c.rollback(ctx, tx, rec)
		return result, fmt.Errorf("insert record: %w", err)
	}

	if !inserted {
		if err := tx.Commit(ctx); err != nil {
			c.rollback(ctx, tx, rec)
			return result, fmt.Errorf("commit duplicate: %w", err)
		}
		result.Outcome = OutcomeDuplicate
		c.logger.Info("duplicate url skipped", zap.String("url", rec.URL))
		return result, nil
	}

	rec.ID = id

	if uri, err := c.snapshots.Save(ctx, rec); err != nil {
		metrics.ObserveSnapshotFailure()
		c.logger.Warn("snapshot write failed",
			zap.Int64("id", id),
			zap.String("url", rec.URL),
			zap.Error(err),
		)
	} else {
		c.logger.Debug("snapshot written", zap.Int64("id", id), zap.String("uri", uri))
	}

	if err := c.indexer.Index(ctx, rec); err != nil {
		c.rollback(ctx, tx, rec)
		result.Outcome = OutcomeIndexFailed
		c.logger.Error("index failed, insert rolled back",
			zap.Int64("id", id),
			zap.String("title", rec.Title),
			zap.Error(err),
		)
		return result, fmt.Errorf("index record %d: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		c.rollback(ctx, tx, rec)
		return result, fmt.Errorf("commit record %d: %w", id, err)
	}

	result.Outcome = OutcomeIndexed
	result.ID = id
	c.logger.Info("record persisted",
		zap.Int64("id", id),
		zap.String("company", rec.Company),
		zap.String("title", rec.Title),
	)
	return result, nil
}

func (c *Coordinator) rollback(ctx context.Context, tx Tx, rec article.Record) {
	if err := tx.Rollback(ctx); err != nil {
		c.logger.Error("rollback failed",
			zap.String("title", rec.Title),
			zap.String("url", rec.URL),
			zap.Error(err),
		)
	}
}
