// Package consumer drains the article topic through enrichment and
// persistence with a fixed pool of workers.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/fredjeong/news-data-processing/internal/article"
	"github.com/fredjeong/news-data-processing/internal/metrics"
	"github.com/fredjeong/news-data-processing/internal/persist"
	"github.com/fredjeong/news-data-processing/internal/queue"
)

// DefaultWorkers is the pool size when none is configured.
const DefaultWorkers = 8

// Enricher attaches derived fields to a record. Satisfied by enrich.Enricher.
type Enricher interface {
	Enrich(ctx context.Context, rec article.Record) (article.Record, error)
}

// Persister stores a record. Satisfied by persist.Coordinator.
type Persister interface {
	Persist(ctx context.Context, rec article.Record) (persist.Result, error)
}

// Consumer runs the enrich-persist flow over messages from the queue. Every
// failure is per record: a bad message is logged and dropped, never retried,
// and never stops the pool.
type Consumer struct {
	source    queue.Consumer
	enricher  Enricher
	persister Persister
	workers   int
	logger    *zap.Logger
}

// New constructs a Consumer. workers <= 0 selects DefaultWorkers.
func New(source queue.Consumer, enricher Enricher, persister Persister, workers int, logger *zap.Logger) *Consumer {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{
		source:    source,
		enricher:  enricher,
		persister: persister,
		workers:   workers,
		logger:    logger,
	}
}

// Run blocks until the context ends or the queue closes. All workers drain
// before it returns.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("consumer starting", zap.Int("workers", c.workers))

	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			c.work(ctx, worker)
		}(i)
	}
	wg.Wait()

	c.logger.Info("consumer stopped")
	return nil
}

func (c *Consumer) work(ctx context.Context, worker int) {
	metrics.IncActiveWorkers()
	defer metrics.DecActiveWorkers()

	logger := c.logger.With(zap.Int("worker", worker))
	for {
		payload, err := c.source.Next(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrClosed) || ctx.Err() != nil {
				return
			}
			logger.Warn("read message failed", zap.Error(err))
			continue
		}
		metrics.ObserveConsume()
		c.handle(ctx, logger, payload)
	}
}

// handle runs one message through inspection, enrichment, and persistence.
func (c *Consumer) handle(ctx context.Context, logger *zap.Logger, payload []byte) {
	var rec article.Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		logger.Warn("malformed message dropped", zap.Error(err))
		return
	}

	rec.WriteDate = article.NormalizeWriteDate(rec.WriteDate)

	if rec.EmptyContent() {
		logger.Info("record has no content",
			zap.String("company", rec.Company),
			zap.String("url", rec.URL),
		)
	} else {
		logger.Debug("record received",
			zap.String("company", rec.Company),
			zap.String("url", rec.URL),
		)
	}

	rec, err := c.enricher.Enrich(ctx, rec)
	if err != nil {
		logger.Warn("enrichment failed, record dropped",
			zap.String("url", rec.URL),
			zap.String("title", rec.Title),
			zap.Error(err),
		)
		return
	}

	result, err := c.persister.Persist(ctx, rec)
	if err != nil {
		logger.Warn("persistence failed, record dropped",
			zap.String("url", rec.URL),
			zap.String("title", rec.Title),
			zap.String("outcome", string(result.Outcome)),
			zap.Error(err),
		)
		return
	}

	logger.Debug("record handled",
		zap.String("url", rec.URL),
		zap.String("outcome", string(result.Outcome)),
		zap.Int64("id", result.ID),
	)
}
