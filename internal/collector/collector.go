// Package collector walks the configured feeds and publishes article records
// to the queue topic.
package collector

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fredjeong/news-data-processing/internal/article"
	"github.com/fredjeong/news-data-processing/internal/feed"
	"github.com/fredjeong/news-data-processing/internal/fetcher"
	"github.com/fredjeong/news-data-processing/internal/metrics"
	"github.com/fredjeong/news-data-processing/internal/queue"
)

// EntrySource produces raw entries for a feed source. Satisfied by feed.Reader.
type EntrySource interface {
	Fetch(ctx context.Context, src feed.Source) []feed.Entry
}

// Collector fetches article bodies for feed entries and publishes the
// assembled records. Failures are isolated per record: one bad entry never
// stops the run.
type Collector struct {
	feeds     EntrySource
	fetcher   fetcher.Fetcher
	publisher queue.Publisher
	logger    *zap.Logger
}

// New constructs a Collector.
func New(feeds EntrySource, f fetcher.Fetcher, pub queue.Publisher, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{feeds: feeds, fetcher: f, publisher: pub, logger: logger}
}

// Run collects every source once. It returns an error only when the context
// ends; per-record publish failures are logged and counted.
func (c *Collector) Run(ctx context.Context, sources []feed.Source) error {
	runID := newRunID()
	logger := c.logger.With(zap.String("run_id", runID))
	logger.Info("collect run starting", zap.Int("sources", len(sources)))

	var published, failed int
	for _, src := range sources {
		if ctx.Err() != nil {
			return fmt.Errorf("collect run canceled: %w", ctx.Err())
		}
		entries := c.feeds.Fetch(ctx, src)
		logger.Info("feed fetched",
			zap.String("journal", src.Journal),
			zap.Int("entries", len(entries)),
		)
		for _, entry := range entries {
			if ctx.Err() != nil {
				return fmt.Errorf("collect run canceled: %w", ctx.Err())
			}
			if err := c.processEntry(ctx, src, entry); err != nil {
				failed++
				logger.Warn("record publish failed",
					zap.String("journal", src.Journal),
					zap.String("url", entry.Link),
					zap.Error(err),
				)
				continue
			}
			published++
		}
	}

	logger.Info("collect run finished",
		zap.Int("published", published),
		zap.Int("failed", failed),
	)
	return nil
}

func (c *Collector) processEntry(ctx context.Context, src feed.Source, entry feed.Entry) error {
	content := c.fetcher.FetchContent(ctx, entry.Link)

	rec := article.Record{
		Company:   src.Journal,
		Title:     entry.Title,
		Writer:    entry.Writer,
		WriteDate: entry.WriteDate,
		Content:   content,
		URL:       entry.Link,
	}

	payload, err := queue.Encode(rec)
	if err != nil {
		metrics.ObservePublish(src.Journal, err)
		return fmt.Errorf("encode record: %w", err)
	}

	err = c.publisher.Publish(ctx, payload)
	metrics.ObservePublish(src.Journal, err)
	if err != nil {
		return fmt.Errorf("publish record: %w", err)
	}

	c.logger.Debug("record published",
		zap.String("journal", src.Journal),
		zap.String("title", entry.Title),
		zap.Bool("empty_content", content == ""),
	)
	return nil
}

func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
