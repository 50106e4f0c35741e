// Package enrich derives keywords, a summary, embeddings, and a category for
// article records using external model services.
package enrich

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fredjeong/news-data-processing/internal/article"
	"github.com/fredjeong/news-data-processing/internal/metrics"
)

// ChatModel produces keywords and summaries from article text.
type ChatModel interface {
	Keywords(ctx context.Context, text string) ([]string, error)
	Summary(ctx context.Context, text string) (string, error)
}

// TextTruncator bounds text before it reaches a model. Satisfied by Truncator.
type TextTruncator interface {
	Truncate(text string) string
}

// Enricher runs the full enrichment sequence for one record.
type Enricher struct {
	chat       ChatModel
	embedder   Embedder
	classifier *Classifier
	truncator  TextTruncator
	logger     *zap.Logger
}

// New constructs an Enricher.
func New(chat ChatModel, embedder Embedder, classifier *Classifier, truncator TextTruncator, logger *zap.Logger) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{
		chat:       chat,
		embedder:   embedder,
		classifier: classifier,
		truncator:  truncator,
		logger:     logger,
	}
}

// Enrich attaches an Enrichment to the record. Records with empty content get
// the fallback enrichment without any model calls. A model failure on
// non-empty content fails the whole record; partial enrichment is never
// persisted.
func (e *Enricher) Enrich(ctx context.Context, rec article.Record) (article.Record, error) {
	start := time.Now()
	defer func() { metrics.ObserveEnrichment("total", time.Since(start)) }()

	if rec.EmptyContent() {
		rec.Enrichment = article.NewFallbackEnrichment(e.embedder.Dim())
		e.logger.Info("empty content, fallback enrichment",
			zap.String("url", rec.URL),
			zap.String("title", rec.Title),
		)
		return rec, nil
	}

	content := e.truncator.Truncate(rec.Content)

	keywords, err := e.chat.Keywords(ctx, content)
	if err != nil {
		return rec, err
	}

	titleVec, err := e.embedder.Embed(ctx, e.truncator.Truncate(rec.Title))
	if err != nil {
		return rec, err
	}

	contentVec, err := e.embedder.Embed(ctx, content)
	if err != nil {
		return rec, err
	}

	category, err := e.classifier.Classify(ctx, contentVec)
	if err != nil {
		return rec, err
	}

	summary, err := e.chat.Summary(ctx, content)
	if err != nil {
		return rec, err
	}

	summaryVec, err := e.embedder.Embed(ctx, e.truncator.Truncate(summary))
	if err != nil {
		return rec, err
	}

	rec.Enrichment = &article.Enrichment{
		Kind:             article.EnrichmentFull,
		Category:         category,
		Keywords:         fixKeywordCount(keywords),
		Summary:          summary,
		TitleEmbedding:   titleVec,
		ContentEmbedding: summaryVec,
	}

	e.logger.Debug("record enriched",
		zap.String("url", rec.URL),
		zap.String("category", category),
	)
	return rec, nil
}

// fixKeywordCount forces the list to exactly article.KeywordCount entries:
// extras are dropped, missing slots become nulls.
func fixKeywordCount(keywords []string) []*string {
	out := make([]*string, article.KeywordCount)
	for i := 0; i < article.KeywordCount && i < len(keywords); i++ {
		kw := keywords[i]
		out[i] = &kw
	}
	return out
}
