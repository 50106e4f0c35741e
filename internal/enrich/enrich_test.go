package enrich

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fredjeong/news-data-processing/internal/article"
)

type passthroughTruncator struct{}

func (passthroughTruncator) Truncate(text string) string { return text }

type fakeChat struct {
	keywords    []string
	summary     string
	keywordsErr error
	summaryErr  error
}

func (f *fakeChat) Keywords(context.Context, string) ([]string, error) {
	return f.keywords, f.keywordsErr
}

func (f *fakeChat) Summary(context.Context, string) (string, error) {
	return f.summary, f.summaryErr
}

func newTestEnricher(chat ChatModel, emb Embedder) *Enricher {
	return New(chat, emb, NewClassifier(emb), passthroughTruncator{}, zap.NewNop())
}

func TestEnrichEmptyContentFallback(t *testing.T) {
	t.Parallel()

	emb := axisEmbedder(8)
	e := newTestEnricher(&fakeChat{}, emb)

	rec, err := e.Enrich(context.Background(), article.Record{Title: "A", URL: "http://x/1"})
	require.NoError(t, err)
	require.NotNil(t, rec.Enrichment)
	require.Equal(t, article.EnrichmentFallback, rec.Enrichment.Kind)
	require.Equal(t, article.CategoryUnclassified, rec.Enrichment.Category)
	require.Empty(t, rec.Enrichment.Summary)
	require.Len(t, rec.Enrichment.Keywords, article.KeywordCount)
	for _, kw := range rec.Enrichment.Keywords {
		require.Nil(t, kw)
	}
	require.Len(t, rec.Enrichment.TitleEmbedding, 8)
	require.Len(t, rec.Enrichment.ContentEmbedding, 8)
	require.Zero(t, emb.calls, "fallback must not call models")
}

func TestEnrichFullRecord(t *testing.T) {
	t.Parallel()

	dim := len(article.Categories)
	emb := axisEmbedder(dim)
	// The content vector collides with the vector of category index 2.
	contentVec := make([]float32, dim)
	contentVec[2] = 1
	emb.vectors["본문"] = contentVec

	chat := &fakeChat{
		keywords: []string{"금리", "물가", "환율", "수출", "고용"},
		summary:  "요약 문장",
	}
	e := newTestEnricher(chat, emb)

	rec, err := e.Enrich(context.Background(), article.Record{
		Title:   "제목",
		Content: "본문",
		URL:     "http://x/1",
	})
	require.NoError(t, err)
	require.NotNil(t, rec.Enrichment)
	require.Equal(t, article.EnrichmentFull, rec.Enrichment.Kind)
	require.Equal(t, article.Categories[2], rec.Enrichment.Category)
	require.Equal(t, "요약 문장", rec.Enrichment.Summary)
	require.Equal(t, []string{"금리", "물가", "환율", "수출", "고용"}, rec.Enrichment.KeywordStrings())
	require.Len(t, rec.Enrichment.TitleEmbedding, dim)
	require.Len(t, rec.Enrichment.ContentEmbedding, dim)
}

func TestEnrichKeywordCountRepaired(t *testing.T) {
	t.Parallel()

	dim := len(article.Categories)

	t.Run("too few padded with nulls", func(t *testing.T) {
		t.Parallel()
		e := newTestEnricher(&fakeChat{keywords: []string{"금리", "물가"}}, axisEmbedder(dim))
		rec, err := e.Enrich(context.Background(), article.Record{Content: "본문"})
		require.NoError(t, err)
		require.Len(t, rec.Enrichment.Keywords, article.KeywordCount)
		require.NotNil(t, rec.Enrichment.Keywords[1])
		require.Nil(t, rec.Enrichment.Keywords[2])
	})

	t.Run("too many dropped", func(t *testing.T) {
		t.Parallel()
		e := newTestEnricher(&fakeChat{keywords: []string{"a", "b", "c", "d", "e", "f", "g"}}, axisEmbedder(dim))
		rec, err := e.Enrich(context.Background(), article.Record{Content: "본문"})
		require.NoError(t, err)
		require.Len(t, rec.Enrichment.Keywords, article.KeywordCount)
		require.Equal(t, "e", *rec.Enrichment.Keywords[4])
	})
}

func TestEnrichModelFailureFailsRecord(t *testing.T) {
	t.Parallel()

	dim := len(article.Categories)

	e := newTestEnricher(&fakeChat{keywordsErr: errors.New("llm down")}, axisEmbedder(dim))
	rec, err := e.Enrich(context.Background(), article.Record{Content: "본문"})
	require.ErrorContains(t, err, "llm down")
	require.Nil(t, rec.Enrichment)

	e = newTestEnricher(&fakeChat{keywords: []string{"a"}, summaryErr: errors.New("llm down")}, axisEmbedder(dim))
	rec, err = e.Enrich(context.Background(), article.Record{Content: "본문"})
	require.ErrorContains(t, err, "llm down")
	require.Nil(t, rec.Enrichment)
}
