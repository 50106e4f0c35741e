package enrich

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fredjeong/news-data-processing/internal/article"
)

// fakeEmbedder returns a distinct unit vector per known text.
type fakeEmbedder struct {
	dim     int
	vectors map[string][]float32
	err     error
	calls   int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if vec, ok := f.vectors[text]; ok {
		return vec, nil
	}
	vec := make([]float32, f.dim)
	vec[0] = 1
	return vec, nil
}

func (f *fakeEmbedder) Dim() int { return f.dim }

func axisEmbedder(dim int) *fakeEmbedder {
	vectors := make(map[string][]float32, len(article.Categories))
	for i, label := range article.Categories {
		vec := make([]float32, dim)
		vec[i%dim] = 1
		vectors[label] = vec
	}
	return &fakeEmbedder{dim: dim, vectors: vectors}
}

func TestClassifyPicksClosestLabel(t *testing.T) {
	t.Parallel()

	emb := axisEmbedder(len(article.Categories))
	c := NewClassifier(emb)

	// Exactly the label's own vector scores 1 and wins.
	target := emb.vectors[article.Categories[3]]
	got, err := c.Classify(context.Background(), target)
	require.NoError(t, err)
	require.Equal(t, article.Categories[3], got)
}

func TestClassifyZeroVectorUnclassified(t *testing.T) {
	t.Parallel()

	emb := axisEmbedder(len(article.Categories))
	c := NewClassifier(emb)

	got, err := c.Classify(context.Background(), make([]float32, emb.dim))
	require.NoError(t, err)
	require.Equal(t, article.CategoryUnclassified, got)

	got, err = c.Classify(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, article.CategoryUnclassified, got)
}

func TestClassifyCachesLabelEmbeddings(t *testing.T) {
	t.Parallel()

	emb := axisEmbedder(len(article.Categories))
	c := NewClassifier(emb)

	vec := emb.vectors[article.Categories[0]]
	_, err := c.Classify(context.Background(), vec)
	require.NoError(t, err)
	first := emb.calls

	_, err = c.Classify(context.Background(), vec)
	require.NoError(t, err)
	require.Equal(t, first, emb.calls)
}

func TestClassifyLabelEmbeddingFailure(t *testing.T) {
	t.Parallel()

	emb := &fakeEmbedder{dim: 4, err: errors.New("model down")}
	c := NewClassifier(emb)

	vec := []float32{1, 0, 0, 0}
	_, err := c.Classify(context.Background(), vec)
	require.ErrorContains(t, err, "model down")
}

func TestCosineIdenticalVectors(t *testing.T) {
	t.Parallel()

	vec := []float32{0.6, 0.8}
	require.InDelta(t, 1.0, cosine(vec, vec), 1e-6)
	require.InDelta(t, 0.0, cosine(vec, []float32{0.8, -0.6}), 1e-6)
}
