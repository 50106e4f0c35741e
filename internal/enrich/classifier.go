package enrich

import (
	"context"
	"fmt"
	"sync"

	"github.com/fredjeong/news-data-processing/internal/article"
)

// Classifier assigns a category by cosine similarity between an article vector
// and the embeddings of the category labels. Label embeddings are computed
// once on first use and cached for the lifetime of the classifier.
type Classifier struct {
	embedder Embedder
	labels   []string

	once      sync.Once
	labelVecs [][]float32
	onceErr   error
}

// NewClassifier builds a classifier over the default category labels.
func NewClassifier(embedder Embedder) *Classifier {
	return &Classifier{embedder: embedder, labels: article.Categories}
}

// Classify returns the label whose embedding is closest to vec. An empty or
// zero vector maps to the unclassified sentinel.
func (c *Classifier) Classify(ctx context.Context, vec []float32) (string, error) {
	if len(vec) == 0 || isZero(vec) {
		return article.CategoryUnclassified, nil
	}
	if err := c.ensureLabels(ctx); err != nil {
		return "", err
	}

	best := article.CategoryUnclassified
	bestScore := float32(-2)
	for i, labelVec := range c.labelVecs {
		score := cosine(vec, labelVec)
		if score > bestScore {
			bestScore = score
			best = c.labels[i]
		}
	}
	return best, nil
}

func (c *Classifier) ensureLabels(ctx context.Context) error {
	c.once.Do(func() {
		vecs := make([][]float32, 0, len(c.labels))
		for _, label := range c.labels {
			vec, err := c.embedder.Embed(ctx, label)
			if err != nil {
				c.onceErr = fmt.Errorf("embed category label %q: %w", label, err)
				return
			}
			vecs = append(vecs, vec)
		}
		c.labelVecs = vecs
	})
	return c.onceErr
}

// cosine assumes both vectors are L2-normalized, so the dot product is the
// cosine similarity. Identical vectors score 1.
func cosine(a, b []float32) float32 {
	var dot float32
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot
}

func isZero(vec []float32) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}
