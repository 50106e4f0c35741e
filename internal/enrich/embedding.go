package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/fredjeong/news-data-processing/internal/metrics"
)

// Embedder produces a fixed-dimension vector for a text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dim() int
}

// OllamaConfig configures the embedding endpoint.
type OllamaConfig struct {
	BaseURL string
	Model   string
	Dim     int
	Timeout time.Duration
}

// OllamaEmbedder calls ollama's /api/embed endpoint. Vectors are L2-normalized
// so cosine similarity reduces to a dot product.
type OllamaEmbedder struct {
	baseURL string
	model   string
	dim     int
	client  *http.Client
}

// NewOllamaEmbedder builds an OllamaEmbedder.
func NewOllamaEmbedder(cfg OllamaConfig) (*OllamaEmbedder, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("embedding base URL is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("embedding model name is required")
	}
	dim := cfg.Dim
	if dim <= 0 {
		dim = 1024
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OllamaEmbedder{
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		dim:     dim,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// Dim reports the configured vector dimension.
func (e *OllamaEmbedder) Dim() int { return e.dim }

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed returns the normalized vector for the text. A dimension mismatch with
// the configured model is an error, not a silent resize.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	defer func() { metrics.ObserveEnrichment("embed", time.Since(start)) }()

	body, err := json.Marshal(embedRequest{Model: e.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call embed endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embed endpoint returned %d: %s", resp.StatusCode, msg)
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	if len(parsed.Embeddings) == 0 {
		return nil, fmt.Errorf("embed endpoint returned no vectors")
	}
	vec := parsed.Embeddings[0]
	if len(vec) != e.dim {
		return nil, fmt.Errorf("embed dimension mismatch: got %d, want %d", len(vec), e.dim)
	}
	normalize(vec)
	return vec, nil
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}
