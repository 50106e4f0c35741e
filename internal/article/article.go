// Package article defines the record types shared across the ingestion pipeline.
package article

import (
	"strings"
	"time"
)

// KeywordCount is the fixed number of keywords every enriched record carries.
const KeywordCount = 5

// DefaultEmbeddingDim matches the dimensionality of the KURE-v1 encoder.
const DefaultEmbeddingDim = 1024

// CategoryUnclassified is assigned when a record has no content to classify.
const CategoryUnclassified = "미분류"

// DefaultWriteDate is substituted when a source timestamp cannot be parsed.
const DefaultWriteDate = "2000-01-01"

// Categories is the closed set of labels used for zero-shot classification.
// Order is stable; classification returns the argmax over this slice.
var Categories = []string{
	"IT_과학", "건강", "경제", "교육", "국제", "라이프스타일", "문화", "사건사고",
	"사회일반", "산업", "스포츠", "여성복지", "여행레저", "연예", "정치", "지역", "취미",
}

// EnrichmentKind tags which of the two enrichment outcomes a record took.
type EnrichmentKind string

// Enrichment outcome tags.
const (
	// EnrichmentFull means the content was non-empty and every model call ran.
	EnrichmentFull EnrichmentKind = "full"
	// EnrichmentFallback means the content was empty and sentinel values were used.
	EnrichmentFallback EnrichmentKind = "fallback"
)

// Record is the unit flowing through the pipeline. The ingest fields are set by
// the collector and immutable afterwards; ID is assigned by Postgres on insert;
// Enrichment is nil until the enrichment stage has run.
type Record struct {
	ID        int64  `json:"id,omitempty"`
	Company   string `json:"company"`
	Title     string `json:"title"`
	Writer    string `json:"writer"`
	WriteDate string `json:"write_date"`
	Content   string `json:"content"`
	URL       string `json:"url"`

	Enrichment *Enrichment `json:"enrichment,omitempty"`
}

// Enrichment holds the derived fields written by the enrichment stage.
type Enrichment struct {
	Kind     EnrichmentKind `json:"kind"`
	Category string         `json:"category"`
	// Keywords always has length KeywordCount; entries are nil placeholders
	// on the fallback path.
	Keywords []*string `json:"keywords"`
	Summary  string    `json:"summary"`
	// Embeddings always have the configured dimension, zero vectors on fallback.
	TitleEmbedding   []float32 `json:"title_embedding"`
	ContentEmbedding []float32 `json:"content_embedding"`
}

// EmptyContent reports whether the crawl produced no body text. Empty content is
// a valid, expected state (the fetcher fails soft), not an error.
func (r Record) EmptyContent() bool {
	return strings.TrimSpace(r.Content) == ""
}

// Enriched reports whether the enrichment stage has run.
func (r Record) Enriched() bool {
	return r.Enrichment != nil
}

// NewFallbackEnrichment builds the sentinel enrichment used for empty content:
// five nil keywords, the unclassified category, an empty summary, and two
// zero vectors of the given dimension.
func NewFallbackEnrichment(dim int) *Enrichment {
	if dim <= 0 {
		dim = DefaultEmbeddingDim
	}
	return &Enrichment{
		Kind:             EnrichmentFallback,
		Category:         CategoryUnclassified,
		Keywords:         make([]*string, KeywordCount),
		Summary:          "",
		TitleEmbedding:   make([]float32, dim),
		ContentEmbedding: make([]float32, dim),
	}
}

// KeywordStrings returns the keywords with nil placeholders as empty strings.
func (e *Enrichment) KeywordStrings() []string {
	out := make([]string, 0, len(e.Keywords))
	for _, k := range e.Keywords {
		if k == nil {
			out = append(out, "")
			continue
		}
		out = append(out, *k)
	}
	return out
}

// writeDateLayouts are the timestamp shapes observed across feed sources.
var writeDateLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// NormalizeWriteDate coerces a source timestamp into a form both Postgres and
// the search index accept. ISO-8601 values pass through unchanged; other known
// layouts are reformatted to ISO-8601; anything unparseable becomes
// DefaultWriteDate rather than failing the record.
func NormalizeWriteDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultWriteDate
	}
	if _, err := time.Parse(time.RFC3339, raw); err == nil {
		return raw
	}
	for _, layout := range writeDateLayouts[1:] {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(time.RFC3339)
		}
	}
	return DefaultWriteDate
}

// DateOnly truncates a normalized write date to its date part for the search
// index, which stores write_date as a date field.
func DateOnly(writeDate string) string {
	if idx := strings.IndexByte(writeDate, 'T'); idx > 0 {
		return writeDate[:idx]
	}
	if idx := strings.IndexByte(writeDate, ' '); idx > 0 {
		return writeDate[:idx]
	}
	return writeDate
}
