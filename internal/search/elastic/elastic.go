// Package elastic implements the search indexer on Elasticsearch with a
// Korean analyzer.
package elastic

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"

	"github.com/fredjeong/news-data-processing/internal/article"
	"github.com/fredjeong/news-data-processing/internal/queue"
)

// DefaultIndex is the index articles are written to.
const DefaultIndex = "news_articles"

// indexBody configures the nori tokenizer in mixed decompound mode with a
// Korean particle stopword filter, and accepts the date formats seen in the
// wild across the source feeds.
const indexBody = `{
  "settings": {
    "analysis": {
      "tokenizer": {
        "nori_tokenizer_with_options": {
          "type": "nori_tokenizer",
          "decompound_mode": "mixed"
        }
      },
      "filter": {
        "korean_stop": {
          "type": "stop",
          "stopwords": [
            "은", "는", "이", "가", "을", "를", "의", "에", "에서", "로", "으로",
            "와", "과", "도", "만", "부터", "까지", "이나", "나", "이라", "라", "이며",
            "며", "이고", "고", "든지", "이든지", "거나", "이거나", "하고", "이야", "야"
          ]
        }
      },
      "analyzer": {
        "korean": {
          "type": "custom",
          "tokenizer": "nori_tokenizer_with_options",
          "filter": ["lowercase", "korean_stop"]
        }
      }
    }
  },
  "mappings": {
    "properties": {
      "company": {"type": "keyword"},
      "title": {"type": "text", "analyzer": "korean"},
      "content": {"type": "text", "analyzer": "korean"},
      "summary": {"type": "text", "analyzer": "korean"},
      "keywords": {"type": "keyword"},
      "category": {"type": "keyword"},
      "writer": {"type": "keyword"},
      "write_date": {
        "type": "date",
        "format": "yyyy-MM-dd||yyyy-MM-dd'T'HH:mm:ss||yyyy-MM-dd'T'HH:mm:ss.SSSZ||yyyy-MM-dd'T'HH:mm:ssXXX||strict_date_optional_time||epoch_millis"
      },
      "url": {"type": "keyword"}
    }
  }
}`

// Config configures the Elasticsearch indexer.
type Config struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
}

// Indexer writes article documents to an Elasticsearch index, creating the
// index with the Korean analyzer on first use.
type Indexer struct {
	client *elasticsearch.Client
	index  string
	logger *zap.Logger

	ensureOnce sync.Once
	ensureErr  error
}

// New constructs an Indexer.
func New(cfg Config, logger *zap.Logger) (*Indexer, error) {
	if len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("at least one elasticsearch address is required")
	}
	if cfg.Index == "" {
		cfg.Index = DefaultIndex
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("build elasticsearch client: %w", err)
	}
	return &Indexer{client: client, index: cfg.Index, logger: logger}, nil
}

type document struct {
	Company      string   `json:"company"`
	Title        string   `json:"title"`
	Content      string   `json:"content"`
	Summary      string   `json:"summary"`
	Keywords     []string `json:"keywords"`
	Category     string   `json:"category"`
	Writer       string   `json:"writer"`
	WriteDate    string   `json:"write_date"`
	URL          string   `json:"url"`
	PostgresqlID int64    `json:"postgresql_id"`
}

// Index writes the record as a document whose ID is the database ID. The
// write_date is truncated to its date part so every feed's format fits the
// index mapping.
func (i *Indexer) Index(ctx context.Context, rec article.Record) error {
	if err := i.ensureIndex(ctx); err != nil {
		return err
	}

	doc := document{
		Company:      rec.Company,
		Title:        rec.Title,
		Content:      rec.Content,
		Writer:       rec.Writer,
		WriteDate:    article.DateOnly(rec.WriteDate),
		URL:          rec.URL,
		PostgresqlID: rec.ID,
	}
	if rec.Enrichment != nil {
		doc.Summary = rec.Enrichment.Summary
		doc.Category = rec.Enrichment.Category
		doc.Keywords = rec.Enrichment.KeywordStrings()
	}

	body, err := queue.Encode(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: strconv.FormatInt(rec.ID, 10),
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("index document %d: %w", rec.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("index document %d: %s: %s", rec.ID, res.Status(), msg)
	}

	i.logger.Debug("document indexed",
		zap.Int64("id", rec.ID),
		zap.String("index", i.index),
	)
	return nil
}

// ensureIndex creates the index once per process. A racing create from another
// worker is treated as success.
func (i *Indexer) ensureIndex(ctx context.Context) error {
	i.ensureOnce.Do(func() {
		exists := esapi.IndicesExistsRequest{Index: []string{i.index}}
		res, err := exists.Do(ctx, i.client)
		if err != nil {
			i.ensureErr = fmt.Errorf("check index %s: %w", i.index, err)
			return
		}
		res.Body.Close()
		if res.StatusCode == 200 {
			return
		}

		create := esapi.IndicesCreateRequest{
			Index: i.index,
			Body:  bytes.NewReader([]byte(indexBody)),
		}
		res, err = create.Do(ctx, i.client)
		if err != nil {
			i.ensureErr = fmt.Errorf("create index %s: %w", i.index, err)
			return
		}
		defer res.Body.Close()
		if res.IsError() && res.StatusCode != 400 {
			msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
			i.ensureErr = fmt.Errorf("create index %s: %s: %s", i.index, res.Status(), msg)
			return
		}
		i.logger.Info("search index ready", zap.String("index", i.index))
	})
	return i.ensureErr
}
