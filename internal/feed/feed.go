// Package feed reads syndication feeds into raw article entries.
package feed

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Source describes one feed to collect from. DateField names the entry field
// carrying the publish timestamp, which varies by journal (경향신문 populates
// "updated", most others "published").
type Source struct {
	Journal   string `yaml:"journal"`
	URL       string `yaml:"url"`
	DateField string `yaml:"date_field"`
}

// Entry is one raw feed item, loosely typed on purpose: the collector
// normalizes it into an article.Record.
type Entry struct {
	Title     string
	Link      string
	Writer    string
	WriteDate string
}

// LoadSources parses the YAML feed source list.
func LoadSources(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}
	var doc struct {
		Sources []Source `yaml:"sources"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse sources file: %w", err)
	}
	for i, src := range doc.Sources {
		if src.Journal == "" || src.URL == "" {
			return nil, fmt.Errorf("source %d: journal and url are required", i)
		}
	}
	return doc.Sources, nil
}

// Reader fetches and parses feeds.
type Reader struct {
	parser *gofeed.Parser
	logger *zap.Logger
}

// NewReader constructs a Reader.
func NewReader(logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	parser := gofeed.NewParser()
	parser.UserAgent = "news-data-processing/1.0"
	return &Reader{parser: parser, logger: logger}
}

// Fetch returns the entries of one feed. Fails soft: any fetch or parse error
// is logged and an empty slice returned, so one broken feed never stops a run.
func (r *Reader) Fetch(ctx context.Context, src Source) []Entry {
	parsed, err := r.parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		r.logger.Warn("feed parse failed",
			zap.String("journal", src.Journal),
			zap.String("url", src.URL),
			zap.Error(err),
		)
		return nil
	}

	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil || strings.TrimSpace(item.Link) == "" {
			continue
		}
		entries = append(entries, Entry{
			Title:     item.Title,
			Link:      item.Link,
			Writer:    itemWriter(item),
			WriteDate: itemDate(item, src.DateField),
		})
	}
	return entries
}

func itemWriter(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}
	if len(item.Authors) > 0 && item.Authors[0] != nil {
		return item.Authors[0].Name
	}
	return ""
}

func itemDate(item *gofeed.Item, field string) string {
	if field == "updated" {
		return item.Updated
	}
	return item.Published
}
