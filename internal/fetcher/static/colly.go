// Package static fetches article content over plain HTTP using Colly.
package static

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/fredjeong/news-data-processing/internal/metrics"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Fetcher implements fetcher.Fetcher without a browser. It covers sources that
// serve full article bodies in the initial HTML; script-rendered pages need the
// headless fetcher.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// New builds a static Fetcher.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	c.SetRequestTimeout(cfg.Timeout)

	return &Fetcher{cfg: cfg, baseCollector: c, logger: logger}
}

// FetchContent retrieves the page and returns the concatenated trimmed text of
// its <p> elements. Returns "" on any failure.
func (f *Fetcher) FetchContent(ctx context.Context, url string) string {
	start := time.Now()
	defer func() { metrics.ObserveFetch("static", time.Since(start)) }()

	if ctx.Err() != nil {
		return ""
	}

	var body []byte
	collector := f.baseCollector.Clone()
	collector.OnResponse(func(resp *colly.Response) {
		body = resp.Body
	})

	if err := collector.Visit(url); err != nil {
		f.logger.Debug("static fetch failed", zap.String("url", url), zap.Error(err))
		return ""
	}
	collector.Wait()

	if len(body) == 0 {
		return ""
	}
	return extractParagraphs(body)
}

func extractParagraphs(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	var sb strings.Builder
	doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			sb.WriteString(text)
		}
	})
	return sb.String()
}
