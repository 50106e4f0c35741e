// Package headless fetches article content with a headless browser.
package headless

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/fredjeong/news-data-processing/internal/metrics"
)

// paragraphScript collects the trimmed text of every <p> element and joins the
// non-empty pieces, mirroring how the article body is assembled downstream.
const paragraphScript = `Array.from(document.querySelectorAll('p'))
	.map(function (el) { return el.innerText.trim(); })
	.filter(Boolean)
	.join('')`

// Config controls the headless fetcher.
type Config struct {
	MaxParallel       int
	UserAgent         string
	NavigationTimeout time.Duration
	// ContentWait bounds how long to wait for paragraph elements to appear
	// after navigation.
	ContentWait time.Duration
}

// Fetcher implements fetcher.Fetcher using chromedp.
type Fetcher struct {
	cfg         Config
	limiter     chan struct{}
	allocator   context.Context
	allocCancel context.CancelFunc
	logger      *zap.Logger
}

// New creates a headless fetcher backed by a shared browser allocator.
func New(cfg Config, logger *zap.Logger) (*Fetcher, error) {
	if cfg.MaxParallel < 0 {
		return nil, fmt.Errorf("max parallel must be >= 0")
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 30 * time.Second
	}
	if cfg.ContentWait <= 0 {
		cfg.ContentWait = 2 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var limiter chan struct{}
	if cfg.MaxParallel > 0 {
		limiter = make(chan struct{}, cfg.MaxParallel)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Fetcher{
		cfg:         cfg,
		limiter:     limiter,
		allocator:   allocCtx,
		allocCancel: allocCancel,
		logger:      logger,
	}, nil
}

// Close cancels the allocator context, shutting the browser down.
func (f *Fetcher) Close() {
	f.allocCancel()
}

// FetchContent navigates to the URL, waits briefly for paragraph elements, and
// returns their concatenated text. Returns "" on any failure.
func (f *Fetcher) FetchContent(ctx context.Context, url string) string {
	start := time.Now()
	defer func() { metrics.ObserveFetch("headless", time.Since(start)) }()

	if err := f.acquire(ctx); err != nil {
		f.logger.Debug("headless slot wait canceled", zap.String("url", url), zap.Error(err))
		return ""
	}
	defer f.release()

	taskCtx, taskCancel := chromedp.NewContext(f.allocator)
	defer taskCancel()

	taskCtx, cancel := context.WithTimeout(taskCtx, f.cfg.NavigationTimeout)
	defer cancel()

	if err := chromedp.Run(taskCtx, f.setupAction(), chromedp.Navigate(url)); err != nil {
		f.logger.Debug("headless navigation failed", zap.String("url", url), zap.Error(err))
		return ""
	}

	// The wait is bounded separately so a page without paragraphs costs
	// ContentWait, not the full navigation timeout.
	waitCtx, waitCancel := context.WithTimeout(taskCtx, f.cfg.ContentWait)
	err := chromedp.Run(waitCtx, chromedp.WaitReady("p", chromedp.ByQuery))
	waitCancel()
	if err != nil {
		f.logger.Debug("no paragraph content appeared", zap.String("url", url), zap.Error(err))
		return ""
	}

	var content string
	if err := chromedp.Run(taskCtx, chromedp.Evaluate(paragraphScript, &content)); err != nil {
		f.logger.Debug("paragraph extraction failed", zap.String("url", url), zap.Error(err))
		return ""
	}
	return content
}

func (f *Fetcher) setupAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if f.cfg.UserAgent == "" {
			return nil
		}
		if err := emulation.SetUserAgentOverride(f.cfg.UserAgent).Do(ctx); err != nil {
			return fmt.Errorf("set user-agent: %w", err)
		}
		return nil
	})
}

func (f *Fetcher) acquire(ctx context.Context) error {
	if f.limiter == nil {
		return nil
	}
	select {
	case f.limiter <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("headless slot wait canceled: %w", ctx.Err())
	}
}

func (f *Fetcher) release() {
	if f.limiter == nil {
		return
	}
	select {
	case <-f.limiter:
	default:
	}
}
