// Package app initializes and holds long-lived application services, acting
// as a dependency injection container for the collect and consume commands.
package app

import (
	"context"
	"fmt"
	"time"

	gcstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/fredjeong/news-data-processing/internal/collector"
	"github.com/fredjeong/news-data-processing/internal/config"
	"github.com/fredjeong/news-data-processing/internal/consumer"
	"github.com/fredjeong/news-data-processing/internal/enrich"
	"github.com/fredjeong/news-data-processing/internal/feed"
	"github.com/fredjeong/news-data-processing/internal/fetcher"
	"github.com/fredjeong/news-data-processing/internal/fetcher/headless"
	"github.com/fredjeong/news-data-processing/internal/fetcher/static"
	"github.com/fredjeong/news-data-processing/internal/logging"
	"github.com/fredjeong/news-data-processing/internal/persist"
	"github.com/fredjeong/news-data-processing/internal/queue"
	queuekafka "github.com/fredjeong/news-data-processing/internal/queue/kafka"
	queuememory "github.com/fredjeong/news-data-processing/internal/queue/memory"
	queuepubsub "github.com/fredjeong/news-data-processing/internal/queue/pubsub"
	"github.com/fredjeong/news-data-processing/internal/search"
	"github.com/fredjeong/news-data-processing/internal/search/elastic"
	searchmemory "github.com/fredjeong/news-data-processing/internal/search/memory"
	"github.com/fredjeong/news-data-processing/internal/snapshot"
	snapshotgcs "github.com/fredjeong/news-data-processing/internal/snapshot/gcs"
	snapshotlocal "github.com/fredjeong/news-data-processing/internal/snapshot/local"
	"github.com/fredjeong/news-data-processing/internal/storage/postgres"
)

// App holds the shared, long-lived services for one command invocation. It is
// built fail-fast: a misconfigured provider stops startup rather than
// surfacing mid-run.
type App struct {
	Config config.Config
	Logger *zap.Logger

	// Collect side. Set by NewCollectorApp.
	Collector *collector.Collector
	Sources   []feed.Source

	// Consume side. Set by NewConsumerApp.
	Consumer *consumer.Consumer

	closers []func() error
}

// NewCollectorApp wires the feed reader, the content fetcher, and the queue
// publisher for one collection run.
func NewCollectorApp(ctx context.Context, cfg config.Config) (*App, error) {
	a, err := newApp(cfg)
	if err != nil {
		return nil, err
	}

	sources, err := feed.LoadSources(cfg.Feeds.SourcesPath)
	if err != nil {
		return nil, fmt.Errorf("load feed sources: %w", err)
	}
	a.Sources = sources

	contentFetcher, err := a.newFetcher()
	if err != nil {
		return nil, err
	}

	publisher, err := a.newPublisher(ctx)
	if err != nil {
		return nil, err
	}
	a.onClose(publisher.Close)

	a.Collector = collector.New(feed.NewReader(a.Logger), contentFetcher, publisher, a.Logger)
	a.Logger.Info("collector services initialized",
		zap.String("fetcher", cfg.Fetcher.Provider),
		zap.String("queue", cfg.Queue.Provider),
		zap.Int("sources", len(sources)),
	)
	return a, nil
}

// NewConsumerApp wires the queue consumer, the enrichment clients, and the
// persistence coordinator.
func NewConsumerApp(ctx context.Context, cfg config.Config) (*App, error) {
	a, err := newApp(cfg)
	if err != nil {
		return nil, err
	}

	source, err := a.newQueueConsumer(ctx)
	if err != nil {
		return nil, err
	}
	a.onClose(source.Close)

	enricher, err := a.newEnricher()
	if err != nil {
		return nil, err
	}

	store, err := postgres.NewArticleStore(ctx, postgres.ArticleStoreConfig{
		DSN:      cfg.DB.DSN,
		Table:    cfg.DB.Table,
		MaxConns: cfg.DB.MaxConns,
		MinConns: cfg.DB.MinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize article store: %w", err)
	}
	a.onClose(func() error {
		store.Close()
		return nil
	})

	snapshots, err := a.newSnapshotStore(ctx)
	if err != nil {
		return nil, err
	}

	indexer, err := a.newIndexer()
	if err != nil {
		return nil, err
	}

	coordinator := persist.New(articleStoreAdapter{store: store}, snapshots, indexer, a.Logger)
	a.Consumer = consumer.New(source, enricher, coordinator, cfg.Consumer.Workers, a.Logger)

	a.Logger.Info("consumer services initialized",
		zap.String("queue", cfg.Queue.Provider),
		zap.String("search", cfg.Search.Provider),
		zap.String("snapshot", cfg.Snapshot.Provider),
		zap.Int("workers", cfg.Consumer.Workers),
	)
	return a, nil
}

// Close shuts services down in reverse initialization order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Warn("service shutdown error", zap.Error(err))
		}
	}
	_ = a.Logger.Sync()
}

func newApp(cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	return &App{Config: cfg, Logger: logger}, nil
}

func (a *App) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

func (a *App) newFetcher() (fetcher.Fetcher, error) {
	cfg := a.Config.Fetcher
	switch cfg.Provider {
	case config.FetcherHeadless:
		f, err := headless.New(headless.Config{
			MaxParallel:       cfg.MaxParallel,
			UserAgent:         cfg.UserAgent,
			NavigationTimeout: time.Duration(cfg.NavTimeoutSeconds) * time.Second,
			ContentWait:       time.Duration(cfg.ContentWaitSeconds) * time.Second,
		}, a.Logger)
		if err != nil {
			return nil, fmt.Errorf("initialize headless fetcher: %w", err)
		}
		a.onClose(func() error {
			f.Close()
			return nil
		})
		return f, nil
	case config.FetcherStatic:
		return static.New(static.Config{UserAgent: cfg.UserAgent}, a.Logger), nil
	case config.FetcherNoop:
		a.Logger.Info("using no-op fetcher, article bodies will be empty")
		return fetcher.Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown fetcher provider %q", cfg.Provider)
	}
}

func (a *App) newPublisher(ctx context.Context) (queue.Publisher, error) {
	cfg := a.Config.Queue
	switch cfg.Provider {
	case config.QueueKafka:
		pub, err := queuekafka.NewPublisher(queuekafka.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Topic,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize kafka publisher: %w", err)
		}
		return pub, nil
	case config.QueuePubSub:
		pub, err := queuepubsub.NewPublisher(ctx, cfg.PubSub.ProjectID, cfg.Topic)
		if err != nil {
			return nil, fmt.Errorf("initialize pubsub publisher: %w", err)
		}
		return pub, nil
	case config.QueueMemory:
		a.Logger.Warn("using in-memory queue, messages do not cross processes")
		return queuememory.New(0), nil
	default:
		return nil, fmt.Errorf("unknown queue provider %q", cfg.Provider)
	}
}

func (a *App) newQueueConsumer(ctx context.Context) (queue.Consumer, error) {
	cfg := a.Config.Queue
	switch cfg.Provider {
	case config.QueueKafka:
		con, err := queuekafka.NewConsumer(queuekafka.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Topic,
			GroupID: cfg.Kafka.GroupID,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize kafka consumer: %w", err)
		}
		return con, nil
	case config.QueuePubSub:
		con, err := queuepubsub.NewConsumer(ctx, cfg.PubSub.ProjectID, cfg.PubSub.Subscription)
		if err != nil {
			return nil, fmt.Errorf("initialize pubsub consumer: %w", err)
		}
		return con, nil
	case config.QueueMemory:
		a.Logger.Warn("using in-memory queue, messages do not cross processes")
		return queuememory.New(0), nil
	default:
		return nil, fmt.Errorf("unknown queue provider %q", cfg.Provider)
	}
}

func (a *App) newEnricher() (*enrich.Enricher, error) {
	cfg := a.Config.Enrich

	chat, err := enrich.NewChatClient(enrich.ChatConfig{
		BaseURL: cfg.ChatBaseURL,
		APIKey:  cfg.ChatAPIKey,
		Model:   cfg.ChatModel,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize chat client: %w", err)
	}

	embedder, err := enrich.NewOllamaEmbedder(enrich.OllamaConfig{
		BaseURL: cfg.EmbedBaseURL,
		Model:   cfg.EmbedModel,
		Dim:     cfg.EmbedDim,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize embedder: %w", err)
	}

	truncator, err := enrich.NewTruncator(cfg.TokenBudget)
	if err != nil {
		return nil, fmt.Errorf("initialize tokenizer: %w", err)
	}

	return enrich.New(chat, embedder, enrich.NewClassifier(embedder), truncator, a.Logger), nil
}

func (a *App) newSnapshotStore(ctx context.Context) (snapshot.Store, error) {
	cfg := a.Config.Snapshot
	switch cfg.Provider {
	case config.SnapshotLocal:
		store, err := snapshotlocal.New(snapshotlocal.Config{BaseDir: cfg.BaseDir})
		if err != nil {
			return nil, fmt.Errorf("initialize local snapshot store: %w", err)
		}
		return store, nil
	case config.SnapshotGCS:
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("initialize gcs client: %w", err)
		}
		a.onClose(client.Close)
		store, err := snapshotgcs.New(client, snapshotgcs.Config{
			Bucket: cfg.Bucket,
			Prefix: cfg.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize gcs snapshot store: %w", err)
		}
		return store, nil
	case config.SnapshotNoop:
		a.Logger.Info("using no-op snapshot store, snapshots will be discarded")
		return snapshot.Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown snapshot provider %q", cfg.Provider)
	}
}

func (a *App) newIndexer() (search.Indexer, error) {
	cfg := a.Config.Search
	switch cfg.Provider {
	case config.SearchElastic:
		idx, err := elastic.New(elastic.Config{
			Addresses: cfg.Addresses,
			Username:  cfg.Username,
			Password:  cfg.Password,
			Index:     cfg.Index,
		}, a.Logger)
		if err != nil {
			return nil, fmt.Errorf("initialize elasticsearch indexer: %w", err)
		}
		return idx, nil
	case config.SearchMemory:
		return searchmemory.New(), nil
	case config.SearchNoop:
		a.Logger.Info("using no-op indexer, documents will be discarded")
		return search.Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown search provider %q", cfg.Provider)
	}
}

// articleStoreAdapter narrows *postgres.ArticleStore to the persist.Store
// interface.
type articleStoreAdapter struct {
	store *postgres.ArticleStore
}

func (a articleStoreAdapter) Begin(ctx context.Context) (persist.Tx, error) {
	tx, err := a.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return tx, nil
}
