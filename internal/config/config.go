// Package config loads and validates pipeline configuration via Viper.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Provider names accepted by the wiring switches.
const (
	QueueKafka  = "kafka"
	QueuePubSub = "pubsub"
	QueueMemory = "memory"

	FetcherHeadless = "headless"
	FetcherStatic   = "static"
	FetcherNoop     = "noop"

	SearchElastic = "elastic"
	SearchMemory  = "memory"
	SearchNoop    = "noop"

	SnapshotLocal = "local"
	SnapshotGCS   = "gcs"
	SnapshotNoop  = "noop"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Feeds    FeedsConfig    `mapstructure:"feeds"`
	Fetcher  FetcherConfig  `mapstructure:"fetcher"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Consumer ConsumerConfig `mapstructure:"consumer"`
	Enrich   EnrichConfig   `mapstructure:"enrich"`
	DB       DBConfig       `mapstructure:"db"`
	Search   SearchConfig   `mapstructure:"search"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
}

// ServerConfig controls the operational HTTP endpoint.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// FeedsConfig points at the feed source list.
type FeedsConfig struct {
	SourcesPath string `mapstructure:"sources_path"`
}

// FetcherConfig governs article body fetching.
type FetcherConfig struct {
	Provider           string `mapstructure:"provider"`
	UserAgent          string `mapstructure:"user_agent"`
	MaxParallel        int    `mapstructure:"max_parallel"`
	NavTimeoutSeconds  int    `mapstructure:"nav_timeout_seconds"`
	ContentWaitSeconds int    `mapstructure:"content_wait_seconds"`
}

// QueueConfig selects and configures the message broker.
type QueueConfig struct {
	Provider string       `mapstructure:"provider"`
	Topic    string       `mapstructure:"topic"`
	Kafka    KafkaConfig  `mapstructure:"kafka"`
	PubSub   PubSubConfig `mapstructure:"pubsub"`
}

// KafkaConfig holds broker addresses and the consumer group.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	GroupID string   `mapstructure:"group_id"`
}

// PubSubConfig holds Google Pub/Sub identifiers.
type PubSubConfig struct {
	ProjectID    string `mapstructure:"project_id"`
	Subscription string `mapstructure:"subscription"`
}

// ConsumerConfig sizes the worker pool.
type ConsumerConfig struct {
	Workers int `mapstructure:"workers"`
}

// EnrichConfig configures the model services.
type EnrichConfig struct {
	ChatBaseURL  string `mapstructure:"chat_base_url"`
	ChatAPIKey   string `mapstructure:"chat_api_key"`
	ChatModel    string `mapstructure:"chat_model"`
	EmbedBaseURL string `mapstructure:"embed_base_url"`
	EmbedModel   string `mapstructure:"embed_model"`
	EmbedDim     int    `mapstructure:"embed_dim"`
	TokenBudget  int    `mapstructure:"token_budget"`
}

// DBConfig controls access to Postgres.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// SearchConfig selects and configures the search index.
type SearchConfig struct {
	Provider  string   `mapstructure:"provider"`
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

// SnapshotConfig selects and configures the snapshot store.
type SnapshotConfig struct {
	Provider string `mapstructure:"provider"`
	BaseDir  string `mapstructure:"base_dir"`
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`
}

// Load builds a Config from disk and environment. A .env file in the working
// directory is folded into the environment first, matching how local runs are
// configured.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("NEWSPIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
	v.SetDefault("feeds.sources_path", "sources.yaml")
	v.SetDefault("fetcher.provider", FetcherHeadless)
	v.SetDefault("fetcher.user_agent", "news-data-processing/1.0")
	v.SetDefault("fetcher.max_parallel", 4)
	v.SetDefault("fetcher.nav_timeout_seconds", 30)
	v.SetDefault("fetcher.content_wait_seconds", 2)
	v.SetDefault("queue.provider", QueueKafka)
	v.SetDefault("queue.topic", "news-articles")
	v.SetDefault("queue.kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("queue.kafka.group_id", "newspipe-consumer")
	v.SetDefault("consumer.workers", 8)
	v.SetDefault("enrich.chat_model", "exaone3.5:latest")
	v.SetDefault("enrich.embed_base_url", "http://localhost:11434")
	v.SetDefault("enrich.embed_model", "bge-m3")
	v.SetDefault("enrich.embed_dim", 1024)
	v.SetDefault("enrich.token_budget", 5000)
	v.SetDefault("db.table", "news_articles")
	v.SetDefault("db.max_conns", 8)
	v.SetDefault("search.provider", SearchElastic)
	v.SetDefault("search.addresses", []string{"http://localhost:9200"})
	v.SetDefault("search.index", "news_articles")
	v.SetDefault("snapshot.provider", SnapshotLocal)
	v.SetDefault("snapshot.base_dir", "data/realtime")
}

// Validate checks provider switches and their required settings.
func (c Config) Validate() error {
	switch c.Queue.Provider {
	case QueueKafka:
		if len(c.Queue.Kafka.Brokers) == 0 {
			return fmt.Errorf("queue.kafka.brokers is required for the kafka provider")
		}
	case QueuePubSub:
		if c.Queue.PubSub.ProjectID == "" {
			return fmt.Errorf("queue.pubsub.project_id is required for the pubsub provider")
		}
	case QueueMemory:
	default:
		return fmt.Errorf("unknown queue provider %q", c.Queue.Provider)
	}
	if c.Queue.Topic == "" {
		return fmt.Errorf("queue.topic is required")
	}

	switch c.Fetcher.Provider {
	case FetcherHeadless, FetcherStatic, FetcherNoop:
	default:
		return fmt.Errorf("unknown fetcher provider %q", c.Fetcher.Provider)
	}

	switch c.Search.Provider {
	case SearchElastic:
		if len(c.Search.Addresses) == 0 {
			return fmt.Errorf("search.addresses is required for the elastic provider")
		}
	case SearchMemory, SearchNoop:
	default:
		return fmt.Errorf("unknown search provider %q", c.Search.Provider)
	}

	switch c.Snapshot.Provider {
	case SnapshotLocal:
		if c.Snapshot.BaseDir == "" {
			return fmt.Errorf("snapshot.base_dir is required for the local provider")
		}
	case SnapshotGCS:
		if c.Snapshot.Bucket == "" {
			return fmt.Errorf("snapshot.bucket is required for the gcs provider")
		}
	case SnapshotNoop:
	default:
		return fmt.Errorf("unknown snapshot provider %q", c.Snapshot.Provider)
	}

	if c.Consumer.Workers < 0 {
		return fmt.Errorf("consumer.workers must not be negative")
	}
	if c.Enrich.EmbedDim <= 0 {
		return fmt.Errorf("enrich.embed_dim must be positive")
	}

	return nil
}
