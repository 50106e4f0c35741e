// Package postgres provides the Postgres-backed article store.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/fredjeong/news-data-processing/internal/article"
)

// DefaultTable is the table articles are inserted into.
const DefaultTable = "news_articles"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ArticleStoreConfig controls the Postgres connection pool.
type ArticleStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// txBeginner is the slice of pgxpool.Pool the store needs; pgxmock satisfies it.
type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// ArticleStore inserts article records into Postgres inside caller-controlled
// transactions.
type ArticleStore struct {
	pool  txBeginner
	table string
}

// NewArticleStore creates a Postgres-backed ArticleStore using the provided config.
func NewArticleStore(ctx context.Context, cfg ArticleStoreConfig) (*ArticleStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = DefaultTable
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &ArticleStore{pool: pool, table: table}, nil
}

// NewArticleStoreWithPool constructs a store from an existing pool (primarily
// for testing).
func NewArticleStoreWithPool(pool txBeginner, table string) (*ArticleStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = DefaultTable
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &ArticleStore{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *ArticleStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Begin opens a transaction for one record's persistence flow.
func (s *ArticleStore) Begin(ctx context.Context) (*ArticleTx, error) {
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("article store is not configured")
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &ArticleTx{tx: tx, table: s.table}, nil
}

// ArticleTx is a single-record transaction. The caller must end it with
// Commit or Rollback.
type ArticleTx struct {
	tx    pgx.Tx
	table string
}

// Insert writes the record and returns its assigned ID. The URL column has a
// unique constraint; inserting a URL that already exists affects no rows and
// returns inserted=false with a zero ID. Gaps in the ID sequence from such
// conflicts are expected.
func (t *ArticleTx) Insert(ctx context.Context, rec article.Record) (id int64, inserted bool, err error) {
	if rec.Enrichment == nil {
		return 0, false, fmt.Errorf("record %q has no enrichment", rec.URL)
	}

	keywordsJSON, err := json.Marshal(rec.Enrichment.Keywords)
	if err != nil {
		return 0, false, fmt.Errorf("marshal keywords: %w", err)
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	company,
	title,
	writer,
	write_date,
	category,
	content,
	summary,
	url,
	keywords,
	title_embedding,
	content_embedding
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (url) DO NOTHING
RETURNING id;`, t.table)

	row := t.tx.QueryRow(ctx, query,
		rec.Company,
		rec.Title,
		rec.Writer,
		rec.WriteDate,
		rec.Enrichment.Category,
		rec.Content,
		rec.Enrichment.Summary,
		rec.URL,
		keywordsJSON,
		pgvector.NewVector(rec.Enrichment.TitleEmbedding),
		pgvector.NewVector(rec.Enrichment.ContentEmbedding),
	)
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("insert article: %w", err)
	}
	return id, true, nil
}

// Commit commits the transaction.
func (t *ArticleTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Rollback rolls the transaction back. Rolling back an already-ended
// transaction is a no-op.
func (t *ArticleTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("rollback transaction: %w", err)
	}
	return nil
}
