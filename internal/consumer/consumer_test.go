package consumer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fredjeong/news-data-processing/internal/article"
	"github.com/fredjeong/news-data-processing/internal/persist"
	"github.com/fredjeong/news-data-processing/internal/queue"
	queuemem "github.com/fredjeong/news-data-processing/internal/queue/memory"
)

type fakeEnricher struct {
	err error
}

func (f *fakeEnricher) Enrich(_ context.Context, rec article.Record) (article.Record, error) {
	if f.err != nil {
		return rec, f.err
	}
	rec.Enrichment = article.NewFallbackEnrichment(4)
	return rec, nil
}

type fakePersister struct {
	mu      sync.Mutex
	records []article.Record
	err     error
}

func (f *fakePersister) Persist(_ context.Context, rec article.Record) (persist.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return persist.Result{Outcome: persist.OutcomePending}, f.err
	}
	f.records = append(f.records, rec)
	return persist.Result{Outcome: persist.OutcomeIndexed, ID: int64(len(f.records))}, nil
}

func (f *fakePersister) all() []article.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]article.Record(nil), f.records...)
}

func publishRecords(t *testing.T, q *queuemem.Queue, recs ...article.Record) {
	t.Helper()
	for _, rec := range recs {
		payload, err := queue.Encode(rec)
		require.NoError(t, err)
		require.NoError(t, q.Publish(context.Background(), payload))
	}
}

func TestRunDrainsQueueThroughPipeline(t *testing.T) {
	t.Parallel()

	q := queuemem.New(16)
	publishRecords(t, q,
		article.Record{Company: "경향신문", Title: "A", URL: "http://x/1", WriteDate: "2025-05-16T13:56:00+09:00", Content: "본문"},
		article.Record{Company: "매일경제", Title: "B", URL: "http://x/2", WriteDate: "Mon, 02 Jan 2006 15:04:05 +0900"},
		article.Record{Company: "연합뉴스", Title: "C", URL: "http://x/3", WriteDate: "garbage"},
	)
	require.NoError(t, q.Close())

	sink := &fakePersister{}
	c := New(q, &fakeEnricher{}, sink, 2, zap.NewNop())
	require.NoError(t, c.Run(context.Background()))

	records := sink.all()
	require.Len(t, records, 3)

	byURL := make(map[string]article.Record, len(records))
	for _, rec := range records {
		require.NotNil(t, rec.Enrichment)
		byURL[rec.URL] = rec
	}
	require.Equal(t, "2025-05-16T13:56:00+09:00", byURL["http://x/1"].WriteDate)
	require.Equal(t, "2006-01-02T15:04:05+09:00", byURL["http://x/2"].WriteDate)
	require.Equal(t, article.DefaultWriteDate, byURL["http://x/3"].WriteDate)
}

func TestRunDropsMalformedMessages(t *testing.T) {
	t.Parallel()

	q := queuemem.New(16)
	require.NoError(t, q.Publish(context.Background(), []byte("not json")))
	publishRecords(t, q, article.Record{Title: "ok", URL: "http://x/1"})
	require.NoError(t, q.Close())

	sink := &fakePersister{}
	c := New(q, &fakeEnricher{}, sink, 1, zap.NewNop())
	require.NoError(t, c.Run(context.Background()))

	require.Len(t, sink.all(), 1)
}

func TestRunIsolatesEnrichmentFailures(t *testing.T) {
	t.Parallel()

	q := queuemem.New(16)
	publishRecords(t, q,
		article.Record{Title: "A", URL: "http://x/1"},
		article.Record{Title: "B", URL: "http://x/2"},
	)
	require.NoError(t, q.Close())

	sink := &fakePersister{}
	c := New(q, &fakeEnricher{err: errors.New("llm down")}, sink, 2, zap.NewNop())
	require.NoError(t, c.Run(context.Background()))

	require.Empty(t, sink.all())
}

func TestRunIsolatesPersistenceFailures(t *testing.T) {
	t.Parallel()

	q := queuemem.New(16)
	publishRecords(t, q, article.Record{Title: "A", URL: "http://x/1"})
	require.NoError(t, q.Close())

	sink := &fakePersister{err: errors.New("db down")}
	c := New(q, &fakeEnricher{}, sink, 1, zap.NewNop())
	require.NoError(t, c.Run(context.Background()))
}

func TestRunStopsOnCanceledContext(t *testing.T) {
	t.Parallel()

	q := queuemem.New(1)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	c := New(q, &fakeEnricher{}, &fakePersister{}, 2, zap.NewNop())
	go func() { done <- c.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop after cancel")
	}
}
