package persist

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fredjeong/news-data-processing/internal/article"
	searchmem "github.com/fredjeong/news-data-processing/internal/search/memory"
)

type fakeTx struct {
	id        int64
	inserted  bool
	insertErr error
	commitErr error

	committed  bool
	rolledBack bool
}

func (t *fakeTx) Insert(context.Context, article.Record) (int64, bool, error) {
	return t.id, t.inserted, t.insertErr
}

func (t *fakeTx) Commit(context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	t.rolledBack = true
	return nil
}

type fakeStore struct {
	tx       *fakeTx
	beginErr error
}

func (s *fakeStore) Begin(context.Context) (Tx, error) {
	if s.beginErr != nil {
		return nil, s.beginErr
	}
	return s.tx, nil
}

type fakeSnapshots struct {
	saved []article.Record
	err   error
}

func (s *fakeSnapshots) Save(_ context.Context, rec article.Record) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.saved = append(s.saved, rec)
	return "file:///tmp/article.json", nil
}

func testRecord() article.Record {
	return article.Record{
		Company:    "경향신문",
		Title:      "제목",
		URL:        "http://x/1",
		Enrichment: article.NewFallbackEnrichment(4),
	}
}

func TestPersistSuccess(t *testing.T) {
	t.Parallel()

	tx := &fakeTx{id: 42, inserted: true}
	snaps := &fakeSnapshots{}
	idx := searchmem.New()
	c := New(&fakeStore{tx: tx}, snaps, idx, zap.NewNop())

	res, err := c.Persist(context.Background(), testRecord())
	require.NoError(t, err)
	require.Equal(t, OutcomeIndexed, res.Outcome)
	require.Equal(t, int64(42), res.ID)
	require.True(t, tx.committed)
	require.False(t, tx.rolledBack)

	// The snapshot and the document both carry the assigned ID.
	require.Len(t, snaps.saved, 1)
	require.Equal(t, int64(42), snaps.saved[0].ID)
	doc, ok := idx.Get(42)
	require.True(t, ok)
	require.Equal(t, "제목", doc.Title)
}

func TestPersistDuplicateCommitsWithoutWriting(t *testing.T) {
	t.Parallel()

	tx := &fakeTx{inserted: false}
	snaps := &fakeSnapshots{}
	idx := searchmem.New()
	c := New(&fakeStore{tx: tx}, snaps, idx, zap.NewNop())

	res, err := c.Persist(context.Background(), testRecord())
	require.NoError(t, err)
	require.Equal(t, OutcomeDuplicate, res.Outcome)
	require.Zero(t, res.ID)
	require.True(t, tx.committed)
	require.Empty(t, snaps.saved)
	require.Zero(t, idx.Len())
}

func TestPersistIndexFailureRollsBack(t *testing.T) {
	t.Parallel()

	tx := &fakeTx{id: 42, inserted: true}
	idx := searchmem.New()
	idx.FailWith(errors.New("es down"))
	c := New(&fakeStore{tx: tx}, &fakeSnapshots{}, idx, zap.NewNop())

	res, err := c.Persist(context.Background(), testRecord())
	require.ErrorContains(t, err, "es down")
	require.Equal(t, OutcomeIndexFailed, res.Outcome)
	require.Zero(t, res.ID)
	require.True(t, tx.rolledBack)
	require.False(t, tx.committed)
}

func TestPersistSnapshotFailureDoesNotBlock(t *testing.T) {
	t.Parallel()

	tx := &fakeTx{id: 42, inserted: true}
	idx := searchmem.New()
	c := New(&fakeStore{tx: tx}, &fakeSnapshots{err: errors.New("disk full")}, idx, zap.NewNop())

	res, err := c.Persist(context.Background(), testRecord())
	require.NoError(t, err)
	require.Equal(t, OutcomeIndexed, res.Outcome)
	require.True(t, tx.committed)
	require.Equal(t, 1, idx.Len())
}

func TestPersistInsertErrorRollsBack(t *testing.T) {
	t.Parallel()

	tx := &fakeTx{insertErr: errors.New("connection reset")}
	c := New(&fakeStore{tx: tx}, &fakeSnapshots{}, searchmem.New(), zap.NewNop())

	res, err := c.Persist(context.Background(), testRecord())
	require.ErrorContains(t, err, "connection reset")
	require.Equal(t, OutcomePending, res.Outcome)
	require.True(t, tx.rolledBack)
}

func TestPersistBeginError(t *testing.T) {
	t.Parallel()

	c := New(&fakeStore{beginErr: errors.New("pool exhausted")}, &fakeSnapshots{}, searchmem.New(), zap.NewNop())

	res, err := c.Persist(context.Background(), testRecord())
	require.ErrorContains(t, err, "pool exhausted")
	require.Equal(t, OutcomePending, res.Outcome)
}

func TestPersistCommitErrorRollsBack(t *testing.T) {
	t.Parallel()

	tx := &fakeTx{id: 42, inserted: true, commitErr: errors.New("commit lost")}
	c := New(&fakeStore{tx: tx}, &fakeSnapshots{}, searchmem.New(), zap.NewNop())

	res, err := c.Persist(context.Background(), testRecord())
	require.ErrorContains(t, err, "commit lost")
	require.Equal(t, OutcomePending, res.Outcome)
	require.True(t, tx.rolledBack)
}
