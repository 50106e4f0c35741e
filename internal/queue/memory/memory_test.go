package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fredjeong/news-data-processing/internal/queue"
)

func TestPublishThenNext(t *testing.T) {
	t.Parallel()

	q := New(4)
	require.NoError(t, q.Publish(context.Background(), []byte(`{"url":"http://x/1"}`)))

	payload, err := q.Next(context.Background())
	require.NoError(t, err)
	require.JSONEq(t, `{"url":"http://x/1"}`, string(payload))
}

func TestNextRespectsContext(t *testing.T) {
	t.Parallel()

	q := New(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Next(ctx)
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCloseDrainsToErrClosed(t *testing.T) {
	t.Parallel()

	q := New(2)
	require.NoError(t, q.Publish(context.Background(), []byte("one")))
	require.NoError(t, q.Close())
	require.NoError(t, q.Close())

	payload, err := q.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, "one", string(payload))

	_, err = q.Next(context.Background())
	require.ErrorIs(t, err, queue.ErrClosed)

	require.ErrorIs(t, q.Publish(context.Background(), []byte("two")), queue.ErrClosed)
}
