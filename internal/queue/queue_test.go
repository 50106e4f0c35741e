package queue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeKeepsKoreanUnescaped(t *testing.T) {
	t.Parallel()

	payload := map[string]string{"title": "금리 동결", "url": "http://x/1?a=b&c=d"}
	data, err := Encode(payload)
	require.NoError(t, err)

	require.Contains(t, string(data), "금리 동결")
	require.Contains(t, string(data), "a=b&c=d")
	require.NotContains(t, string(data), `\u`)
	require.NotContains(t, string(data), "\n")
}

func TestEncodeRejectsUnencodable(t *testing.T) {
	t.Parallel()

	_, err := Encode(make(chan int))
	require.Error(t, err)
}
