package enrich

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitKeywords(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{"plain", "금리, 물가, 환율, 수출, 고용", []string{"금리", "물가", "환율", "수출", "고용"}},
		{"bold markers", "**금리**, **물가**", []string{"금리", "물가"}},
		{"extra whitespace", "  금리 ,물가  ", []string{"금리", "물가"}},
		{"empty parts", "금리,,물가,", []string{"금리", "물가"}},
		{"empty answer", "", nil},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := splitKeywords(tc.raw)
			if tc.want == nil {
				require.Empty(t, got)
				return
			}
			require.Equal(t, tc.want, got)
		})
	}
}

func newChatTestServer(t *testing.T, answer string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		require.Equal(t, "system", req.Messages[0].Role)

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": answer}},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestChatClientKeywords(t *testing.T) {
	t.Parallel()

	srv := newChatTestServer(t, "**금리**, 물가, 환율, 수출, 고용")
	defer srv.Close()

	c, err := NewChatClient(ChatConfig{BaseURL: srv.URL + "/v1", APIKey: "test", Model: "m"})
	require.NoError(t, err)

	got, err := c.Keywords(context.Background(), "기사 본문")
	require.NoError(t, err)
	require.Equal(t, []string{"금리", "물가", "환율", "수출", "고용"}, got)
}

func TestChatClientSummary(t *testing.T) {
	t.Parallel()

	srv := newChatTestServer(t, "  한국은행이 기준금리를 동결했다.  ")
	defer srv.Close()

	c, err := NewChatClient(ChatConfig{BaseURL: srv.URL + "/v1", APIKey: "test", Model: "m"})
	require.NoError(t, err)

	got, err := c.Summary(context.Background(), "기사 본문")
	require.NoError(t, err)
	require.Equal(t, "한국은행이 기준금리를 동결했다.", got)
}

func TestNewChatClientRequiresModel(t *testing.T) {
	t.Parallel()

	_, err := NewChatClient(ChatConfig{BaseURL: "http://localhost"})
	require.Error(t, err)
}
