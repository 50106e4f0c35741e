package enrich

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/fredjeong/news-data-processing/internal/metrics"
)

// keywordPrompt constrains the model to five short Korean keywords in a fixed
// comma-separated shape. The model is not guaranteed to honor it; the caller
// repairs the list to the fixed length.
const keywordPrompt = `You are the greatest journalist the world has ever seen. ` +
	`Your task now is to extract keywords from a news article. ` +
	`When given text, extract five keywords that best represent the article. ` +
	`Your answer should follow a certain format. ` +
	`For example, if the top five keywords are apple, banana, kiwi, pineapple, mango, ` +
	`your output must be 'apple, banana, kiwi, pineapple, mango'. ` +
	`Double check your answer before you give the output and see if you followed this instruction. ` +
	`Your keywords must be in Korean. Make sure each keyword is less than 10 characters.`

// summaryPrompt constrains the model to a Korean summary of at most 100 words.
const summaryPrompt = `You are the greatest journalist the world has ever seen. ` +
	`Your task now is to summarise news articles. ` +
	`When given text, summarise the article in 100 words or less. ` +
	`Make sure your response is concise and to the point. ` +
	`Also, your summary should be in Korean.`

// ChatConfig configures the generative model endpoint. BaseURL may point at
// any OpenAI-compatible server (ollama's /v1 in the reference deployment).
type ChatConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// ChatClient calls a generative model for keyword extraction and summarization.
type ChatClient struct {
	client *openai.Client
	model  string
}

// NewChatClient builds a ChatClient.
func NewChatClient(cfg ChatConfig) (*ChatClient, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("chat model name is required")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &ChatClient{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}, nil
}

// Keywords asks the model for five comma-separated Korean keywords and splits
// the answer. The result may be shorter or longer than five; the enricher
// normalizes the length.
func (c *ChatClient) Keywords(ctx context.Context, text string) ([]string, error) {
	start := time.Now()
	raw, err := c.complete(ctx, keywordPrompt, text)
	metrics.ObserveEnrichment("keywords", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("keyword extraction: %w", err)
	}
	return splitKeywords(raw), nil
}

// Summary asks the model for a Korean summary of at most 100 words.
func (c *ChatClient) Summary(ctx context.Context, text string) (string, error) {
	start := time.Now()
	raw, err := c.complete(ctx, summaryPrompt, text)
	metrics.ObserveEnrichment("summary", time.Since(start))
	if err != nil {
		return "", fmt.Errorf("summary extraction: %w", err)
	}
	return strings.TrimSpace(raw), nil
}

func (c *ChatClient) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// splitKeywords splits a comma-separated answer and strips whitespace and the
// bold markers some models wrap terms in.
func splitKeywords(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		p = strings.Trim(p, "*")
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
