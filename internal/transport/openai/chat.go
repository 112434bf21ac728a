package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/curriqa/internal/domain"
	"github.com/kailas-cloud/curriqa/internal/metrics"
)

// ChatModel is a chat completion provider using the OpenAI-compatible API.
// Temperature is pinned to 0: summaries, rewrites and answers should be
// deterministic for identical inputs.
type ChatModel struct {
	client  *openai.Client
	model   string
	purpose string // metrics label: "context", "chat", ...
	logger  *zap.Logger
}

// ChatConfig holds the chat completion provider settings.
type ChatConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Purpose string
	Logger  *zap.Logger
}

// NewChatModel creates an OpenAI-compatible chat completion provider.
func NewChatModel(cfg *ChatConfig) *ChatModel {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &ChatModel{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		purpose: cfg.Purpose,
		logger:  cfg.Logger,
	}
}

// Model returns the configured model name.
func (m *ChatModel) Model() string { return m.model }

// WithModel returns a copy speaking to a different model through the same client.
func (m *ChatModel) WithModel(model string) *ChatModel {
	clone := *m
	clone.model = model
	return &clone
}

// Generate implements domain.ChatModel.
func (m *ChatModel) Generate(ctx context.Context, messages []domain.Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       m.model,
		Temperature: 0,
		Messages:    make([]openai.ChatCompletionMessage, len(messages)),
	}
	for i, msg := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{Role: msg.Role, Content: msg.Content}
	}

	start := time.Now()

	resp, err := m.client.CreateChatCompletion(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(m.model, m.purpose, "error").Inc()
		return "", parseAPIError("chat", err, domain.ErrLLMProviderError)
	}

	if len(resp.Choices) == 0 {
		metrics.LLMRequestsTotal.WithLabelValues(m.model, m.purpose, "error").Inc()
		return "", fmt.Errorf("empty chat completion response: %w", domain.ErrLLMProviderError)
	}

	metrics.LLMRequestsTotal.WithLabelValues(m.model, m.purpose, "success").Inc()
	metrics.LLMRequestDuration.WithLabelValues(m.model, m.purpose).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.LLMTokensTotal.WithLabelValues(m.model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.LLMTokensTotal.WithLabelValues(m.model, "completion").Add(float64(resp.Usage.CompletionTokens))
	}

	return resp.Choices[0].Message.Content, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (m *ChatModel) HealthCheck(ctx context.Context) error {
	if _, err := m.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}
