package openai

import (
	"context"
	"fmt"
	"log/slog"
	gohttp "net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/alan-mat/webanswer/internal/api"
	"github.com/alan-mat/webanswer/internal/llm"
)

const DefaultModel = openai.GPT4oMini

type OpenAIProvider struct {
	client *openai.Client
	model  string
}

type Option func(*openai.ClientConfig)

// WithBaseURL points the client at an OpenAI compatible endpoint,
// e.g. "http://localhost:11434/v1".
func WithBaseURL(baseURL string) Option {
	return func(c *openai.ClientConfig) {
		if baseURL != "" {
			c.BaseURL = baseURL
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *openai.ClientConfig) {
		if timeout > 0 {
			c.HTTPClient = &gohttp.Client{Timeout: timeout}
		}
	}
}

func New(apiKey string, model string, opts ...Option) *OpenAIProvider {
	config := openai.DefaultConfig(apiKey)
	for _, opt := range opts {
		opt(&config)
	}

	if model == "" {
		model = DefaultModel
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Chat performs a single, non-streaming chat completion and
// returns the text content of the first choice.
func (p OpenAIProvider) Chat(ctx context.Context, req api.ChatRequest) (string, error) {
	openaiReq := openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: parseMessages(req.Messages),
	}

	if req.ModelName != "" {
		openaiReq.Model = req.ModelName
	}
	if req.Temperature != nil {
		openaiReq.Temperature = *req.Temperature
	}
	if req.JSONMode {
		openaiReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, openaiReq)
	if err != nil {
		return "", fmt.Errorf("%w: chat completion failed: %w", api.ErrUpstreamRequest, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: chat completion returned no choices", api.ErrMalformedUpstream)
	}

	slog.Debug("chat completion finished", "provider", "openai", "model", resp.Model,
		"finish_reason", resp.Choices[0].FinishReason, "total_tokens", resp.Usage.TotalTokens)
	return resp.Choices[0].Message.Content, nil
}

func parseMessages(msgs []llm.Message) []openai.ChatCompletionMessage {
	roleTypes := map[llm.MessageRole]string{
		llm.MessageRoleSystem:    openai.ChatMessageRoleSystem,
		llm.MessageRoleUser:      openai.ChatMessageRoleUser,
		llm.MessageRoleAssistant: openai.ChatMessageRoleAssistant,
	}

	out := make([]openai.ChatCompletionMessage, len(msgs))
	for i, m := range msgs {
		out[i] = openai.ChatCompletionMessage{
			Role:    roleTypes[m.Role],
			Content: m.Text(),
		}
	}
	return out
}
