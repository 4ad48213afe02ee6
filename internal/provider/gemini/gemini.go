package gemini

import (
	"context"
	"fmt"
	"log/slog"
	gohttp "net/http"
	"time"

	"google.golang.org/genai"

	"github.com/alan-mat/webanswer/internal/api"
	"github.com/alan-mat/webanswer/internal/llm"
)

const DefaultModel = "gemini-2.0-flash"

type GeminiProvider struct {
	client *genai.Client
	model  string
}

type Option func(*genai.ClientConfig)

// WithBaseURL overrides the Gemini API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *genai.ClientConfig) {
		if baseURL != "" {
			c.HTTPOptions.BaseURL = baseURL
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *genai.ClientConfig) {
		if timeout > 0 {
			c.HTTPClient = &gohttp.Client{Timeout: timeout}
		}
	}
}

func New(ctx context.Context, apiKey string, model string, opts ...Option) (*GeminiProvider, error) {
	config := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		opt(config)
	}

	c, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	if model == "" {
		model = DefaultModel
	}

	return &GeminiProvider{
		client: c,
		model:  model,
	}, nil
}

func (p GeminiProvider) Chat(ctx context.Context, req api.ChatRequest) (string, error) {
	contents := parseMessages(req.Conversation())

	config := &genai.GenerateContentConfig{
		Temperature: req.Temperature,
	}
	if sp := req.SystemPrompt(); sp != "" {
		config.SystemInstruction = genai.NewContentFromText(sp, "")
	}

	if req.ResponseSchema != nil {
		config.ResponseSchema = parseResponseSchema(req.ResponseSchema)
		config.ResponseMIMEType = "application/json"
	} else if req.JSONMode {
		config.ResponseMIMEType = "application/json"
	}

	modelName := p.model
	if req.ModelName != "" {
		modelName = req.ModelName
	}

	resp, err := p.client.Models.GenerateContent(ctx, modelName, contents, config)
	if err != nil {
		return "", fmt.Errorf("%w: generate content failed: %w", api.ErrUpstreamRequest, err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: generate content returned no candidates", api.ErrMalformedUpstream)
	}

	slog.Debug("chat completion finished", "provider", "gemini", "model", modelName,
		"finish_reason", resp.Candidates[0].FinishReason)
	return resp.Text(), nil
}

func parseMessages(msgs []llm.Message) []*genai.Content {
	roleTypes := map[llm.MessageRole]genai.Role{
		llm.MessageRoleUser:      genai.RoleUser,
		llm.MessageRoleAssistant: genai.RoleModel,
	}

	contents := make([]*genai.Content, len(msgs))
	for i, m := range msgs {
		contents[i] = genai.NewContentFromText(m.Text(), roleTypes[m.Role])
	}
	return contents
}

// parseResponseSchema converts s into the OpenAPI subset understood by Gemini.
// Formats other than the ones Gemini knows about are dropped.
func parseResponseSchema(s *api.Schema) *genai.Schema {
	schema := &genai.Schema{
		Description: s.Description,
		Title:       s.Title,
		Required:    s.Required,
		Type:        parseType(s.Type),
		Minimum:     s.Minimum,
		Maximum:     s.Maximum,
		MinLength:   s.MinLength,
	}

	if s.Nullable {
		nullable := true
		schema.Nullable = &nullable
	}

	if s.Items != nil {
		schema.Items = parseResponseSchema(s.Items)
	}

	if s.Properties != nil {
		properties := make(map[string]*genai.Schema, len(s.Properties))
		for k, v := range s.Properties {
			properties[k] = parseResponseSchema(v)
		}
		schema.Properties = properties
	}

	return schema
}

func parseType(t api.DataType) genai.Type {
	switch t {
	case api.TypeString:
		return genai.TypeString
	case api.TypeNumber:
		return genai.TypeNumber
	case api.TypeInteger:
		return genai.TypeInteger
	case api.TypeBoolean:
		return genai.TypeBoolean
	case api.TypeArray:
		return genai.TypeArray
	case api.TypeObject:
		return genai.TypeObject
	default:
		return genai.TypeUnspecified
	}
}
