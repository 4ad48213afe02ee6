package synth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"text/template"

	"github.com/alan-mat/webanswer/internal/answer"
	"github.com/alan-mat/webanswer/internal/api"
	"github.com/alan-mat/webanswer/internal/config"
	"github.com/alan-mat/webanswer/internal/llm"
	"github.com/alan-mat/webanswer/internal/provider"
)

const (
	promptSystem = `You are an assistant that answers strictly in JSON format.
You are given the following fields:
1) id (number)
2) answer (number from 1 to 10 or null)
3) reasoning (string)
4) sources (array of strings)

You must return valid JSON, without any text outside the JSON object.
If the question does not ask to choose between numbered options, return null in answer.
In sources, include only links that were given to you in the context.
At the end of reasoning, state that the answer was generated by {{.Model}}.
`

	promptUser = `Request id:
{{.ID}}

User query:
{{.Query}}

Context:
{{.Context}}

Return JSON with the structure:
{
  "id": {{.ID}},
  "answer": <number or null>,
  "reasoning": "<string>",
  "sources": ["<string>", "<string>", ...]
}
`
)

type Synthesizer struct {
	lm          provider.LMProvider
	model       string
	temperature *float32
	jsonMode    bool

	templateSystem template.Template
	templateUser   template.Template
}

func New(lm provider.LMProvider, conf config.LLMConfig) *Synthesizer {
	return &Synthesizer{
		lm:             lm,
		model:          conf.Model,
		temperature:    conf.Temperature,
		jsonMode:       conf.JSONMode,
		templateSystem: *template.Must(template.New("promptSystem").Parse(promptSystem)),
		templateUser:   *template.Must(template.New("promptUser").Parse(promptUser)),
	}
}

// Synthesize asks the language model to answer q from modelContext
// and returns the raw completion text. The output is not validated here.
func (s *Synthesizer) Synthesize(ctx context.Context, q api.Query, modelContext string) (string, error) {
	req, err := s.BuildRequest(q, modelContext)
	if err != nil {
		return "", err
	}

	out, err := s.lm.Chat(ctx, req)
	if err != nil {
		if !errors.Is(err, api.ErrUpstreamRequest) && !errors.Is(err, api.ErrMalformedUpstream) {
			err = fmt.Errorf("%w: %w", api.ErrUpstreamRequest, err)
		}
		return "", fmt.Errorf("answer synthesis failed for request %d: %w", q.ID, err)
	}

	slog.Debug("answer synthesized", "id", q.ID, "output_len", len(out))
	return out, nil
}

// BuildRequest renders the instruction preamble and the user message for q.
func (s *Synthesizer) BuildRequest(q api.Query, modelContext string) (api.ChatRequest, error) {
	var sys bytes.Buffer
	err := s.templateSystem.Execute(&sys, struct{ Model string }{Model: s.model})
	if err != nil {
		return api.ChatRequest{}, fmt.Errorf("failed to parse system prompt template: %w", err)
	}

	type templatePayload struct {
		ID      int64
		Query   string
		Context string
	}
	var user bytes.Buffer
	err = s.templateUser.Execute(&user, templatePayload{ID: q.ID, Query: q.Query, Context: modelContext})
	if err != nil {
		return api.ChatRequest{}, fmt.Errorf("failed to parse prompt template for query '%s': %w", q.Query, err)
	}

	return api.ChatRequest{
		Messages: []llm.Message{
			llm.TextMessage(llm.MessageRoleSystem, sys.String()),
			llm.TextMessage(llm.MessageRoleUser, user.String()),
		},
		Temperature:    s.temperature,
		ResponseSchema: answer.Schema(),
		JSONMode:       s.jsonMode,
	}, nil
}
