package synth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alan-mat/webanswer/internal/api"
	"github.com/alan-mat/webanswer/internal/config"
	"github.com/alan-mat/webanswer/internal/llm"
	"github.com/alan-mat/webanswer/internal/synth"
)

type fakeLM struct {
	out  string
	err  error
	reqs []api.ChatRequest
}

func (f *fakeLM) Chat(_ context.Context, req api.ChatRequest) (string, error) {
	f.reqs = append(f.reqs, req)
	return f.out, f.err
}

func TestSynthesize(t *testing.T) {
	lm := &fakeLM{out: `{"id": 42}`}
	temp := float32(0.1)
	s := synth.New(lm, config.LLMConfig{Model: "gpt-4o-mini", Temperature: &temp, JSONMode: true})

	q := api.Query{ID: 42, Query: "What is the capital of France?"}
	out, err := s.Synthesize(context.Background(), q, "Paris is the capital of France.\nFrance is in Europe.")
	require.NoError(t, err)
	assert.Equal(t, `{"id": 42}`, out)

	require.Len(t, lm.reqs, 1)
	req := lm.reqs[0]
	assert.True(t, req.JSONMode)
	assert.Equal(t, &temp, req.Temperature)
	require.NotNil(t, req.ResponseSchema)
	assert.Equal(t, api.TypeObject, req.ResponseSchema.Type)

	require.Len(t, req.Messages, 2)
	assert.Equal(t, llm.MessageRoleSystem, req.Messages[0].Role)
	assert.Contains(t, req.SystemPrompt(), "strictly in JSON")
	assert.Contains(t, req.SystemPrompt(), "generated by gpt-4o-mini")

	user := req.Messages[1].Text()
	assert.Equal(t, llm.MessageRoleUser, req.Messages[1].Role)
	assert.Contains(t, user, "42")
	assert.Contains(t, user, "What is the capital of France?")
	assert.Contains(t, user, "Paris is the capital of France.\nFrance is in Europe.")
	assert.Contains(t, user, `"sources": [`)
}

func TestSynthesizeEmptyContext(t *testing.T) {
	lm := &fakeLM{out: "{}"}
	s := synth.New(lm, config.LLMConfig{Model: "m"})

	_, err := s.Synthesize(context.Background(), api.Query{ID: 1, Query: "q"}, "")
	require.NoError(t, err)
	assert.Contains(t, lm.reqs[0].Messages[1].Text(), "Context:\n\n")
}

func TestSynthesizeProviderFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"upstream error kept", api.ErrUpstreamRequest, api.ErrUpstreamRequest},
		{"malformed kept", api.ErrMalformedUpstream, api.ErrMalformedUpstream},
		{"other error wrapped", errors.New("connection reset"), api.ErrUpstreamRequest},
		{"deadline wrapped", context.DeadlineExceeded, context.DeadlineExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := synth.New(&fakeLM{err: tt.err}, config.LLMConfig{Model: "m"})

			out, err := s.Synthesize(context.Background(), api.Query{ID: 1, Query: "q"}, "ctx")
			require.Error(t, err)
			assert.Empty(t, out)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
