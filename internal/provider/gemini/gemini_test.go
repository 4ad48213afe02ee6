package gemini

import (
	"context"
	"encoding/json"
	gohttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/alan-mat/webanswer/internal/api"
	"github.com/alan-mat/webanswer/internal/llm"
)

func TestChat(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "gemini-2.0-flash:generateContent"), r.URL.Path)
		assert.Equal(t, "gemini-key", r.Header.Get("x-goog-api-key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body, "systemInstruction")
		gc, ok := body["generationConfig"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "application/json", gc["responseMimeType"])
		assert.Contains(t, gc, "responseSchema")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"candidates": [{
				"content": {"role": "model", "parts": [{"text": "{\"id\": 7}"}]},
				"finishReason": "STOP"
			}]
		}`))
	}))
	defer srv.Close()

	p, err := New(context.Background(), "gemini-key", "", WithBaseURL(srv.URL))
	require.NoError(t, err)

	out, err := p.Chat(context.Background(), api.ChatRequest{
		Messages: []llm.Message{
			llm.TextMessage(llm.MessageRoleSystem, "answer in json"),
			llm.TextMessage(llm.MessageRoleUser, "question"),
		},
		ResponseSchema: &api.Schema{
			Type:       api.TypeObject,
			Properties: map[string]*api.Schema{"id": {Type: api.TypeInteger}},
			Required:   []string{"id"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"id": 7}`, out)
}

func TestChatUpstreamError(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(gohttp.StatusBadRequest)
		w.Write([]byte(`{"error": {"code": 400, "message": "API key not valid", "status": "INVALID_ARGUMENT"}}`))
	}))
	defer srv.Close()

	p, err := New(context.Background(), "bad-key", "", WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = p.Chat(context.Background(), api.ChatRequest{
		Messages: []llm.Message{llm.TextMessage(llm.MessageRoleUser, "q")},
	})
	require.ErrorIs(t, err, api.ErrUpstreamRequest)
}

func TestParseResponseSchema(t *testing.T) {
	minimum, maximum := 1.0, 10.0
	s := parseResponseSchema(&api.Schema{
		Type: api.TypeObject,
		Properties: map[string]*api.Schema{
			"answer":  {Type: api.TypeInteger, Nullable: true, Minimum: &minimum, Maximum: &maximum},
			"sources": {Type: api.TypeArray, Items: &api.Schema{Type: api.TypeString, Format: "http-url"}},
		},
		Required: []string{"sources"},
	})

	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Equal(t, []string{"sources"}, s.Required)

	answer := s.Properties["answer"]
	require.NotNil(t, answer)
	assert.Equal(t, genai.TypeInteger, answer.Type)
	require.NotNil(t, answer.Nullable)
	assert.True(t, *answer.Nullable)
	assert.Equal(t, 10.0, *answer.Maximum)

	sources := s.Properties["sources"]
	require.NotNil(t, sources.Items)
	assert.Equal(t, genai.TypeString, sources.Items.Type)
	assert.Empty(t, sources.Items.Format)
	assert.Nil(t, sources.Nullable)
}
