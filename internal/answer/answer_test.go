package answer_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alan-mat/webanswer/internal/answer"
	"github.com/alan-mat/webanswer/internal/api"
)

func TestParseValid(t *testing.T) {
	raw := `{
		"id": 1,
		"answer": 1,
		"reasoning": "Paris is the capital of France. Generated by gpt-4o-mini.",
		"sources": ["https://a.example/paris"]
	}`

	a, err := answer.Parse(raw, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.ID)
	require.NotNil(t, a.Answer)
	assert.Equal(t, 1, *a.Answer)
	assert.Equal(t, "Paris is the capital of France. Generated by gpt-4o-mini.", a.Reasoning)
	assert.Equal(t, []string{"https://a.example/paris"}, a.Sources)
}

func TestParseNullOrMissingAnswer(t *testing.T) {
	for name, raw := range map[string]string{
		"null":    `{"id": 5, "answer": null, "reasoning": "no choices", "sources": []}`,
		"missing": `{"id": 5, "reasoning": "no choices", "sources": []}`,
	} {
		t.Run(name, func(t *testing.T) {
			a, err := answer.Parse(raw, 5)
			require.NoError(t, err)
			assert.Nil(t, a.Answer)
			assert.NotNil(t, a.Sources)
			assert.Empty(t, a.Sources)

			out, err := json.Marshal(a)
			require.NoError(t, err)
			assert.JSONEq(t, `{"id": 5, "answer": null, "reasoning": "no choices", "sources": []}`, string(out))
		})
	}
}

func TestParseIgnoresUnknownFields(t *testing.T) {
	a, err := answer.Parse(`{"id": 2, "answer": 10, "reasoning": "r", "sources": [], "confidence": 0.9}`, 2)
	require.NoError(t, err)
	assert.Equal(t, 10, *a.Answer)
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{"plain prose", `Paris is the capital of France.`, ""},
		{"empty output", ``, ""},
		{"fenced json", "```json\n{\"id\": 1, \"reasoning\": \"r\", \"sources\": []}\n```", ""},
		{"trailing text", `{"id": 1, "reasoning": "r", "sources": []} hope this helps`, ""},
		{"array document", `[1, 2]`, ""},
		{"answer above range", `{"id": 1, "answer": 11, "reasoning": "r", "sources": []}`, "answer"},
		{"answer below range", `{"id": 1, "answer": 0, "reasoning": "r", "sources": []}`, "answer"},
		{"answer not integer", `{"id": 1, "answer": 2.5, "reasoning": "r", "sources": []}`, "answer"},
		{"answer as string", `{"id": 1, "answer": "3", "reasoning": "r", "sources": []}`, "answer"},
		{"missing id", `{"answer": 1, "reasoning": "r", "sources": []}`, "id"},
		{"missing reasoning", `{"id": 1, "answer": 1, "sources": []}`, "reasoning"},
		{"empty reasoning", `{"id": 1, "reasoning": "", "sources": []}`, "reasoning"},
		{"missing sources", `{"id": 1, "reasoning": "r"}`, "sources"},
		{"null sources", `{"id": 1, "reasoning": "r", "sources": null}`, "sources"},
		{"source not a url", `{"id": 1, "reasoning": "r", "sources": ["https://a.example", "not a url"]}`, "sources.1"},
		{"source without scheme", `{"id": 1, "reasoning": "r", "sources": ["a.example/page"]}`, "sources.0"},
		{"source with other scheme", `{"id": 1, "reasoning": "r", "sources": ["ftp://a.example/file"]}`, "sources.0"},
		{"id mismatch", `{"id": 2, "answer": 1, "reasoning": "r", "sources": []}`, "id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := answer.Parse(tt.raw, 1)
			require.Error(t, err)
			assert.Nil(t, a)
			assert.ErrorIs(t, err, api.ErrOutputValidation)
			assert.Equal(t, api.KindOutputValidation, api.KindOf(err))

			var verr *answer.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestParseAnswerBoundaries(t *testing.T) {
	for _, n := range []int{answer.MinChoice, 5, answer.MaxChoice} {
		raw, err := json.Marshal(map[string]any{"id": 9, "answer": n, "reasoning": "r", "sources": []string{}})
		require.NoError(t, err)

		a, err := answer.Parse(string(raw), 9)
		require.NoError(t, err)
		assert.Equal(t, n, *a.Answer)
	}
}

func TestIsHTTPURL(t *testing.T) {
	assert.True(t, answer.IsHTTPURL("https://itmo.ru/en/"))
	assert.True(t, answer.IsHTTPURL("http://a.example:8080/path?q=1"))
	assert.False(t, answer.IsHTTPURL("https://"))
	assert.False(t, answer.IsHTTPURL("mailto:someone@example.com"))
	assert.False(t, answer.IsHTTPURL("/relative/path"))
	assert.False(t, answer.IsHTTPURL("::not a url"))
}

func TestSchemaDocument(t *testing.T) {
	out, err := json.Marshal(answer.Schema())
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Equal(t, "object", doc["type"])
	assert.ElementsMatch(t, []any{"id", "reasoning", "sources"}, doc["required"])

	props := doc["properties"].(map[string]any)
	assert.Equal(t, []any{"integer", "null"}, props["answer"].(map[string]any)["type"])
	assert.Equal(t, "integer", props["id"].(map[string]any)["type"])
}
