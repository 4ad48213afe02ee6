package provider_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alan-mat/webanswer/internal/api"
	"github.com/alan-mat/webanswer/internal/config"
	"github.com/alan-mat/webanswer/internal/provider"
	"github.com/alan-mat/webanswer/internal/provider/gemini"
	"github.com/alan-mat/webanswer/internal/provider/google"
	"github.com/alan-mat/webanswer/internal/provider/openai"
	"github.com/alan-mat/webanswer/internal/provider/tavily"
)

func TestNewWebSearchProvider(t *testing.T) {
	conf := config.Default()
	conf.Search.APIKey = "key"
	conf.Search.EngineID = "cx"

	p, err := provider.NewWebSearchProvider(conf.Search)
	require.NoError(t, err)
	assert.IsType(t, &google.SearchProvider{}, p)

	conf.Search.Provider = config.SearchProviderTavily
	p, err = provider.NewWebSearchProvider(conf.Search)
	require.NoError(t, err)
	assert.IsType(t, &tavily.TavilyProvider{}, p)

	conf.Search.Provider = "bing"
	_, err = provider.NewWebSearchProvider(conf.Search)
	assert.ErrorIs(t, err, provider.ErrInvalidWebSearchProviderType)
}

func TestNewLMProvider(t *testing.T) {
	conf := config.Default()
	conf.LLM.APIKey = "key"

	p, err := provider.NewLMProvider(context.Background(), conf.LLM)
	require.NoError(t, err)
	assert.IsType(t, &openai.OpenAIProvider{}, p)

	conf.LLM.Provider = config.LMProviderGemini
	p, err = provider.NewLMProvider(context.Background(), conf.LLM)
	require.NoError(t, err)
	assert.IsType(t, &gemini.GeminiProvider{}, p)

	conf.LLM.Provider = "llama"
	_, err = provider.NewLMProvider(context.Background(), conf.LLM)
	assert.ErrorIs(t, err, provider.ErrInvalidLMProviderType)
}

type staticSearch struct{}

func (staticSearch) Search(_ context.Context, req api.WebSearchRequest) (*api.WebSearchResponse, error) {
	return &api.WebSearchResponse{Query: req.Query, Links: []string{"https://static.example"}}, nil
}

func TestRegisterWebSearchProvider(t *testing.T) {
	provider.RegisterWebSearchProvider("static", func(config.SearchConfig) (provider.WebSearchProvider, error) {
		return staticSearch{}, nil
	})

	p, err := provider.NewWebSearchProvider(config.SearchConfig{Provider: "static"})
	require.NoError(t, err)

	resp, err := p.Search(context.Background(), api.WebSearchRequest{Query: "q"})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://static.example"}, resp.Links)
}
