package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alan-mat/webanswer/internal/api"
	"github.com/alan-mat/webanswer/internal/config"
	"github.com/alan-mat/webanswer/internal/http"
	"github.com/alan-mat/webanswer/internal/provider/gemini"
	"github.com/alan-mat/webanswer/internal/provider/google"
	"github.com/alan-mat/webanswer/internal/provider/openai"
	"github.com/alan-mat/webanswer/internal/provider/tavily"
	"github.com/alan-mat/webanswer/internal/registry"
)

var (
	ErrInvalidWebSearchProviderType = errors.New("no web search provider found for given type")
	ErrInvalidLMProviderType        = errors.New("no lmprovider found for given type")
)

type WebSearchProvider interface {
	Search(context.Context, api.WebSearchRequest) (*api.WebSearchResponse, error)
}

type LMProvider interface {
	// Chat performs a single completion over req.Messages
	// and returns the raw text produced by the model.
	Chat(context.Context, api.ChatRequest) (string, error)
}

type WebSearchFactory func(config.SearchConfig) (WebSearchProvider, error)
type LMFactory func(context.Context, config.LLMConfig) (LMProvider, error)

var (
	webSearchProviders = registry.New[string, WebSearchFactory]()
	lmProviders        = registry.New[string, LMFactory]()
)

func init() {
	webSearchProviders.RegisterMany(
		registry.Entry[string, WebSearchFactory]{Key: config.SearchProviderGoogle, Value: newGoogle},
		registry.Entry[string, WebSearchFactory]{Key: config.SearchProviderTavily, Value: newTavily},
	)
	lmProviders.RegisterMany(
		registry.Entry[string, LMFactory]{Key: config.LMProviderOpenAI, Value: newOpenAI},
		registry.Entry[string, LMFactory]{Key: config.LMProviderGemini, Value: newGemini},
	)
}

// RegisterWebSearchProvider makes an additional search backend
// selectable through the search.provider setting.
func RegisterWebSearchProvider(name string, f WebSearchFactory) {
	webSearchProviders.Register(name, f)
}

func RegisterLMProvider(name string, f LMFactory) {
	lmProviders.Register(name, f)
}

func NewWebSearchProvider(conf config.SearchConfig) (WebSearchProvider, error) {
	f, ok := webSearchProviders.Get(conf.Provider)
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidWebSearchProviderType, conf.Provider)
	}
	slog.Debug("creating web search provider", "provider", conf.Provider)
	return f(conf)
}

func NewLMProvider(ctx context.Context, conf config.LLMConfig) (LMProvider, error) {
	f, ok := lmProviders.Get(conf.Provider)
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidLMProviderType, conf.Provider)
	}
	slog.Debug("creating lmprovider", "provider", conf.Provider, "model", conf.Model)
	return f(ctx, conf)
}

func newGoogle(conf config.SearchConfig) (WebSearchProvider, error) {
	endpoint := conf.Endpoint
	if endpoint == "" {
		endpoint = google.Endpoint
	}
	client := http.NewClient(endpoint, http.WithTimeout(conf.Timeout.Std()))
	return google.New(conf.APIKey, conf.EngineID, client, google.WithParams(conf.Params)), nil
}

func newTavily(conf config.SearchConfig) (WebSearchProvider, error) {
	endpoint := conf.Endpoint
	if endpoint == "" {
		endpoint = tavily.Endpoint
	}
	client := http.NewClient(endpoint,
		http.WithApiKey(conf.APIKey),
		http.WithTimeout(conf.Timeout.Std()),
	)
	return tavily.New(client), nil
}

func newOpenAI(_ context.Context, conf config.LLMConfig) (LMProvider, error) {
	return openai.New(conf.APIKey, conf.Model,
		openai.WithBaseURL(conf.BaseURL),
		openai.WithTimeout(conf.Timeout.Std()),
	), nil
}

func newGemini(ctx context.Context, conf config.LLMConfig) (LMProvider, error) {
	p, err := gemini.New(ctx, conf.APIKey, conf.Model,
		gemini.WithBaseURL(conf.BaseURL),
		gemini.WithTimeout(conf.Timeout.Std()),
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}
