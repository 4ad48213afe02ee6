package google

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/alan-mat/webanswer/internal/api"
	"github.com/alan-mat/webanswer/internal/http"
)

const (
	Endpoint   = "https://www.googleapis.com"
	searchPath = "/customsearch/v1"
)

// reserved query parameters that extra params must not override
var reservedParams = map[string]bool{"key": true, "cx": true, "q": true}

// SearchProvider queries the Google Custom Search JSON API.
type SearchProvider struct {
	client http.Client

	apiKey   string
	engineID string
	params   map[string]string
}

type Option func(*SearchProvider)

// WithParams adds extra query parameters (e.g. "num", "gl", "lr") to every search.
func WithParams(params map[string]string) Option {
	return func(p *SearchProvider) {
		p.params = params
	}
}

func New(apiKey, engineID string, client http.Client, opts ...Option) *SearchProvider {
	p := &SearchProvider{
		client:   client,
		apiKey:   apiKey,
		engineID: engineID,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Search performs exactly one call to the search API.
// An empty or missing item set yields an empty link list; a non-empty
// item set in which no item carries a link field is reported as malformed.
func (p SearchProvider) Search(ctx context.Context, req api.WebSearchRequest) (*api.WebSearchResponse, error) {
	query := url.Values{}
	for k, v := range p.params {
		if reservedParams[k] {
			continue
		}
		query.Set(k, v)
	}
	if req.Limit > 0 {
		query.Set("num", strconv.Itoa(req.Limit))
	}
	query.Set("key", p.apiKey)
	query.Set("cx", p.engineID)
	query.Set("q", req.Query)

	resp, err := p.client.Request(ctx, http.MethodGet, searchPath, query, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: web search request failed: %w", api.ErrUpstreamRequest, err)
	}

	links, err := parseLinks(resp)
	if err != nil {
		return nil, err
	}

	slog.Debug("web search completed", "provider", "google", "query", req.Query, "links", len(links))
	return &api.WebSearchResponse{
		Query: req.Query,
		Links: links,
	}, nil
}

func parseLinks(resp map[string]any) ([]string, error) {
	rawItems, ok := resp["items"]
	if !ok || rawItems == nil {
		return []string{}, nil
	}

	items, ok := rawItems.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: search response 'items' is not a list", api.ErrMalformedUpstream)
	}

	links := make([]string, 0, len(items))
	hasLinkField := false
	for _, rawItem := range items {
		item, ok := rawItem.(map[string]any)
		if !ok {
			links = append(links, "")
			continue
		}

		val, exists := item["link"]
		if !exists {
			links = append(links, "")
			continue
		}
		hasLinkField = true

		link, _ := val.(string)
		links = append(links, link)
	}

	if len(items) > 0 && !hasLinkField {
		return nil, fmt.Errorf("%w: search results contain no links", api.ErrMalformedUpstream)
	}

	return links, nil
}
