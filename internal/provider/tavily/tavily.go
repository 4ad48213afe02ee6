package tavily

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/alan-mat/webanswer/internal/api"
	"github.com/alan-mat/webanswer/internal/http"
)

const (
	Endpoint           = "https://api.tavily.com"
	SearchDefaultLimit = 5
)

type searchResponse struct {
	Query        string          `json:"query"`
	Results      []*searchResult `json:"results"`
	ResponseTime float32         `json:"response_time"`
}

type searchResult struct {
	Title string  `json:"title"`
	Url   *string `json:"url"`
	Score float64 `json:"score"`
}

type TavilyProvider struct {
	client http.Client
}

// New expects a client configured with the Tavily endpoint and API key.
func New(client http.Client) *TavilyProvider {
	return &TavilyProvider{
		client: client,
	}
}

func (p TavilyProvider) Search(ctx context.Context, req api.WebSearchRequest) (*api.WebSearchResponse, error) {
	var limit int
	if req.Limit != 0 {
		limit = req.Limit
	} else {
		limit = SearchDefaultLimit
	}

	requestData := map[string]any{
		"query":               req.Query,
		"topic":               "general",
		"search_depth":        "basic",
		"max_results":         limit,
		"include_answer":      false,
		"include_raw_content": false,
		"include_images":      false,
	}

	body, err := p.client.RequestBytes(ctx, http.MethodPost, "/search", nil, requestData)
	if err != nil {
		return nil, fmt.Errorf("%w: web search request failed: %w", api.ErrUpstreamRequest, err)
	}

	var resp searchResponse
	err = json.Unmarshal(body, &resp)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to deserialize web search response: %w", api.ErrMalformedUpstream, err)
	}

	links := make([]string, 0, len(resp.Results))
	withURL := 0
	for _, result := range resp.Results {
		if result == nil || result.Url == nil {
			links = append(links, "")
			continue
		}
		withURL++
		links = append(links, *result.Url)
	}

	if len(resp.Results) > 0 && withURL == 0 {
		return nil, fmt.Errorf("%w: search results contain no urls", api.ErrMalformedUpstream)
	}

	slog.Debug("web search completed", "provider", "tavily", "query", req.Query, "links", len(links), "took", resp.ResponseTime)
	return &api.WebSearchResponse{
		Query: req.Query,
		Links: links,
	}, nil
}
