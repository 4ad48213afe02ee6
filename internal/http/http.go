// Copyright 2025 Alan Matykiewicz
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to use,
// copy, modify, merge, publish, distribute, sublicense, and/or sell copies of the
// Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES
// OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
// NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT
// HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY,
// WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	gohttp "net/http"
	"net/url"
	"strings"
	"time"
)

// Common HTTP method, as defined in net/http package
const (
	MethodGet  = "GET"
	MethodPost = "POST"
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxBodyBytes = 5 << 20

	// error bodies are truncated to this many bytes
	errorBodyLimit = 512
)

// StatusError is returned for every response outside the 2xx range.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("(HTTP Error %d) %s", e.StatusCode, e.Body)
}

// Client performs single-attempt requests against one endpoint.
// Requests are never retried. A Client holds no mutable state
// and is safe for concurrent use.
type Client struct {
	httpClient *gohttp.Client

	endpoint     string
	apiKey       string
	userAgent    string
	maxBodyBytes int64
}

type ClientOption func(*Client)

func NewClient(endpoint string, opts ...ClientOption) Client {
	c := Client{
		endpoint: endpoint,
		httpClient: &gohttp.Client{
			Timeout: DefaultTimeout,
		},
		maxBodyBytes: DefaultMaxBodyBytes,
	}

	for _, opt := range opts {
		opt(&c)
	}

	return c
}

// WithApiKey sends key as a bearer token on every request.
func WithApiKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithMaxBodyBytes limits how much of a response body is read.
// Anything past the limit is silently dropped.
func WithMaxBodyBytes(n int64) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

// Request sends payload as a JSON body (if not nil) and decodes the
// JSON object returned by the server.
func (c *Client) Request(ctx context.Context, method string, path string, query url.Values, payload map[string]any) (map[string]any, error) {
	body, err := c.RequestBytes(ctx, method, path, query, payload)
	if err != nil {
		return nil, err
	}

	var result map[string]any
	err = json.Unmarshal(body, &result)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	return result, nil
}

// RequestBytes works like Request, but returns the raw response body.
func (c *Client) RequestBytes(ctx context.Context, method string, path string, query url.Values, payload map[string]any) ([]byte, error) {
	resp, err := c.do(ctx, method, path, query, payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// Get fetches path (relative to the endpoint, or an absolute URL)
// and returns the raw response body.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	return c.RequestBytes(ctx, MethodGet, path, nil, nil)
}

// GetPage works like Get, but also returns the Content-Type header
// of the response, so callers can decode the body's charset.
func (c *Client) GetPage(ctx context.Context, path string) ([]byte, string, error) {
	resp, err := c.do(ctx, MethodGet, path, nil, nil)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %w", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func (c *Client) resolve(path string, query url.Values) (string, error) {
	var uri *url.URL
	var err error

	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		uri, err = url.Parse(path)
	} else {
		uri, err = url.Parse(c.endpoint)
		if err == nil {
			uri.Path = strings.TrimSuffix(uri.Path, "/") + path
		}
	}
	if err != nil {
		return "", err
	}

	if len(query) > 0 {
		q := uri.Query()
		for k, vals := range query {
			for _, v := range vals {
				q.Add(k, v)
			}
		}
		uri.RawQuery = q.Encode()
	}

	return uri.String(), nil
}

func (c *Client) do(ctx context.Context, method string, path string, query url.Values, payload map[string]any) (*gohttp.Response, error) {
	uri, err := c.resolve(path, query)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := gohttp.NewRequestWithContext(ctx, method, uri, body)
	if err != nil {
		return nil, err
	}

	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		respBytes, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))

		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       string(respBytes),
		}
	}

	return resp, nil
}
