// Package extract reduces fetched web pages to short plain-text excerpts.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/alan-mat/webanswer/internal/api"
	"github.com/alan-mat/webanswer/internal/config"
	"github.com/alan-mat/webanswer/internal/http"
)

// MaxParagraphs is the number of leading <p> elements kept in an excerpt.
const MaxParagraphs = 5

type Extractor struct {
	client http.Client
}

// New expects a client without a fixed endpoint, every page
// is fetched by its absolute URL.
func New(client http.Client) *Extractor {
	return &Extractor{
		client: client,
	}
}

func FromConfig(conf config.ExtractConfig) *Extractor {
	return New(http.NewClient("",
		http.WithTimeout(conf.Timeout.Std()),
		http.WithUserAgent(conf.UserAgent),
		http.WithMaxBodyBytes(conf.MaxPageBytes),
	))
}

// Extract fetches url and returns the trimmed text of its first
// [MaxParagraphs] paragraphs joined by single spaces.
// A page without paragraphs yields an empty excerpt.
func (e *Extractor) Extract(ctx context.Context, url string) (string, error) {
	body, contentType, err := e.client.GetPage(ctx, url)
	if err != nil {
		return "", fmt.Errorf("%w: failed to fetch '%s': %w", api.ErrUpstreamRequest, url, err)
	}

	if len(body) == 0 {
		return "", nil
	}

	// the charset comes from the Content-Type header, a <meta> tag
	// or a guess from the content, in that order
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return "", fmt.Errorf("%w: failed to decode '%s': %w", api.ErrMalformedUpstream, url, err)
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("%w: failed to parse html from '%s': %w", api.ErrMalformedUpstream, url, err)
	}

	excerpt := Paragraphs(doc, MaxParagraphs)
	slog.Debug("extracted page excerpt", "url", url, "content_type", contentType, "bytes", len(body), "excerpt_len", len(excerpt))
	return excerpt, nil
}

// Paragraphs joins the trimmed text of the first n <p> elements of doc.
// Texts are trimmed on purpose so markup indentation does not leak
// into the excerpt. Empty paragraphs still count towards n.
func Paragraphs(doc *goquery.Document, n int) string {
	texts := make([]string, 0, n)
	doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		texts = append(texts, strings.TrimSpace(s.Text()))
		return len(texts) < n
	})
	return strings.Join(texts, " ")
}
