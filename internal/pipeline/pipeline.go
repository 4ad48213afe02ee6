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

// Package pipeline answers a query by searching the web, extracting
// excerpts from the top results and synthesizing a validated answer.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alan-mat/webanswer/internal/answer"
	"github.com/alan-mat/webanswer/internal/api"
	"github.com/alan-mat/webanswer/internal/config"
	"github.com/alan-mat/webanswer/internal/metrics"
	"github.com/alan-mat/webanswer/internal/provider"
)

type Extractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, q api.Query, modelContext string) (string, error)
}

// Orchestrator holds no per-request state and may serve
// any number of concurrent Run calls.
type Orchestrator struct {
	search    provider.WebSearchProvider
	extractor Extractor
	synth     Synthesizer
	maxLinks  int
	policy    config.ExtractionPolicy
}

func New(search provider.WebSearchProvider, extractor Extractor, synth Synthesizer, conf config.PipelineConfig) *Orchestrator {
	o := &Orchestrator{
		search:    search,
		extractor: extractor,
		synth:     synth,
		maxLinks:  conf.MaxLinks,
		policy:    conf.ExtractionPolicy,
	}
	if o.maxLinks < 1 {
		o.maxLinks = config.Default().Pipeline.MaxLinks
	}
	if o.policy == "" {
		o.policy = config.PolicyFailFast
	}
	return o
}

// Run executes the full pipeline for q. It either returns an Answer
// whose id equals q.ID or an error, never both.
func (o *Orchestrator) Run(ctx context.Context, q api.Query) (a *api.Answer, err error) {
	start := time.Now()
	log := LoggerFrom(ctx).With("id", q.ID)
	defer func() {
		metrics.ObserveRequest(start, err)
		if err != nil {
			log.Warn("pipeline failed", "kind", api.KindOf(err), "err", err, "took", time.Since(start))
		} else {
			log.Info("pipeline finished", "sources", len(a.Sources), "took", time.Since(start))
		}
	}()

	links, err := o.selectLinks(ctx, q, log)
	if err != nil {
		return nil, err
	}

	excerpts, err := o.extractAll(ctx, links, log)
	if err != nil {
		return nil, err
	}
	modelContext := strings.Join(excerpts, "\n")

	stageStart := time.Now()
	raw, err := o.synth.Synthesize(ctx, q, modelContext)
	metrics.ObserveStage(metrics.StageSynthesize, stageStart)
	if err != nil {
		return nil, err
	}
	log.Debug("model output received", "output_len", len(raw))

	stageStart = time.Now()
	a, err = answer.Parse(raw, q.ID)
	metrics.ObserveStage(metrics.StageValidate, stageStart)
	if err != nil {
		return nil, err
	}

	return a, nil
}

// selectLinks returns at most maxLinks non-empty result links, in result order.
func (o *Orchestrator) selectLinks(ctx context.Context, q api.Query, log *slog.Logger) ([]string, error) {
	stageStart := time.Now()
	resp, err := o.search.Search(ctx, api.WebSearchRequest{Query: q.Query})
	metrics.ObserveStage(metrics.StageSearch, stageStart)
	if err != nil {
		return nil, err
	}

	links := make([]string, 0, o.maxLinks)
	for _, link := range resp.Links {
		if len(links) == o.maxLinks {
			break
		}
		if link == "" {
			continue
		}
		links = append(links, link)
	}

	log.Info("search completed", "results", len(resp.Links), "selected", len(links))
	return links, nil
}

// extractAll fetches every link concurrently. Excerpts keep the order of links.
func (o *Orchestrator) extractAll(ctx context.Context, links []string, log *slog.Logger) ([]string, error) {
	stageStart := time.Now()
	defer metrics.ObserveStage(metrics.StageExtract, stageStart)

	excerpts := make([]string, len(links))
	g, gctx := errgroup.WithContext(ctx)
	for i, link := range links {
		g.Go(func() error {
			text, err := o.extractor.Extract(gctx, link)
			if err != nil {
				metrics.ExtractionFailures.Inc()
				if o.policy == config.PolicyBestEffort {
					log.Warn("page extraction failed, using empty excerpt", "url", link, "err", err)
					return nil
				}
				return err
			}
			excerpts[i] = text
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("page extraction failed: %w", err)
	}

	log.Debug("pages extracted", "count", len(links), "policy", o.policy)
	return excerpts, nil
}
