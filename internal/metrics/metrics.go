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

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/alan-mat/webanswer/internal/api"
)

const (
	StageSearch     = "search"
	StageExtract    = "extract"
	StageSynthesize = "synthesize"
	StageValidate   = "validate"

	OutcomeSuccess = "success"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webanswer_requests_total",
			Help: "Total number of answered queries by outcome",
		},
		[]string{"outcome"},
	)

	RequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "webanswer_request_duration_seconds",
			Help:    "Duration of the whole answer pipeline in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "webanswer_stage_duration_seconds",
			Help: "Duration of a single pipeline stage in seconds",
		},
		[]string{"stage"},
	)

	ExtractionFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webanswer_extraction_failures_total",
			Help: "Total number of page fetches that failed",
		},
	)
)

// Outcome maps a pipeline result to the outcome label value.
func Outcome(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	return string(api.KindOf(err))
}

func ObserveRequest(start time.Time, err error) {
	RequestsTotal.WithLabelValues(Outcome(err)).Inc()
	RequestDuration.Observe(time.Since(start).Seconds())
}

func ObserveStage(stage string, start time.Time) {
	StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
