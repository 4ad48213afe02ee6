package metrics_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/alan-mat/webanswer/internal/api"
	"github.com/alan-mat/webanswer/internal/metrics"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, metrics.OutcomeSuccess, metrics.Outcome(nil))
	assert.Equal(t, "upstream_request_failure", metrics.Outcome(fmt.Errorf("%w: 503", api.ErrUpstreamRequest)))
	assert.Equal(t, "malformed_upstream_data", metrics.Outcome(api.ErrMalformedUpstream))
	assert.Equal(t, "output_validation_failure", metrics.Outcome(api.ErrOutputValidation))
	assert.Equal(t, "internal", metrics.Outcome(errors.New("boom")))
}

func TestObserveRequest(t *testing.T) {
	counter := metrics.RequestsTotal.WithLabelValues("output_validation_failure")
	before := testutil.ToFloat64(counter)

	metrics.ObserveRequest(time.Now(), api.ErrOutputValidation)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
