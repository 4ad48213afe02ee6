package api

import "errors"

var (
	// ErrUpstreamRequest marks non-success responses and transport
	// failures of the search, page fetch or language model services.
	ErrUpstreamRequest = errors.New("upstream request failed")

	// ErrMalformedUpstream marks upstream payloads that are missing
	// data the pipeline depends on, e.g. search items without links.
	ErrMalformedUpstream = errors.New("malformed upstream data")

	// ErrOutputValidation marks model output that does not conform to the Answer shape.
	ErrOutputValidation = errors.New("output validation failed")
)

type ErrorKind string

const (
	KindUpstreamRequest   ErrorKind = "upstream_request_failure"
	KindMalformedUpstream ErrorKind = "malformed_upstream_data"
	KindOutputValidation  ErrorKind = "output_validation_failure"
	KindInternal          ErrorKind = "internal"
)

// KindOf classifies err into one of the pipeline error kinds.
// Errors outside the taxonomy (e.g. cancelled contexts) are reported as [KindInternal].
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrOutputValidation):
		return KindOutputValidation
	case errors.Is(err, ErrMalformedUpstream):
		return KindMalformedUpstream
	case errors.Is(err, ErrUpstreamRequest):
		return KindUpstreamRequest
	default:
		return KindInternal
	}
}
