package api

type WebSearchRequest struct {
	// Required
	Query string

	// Optional
	Limit int
}

type WebSearchResponse struct {
	Query string

	// Links holds result links in the order returned by the search service.
	// A result without a usable link is kept as an empty string.
	Links []string
}
