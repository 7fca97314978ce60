package search

// Result is one ranked search hit, enriched with a thumbnail when available.
type Result struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Description   *string `json:"description"`
	URL           string  `json:"url"`
	ThumbnailURL  *string `json:"thumbnail_url"`
	NamespaceID   int     `json:"namespace_id"`
	NamespaceName string  `json:"namespace_name"`
	// Rank is the 1-based position within the full relevance ordering,
	// not just the current page: rank = offset + index + 1. It is never
	// renumbered on subsequent pages.
	Rank         int     `json:"rank"`
	Size         *int    `json:"size"`
	WordCount    *int    `json:"word_count"`
	LastModified *string `json:"last_modified"`
}

// Response is one page of search results.
type Response struct {
	Results []Result `json:"results"`
	// HasMore reports whether another page exists past this one:
	// offset + len(Results) < TotalCount for the request that produced it.
	HasMore bool `json:"has_more"`
	// TotalCount is the upstream total-hit count. It is authoritative for
	// the initial query; later pages of the same session reuse it.
	TotalCount int `json:"total_count"`
}
