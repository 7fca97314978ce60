// Package search implements the wiki search pipeline: one relevance-sorted
// query against the MediaWiki action API, mapping of raw hits into ranked
// results, batched thumbnail enrichment, and the pagination decision.
//
// Every Search call is a fresh fetch. Results are expected to reflect
// current wiki state and pagination offsets are session-local, so nothing is
// cached across calls and nothing is retried; transient failures surface as
// typed errors for the caller's retry policy.
package search

import (
	"context"
	"log/slog"
	"strings"
)

// DefaultLimit is the page size used when the caller passes limit <= 0.
const DefaultLimit = 50

// Config configures the search Service.
type Config struct {
	Client ClientConfig
	// ArticleBase is the prefix for canonical article URLs,
	// e.g. "https://wiki.example.com/wiki/".
	ArticleBase string
	Logger      *slog.Logger
}

func (c *Config) defaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Service orchestrates query → mapping → thumbnail enrichment → pagination.
type Service struct {
	client      *Client
	thumbs      *ThumbFetcher
	articleBase string
	logger      *slog.Logger
}

// New creates a search Service.
func New(cfg Config) *Service {
	cfg.defaults()
	client := NewClient(cfg.Client)
	return &Service{
		client:      client,
		thumbs:      NewThumbFetcher(client, cfg.Logger),
		articleBase: cfg.ArticleBase,
		logger:      cfg.Logger,
	}
}

// Search runs one paginated search. An empty or whitespace-only query is a
// deliberate non-error: it returns an empty well-formed Response without
// touching the network, which keeps UI call sites free of a special case.
//
// limit is clamped to [1, MaxThumbnailBatch] so the single batched
// thumbnail request always covers the page.
func (s *Service) Search(ctx context.Context, query string, limit, offset int) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &Response{Results: []Result{}}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxThumbnailBatch {
		limit = MaxThumbnailBatch
	}
	if offset < 0 {
		offset = 0
	}

	env, err := s.client.search(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}

	hits := env.Query.Search
	results := make([]Result, 0, len(hits))
	ids := make([]string, 0, len(hits))
	for i, hit := range hits {
		r := mapHit(hit, i, offset, s.articleBase)
		results = append(results, r)
		ids = append(ids, r.ID)
	}

	// One batched request per page; a result absent from the thumbnail
	// response keeps a nil ThumbnailURL — many pages have no image.
	if len(results) > 0 {
		thumbs := s.thumbs.FetchBatch(ctx, ids)
		for i := range results {
			if src, ok := thumbs[results[i].ID]; ok {
				results[i].ThumbnailURL = &src
			}
		}
	}

	totalCount := len(results)
	if env.Query.SearchInfo != nil {
		totalCount = env.Query.SearchInfo.TotalHits
	}

	s.logger.Debug("search: page fetched",
		"query", query, "offset", offset, "results", len(results), "total", totalCount)

	return &Response{
		Results:    results,
		HasMore:    offset+len(results) < totalCount,
		TotalCount: totalCount,
	}, nil
}
