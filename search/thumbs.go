package search

import (
	"context"
	"log/slog"
	"strconv"
)

// MaxThumbnailBatch is the upstream pageimages batch limit. The service
// clamps its page size to this value so a single batched request always
// covers the whole page.
const MaxThumbnailBatch = 50

// ThumbFetcher retrieves thumbnail URLs for many pages in one batched
// request instead of one request per result.
type ThumbFetcher struct {
	client *Client
	logger *slog.Logger
}

// NewThumbFetcher creates a ThumbFetcher sharing the service's API client.
func NewThumbFetcher(client *Client, logger *slog.Logger) *ThumbFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &ThumbFetcher{client: client, logger: logger}
}

// FetchBatch returns a pageID→thumbnail-URL map for up to MaxThumbnailBatch
// of the given IDs. It never fails: thumbnails are a non-critical
// enhancement, so any network or parse error degrades to an empty map.
// Pages without a thumbnail are simply absent from the result.
func (f *ThumbFetcher) FetchBatch(ctx context.Context, ids []string) map[string]string {
	if len(ids) == 0 {
		return map[string]string{}
	}
	if len(ids) > MaxThumbnailBatch {
		ids = ids[:MaxThumbnailBatch]
	}

	env, err := f.client.pageImages(ctx, ids)
	if err != nil {
		f.logger.Warn("search: thumbnail batch degraded", "count", len(ids), "error", err)
		return map[string]string{}
	}
	if env.Query == nil {
		return map[string]string{}
	}

	thumbs := make(map[string]string, len(env.Query.Pages))
	for _, page := range env.Query.Pages {
		if page.Thumbnail == nil || page.Thumbnail.Source == "" {
			continue
		}
		thumbs[strconv.FormatInt(page.PageID, 10)] = page.Thumbnail.Source
	}
	return thumbs
}
