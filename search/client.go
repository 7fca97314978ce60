package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// maxResponseBody caps API response reads. MediaWiki search pages are a few
// hundred KB at most; 4 MiB leaves generous headroom.
const maxResponseBody int64 = 4 << 20

// ClientConfig configures the MediaWiki API client.
type ClientConfig struct {
	// APIURL is the full endpoint URL, e.g. "https://wiki.example.com/api.php".
	APIURL string
	// UserAgent sent with every request.
	UserAgent string
	// Timeout per request. Default: 15s.
	Timeout time.Duration
	// RatePerSec throttles outgoing API calls so search-as-you-type bursts
	// stay polite. Default: 5 req/s, burst 5.
	RatePerSec float64
	Burst      int
	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
}

func (c *ClientConfig) defaults() {
	if c.UserAgent == "" {
		c.UserAgent = "wikiread/1.0"
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.RatePerSec <= 0 {
		c.RatePerSec = 5
	}
	if c.Burst <= 0 {
		c.Burst = 5
	}
}

// Client issues MediaWiki action-API requests.
type Client struct {
	apiURL    string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewClient creates a Client for the configured API endpoint.
func NewClient(cfg ClientConfig) *Client {
	cfg.defaults()
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		apiURL:    cfg.APIURL,
		userAgent: cfg.UserAgent,
		http:      hc,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
	}
}

// rawHit is one search hit as returned by list=search (formatversion=2).
type rawHit struct {
	NS        int    `json:"ns"`
	PageID    int64  `json:"pageid"`
	Title     string `json:"title"`
	Snippet   string `json:"snippet"`
	Size      *int   `json:"size"`
	WordCount *int   `json:"wordcount"`
	Timestamp string `json:"timestamp"`
}

type searchEnvelope struct {
	Query *struct {
		SearchInfo *struct {
			TotalHits int `json:"totalhits"`
		} `json:"searchinfo"`
		Search []rawHit `json:"search"`
	} `json:"query"`
}

type thumbEnvelope struct {
	Query *struct {
		Pages []struct {
			PageID    int64 `json:"pageid"`
			Thumbnail *struct {
				Source string `json:"source"`
				Width  int    `json:"width"`
				Height int    `json:"height"`
			} `json:"thumbnail"`
		} `json:"pages"`
	} `json:"query"`
}

// search runs one relevance-sorted list=search request.
func (c *Client) search(ctx context.Context, query string, limit, offset int) (*searchEnvelope, error) {
	params := url.Values{
		"action":        {"query"},
		"format":        {"json"},
		"formatversion": {"2"},
		"list":          {"search"},
		"srsearch":      {query},
		"srlimit":       {strconv.Itoa(limit)},
		"sroffset":      {strconv.Itoa(offset)},
		"srprop":        {"snippet|size|wordcount|timestamp"},
		"srsort":        {"relevance"},
		"srinfo":        {"totalhits"},
	}

	var env searchEnvelope
	if err := c.get(ctx, params, &env); err != nil {
		return nil, err
	}
	if env.Query == nil {
		return nil, fmt.Errorf("%w: missing query object", ErrMalformed)
	}
	return &env, nil
}

// pageImages runs one batched prop=pageimages request for the given page IDs.
func (c *Client) pageImages(ctx context.Context, ids []string) (*thumbEnvelope, error) {
	params := url.Values{
		"action":        {"query"},
		"format":        {"json"},
		"formatversion": {"2"},
		"pageids":       {strings.Join(ids, "|")},
		"prop":          {"pageimages"},
		"pilicense":     {"any"},
		"pithumbsize":   {"240"},
	}

	var env thumbEnvelope
	if err := c.get(ctx, params, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return classifyTransport(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("search: new request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return classifyStatus(resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return classifyTransport(err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
