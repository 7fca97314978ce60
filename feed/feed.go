// Package feed builds the structured wiki homepage feed: one HTML fetch
// followed by four independent extraction passes (recent updates,
// announcements, on-this-day, popular pages) over the parsed document.
//
// A fetch failure fails the whole feed; a single section failing to extract
// does not. Sections degrade to empty so one weak part of the homepage
// template never blanks the rest of the screen.
package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// Config configures the feed Service.
type Config struct {
	// BaseURL is the wiki root page, e.g. "https://wiki.example.com/".
	BaseURL string
	// UserAgent sent with the homepage request.
	UserAgent string
	// Timeout per fetch. Default: 15s.
	Timeout time.Duration
	// MaxBytes caps the homepage read. Default: 10 MiB.
	MaxBytes int64
	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
	Logger     *slog.Logger
}

func (c *Config) defaults() {
	if c.UserAgent == "" {
		c.UserAgent = "wikiread/1.0"
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 10 * 1024 * 1024
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Service fetches and extracts the wiki homepage feed.
type Service struct {
	baseURL   *url.URL
	userAgent string
	maxBytes  int64
	http      *http.Client
	sanitizer *bluemonday.Policy
	md        *converter.Converter
	logger    *slog.Logger
}

// New creates a feed Service. The base URL is validated here so a
// misconfigured deployment fails at startup, not on first fetch.
func New(cfg Config) (*Service, error) {
	cfg.defaults()

	root, err := url.Parse(cfg.BaseURL)
	if err != nil || root.Scheme == "" || root.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, cfg.BaseURL)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}

	return &Service{
		baseURL:   root,
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBytes,
		http:      hc,
		sanitizer: bluemonday.UGCPolicy(),
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
		logger: cfg.Logger,
	}, nil
}

// Fetch retrieves the homepage and runs the four extraction passes. The
// returned Feed fully replaces any previous one; there is no merging.
func (s *Service) Fetch(ctx context.Context) (*Feed, error) {
	body, err := s.fetchHomepage(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse: %v", ErrFetch, err)
	}

	feed := &Feed{}

	// Each pass is isolated: a panic or empty match in one section must
	// not abort the other three.
	s.section("recent_updates", func() {
		feed.RecentUpdates = extractRecentUpdates(doc, s.baseURL)
	})
	s.section("announcements", func() {
		for _, raw := range extractAnnouncements(doc) {
			feed.Announcements = append(feed.Announcements, s.announcement(raw))
		}
	})
	s.section("on_this_day", func() {
		title, events := extractOnThisDay(doc)
		if len(events) == 0 {
			return
		}
		sanitized := make([]string, 0, len(events))
		for _, ev := range events {
			sanitized = append(sanitized, s.sanitizer.Sanitize(ev))
		}
		feed.OnThisDay = &OnThisDay{Title: title, Events: sanitized}
	})
	s.section("popular_pages", func() {
		feed.PopularPages = extractPopularPages(doc, s.baseURL)
	})

	return feed, nil
}

func (s *Service) fetchHomepage(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL.String(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: http %d", ErrFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read: %v", ErrFetch, err)
	}
	if !utf8.Valid(body) {
		return "", ErrDecoding
	}
	return string(body), nil
}

// announcement sanitizes one raw dt/dd pair and renders its Markdown view.
// Markdown rendering is best-effort: conversion failure leaves it empty.
func (s *Service) announcement(raw rawAnnouncement) AnnouncementItem {
	sanitized := s.sanitizer.Sanitize(raw.html)
	item := AnnouncementItem{Date: raw.date, HTML: sanitized}

	md, err := s.md.ConvertString(sanitized, converter.WithDomain(s.baseURL.String()))
	if err == nil {
		item.Markdown = strings.TrimSpace(md)
	}
	return item
}

// section runs one extraction pass, recovering from panics so a malformed
// section degrades to its zero value instead of failing the feed.
func (s *Service) section(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("feed: section extraction failed", "section", name, "panic", r)
		}
	}()
	fn()
}
