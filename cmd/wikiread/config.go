package main

import (
	"fmt"
	"os"

	"github.com/hazyhaar/wikiread/shield"
	"gopkg.in/yaml.v3"
)

// config is the service configuration, loaded from an optional YAML file and
// overridable by environment variables for the deployment-sensitive fields.
type config struct {
	Listen string `yaml:"listen"`

	Wiki struct {
		// APIURL is the MediaWiki action API endpoint, e.g.
		// "https://wiki.example.com/api.php".
		APIURL string `yaml:"api_url"`
		// BaseURL is the wiki root page used for the homepage feed.
		BaseURL string `yaml:"base_url"`
		// ArticleBase is the canonical article URL prefix. Defaults to
		// BaseURL + "wiki/".
		ArticleBase string `yaml:"article_base"`
		UserAgent   string `yaml:"user_agent"`
	} `yaml:"wiki"`

	Tiles struct {
		// Path to the pre-built tile store file. Empty disables the
		// offline map endpoints.
		Path            string `yaml:"path"`
		CacheMaxBytes   int64  `yaml:"cache_max_bytes"`
		CacheMaxEntries int    `yaml:"cache_max_entries"`
	} `yaml:"tiles"`

	// RateLimits maps "METHOD /path/prefix" keys to fixed-window rules.
	RateLimits map[string]shield.RateRule `yaml:"rate_limits"`
}

func (c *config) defaults() {
	if c.Listen == "" {
		c.Listen = ":" + env("PORT", "8090")
	}
	if c.Wiki.UserAgent == "" {
		c.Wiki.UserAgent = "wikiread/1.0"
	}
	if c.Wiki.ArticleBase == "" && c.Wiki.BaseURL != "" {
		c.Wiki.ArticleBase = c.Wiki.BaseURL + "wiki/"
	}
	if c.RateLimits == nil {
		c.RateLimits = map[string]shield.RateRule{
			"GET /api/": {MaxRequests: 120, WindowSeconds: 60},
		}
	}
}

// loadConfig reads path if it exists; a missing file is not an error so the
// binary can run from env vars alone. Env vars win over the file.
func loadConfig(path string) (*config, error) {
	var cfg config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// defaults + env only
	default:
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	if v := os.Getenv("WIKI_API_URL"); v != "" {
		cfg.Wiki.APIURL = v
	}
	if v := os.Getenv("WIKI_BASE_URL"); v != "" {
		cfg.Wiki.BaseURL = v
	}
	if v := os.Getenv("TILES_PATH"); v != "" {
		cfg.Tiles.Path = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Listen = ":" + v
	}

	cfg.defaults()

	if cfg.Wiki.APIURL == "" {
		return nil, fmt.Errorf("config: wiki.api_url (or WIKI_API_URL) is required")
	}
	if cfg.Wiki.BaseURL == "" {
		return nil, fmt.Errorf("config: wiki.base_url (or WIKI_BASE_URL) is required")
	}
	return &cfg, nil
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
