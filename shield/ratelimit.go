package shield

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateRule defines a fixed-window rate limit for one route pattern.
type RateRule struct {
	// MaxRequests allowed per window per client IP.
	MaxRequests int `yaml:"max_requests"`
	// WindowSeconds is the window length.
	WindowSeconds int `yaml:"window_seconds"`
}

type bucket struct {
	count   int
	resetAt time.Time
}

// RateLimiter provides per-IP, per-route fixed-window rate limiting. Rules
// are keyed by "METHOD /path/prefix"; the longest matching prefix wins, so a
// tight rule on /api/search coexists with a loose one on /tiles/. Routes with
// no matching rule pass through.
type RateLimiter struct {
	rules   map[string]RateRule
	exclude []string

	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewRateLimiter creates a rate limiter with a static rule set. Paths under
// any exclude prefix bypass limiting entirely.
func NewRateLimiter(rules map[string]RateRule, excludePrefixes ...string) *RateLimiter {
	return &RateLimiter{
		rules:   rules,
		exclude: excludePrefixes,
		buckets: make(map[string]*bucket),
	}
}

// StartGC starts a background goroutine that drops expired buckets every
// five minutes. Stops when done is closed.
func (rl *RateLimiter) StartGC(done <-chan struct{}) {
	tick := time.NewTicker(5 * time.Minute)
	go func() {
		defer tick.Stop()
		for {
			select {
			case <-done:
				return
			case <-tick.C:
				rl.gc()
			}
		}
	}()
}

func (rl *RateLimiter) gc() {
	now := time.Now()
	rl.mu.Lock()
	for key, b := range rl.buckets {
		if now.After(b.resetAt) {
			delete(rl.buckets, key)
		}
	}
	rl.mu.Unlock()
}

// match returns the rule with the longest matching "METHOD /prefix" key.
func (rl *RateLimiter) match(method, path string) (RateRule, string, bool) {
	var (
		best    RateRule
		bestKey string
	)
	for key, rule := range rl.rules {
		m, prefix, ok := strings.Cut(key, " ")
		if !ok || m != method || !strings.HasPrefix(path, prefix) {
			continue
		}
		if len(key) > len(bestKey) {
			best, bestKey = rule, key
		}
	}
	return best, bestKey, bestKey != ""
}

func (rl *RateLimiter) allow(ip, ruleKey string, rule RateRule) bool {
	key := ip + ":" + ruleKey
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok || now.After(b.resetAt) {
		rl.buckets[key] = &bucket{
			count:   1,
			resetAt: now.Add(time.Duration(rule.WindowSeconds) * time.Second),
		}
		return true
	}
	b.count++
	return b.count <= rule.MaxRequests
}

// Middleware enforces the rate rules, answering blocked requests with a JSON
// 429 and a Retry-After header.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, prefix := range rl.exclude {
			if strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}

		rule, ruleKey, ok := rl.match(r.Method, r.URL.Path)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		ip := ExtractIP(r)
		if rl.allow(ip, ruleKey, rule) {
			next.ServeHTTP(w, r)
			return
		}

		GetLogger(r.Context()).Warn("ratelimit: request blocked", "ip", ip, "rule", ruleKey)

		w.Header().Set("Retry-After", strconv.Itoa(rule.WindowSeconds))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "rate limit exceeded",
		})
	})
}

// ExtractIP returns the client IP from X-Forwarded-For or RemoteAddr.
func ExtractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
