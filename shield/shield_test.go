package shield

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hazyhaar/wikiread/kit"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(DefaultHeaders())(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search", nil))

	want := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Referrer-Policy":         "strict-origin-when-cross-origin",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
	}
	for key, val := range want {
		if got := rec.Header().Get(key); got != val {
			t.Errorf("%s: got %q, want %q", key, got, val)
		}
	}
}

func TestSecurityHeaders_EmptyFieldsUnset(t *testing.T) {
	h := SecurityHeaders(HeaderConfig{XFrameOptions: "DENY"})(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := rec.Header().Get("Content-Security-Policy"); got != "" {
		t.Errorf("CSP: got %q, want unset", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options: got %q", got)
	}
}

func TestTraceID(t *testing.T) {
	var seenTrace, seenRequest string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenTrace = kit.GetTraceID(r.Context())
		seenRequest = kit.GetRequestID(r.Context())
		if GetLogger(r.Context()) == nil {
			t.Error("per-request logger missing from context")
		}
	})

	rec := httptest.NewRecorder()
	TraceID(inner).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/feed", nil))

	header := rec.Header().Get("X-Trace-ID")
	if len(header) != 8 {
		t.Fatalf("X-Trace-ID: got %q, want 8 chars", header)
	}
	if seenTrace != header {
		t.Errorf("context trace %q != header trace %q", seenTrace, header)
	}
	if seenRequest == "" {
		t.Error("request ID missing from context")
	}
}

func TestMaxBody(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 1024)
		if _, err := r.Body.Read(buf); err != nil {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	h := MaxBody(8)(inner)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("well over eight bytes"))
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status: got %d, want 413", rec.Code)
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	rl := NewRateLimiter(map[string]RateRule{
		"GET /api/search": {MaxRequests: 2, WindowSeconds: 60},
	})
	h := rl.Middleware(okHandler())

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/search?q=x", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: got %d, want 200", i+1, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/search?q=x", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status: got %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After: got %q", rec.Header().Get("Retry-After"))
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q", ct)
	}
}

func TestRateLimiter_PerIP(t *testing.T) {
	// WHAT: A second client is not affected by the first client's bucket.
	rl := NewRateLimiter(map[string]RateRule{
		"GET /api/search": {MaxRequests: 1, WindowSeconds: 60},
	})
	h := rl.Middleware(okHandler())

	for _, addr := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/search", nil)
		req.RemoteAddr = addr
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: got %d, want 200", addr, rec.Code)
		}
	}
}

func TestRateLimiter_LongestPrefixWins(t *testing.T) {
	rl := NewRateLimiter(map[string]RateRule{
		"GET /api/":       {MaxRequests: 100, WindowSeconds: 60},
		"GET /api/search": {MaxRequests: 1, WindowSeconds: 60},
	})
	h := rl.Middleware(okHandler())

	send := func(path string) int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "10.0.0.1:1"
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	send("/api/search")
	if got := send("/api/search"); got != http.StatusTooManyRequests {
		t.Errorf("second search: got %d, want 429 from the tight rule", got)
	}
	if got := send("/api/feed"); got != http.StatusOK {
		t.Errorf("feed: got %d, want 200 from the loose rule", got)
	}
}

func TestRateLimiter_UnmatchedAndExcluded(t *testing.T) {
	rl := NewRateLimiter(map[string]RateRule{
		"GET /api/": {MaxRequests: 0, WindowSeconds: 60},
	}, "/health")
	h := rl.Middleware(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tiles/0/0/0", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("unmatched route: got %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("excluded route: got %d, want 200", rec.Code)
	}
}

func TestExtractIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:1234"
	if got := ExtractIP(req); got != "192.0.2.7" {
		t.Errorf("remote addr: got %q", got)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 192.0.2.7")
	if got := ExtractIP(req); got != "203.0.113.9" {
		t.Errorf("forwarded: got %q", got)
	}
}
