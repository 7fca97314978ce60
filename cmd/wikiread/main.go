// Command wikiread serves the wiki reader core over HTTP: search, homepage
// feed, and offline map tiles, with an optional MCP stdio transport exposing
// the same operations as tools.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hazyhaar/wikiread/feed"
	"github.com/hazyhaar/wikiread/search"
	"github.com/hazyhaar/wikiread/shield"
	"github.com/hazyhaar/wikiread/tiles"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"
)

func main() {
	// Logging.
	var lvl slog.Level
	switch env("LOG_LEVEL", "info") {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	// In stdio MCP mode stdout belongs to the JSON-RPC stream, so logs go
	// to stderr.
	mcpStdio := env("MCP_TRANSPORT", "") == "stdio"
	logOut := os.Stdout
	if mcpStdio {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(env("CONFIG_FILE", "config.yaml"))
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Search service.
	searcher := search.New(search.Config{
		Client: search.ClientConfig{
			APIURL:    cfg.Wiki.APIURL,
			UserAgent: cfg.Wiki.UserAgent,
		},
		ArticleBase: cfg.Wiki.ArticleBase,
		Logger:      logger,
	})

	// Feed service.
	feeder, err := feed.New(feed.Config{
		BaseURL:   cfg.Wiki.BaseURL,
		UserAgent: cfg.Wiki.UserAgent,
		Logger:    logger,
	})
	if err != nil {
		slog.Error("feed service", "error", err)
		os.Exit(1)
	}

	// Tile store — optional: a deployment without the offline map artifact
	// still serves search and feed.
	var store *tiles.Store
	if cfg.Tiles.Path != "" {
		store, err = tiles.Open(cfg.Tiles.Path, tiles.Config{
			CacheMaxBytes:   cfg.Tiles.CacheMaxBytes,
			CacheMaxEntries: cfg.Tiles.CacheMaxEntries,
			Logger:          logger,
		})
		if err != nil {
			slog.Error("tile store", "error", err, "path", cfg.Tiles.Path)
			os.Exit(1)
		}
		defer store.Close()
	} else {
		slog.Warn("tiles: no store configured, offline map endpoints disabled")
	}

	// Optional MCP stdio transport.
	if mcpStdio {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "wikiread",
			Version: "1.0.0",
		}, nil)
		searcher.RegisterMCP(mcpSrv)
		feeder.RegisterMCP(mcpSrv)
		if store != nil {
			store.RegisterMCP(mcpSrv)
		}

		slog.Info("MCP stdio starting")
		if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
			slog.Error("MCP stdio", "error", err)
			os.Exit(1)
		}
		return
	}

	// Router.
	limiter := shield.NewRateLimiter(cfg.RateLimits, "/health")
	limiter.StartGC(ctx.Done())

	r := chi.NewRouter()
	r.Use(shield.SecurityHeaders(shield.DefaultHeaders()))
	r.Use(shield.MaxBody(64 * 1024))
	r.Use(shield.TraceID)
	r.Use(limiter.Middleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})

	r.Get("/api/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		limit := queryInt(r, "limit", 0)
		offset := queryInt(r, "offset", 0)

		resp, err := searcher.Search(r.Context(), q, limit, offset)
		if err != nil {
			shield.GetLogger(r.Context()).Warn("search failed", "error", err)
			writeError(w, searchStatus(err), err)
			return
		}
		writeJSON(w, 200, resp)
	})

	r.Get("/api/feed", func(w http.ResponseWriter, r *http.Request) {
		f, err := feeder.Fetch(r.Context())
		if err != nil {
			shield.GetLogger(r.Context()).Warn("feed failed", "error", err)
			writeError(w, feedStatus(err), err)
			return
		}
		writeJSON(w, 200, f)
	})

	if store != nil {
		r.Get("/tiles/metadata", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, 200, map[string]any{
				"metadata": store.Metadata(),
				"cache":    store.Stats(),
			})
		})

		r.Get("/tiles/{z}/{x}/{y}", func(w http.ResponseWriter, r *http.Request) {
			z, errZ := strconv.Atoi(chi.URLParam(r, "z"))
			x, errX := strconv.Atoi(chi.URLParam(r, "x"))
			y, errY := strconv.Atoi(chi.URLParam(r, "y"))
			if errZ != nil || errX != nil || errY != nil {
				writeJSON(w, 400, map[string]string{"error": "bad tile address"})
				return
			}

			data := store.GetTile(r.Context(), z, x, y)
			if data == nil {
				// Absent tiles are normal in a sparse set.
				w.WriteHeader(http.StatusNoContent)
				return
			}
			w.Header().Set("Content-Type", "image/png")
			w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
			w.Write(data)
		})
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	if store != nil {
		stats := store.Stats()
		slog.Info("tile cache", "entries", stats.Entries, "bytes", stats.Bytes,
			"hits", stats.Hits, "misses", stats.Misses)
	}
	slog.Info("server stopped")
}

// searchStatus maps the search error taxonomy onto HTTP status codes: the
// upstream wiki throttling or failing is a gateway problem, not ours.
func searchStatus(err error) int {
	switch {
	case errors.Is(err, search.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, search.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, search.ErrNetwork), errors.Is(err, search.ErrServer),
		errors.Is(err, search.ErrMalformed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func feedStatus(err error) int {
	switch {
	case errors.Is(err, feed.ErrFetch), errors.Is(err, feed.ErrDecoding):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
