package shield

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hazyhaar/wikiread/idgen"
	"github.com/hazyhaar/wikiread/kit"
)

// traceGen produces the short per-request trace IDs surfaced in headers and
// logs; request IDs stay full UUIDv7 for global uniqueness.
var traceGen = idgen.NanoID(8)

// TraceID assigns each request a trace ID and a request ID, injecting them
// into the context, the X-Trace-ID response header, and a per-request
// structured logger stored under LoggerKey.
func TraceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := traceGen()

		ctx := kit.WithTraceID(r.Context(), traceID)
		ctx = kit.WithRequestID(ctx, idgen.New())
		w.Header().Set("X-Trace-ID", traceID)

		logger := slog.Default().With(
			"trace_id", traceID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)
		ctx = context.WithValue(ctx, LoggerKey, logger)
		logger.Info("request")

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
