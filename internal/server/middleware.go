package server

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rohmanhakim/fic-roulette/internal/metadata"
)

const requestIDHeader = "X-Request-ID"

// RequestIDFrom returns the request ID assigned by the server, if any.
func RequestIDFrom(ctx context.Context) string {
	return middleware.GetReqID(ctx)
}

// requestID accepts a client-supplied ID only when it is a UUID, so what is
// echoed back and logged is never arbitrary client text. The ID is stored
// under chi's request ID key.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func accessLog(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				logger.LogAttrs(r.Context(), slog.LevelInfo, "request",
					slog.String(string(metadata.AttrRequestID), RequestIDFrom(r.Context())),
					slog.String("method", r.Method),
					slog.String(string(metadata.AttrPath), r.URL.Path),
					slog.Int(string(metadata.AttrHTTPStatus), status),
					slog.Int("bytes", ww.BytesWritten()),
					slog.Duration("duration", time.Since(start)),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// ClientBudget admits or refuses one call from a client.
type ClientBudget interface {
	Allow(key string) (time.Duration, bool)
}

// clientLimit rejects a client that has spent its budget for the current
// window. Clients are keyed by remote IP.
func clientLimit(budget ClientBudget) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if wait, ok := budget.Allow(clientKey(r)); !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: msgRateLimited})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
