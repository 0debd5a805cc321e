package metadata

import (
	"context"
	"log/slog"
	"time"
)

/*
Metadata Collected
- Fetch timings, HTTP status codes, attempts
- Cache hits, misses and write failures
- One summary per orchestration (source, staleness, fallback reason)

Metadata is write-only.
No component may read metadata to influence sampling or fallback decisions.
*/

type MetadataSink interface {
	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		details string,
		attrs []Attribute,
	)

	RecordFetch(
		fetchUrl string,
		httpStatus int,
		duration time.Duration,
		attempts int,
		page int,
	)

	RecordCache(op CacheOp, key string, hit bool, stale bool)

	RecordOrchestration(event OrchestrationEvent)
}

// Recorder writes metadata events as structured log records.
type Recorder struct {
	logger *slog.Logger
}

func NewRecorder(logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{logger: logger}
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	details string,
	attrs []Attribute,
) {
	logAttrs := []slog.Attr{
		slog.Time("observed_at", observedAt),
		slog.String("package", packageName),
		slog.String("action", action),
		slog.String("cause", cause.String()),
		slog.String("details", details),
	}
	for _, a := range attrs {
		logAttrs = append(logAttrs, slog.String(string(a.Key), a.Value))
	}
	r.logger.LogAttrs(context.Background(), slog.LevelWarn, "error", logAttrs...)
}

func (r *Recorder) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	attempts int,
	page int,
) {
	r.logger.LogAttrs(context.Background(), slog.LevelDebug, "fetch",
		slog.String("url", fetchUrl),
		slog.Int("http_status", httpStatus),
		slog.Duration("duration", duration),
		slog.Int("attempts", attempts),
		slog.Int("page", page),
	)
}

func (r *Recorder) RecordCache(op CacheOp, key string, hit bool, stale bool) {
	r.logger.LogAttrs(context.Background(), slog.LevelDebug, "cache",
		slog.String("op", string(op)),
		slog.String("cache_key", key),
		slog.Bool("hit", hit),
		slog.Bool("stale", stale),
	)
}

func (r *Recorder) RecordOrchestration(event OrchestrationEvent) {
	level := slog.LevelInfo
	if event.Error != "" {
		level = slog.LevelWarn
	}
	r.logger.LogAttrs(context.Background(), level, "random work",
		slog.String("cache_key", event.CacheKey),
		slog.String("source", event.Source),
		slog.Bool("stale", event.Stale),
		slog.String("fallback_reason", event.FallbackReason),
		slog.String("error", event.Error),
		slog.Duration("duration", event.Duration),
	)
}

// NoopSink implements MetadataSink and drops everything.
// Tests and callers that do not care about observability inject it.
type NoopSink struct{}

func (n *NoopSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	details string,
	attrs []Attribute,
) {
}

func (n *NoopSink) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	attempts int,
	page int,
) {
}

func (n *NoopSink) RecordCache(op CacheOp, key string, hit bool, stale bool) {}

func (n *NoopSink) RecordOrchestration(event OrchestrationEvent) {}
