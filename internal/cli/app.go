package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/rohmanhakim/fic-roulette/internal/cache"
	"github.com/rohmanhakim/fic-roulette/internal/config"
	"github.com/rohmanhakim/fic-roulette/internal/extractor"
	"github.com/rohmanhakim/fic-roulette/internal/fetcher"
	"github.com/rohmanhakim/fic-roulette/internal/mdconvert"
	"github.com/rohmanhakim/fic-roulette/internal/metadata"
	"github.com/rohmanhakim/fic-roulette/internal/orchestrator"
	"github.com/rohmanhakim/fic-roulette/internal/robots"
	"github.com/rohmanhakim/fic-roulette/internal/sampler"
	"github.com/rohmanhakim/fic-roulette/pkg/limiter"
	"github.com/rohmanhakim/fic-roulette/pkg/randutil"
)

// app owns every long-lived component built from one Config.
type app struct {
	cfg          config.Config
	logger       *slog.Logger
	sink         metadata.MetadataSink
	limiter      *limiter.ConcurrentRateLimiter
	httpFetcher  *fetcher.HTTPFetcher
	pageFetcher  fetcher.PageFetcher
	store        cache.Store
	orchestrator *orchestrator.Orchestrator
	closers      []func() error
}

func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	if cfg.LogFormat() == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// openStore builds the configured cache backend. The returned closer is
// never nil.
func openStore(cfg config.Config, sink metadata.MetadataSink) (cache.Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.CacheBackend() {
	case config.CacheBackendMemory:
		return cache.NewMemoryStore(sink), noop, nil
	case config.CacheBackendSQLite:
		store, err := cache.OpenSQLiteStore(sink, cfg.CachePath())
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	case config.CacheBackendFile:
		return cache.NewFileStore(sink, cfg.CachePath()), noop, nil
	default:
		return nil, noop, fmt.Errorf("%w: unknown cache backend %q", config.ErrInvalidConfig, cfg.CacheBackend())
	}
}

func newCatalogLimiter(cfg config.Config) *limiter.ConcurrentRateLimiter {
	rl := limiter.NewConcurrentRateLimiter()
	rl.SetBaseDelay(cfg.RequestDelay())
	rl.SetJitter(cfg.Jitter())
	rl.SetRandomSeed(cfg.RandomSeed())
	rl.SetBackoffParam(cfg.BackoffParam())
	return rl
}

func newApp(cfg config.Config, logOutput io.Writer) (*app, error) {
	logger := newLogger(cfg, logOutput)
	sink := metadata.NewRecorder(logger)
	a := &app{cfg: cfg, logger: logger, sink: sink}

	store, closeStore, err := openStore(cfg, sink)
	if err != nil {
		// Picks must still work without a cache; only the database is lost.
		if cfg.CacheBackend() != config.CacheBackendSQLite {
			return nil, err
		}
		logger.Warn("cache database unavailable, caching in memory for this run",
			slog.String(string(metadata.AttrPath), cfg.CachePath()),
			slog.String("error", err.Error()),
		)
		store, closeStore = cache.NewMemoryStore(sink), func() error { return nil }
	}
	a.store = store
	a.closers = append(a.closers, closeStore)

	// One limiter for every request to the archive, whichever transport
	// sends it.
	rl := newCatalogLimiter(cfg)
	a.limiter = rl

	a.httpFetcher = fetcher.NewHTTPFetcher(sink, rl, fetcher.HTTPParam{
		BaseURL:   cfg.CatalogBaseURL(),
		Language:  cfg.Language(),
		UserAgent: cfg.UserAgent(),
		Retry:     cfg.RetryParam(),
	})
	a.httpFetcher.Init(&http.Client{})
	a.closers = append(a.closers, a.httpFetcher.Close)

	switch cfg.Transport() {
	case config.TransportBrowser:
		browserFetcher := fetcher.NewBrowserFetcher(sink, rl, fetcher.BrowserParam{
			BaseURL:   cfg.CatalogBaseURL(),
			Language:  cfg.Language(),
			RemoteURL: cfg.BrowserRemoteURL(),
			Headless:  cfg.BrowserHeadless(),
			MaxTabs:   cfg.BrowserMaxTabs(),
			Logger:    logger,
		})
		a.pageFetcher = browserFetcher
		a.closers = append(a.closers, browserFetcher.Close)
	default:
		a.pageFetcher = a.httpFetcher
	}

	baseURL := cfg.CatalogBaseURL()
	pageExtractor := extractor.NewPageExtractor(sink, mdconvert.NewRule(sink, baseURL), baseURL)
	rng := randutil.New(cfg.RandomSeed())

	a.orchestrator = orchestrator.New(
		sink,
		sampler.NewPageCountResolver(a.pageFetcher, pageExtractor, cfg.Timeout()),
		sampler.NewRandomItemFetcher(a.pageFetcher, pageExtractor, rng, cfg.PageCap(), cfg.Timeout()),
		store,
		rng,
		orchestrator.Param{TTL: cfg.CacheTTL(), HashAlgo: cfg.HashAlgo()},
	)
	return a, nil
}

const robotsFetchTimeout = 10 * time.Second

// honorCrawlDelay raises the request delay to the archive's robots.txt
// Crawl-delay. A failed fetch keeps the configured delay.
func (a *app) honorCrawlDelay(ctx context.Context) {
	if !a.cfg.HonorCrawlDelay() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, robotsFetchTimeout)
	defer cancel()

	loader := robots.NewLoader(a.sink, &http.Client{}, a.cfg.UserAgent())
	policy, err := loader.Load(ctx, a.cfg.CatalogBaseURL())
	if err != nil {
		return
	}
	delay := policy.Delay(a.cfg.RequestDelay())
	if delay != a.cfg.RequestDelay() {
		a.logger.Info("using robots.txt crawl delay",
			slog.Duration("configured", a.cfg.RequestDelay()),
			slog.Duration("crawl_delay", delay),
		)
		a.limiter.SetBaseDelay(delay)
	}
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
