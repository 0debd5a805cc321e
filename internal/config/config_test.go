package config_test

import (
	"errors"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rohmanhakim/fic-roulette/internal/config"
	"github.com/rohmanhakim/fic-roulette/internal/fetcher"
	"github.com/rohmanhakim/fic-roulette/pkg/hashutil"
)

func TestWithDefault(t *testing.T) {
	cfg := config.WithDefault()
	if cfg == nil {
		t.Fatal("WithDefault() returned nil")
	}

	builtCfg, err := cfg.Build()
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}

	base := builtCfg.CatalogBaseURL()
	if base.String() != "https://archiveofourown.org" {
		t.Errorf("expected default catalog base URL, got %s", base.String())
	}
	if builtCfg.Language() != "en" {
		t.Errorf("expected Language 'en', got '%s'", builtCfg.Language())
	}
	if builtCfg.Transport() != config.TransportHTTP {
		t.Errorf("expected http transport, got %s", builtCfg.Transport())
	}

	// Verify durations
	if builtCfg.Timeout() != 60*time.Second {
		t.Errorf("expected Timeout 60s, got %v", builtCfg.Timeout())
	}
	if builtCfg.RequestDelay() != time.Second {
		t.Errorf("expected RequestDelay 1s, got %v", builtCfg.RequestDelay())
	}
	if builtCfg.Jitter() != 250*time.Millisecond {
		t.Errorf("expected Jitter 250ms, got %v", builtCfg.Jitter())
	}
	if builtCfg.CacheTTL() != time.Hour {
		t.Errorf("expected CacheTTL 1h, got %v", builtCfg.CacheTTL())
	}
	if builtCfg.ClientRateLimit() != 10 {
		t.Errorf("expected ClientRateLimit 10, got %d", builtCfg.ClientRateLimit())
	}

	// Verify retry
	if builtCfg.MaxAttempt() != 3 {
		t.Errorf("expected MaxAttempt 3, got %d", builtCfg.MaxAttempt())
	}
	if builtCfg.BackoffInitialDuration() != 2*time.Second {
		t.Errorf("expected BackoffInitialDuration 2s, got %v", builtCfg.BackoffInitialDuration())
	}
	if builtCfg.BackoffMultiplier() != 2.0 {
		t.Errorf("expected BackoffMultiplier 2.0, got %v", builtCfg.BackoffMultiplier())
	}
	if builtCfg.BackoffMaxDuration() != 30*time.Second {
		t.Errorf("expected BackoffMaxDuration 30s, got %v", builtCfg.BackoffMaxDuration())
	}

	// Verify other fields
	if builtCfg.UserAgent() != fetcher.DefaultUserAgent {
		t.Errorf("expected default UserAgent, got '%s'", builtCfg.UserAgent())
	}
	if builtCfg.PageCap() != 200 {
		t.Errorf("expected PageCap 200, got %d", builtCfg.PageCap())
	}
	if builtCfg.CacheBackend() != config.CacheBackendFile {
		t.Errorf("expected file cache backend, got %s", builtCfg.CacheBackend())
	}
	if builtCfg.CachePath() != "cache" {
		t.Errorf("expected CachePath 'cache', got '%s'", builtCfg.CachePath())
	}
	if builtCfg.HashAlgo() != hashutil.HashAlgoBLAKE3 {
		t.Errorf("expected blake3, got %s", builtCfg.HashAlgo())
	}
	if builtCfg.ListenAddr() != ":5000" {
		t.Errorf("expected ListenAddr ':5000', got '%s'", builtCfg.ListenAddr())
	}
	if len(builtCfg.AllowedOrigins()) != 1 || builtCfg.AllowedOrigins()[0] != "*" {
		t.Errorf("expected AllowedOrigins ['*'], got %v", builtCfg.AllowedOrigins())
	}
	if !builtCfg.BrowserHeadless() {
		t.Error("expected BrowserHeadless true")
	}
	if builtCfg.BrowserMaxTabs() != fetcher.DefaultMaxTabs {
		t.Errorf("expected BrowserMaxTabs %d, got %d", fetcher.DefaultMaxTabs, builtCfg.BrowserMaxTabs())
	}
	if builtCfg.LogLevel() != slog.LevelInfo {
		t.Errorf("expected info log level, got %v", builtCfg.LogLevel())
	}
	if !builtCfg.HonorCrawlDelay() {
		t.Error("expected HonorCrawlDelay true")
	}
	if builtCfg.LogFormat() != "text" {
		t.Errorf("expected text log format, got %s", builtCfg.LogFormat())
	}
	if builtCfg.RandomSeed() == 0 {
		t.Error("expected a non-zero random seed")
	}
}

func TestBuilderOverrides(t *testing.T) {
	mirror := url.URL{Scheme: "http", Host: "mirror.test"}
	cfg, err := config.WithDefault().
		WithCatalogBaseURL(mirror).
		WithLanguage("de").
		WithTransport(config.TransportBrowser).
		WithTimeout(5 * time.Second).
		WithMaxAttempt(5).
		WithPageCap(10).
		WithCacheBackend(config.CacheBackendMemory).
		WithCachePath("").
		WithCacheTTL(time.Minute).
		WithHashAlgo(hashutil.HashAlgoSHA256).
		WithRandomSeed(42).
		WithLogFormat("json").
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	base := cfg.CatalogBaseURL()
	if base.Host != "mirror.test" {
		t.Errorf("expected mirror host, got %s", base.Host)
	}
	if cfg.Language() != "de" || cfg.Transport() != config.TransportBrowser {
		t.Errorf("unexpected language/transport: %s/%s", cfg.Language(), cfg.Transport())
	}
	if cfg.PageCap() != 10 || cfg.MaxAttempt() != 5 {
		t.Errorf("unexpected pageCap/maxAttempt: %d/%d", cfg.PageCap(), cfg.MaxAttempt())
	}
	if cfg.CacheBackend() != config.CacheBackendMemory {
		t.Errorf("expected memory backend, got %s", cfg.CacheBackend())
	}
	if cfg.RandomSeed() != 42 {
		t.Errorf("expected seed 42, got %d", cfg.RandomSeed())
	}

	retryParam := cfg.RetryParam()
	if retryParam.MaxAttempts != 5 {
		t.Errorf("expected retry MaxAttempts 5, got %d", retryParam.MaxAttempts)
	}
	if cfg.BackoffParam().InitialDuration() != 2*time.Second {
		t.Errorf("expected backoff initial 2s, got %v", cfg.BackoffParam().InitialDuration())
	}
}

func TestBuild_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.Config)
	}{
		{"relative base url", func(c *config.Config) { c.WithCatalogBaseURL(url.URL{Path: "/works"}) }},
		{"unknown transport", func(c *config.Config) { c.WithTransport("carrier-pigeon") }},
		{"zero timeout", func(c *config.Config) { c.WithTimeout(0) }},
		{"negative delay", func(c *config.Config) { c.WithRequestDelay(-time.Second) }},
		{"zero attempts", func(c *config.Config) { c.WithMaxAttempt(0) }},
		{"shrinking backoff", func(c *config.Config) { c.WithBackoffMultiplier(0.5) }},
		{"backoff max below initial", func(c *config.Config) { c.WithBackoffMaxDuration(time.Second) }},
		{"zero page cap", func(c *config.Config) { c.WithPageCap(0) }},
		{"unknown backend", func(c *config.Config) { c.WithCacheBackend("redis") }},
		{"file backend without path", func(c *config.Config) { c.WithCachePath("") }},
		{"zero ttl", func(c *config.Config) { c.WithCacheTTL(0) }},
		{"unknown hash", func(c *config.Config) { c.WithHashAlgo("md5") }},
		{"zero tabs", func(c *config.Config) { c.WithBrowserMaxTabs(0) }},
		{"zero client rate limit", func(c *config.Config) { c.WithClientRateLimit(0) }},
		{"unknown log format", func(c *config.Config) { c.WithLogFormat("xml") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.WithDefault()
			tt.mutate(cfg)
			_, err := cfg.Build()
			if !errors.Is(err, config.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestWithConfigFile_Formats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "json",
			file: "config.json",
			content: `{
				"language": "fr",
				"cacheBackend": "sqlite",
				"cachePath": "cache.db",
				"cacheTtl": "30m",
				"pageCap": 50,
				"browserHeadless": false,
				"honorCrawlDelay": false,
				"logLevel": "debug"
			}`,
		},
		{
			name: "yaml",
			file: "config.yaml",
			content: `language: fr
cacheBackend: sqlite
cachePath: cache.db
cacheTtl: 30m
pageCap: 50
browserHeadless: false
honorCrawlDelay: false
logLevel: debug
`,
		},
		{
			name: "toml",
			file: "config.toml",
			content: `language = "fr"
cacheBackend = "sqlite"
cachePath = "cache.db"
cacheTtl = "30m"
pageCap = 50
browserHeadless = false
honorCrawlDelay = false
logLevel = "debug"
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.WithConfigFile(writeConfigFile(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Language() != "fr" {
				t.Errorf("expected Language 'fr', got '%s'", cfg.Language())
			}
			if cfg.CacheBackend() != config.CacheBackendSQLite {
				t.Errorf("expected sqlite backend, got %s", cfg.CacheBackend())
			}
			if cfg.CachePath() != "cache.db" {
				t.Errorf("expected CachePath 'cache.db', got '%s'", cfg.CachePath())
			}
			if cfg.CacheTTL() != 30*time.Minute {
				t.Errorf("expected CacheTTL 30m, got %v", cfg.CacheTTL())
			}
			if cfg.PageCap() != 50 {
				t.Errorf("expected PageCap 50, got %d", cfg.PageCap())
			}
			if cfg.BrowserHeadless() {
				t.Error("expected BrowserHeadless false")
			}
			if cfg.HonorCrawlDelay() {
				t.Error("expected HonorCrawlDelay false")
			}
			if cfg.LogLevel() != slog.LevelDebug {
				t.Errorf("expected debug level, got %v", cfg.LogLevel())
			}
			// untouched fields keep defaults
			if cfg.Timeout() != 60*time.Second {
				t.Errorf("expected default Timeout 60s, got %v", cfg.Timeout())
			}
		})
	}
}

func TestWithConfigFile_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := config.WithConfigFile(filepath.Join(t.TempDir(), "nope.json"))
		if !errors.Is(err, config.ErrFileDoesNotExist) {
			t.Errorf("expected ErrFileDoesNotExist, got %v", err)
		}
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := config.WithConfigFile(writeConfigFile(t, "config.ini", "language=en"))
		if !errors.Is(err, config.ErrUnsupportedFormat) {
			t.Errorf("expected ErrUnsupportedFormat, got %v", err)
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := config.WithConfigFile(writeConfigFile(t, "config.json", "{not json"))
		if !errors.Is(err, config.ErrConfigParsingFail) {
			t.Errorf("expected ErrConfigParsingFail, got %v", err)
		}
	})

	t.Run("bad duration", func(t *testing.T) {
		_, err := config.WithConfigFile(writeConfigFile(t, "config.json", `{"cacheTtl": "soon"}`))
		if !errors.Is(err, config.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("bad log level", func(t *testing.T) {
		_, err := config.WithConfigFile(writeConfigFile(t, "config.yaml", "logLevel: loud\n"))
		if !errors.Is(err, config.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("invalid value fails validation", func(t *testing.T) {
		_, err := config.WithConfigFile(writeConfigFile(t, "config.toml", "pageCap = -1\n"))
		if !errors.Is(err, config.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
