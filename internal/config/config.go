package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rohmanhakim/fic-roulette/internal/catalog"
	"github.com/rohmanhakim/fic-roulette/internal/fetcher"
	"github.com/rohmanhakim/fic-roulette/pkg/hashutil"
	"github.com/rohmanhakim/fic-roulette/pkg/retry"
	"github.com/rohmanhakim/fic-roulette/pkg/timeutil"
	"gopkg.in/yaml.v3"
)

// Transport selects how search pages are fetched.
type Transport string

const (
	TransportHTTP    Transport = "http"
	TransportBrowser Transport = "browser"
)

// CacheBackend selects where cached results are kept.
type CacheBackend string

const (
	CacheBackendFile   CacheBackend = "file"
	CacheBackendSQLite CacheBackend = "sqlite"
	CacheBackendMemory CacheBackend = "memory"
)

type Config struct {
	//===============
	// Catalog
	//===============
	// Root of the remote work catalog
	catalogBaseURL url.URL
	// Catalog language filter, e.g. "en"
	language string
	// How search pages are fetched
	transport Transport

	//===============
	// Fetch
	//===============
	// Maximum time of a single fetch attempt
	timeout time.Duration
	// User agent that will be used in the request header. In raw string
	userAgent string
	// Minimum waiting time between two requests to the catalog host
	requestDelay time.Duration
	// Raise requestDelay to the catalog's robots.txt Crawl-delay
	honorCrawlDelay bool
	// Randomized variation added on top of delays
	jitter time.Duration
	// Controls the random number generator. Zero seeds from the clock
	randomSeed int64
	// maximum attempt during retry
	maxAttempt int
	// initial delay for backoff
	backoffInitialDuration time.Duration
	// multiplier during exponential backoff
	backoffMultiplier float64
	// capped maximum delay for backoff to stop exponential multiplication
	backoffMaxDuration time.Duration

	//===============
	// Sampling
	//===============
	// Deepest result page a random pick may land on
	pageCap int

	//===============
	// Cache
	//===============
	cacheBackend CacheBackend
	// Directory for the file backend, database file for the sqlite backend
	cachePath string
	// Age after which cached results are reported stale
	cacheTTL time.Duration
	// Hash used to derive cache keys
	hashAlgo hashutil.HashAlgo

	//===============
	// Server
	//===============
	listenAddr string
	// /generate calls one client may make per minute
	clientRateLimit int
	allowedOrigins []string

	//===============
	// Browser
	//===============
	// DevTools WebSocket URL of an external Chrome. Empty launches one
	browserRemoteURL string
	browserHeadless  bool
	browserMaxTabs   int

	//===============
	// Logging
	//===============
	logLevel  slog.Level
	logFormat string
}

// configDTO mirrors the config file. Durations are strings such as "1h" or
// "250ms".
type configDTO struct {
	CatalogBaseURL         string   `json:"catalogBaseUrl,omitempty" yaml:"catalogBaseUrl" toml:"catalogBaseUrl"`
	Language               string   `json:"language,omitempty" yaml:"language" toml:"language"`
	Transport              string   `json:"transport,omitempty" yaml:"transport" toml:"transport"`
	Timeout                string   `json:"timeout,omitempty" yaml:"timeout" toml:"timeout"`
	UserAgent              string   `json:"userAgent,omitempty" yaml:"userAgent" toml:"userAgent"`
	RequestDelay           string   `json:"requestDelay,omitempty" yaml:"requestDelay" toml:"requestDelay"`
	HonorCrawlDelay        *bool    `json:"honorCrawlDelay,omitempty" yaml:"honorCrawlDelay" toml:"honorCrawlDelay"`
	Jitter                 string   `json:"jitter,omitempty" yaml:"jitter" toml:"jitter"`
	RandomSeed             int64    `json:"randomSeed,omitempty" yaml:"randomSeed" toml:"randomSeed"`
	MaxAttempt             int      `json:"maxAttempt,omitempty" yaml:"maxAttempt" toml:"maxAttempt"`
	BackoffInitialDuration string   `json:"backoffInitialDuration,omitempty" yaml:"backoffInitialDuration" toml:"backoffInitialDuration"`
	BackoffMultiplier      float64  `json:"backoffMultiplier,omitempty" yaml:"backoffMultiplier" toml:"backoffMultiplier"`
	BackoffMaxDuration     string   `json:"backoffMaxDuration,omitempty" yaml:"backoffMaxDuration" toml:"backoffMaxDuration"`
	PageCap                int      `json:"pageCap,omitempty" yaml:"pageCap" toml:"pageCap"`
	CacheBackend           string   `json:"cacheBackend,omitempty" yaml:"cacheBackend" toml:"cacheBackend"`
	CachePath              string   `json:"cachePath,omitempty" yaml:"cachePath" toml:"cachePath"`
	CacheTTL               string   `json:"cacheTtl,omitempty" yaml:"cacheTtl" toml:"cacheTtl"`
	HashAlgo               string   `json:"hashAlgo,omitempty" yaml:"hashAlgo" toml:"hashAlgo"`
	ListenAddr             string   `json:"listenAddr,omitempty" yaml:"listenAddr" toml:"listenAddr"`
	ClientRateLimit        int      `json:"clientRateLimit,omitempty" yaml:"clientRateLimit" toml:"clientRateLimit"`
	AllowedOrigins         []string `json:"allowedOrigins,omitempty" yaml:"allowedOrigins" toml:"allowedOrigins"`
	BrowserRemoteURL       string   `json:"browserRemoteUrl,omitempty" yaml:"browserRemoteUrl" toml:"browserRemoteUrl"`
	BrowserHeadless        *bool    `json:"browserHeadless,omitempty" yaml:"browserHeadless" toml:"browserHeadless"`
	BrowserMaxTabs         int      `json:"browserMaxTabs,omitempty" yaml:"browserMaxTabs" toml:"browserMaxTabs"`
	LogLevel               string   `json:"logLevel,omitempty" yaml:"logLevel" toml:"logLevel"`
	LogFormat              string   `json:"logFormat,omitempty" yaml:"logFormat" toml:"logFormat"`
}

func newConfigFromDTO(dto configDTO) (Config, error) {
	cfg := WithDefault()

	if dto.CatalogBaseURL != "" {
		u, err := url.Parse(dto.CatalogBaseURL)
		if err != nil {
			return Config{}, fmt.Errorf("%w: catalogBaseUrl: %s", ErrInvalidConfig, err.Error())
		}
		cfg.catalogBaseURL = *u
	}
	if dto.Language != "" {
		cfg.language = dto.Language
	}
	if dto.Transport != "" {
		cfg.transport = Transport(strings.ToLower(dto.Transport))
	}
	if dto.UserAgent != "" {
		cfg.userAgent = dto.UserAgent
	}
	if dto.RandomSeed != 0 {
		cfg.randomSeed = dto.RandomSeed
	}
	if dto.MaxAttempt != 0 {
		cfg.maxAttempt = dto.MaxAttempt
	}
	if dto.BackoffMultiplier != 0 {
		cfg.backoffMultiplier = dto.BackoffMultiplier
	}
	if dto.PageCap != 0 {
		cfg.pageCap = dto.PageCap
	}
	if dto.CacheBackend != "" {
		cfg.cacheBackend = CacheBackend(strings.ToLower(dto.CacheBackend))
	}
	if dto.CachePath != "" {
		cfg.cachePath = dto.CachePath
	}
	if dto.HashAlgo != "" {
		cfg.hashAlgo = hashutil.HashAlgo(strings.ToLower(dto.HashAlgo))
	}
	if dto.ListenAddr != "" {
		cfg.listenAddr = dto.ListenAddr
	}
	if dto.ClientRateLimit != 0 {
		cfg.clientRateLimit = dto.ClientRateLimit
	}
	if len(dto.AllowedOrigins) > 0 {
		cfg.allowedOrigins = dto.AllowedOrigins
	}
	if dto.BrowserRemoteURL != "" {
		cfg.browserRemoteURL = dto.BrowserRemoteURL
	}
	if dto.HonorCrawlDelay != nil {
		cfg.honorCrawlDelay = *dto.HonorCrawlDelay
	}
	if dto.BrowserHeadless != nil {
		cfg.browserHeadless = *dto.BrowserHeadless
	}
	if dto.BrowserMaxTabs != 0 {
		cfg.browserMaxTabs = dto.BrowserMaxTabs
	}
	if dto.LogLevel != "" {
		if err := cfg.logLevel.UnmarshalText([]byte(dto.LogLevel)); err != nil {
			return Config{}, fmt.Errorf("%w: logLevel: %s", ErrInvalidConfig, err.Error())
		}
	}
	if dto.LogFormat != "" {
		cfg.logFormat = strings.ToLower(dto.LogFormat)
	}

	durations := []struct {
		name  string
		raw   string
		field *time.Duration
	}{
		{"timeout", dto.Timeout, &cfg.timeout},
		{"requestDelay", dto.RequestDelay, &cfg.requestDelay},
		{"jitter", dto.Jitter, &cfg.jitter},
		{"backoffInitialDuration", dto.BackoffInitialDuration, &cfg.backoffInitialDuration},
		{"backoffMaxDuration", dto.BackoffMaxDuration, &cfg.backoffMaxDuration},
		{"cacheTtl", dto.CacheTTL, &cfg.cacheTTL},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s: %s", ErrInvalidConfig, d.name, err.Error())
		}
		*d.field = parsed
	}

	return cfg.Build()
}

// WithConfigFile loads a JSON, YAML or TOML config file, chosen by extension.
// Fields left out of the file keep their defaults.
func WithConfigFile(path string) (Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	configContent, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}

	cfgDTO := configDTO{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(configContent, &cfgDTO)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(configContent, &cfgDTO)
	case ".toml":
		_, err = toml.NewDecoder(bytes.NewReader(configContent)).Decode(&cfgDTO)
	default:
		return Config{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	return newConfigFromDTO(cfgDTO)
}

func WithDefault() *Config {
	baseURL, _ := url.Parse(catalog.DefaultBaseURL)
	defaultConfig := Config{
		catalogBaseURL:         *baseURL,
		language:               "en",
		transport:              TransportHTTP,
		timeout:                60 * time.Second,
		userAgent:              fetcher.DefaultUserAgent,
		requestDelay:           time.Second,
		honorCrawlDelay:        true,
		jitter:                 250 * time.Millisecond,
		randomSeed:             time.Now().UnixNano(),
		maxAttempt:             3,
		backoffInitialDuration: 2 * time.Second,
		backoffMultiplier:      2.0,
		backoffMaxDuration:     30 * time.Second,
		pageCap:                200,
		cacheBackend:           CacheBackendFile,
		cachePath:              "cache",
		cacheTTL:               time.Hour,
		hashAlgo:               hashutil.HashAlgoBLAKE3,
		listenAddr:             ":5000",
		clientRateLimit:        10,
		allowedOrigins:         []string{"*"},
		browserRemoteURL:       "",
		browserHeadless:        true,
		browserMaxTabs:         fetcher.DefaultMaxTabs,
		logLevel:               slog.LevelInfo,
		logFormat:              "text",
	}
	return &defaultConfig
}

func (c *Config) WithCatalogBaseURL(u url.URL) *Config {
	c.catalogBaseURL = u
	return c
}

func (c *Config) WithLanguage(language string) *Config {
	c.language = language
	return c
}

func (c *Config) WithTransport(transport Transport) *Config {
	c.transport = transport
	return c
}

func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

func (c *Config) WithUserAgent(agent string) *Config {
	c.userAgent = agent
	return c
}

func (c *Config) WithRequestDelay(delay time.Duration) *Config {
	c.requestDelay = delay
	return c
}

func (c *Config) WithHonorCrawlDelay(honor bool) *Config {
	c.honorCrawlDelay = honor
	return c
}

func (c *Config) WithJitter(jitter time.Duration) *Config {
	c.jitter = jitter
	return c
}

func (c *Config) WithRandomSeed(seed int64) *Config {
	c.randomSeed = seed
	return c
}

func (c *Config) WithMaxAttempt(attempts int) *Config {
	c.maxAttempt = attempts
	return c
}

func (c *Config) WithBackoffInitialDuration(duration time.Duration) *Config {
	c.backoffInitialDuration = duration
	return c
}

func (c *Config) WithBackoffMultiplier(multiplier float64) *Config {
	c.backoffMultiplier = multiplier
	return c
}

func (c *Config) WithBackoffMaxDuration(duration time.Duration) *Config {
	c.backoffMaxDuration = duration
	return c
}

func (c *Config) WithPageCap(pageCap int) *Config {
	c.pageCap = pageCap
	return c
}

func (c *Config) WithCacheBackend(backend CacheBackend) *Config {
	c.cacheBackend = backend
	return c
}

func (c *Config) WithCachePath(path string) *Config {
	c.cachePath = path
	return c
}

func (c *Config) WithCacheTTL(ttl time.Duration) *Config {
	c.cacheTTL = ttl
	return c
}

func (c *Config) WithHashAlgo(algo hashutil.HashAlgo) *Config {
	c.hashAlgo = algo
	return c
}

func (c *Config) WithListenAddr(addr string) *Config {
	c.listenAddr = addr
	return c
}

func (c *Config) WithClientRateLimit(perMinute int) *Config {
	c.clientRateLimit = perMinute
	return c
}

func (c *Config) WithAllowedOrigins(origins []string) *Config {
	c.allowedOrigins = origins
	return c
}

func (c *Config) WithBrowserRemoteURL(remoteURL string) *Config {
	c.browserRemoteURL = remoteURL
	return c
}

func (c *Config) WithBrowserHeadless(headless bool) *Config {
	c.browserHeadless = headless
	return c
}

func (c *Config) WithBrowserMaxTabs(tabs int) *Config {
	c.browserMaxTabs = tabs
	return c
}

func (c *Config) WithLogLevel(level slog.Level) *Config {
	c.logLevel = level
	return c
}

func (c *Config) WithLogFormat(format string) *Config {
	c.logFormat = format
	return c
}

func (c *Config) Build() (Config, error) {
	if c.catalogBaseURL.Scheme != "http" && c.catalogBaseURL.Scheme != "https" || c.catalogBaseURL.Host == "" {
		return Config{}, fmt.Errorf("%w: catalogBaseUrl must be an absolute http(s) URL", ErrInvalidConfig)
	}
	switch c.transport {
	case TransportHTTP, TransportBrowser:
	default:
		return Config{}, fmt.Errorf("%w: unknown transport %q", ErrInvalidConfig, c.transport)
	}
	if c.timeout <= 0 {
		return Config{}, fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	if c.requestDelay < 0 || c.jitter < 0 {
		return Config{}, fmt.Errorf("%w: delays cannot be negative", ErrInvalidConfig)
	}
	if c.clientRateLimit < 1 {
		return Config{}, fmt.Errorf("%w: clientRateLimit must be at least 1", ErrInvalidConfig)
	}
	if c.maxAttempt < 1 {
		return Config{}, fmt.Errorf("%w: maxAttempt must be at least 1", ErrInvalidConfig)
	}
	if c.backoffMultiplier < 1 {
		return Config{}, fmt.Errorf("%w: backoffMultiplier must be at least 1", ErrInvalidConfig)
	}
	if c.backoffInitialDuration < 0 || c.backoffMaxDuration < c.backoffInitialDuration {
		return Config{}, fmt.Errorf("%w: backoffMaxDuration must not be below backoffInitialDuration", ErrInvalidConfig)
	}
	if c.pageCap < 1 {
		return Config{}, fmt.Errorf("%w: pageCap must be at least 1", ErrInvalidConfig)
	}
	switch c.cacheBackend {
	case CacheBackendFile, CacheBackendSQLite:
		if c.cachePath == "" {
			return Config{}, fmt.Errorf("%w: cachePath is required for the %s backend", ErrInvalidConfig, c.cacheBackend)
		}
	case CacheBackendMemory:
	default:
		return Config{}, fmt.Errorf("%w: unknown cache backend %q", ErrInvalidConfig, c.cacheBackend)
	}
	if c.cacheTTL <= 0 {
		return Config{}, fmt.Errorf("%w: cacheTtl must be positive", ErrInvalidConfig)
	}
	if _, err := hashutil.ParseHashAlgo(string(c.hashAlgo)); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}
	if c.browserMaxTabs < 1 {
		return Config{}, fmt.Errorf("%w: browserMaxTabs must be at least 1", ErrInvalidConfig)
	}
	if c.logFormat != "text" && c.logFormat != "json" {
		return Config{}, fmt.Errorf("%w: logFormat must be text or json", ErrInvalidConfig)
	}
	if c.randomSeed == 0 {
		c.randomSeed = time.Now().UnixNano()
	}
	return *c, nil
}

func (c Config) CatalogBaseURL() url.URL {
	return c.catalogBaseURL
}

func (c Config) Language() string {
	return c.language
}

func (c Config) Transport() Transport {
	return c.transport
}

func (c Config) Timeout() time.Duration {
	return c.timeout
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) RequestDelay() time.Duration {
	return c.requestDelay
}

func (c Config) HonorCrawlDelay() bool {
	return c.honorCrawlDelay
}

func (c Config) Jitter() time.Duration {
	return c.jitter
}

func (c Config) RandomSeed() int64 {
	return c.randomSeed
}

func (c Config) MaxAttempt() int {
	return c.maxAttempt
}

func (c Config) BackoffInitialDuration() time.Duration {
	return c.backoffInitialDuration
}

func (c Config) BackoffMultiplier() float64 {
	return c.backoffMultiplier
}

func (c Config) BackoffMaxDuration() time.Duration {
	return c.backoffMaxDuration
}

func (c Config) PageCap() int {
	return c.pageCap
}

func (c Config) CacheBackend() CacheBackend {
	return c.cacheBackend
}

func (c Config) CachePath() string {
	return c.cachePath
}

func (c Config) CacheTTL() time.Duration {
	return c.cacheTTL
}

func (c Config) HashAlgo() hashutil.HashAlgo {
	return c.hashAlgo
}

func (c Config) ListenAddr() string {
	return c.listenAddr
}

func (c Config) ClientRateLimit() int {
	return c.clientRateLimit
}

func (c Config) AllowedOrigins() []string {
	return c.allowedOrigins
}

func (c Config) BrowserRemoteURL() string {
	return c.browserRemoteURL
}

func (c Config) BrowserHeadless() bool {
	return c.browserHeadless
}

func (c Config) BrowserMaxTabs() int {
	return c.browserMaxTabs
}

func (c Config) LogLevel() slog.Level {
	return c.logLevel
}

func (c Config) LogFormat() string {
	return c.logFormat
}

// BackoffParam is the exponential backoff shared by fetch retries and the
// catalog rate limiter.
func (c Config) BackoffParam() timeutil.BackoffParam {
	return timeutil.NewBackoffParam(c.backoffInitialDuration, c.backoffMultiplier, c.backoffMaxDuration)
}

func (c Config) RetryParam() retry.RetryParam {
	return retry.NewRetryParam(c.jitter, c.randomSeed, c.maxAttempt, c.BackoffParam())
}
