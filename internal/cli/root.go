package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rohmanhakim/fic-roulette/internal/config"
	"github.com/rohmanhakim/fic-roulette/pkg/hashutil"
	"github.com/spf13/cobra"
)

var (
	cfgFile          string
	catalogURL       string
	language         string
	transport        string
	timeout          time.Duration
	requestDelay     time.Duration
	jitter           time.Duration
	randomSeed       int64
	maxAttempt       int
	userAgent        string
	pageCap          int
	cacheBackend     string
	cachePath        string
	cacheTTL         time.Duration
	hashAlgo         string
	logLevel         string
	logFormat        string
	browserRemoteURL string
	browserMaxTabs   int
	headful          bool
	ignoreCrawlDelay bool
)

// errSilentExit ends the process with a non-zero status without printing:
// the command already explained itself on its output.
var errSilentExit = errors.New("silent exit")

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fic-roulette",
	Short: "Pick a random work from the fan fiction archive.",
	Long: `fic-roulette picks one random work matching a tag, category and fandom
filter from the fan fiction archive.

When the archive is slow or unreachable, it falls back to the results of the
last successful search for the same filter and says so.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errSilentExit) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		stop()
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config-file", "", "config file path, .json, .yaml or .toml (e.g., /home/myuser/fic-roulette.yaml)")
	flags.StringVar(&catalogURL, "catalog-url", "", "root URL of the archive")
	flags.StringVar(&language, "language", "", "archive language filter (e.g., en)")
	flags.StringVar(&transport, "transport", "", "how search pages are fetched: http or browser")
	flags.DurationVar(&timeout, "timeout", 0, "timeout for a single fetch attempt")
	flags.DurationVar(&requestDelay, "request-delay", 0, "minimum delay between two requests to the archive")
	flags.DurationVar(&jitter, "jitter", 0, "random jitter added to delays")
	flags.Int64Var(&randomSeed, "random-seed", 0, "seed for random number generation (0 for current time)")
	flags.IntVar(&maxAttempt, "max-attempt", 0, "maximum attempts for a retryable fetch failure")
	flags.StringVar(&userAgent, "user-agent", "", "user agent string for HTTP requests")
	flags.IntVar(&pageCap, "page-cap", 0, "deepest result page a pick may land on")
	flags.StringVar(&cacheBackend, "cache-backend", "", "where fallback results are kept: file, sqlite or memory")
	flags.StringVar(&cachePath, "cache-path", "", "cache directory (file) or database file (sqlite)")
	flags.DurationVar(&cacheTTL, "cache-ttl", 0, "age after which cached results are reported stale")
	flags.StringVar(&hashAlgo, "hash-algo", "", "hash used to derive cache keys: blake3 or sha256")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&logFormat, "log-format", "", "log format: text or json")
	flags.StringVar(&browserRemoteURL, "browser-remote-url", "", "DevTools WebSocket URL of an external Chrome")
	flags.IntVar(&browserMaxTabs, "browser-max-tabs", 0, "maximum concurrent browser tabs")
	flags.BoolVar(&headful, "headful", false, "show the browser window")
	flags.BoolVar(&ignoreCrawlDelay, "ignore-crawl-delay", false, "do not raise --request-delay to the archive's robots.txt Crawl-delay")
}

// InitConfigWithError reads in the config file if set, otherwise applies CLI
// flags over the defaults.
func InitConfigWithError() (config.Config, error) {
	if cfgFile != "" {
		cfg, err := config.WithConfigFile(cfgFile)
		if err != nil {
			return cfg, fmt.Errorf("error initializing config from file: %w", err)
		}
		return cfg, nil
	}

	// Start with default config and apply overrides using method chaining
	configBuilder := config.WithDefault()

	if catalogURL != "" {
		parsed, err := url.Parse(catalogURL)
		if err != nil {
			return config.Config{}, fmt.Errorf("%w: catalog-url: %s", config.ErrInvalidConfig, err.Error())
		}
		configBuilder = configBuilder.WithCatalogBaseURL(*parsed)
	}

	if language != "" {
		configBuilder = configBuilder.WithLanguage(language)
	}

	if transport != "" {
		configBuilder = configBuilder.WithTransport(config.Transport(transport))
	}

	if timeout > 0 {
		configBuilder = configBuilder.WithTimeout(timeout)
	}

	if requestDelay > 0 {
		configBuilder = configBuilder.WithRequestDelay(requestDelay)
	}

	if jitter > 0 {
		configBuilder = configBuilder.WithJitter(jitter)
	}

	if randomSeed != 0 {
		configBuilder = configBuilder.WithRandomSeed(randomSeed)
	}

	if maxAttempt > 0 {
		configBuilder = configBuilder.WithMaxAttempt(maxAttempt)
	}

	if userAgent != "" {
		configBuilder = configBuilder.WithUserAgent(userAgent)
	}

	if pageCap > 0 {
		configBuilder = configBuilder.WithPageCap(pageCap)
	}

	if cacheBackend != "" {
		configBuilder = configBuilder.WithCacheBackend(config.CacheBackend(cacheBackend))
	}

	if cachePath != "" {
		configBuilder = configBuilder.WithCachePath(cachePath)
	}

	if cacheTTL > 0 {
		configBuilder = configBuilder.WithCacheTTL(cacheTTL)
	}

	if hashAlgo != "" {
		configBuilder = configBuilder.WithHashAlgo(hashutil.HashAlgo(hashAlgo))
	}

	if logLevel != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(logLevel)); err != nil {
			return config.Config{}, fmt.Errorf("%w: log-level: %s", config.ErrInvalidConfig, err.Error())
		}
		configBuilder = configBuilder.WithLogLevel(level)
	}

	if logFormat != "" {
		configBuilder = configBuilder.WithLogFormat(logFormat)
	}

	if browserRemoteURL != "" {
		configBuilder = configBuilder.WithBrowserRemoteURL(browserRemoteURL)
	}

	if browserMaxTabs > 0 {
		configBuilder = configBuilder.WithBrowserMaxTabs(browserMaxTabs)
	}

	if headful {
		configBuilder = configBuilder.WithBrowserHeadless(false)
	}

	if ignoreCrawlDelay {
		configBuilder = configBuilder.WithHonorCrawlDelay(false)
	}

	if listenAddr != "" {
		configBuilder = configBuilder.WithListenAddr(listenAddr)
	}

	if clientRateLimit > 0 {
		configBuilder = configBuilder.WithClientRateLimit(clientRateLimit)
	}

	if len(allowedOrigins) > 0 {
		configBuilder = configBuilder.WithAllowedOrigins(allowedOrigins)
	}

	return configBuilder.Build()
}

func ResetFlags() {
	cfgFile = ""
	catalogURL = ""
	language = ""
	transport = ""
	timeout = 0
	requestDelay = 0
	jitter = 0
	randomSeed = 0
	maxAttempt = 0
	userAgent = ""
	pageCap = 0
	cacheBackend = ""
	cachePath = ""
	cacheTTL = 0
	hashAlgo = ""
	logLevel = ""
	logFormat = ""
	browserRemoteURL = ""
	browserMaxTabs = 0
	headful = false
	ignoreCrawlDelay = false
	listenAddr = ""
	clientRateLimit = 0
	allowedOrigins = []string{}
	resetPickFlags()
}

// Test helper functions to set flag values from tests
func SetConfigFileForTest(path string) {
	cfgFile = path
}

func SetCatalogURLForTest(u string) {
	catalogURL = u
}

func SetTransportForTest(t string) {
	transport = t
}

func SetTimeoutForTest(t time.Duration) {
	timeout = t
}

func SetPageCapForTest(p int) {
	pageCap = p
}

func SetCacheBackendForTest(backend string) {
	cacheBackend = backend
}

func SetCachePathForTest(path string) {
	cachePath = path
}

func SetCacheTTLForTest(ttl time.Duration) {
	cacheTTL = ttl
}

func SetHashAlgoForTest(algo string) {
	hashAlgo = algo
}

func SetLogLevelForTest(level string) {
	logLevel = level
}

func SetHeadfulForTest(h bool) {
	headful = h
}

func SetIgnoreCrawlDelayForTest(ignore bool) {
	ignoreCrawlDelay = ignore
}

func SetListenAddrForTest(addr string) {
	listenAddr = addr
}

func SetAllowedOriginsForTest(origins []string) {
	allowedOrigins = origins
}

// ExecuteForTest runs the root command with args, writing to out and errOut.
func ExecuteForTest(ctx context.Context, args []string, out io.Writer, errOut io.Writer) error {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	return rootCmd.ExecuteContext(ctx)
}

// IsSilentExit reports whether err only carries a non-zero exit status.
func IsSilentExit(err error) bool {
	return errors.Is(err, errSilentExit)
}
