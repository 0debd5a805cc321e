package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/rohmanhakim/fic-roulette/internal/catalog"
	"github.com/rohmanhakim/fic-roulette/internal/metadata"
	"github.com/rohmanhakim/fic-roulette/internal/search"
	"github.com/rohmanhakim/fic-roulette/pkg/limiter"
)

// DefaultMaxTabs bounds concurrent pages in the shared browser.
const DefaultMaxTabs = 3

type BrowserParam struct {
	BaseURL  url.URL
	Language string
	// RemoteURL is the DevTools WebSocket URL of an external Chrome.
	// Empty launches a local one.
	RemoteURL string
	Headless  bool
	MaxTabs   int
	Logger    *slog.Logger
}

// BrowserFetcher renders search pages in a stealth-patched headless Chrome.
// The catalog fronts its pages with bot checks that a plain HTTP client
// sometimes trips; a real browser gets through.
//
// The browser is started lazily on first use and relaunched after a crash.
// Concurrent fetches share it, at most MaxTabs pages at a time.
type BrowserFetcher struct {
	metadataSink metadata.MetadataSink
	rateLimiter  limiter.RateLimiter
	param        BrowserParam
	tabs         chan struct{}

	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
	closed   bool
}

func NewBrowserFetcher(
	metadataSink metadata.MetadataSink,
	rateLimiter limiter.RateLimiter,
	param BrowserParam,
) *BrowserFetcher {
	if param.MaxTabs <= 0 {
		param.MaxTabs = DefaultMaxTabs
	}
	if param.Logger == nil {
		param.Logger = slog.Default()
	}
	return &BrowserFetcher{
		metadataSink: metadataSink,
		rateLimiter:  rateLimiter,
		param:        param,
		tabs:         make(chan struct{}, param.MaxTabs),
	}
}

// Start launches Chrome, or connects to the remote instance.
// Calling it on a started fetcher is a no-op.
func (b *BrowserFetcher) Start(ctx context.Context) error {
	_, err := b.ensureBrowser(ctx)
	return err
}

func (b *BrowserFetcher) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.cleanupLocked()
	return nil
}

func (b *BrowserFetcher) FetchPage(
	ctx context.Context,
	filter search.Filter,
	page int,
	timeout time.Duration,
) PageResult {
	callerMethod := "BrowserFetcher.FetchPage"
	fetchUrl := filter.SearchURL(b.param.BaseURL, catalog.SearchPath, page, b.param.Language)
	startTime := time.Now()

	result, fetchErr := b.render(ctx, fetchUrl, timeout)
	if fetchErr != nil {
		result = toPageResult(fetchUrl, fetchErr)
		b.metadataSink.RecordError(
			time.Now(),
			"fetcher",
			callerMethod,
			mapFetchErrorToMetadataCause(fetchErr),
			fetchErr.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, fetchUrl.String()),
				metadata.NewAttr(metadata.AttrPage, strconv.Itoa(page)),
			},
		)
	}
	result = result.withAttempts(1)

	b.metadataSink.RecordFetch(fetchUrl.String(), result.Code(), time.Since(startTime), 1, page)
	return result
}

func (b *BrowserFetcher) render(ctx context.Context, fetchUrl url.URL, timeout time.Duration) (PageResult, *FetchError) {
	select {
	case b.tabs <- struct{}{}:
		defer func() { <-b.tabs }()
	case <-ctx.Done():
		return PageResult{}, contextFetchError(ctx.Err())
	}

	navCtx, cancel := withOptionalTimeout(ctx, timeout)
	defer cancel()

	if err := b.rateLimiter.Wait(navCtx, fetchUrl.Host); err != nil {
		return PageResult{}, contextFetchError(err)
	}

	browser, err := b.ensureBrowser(navCtx)
	if err != nil {
		return PageResult{}, &FetchError{
			Message: err.Error(),
			Cause:   ErrCauseBrowserUnavailable,
		}
	}

	tab, err := stealth.Page(browser)
	if err != nil {
		b.reset()
		return PageResult{}, &FetchError{
			Message: fmt.Sprintf("create tab: %v", err),
			Cause:   ErrCauseBrowserUnavailable,
		}
	}
	defer tab.Close()

	p := tab.Context(navCtx)

	// The first document response carries the page's HTTP status.
	var status int
	waitDocument := p.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type != proto.NetworkResourceTypeDocument {
			return false
		}
		status = e.Response.Status
		return true
	})

	if err := p.Navigate(fetchUrl.String()); err != nil {
		return PageResult{}, navigationFetchError(err)
	}
	waitDocument()

	if err := p.WaitLoad(); err != nil {
		return PageResult{}, navigationFetchError(err)
	}

	if fetchErr := documentStatusError(status); fetchErr != nil {
		if backsOff(fetchErr) {
			b.rateLimiter.Backoff(fetchUrl.Host)
		}
		return PageResult{}, fetchErr
	}

	html, err := p.HTML()
	if err != nil {
		return PageResult{}, navigationFetchError(err)
	}
	result, fetchErr := documentResult(fetchUrl, status, html)
	if fetchErr != nil {
		return PageResult{}, fetchErr
	}

	b.rateLimiter.ResetBackoff(fetchUrl.Host)
	return result, nil
}

// documentStatusError gates a rendered page on its document status. Zero
// means the browser reported no document response, which passes.
func documentStatusError(status int) *FetchError {
	if status == 0 {
		return nil
	}
	return statusFetchError(status)
}

func documentResult(fetchUrl url.URL, status int, html string) (PageResult, *FetchError) {
	if strings.TrimSpace(html) == "" {
		return PageResult{}, &FetchError{
			Message:    "rendered page is empty",
			Cause:      ErrCauseEmptyBody,
			StatusCode: status,
		}
	}
	return NewOKResult(fetchUrl, []byte(html), status), nil
}

// backsOff reports failures that should slow down the next request to the host.
func backsOff(err *FetchError) bool {
	return err.Cause == ErrCauseRequestTooMany || err.Cause == ErrCauseRequest5xx
}

func navigationFetchError(err error) *FetchError {
	if isTimeout(err) {
		return &FetchError{
			Message: fmt.Sprintf("navigation timed out: %v", err),
			Cause:   ErrCauseTimeout,
		}
	}
	if errors.Is(err, context.Canceled) {
		return &FetchError{Message: err.Error(), Cause: ErrCauseNetworkFailure}
	}
	return &FetchError{
		Message: fmt.Sprintf("navigation failed: %v", err),
		Cause:   ErrCauseNetworkFailure,
	}
}

func (b *BrowserFetcher) ensureBrowser(ctx context.Context) (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, errors.New("browser: fetcher is closed")
	}
	if b.browser != nil {
		return b.browser, nil
	}

	log := b.param.Logger
	wsURL := b.param.RemoteURL
	if wsURL != "" {
		log.Info("browser: connecting to remote", "url", wsURL)
	} else {
		l := launcher.New().
			Headless(b.param.Headless).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		b.launcher = l
		log.Info("browser: launched local chrome", "url", wsURL, "headless", b.param.Headless)
	}

	browser := rod.New().Context(context.WithoutCancel(ctx)).ControlURL(wsURL)
	if err := browser.Connect(); err != nil {
		b.cleanupLocked()
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	b.browser = browser
	return browser, nil
}

// reset drops the current browser so the next fetch relaunches it.
func (b *BrowserFetcher) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.param.Logger.Warn("browser: dropping broken browser")
	b.cleanupLocked()
}

func (b *BrowserFetcher) cleanupLocked() {
	if b.browser != nil {
		_ = b.browser.Close()
		b.browser = nil
	}
	if b.launcher != nil {
		b.launcher.Cleanup()
		b.launcher = nil
	}
}
