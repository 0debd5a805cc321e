package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rohmanhakim/fic-roulette/internal/catalog"
	"github.com/rohmanhakim/fic-roulette/internal/metadata"
	"github.com/rohmanhakim/fic-roulette/internal/search"
	"github.com/rohmanhakim/fic-roulette/pkg/failure"
	"github.com/rohmanhakim/fic-roulette/pkg/limiter"
	"github.com/rohmanhakim/fic-roulette/pkg/retry"
)

// maxBodyBytes bounds how much of a search page we are willing to buffer.
const maxBodyBytes = 10 << 20

type HTTPParam struct {
	BaseURL   url.URL
	Language  string
	UserAgent string
	Retry     retry.RetryParam
}

// HTTPFetcher fetches search pages with a plain HTTP client.
//
// Every attempt first waits on the rate limiter keyed by the catalog host,
// so consecutive requests are spaced by the configured courtesy delay.
// 429 and 5xx answers grow the limiter backoff and are retried; any
// success resets it.
type HTTPFetcher struct {
	metadataSink metadata.MetadataSink
	httpClient   *http.Client
	rateLimiter  limiter.RateLimiter
	param        HTTPParam
}

func NewHTTPFetcher(
	metadataSink metadata.MetadataSink,
	rateLimiter limiter.RateLimiter,
	param HTTPParam,
) *HTTPFetcher {
	if param.UserAgent == "" {
		param.UserAgent = DefaultUserAgent
	}
	return &HTTPFetcher{
		metadataSink: metadataSink,
		httpClient:   &http.Client{},
		rateLimiter:  rateLimiter,
		param:        param,
	}
}

// Init swaps the underlying HTTP client.
func (h *HTTPFetcher) Init(httpClient *http.Client) {
	h.httpClient = httpClient
}

func (h *HTTPFetcher) Close() error {
	h.httpClient.CloseIdleConnections()
	return nil
}

type fetchedPage struct {
	body []byte
	code int
}

func (h *HTTPFetcher) FetchPage(
	ctx context.Context,
	filter search.Filter,
	page int,
	timeout time.Duration,
) PageResult {
	callerMethod := "HTTPFetcher.FetchPage"
	fetchUrl := filter.SearchURL(h.param.BaseURL, catalog.SearchPath, page, h.param.Language)
	startTime := time.Now()

	fetched, attempts, err := h.fetchWithRetry(ctx, fetchUrl, timeout)

	var result PageResult
	if err != nil {
		result = resultFromError(fetchUrl, err)
		h.recordFetchError(callerMethod, fetchUrl, page, err)
	} else {
		result = NewOKResult(fetchUrl, fetched.body, fetched.code)
	}
	result = result.withAttempts(attempts)

	h.metadataSink.RecordFetch(
		fetchUrl.String(),
		result.Code(),
		time.Since(startTime),
		attempts,
		page,
	)
	return result
}

func (h *HTTPFetcher) fetchWithRetry(
	ctx context.Context,
	fetchUrl url.URL,
	timeout time.Duration,
) (fetchedPage, int, failure.ClassifiedError) {
	host := fetchUrl.Host
	attempts := 0

	fetchTask := func(attempt int) (fetchedPage, failure.ClassifiedError) {
		attempts = attempt
		if err := h.rateLimiter.Wait(ctx, host); err != nil {
			return fetchedPage{}, contextFetchError(err)
		}

		attemptCtx, cancel := withOptionalTimeout(ctx, timeout)
		defer cancel()

		page, fetchErr := h.performFetch(attemptCtx, fetchUrl)
		if fetchErr != nil {
			if fetchErr.Cause == ErrCauseRequestTooMany || fetchErr.Cause == ErrCauseRequest5xx {
				h.rateLimiter.Backoff(host)
			}
			return fetchedPage{}, fetchErr
		}
		h.rateLimiter.ResetBackoff(host)
		return page, nil
	}

	page, err := retry.Retry(ctx, h.param.Retry, fetchTask)
	return page, attempts, err
}

func (h *HTTPFetcher) performFetch(ctx context.Context, fetchUrl url.URL) (fetchedPage, *FetchError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchUrl.String(), nil)
	if err != nil {
		return fetchedPage{}, &FetchError{
			Message:   fmt.Sprintf("failed to create request: %v", err),
			Retryable: false,
			Cause:     ErrCauseNetworkFailure,
		}
	}

	for key, value := range requestHeaders(h.param.UserAgent, h.param.Language) {
		req.Header.Set(key, value)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return fetchedPage{}, transportFetchError(ctx, err)
	}
	defer resp.Body.Close()

	if fetchErr := statusFetchError(resp.StatusCode); fetchErr != nil {
		return fetchedPage{}, fetchErr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if isTimeout(err) {
			return fetchedPage{}, &FetchError{
				Message:   fmt.Sprintf("timed out reading body: %v", err),
				Retryable: false,
				Cause:     ErrCauseTimeout,
			}
		}
		return fetchedPage{}, &FetchError{
			Message:   fmt.Sprintf("failed to read response body: %v", err),
			Retryable: true,
			Cause:     ErrCauseReadResponseBodyError,
		}
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return fetchedPage{}, &FetchError{
			Retryable:  false,
			Cause:      ErrCauseEmptyBody,
			StatusCode: resp.StatusCode,
		}
	}

	return fetchedPage{body: body, code: resp.StatusCode}, nil
}

// statusFetchError classifies a non-2xx status. Throttling and server-side
// failures are retryable; everything else is final.
func statusFetchError(code int) *FetchError {
	switch {
	case code == http.StatusTooManyRequests:
		return &FetchError{
			Message:    "rate limited (429)",
			Retryable:  true,
			Cause:      ErrCauseRequestTooMany,
			StatusCode: code,
		}
	case code >= 500:
		return &FetchError{
			Message:    "server error: " + strconv.Itoa(code),
			Retryable:  true,
			Cause:      ErrCauseRequest5xx,
			StatusCode: code,
		}
	case code < 200 || code >= 300:
		return &FetchError{
			Message:    "unexpected status: " + strconv.Itoa(code),
			Retryable:  false,
			Cause:      ErrCauseRequestRejected,
			StatusCode: code,
		}
	}
	return nil
}

// transportFetchError classifies an error from http.Client.Do.
// Timeouts are not retried: each fetch gets exactly one timeout budget.
func transportFetchError(ctx context.Context, err error) *FetchError {
	if isTimeout(err) {
		return &FetchError{
			Message:   fmt.Sprintf("request timed out: %v", err),
			Retryable: false,
			Cause:     ErrCauseTimeout,
		}
	}
	if ctx.Err() != nil {
		return &FetchError{
			Message:   fmt.Sprintf("request cancelled: %v", err),
			Retryable: false,
			Cause:     ErrCauseNetworkFailure,
		}
	}
	return &FetchError{
		Message:   fmt.Sprintf("request failed: %v", err),
		Retryable: true,
		Cause:     ErrCauseNetworkFailure,
	}
}

func contextFetchError(err error) *FetchError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &FetchError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseTimeout,
		}
	}
	return &FetchError{
		Message:   err.Error(),
		Retryable: false,
		Cause:     ErrCauseNetworkFailure,
	}
}

func resultFromError(fetchUrl url.URL, err error) PageResult {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return toPageResult(fetchUrl, fetchErr)
	}
	return NewTransportResult(fetchUrl, err.Error())
}

func withOptionalTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func (h *HTTPFetcher) recordFetchError(callerMethod string, fetchUrl url.URL, page int, err failure.ClassifiedError) {
	cause := metadata.CauseUnknown
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		cause = mapFetchErrorToMetadataCause(fetchErr)
	}
	h.metadataSink.RecordError(
		time.Now(),
		"fetcher",
		callerMethod,
		cause,
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, fetchUrl.String()),
			metadata.NewAttr(metadata.AttrPage, strconv.Itoa(page)),
		},
	)
}
