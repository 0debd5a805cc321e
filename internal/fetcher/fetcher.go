package fetcher

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/rohmanhakim/fic-roulette/internal/search"
)

/*
Responsibilities

- Build the catalog search URL for a filter and page
- Apply headers, courtesy delay and per-request timeouts
- Retry throttled and server-side failures with backoff
- Report every outcome as a PageResult

The fetcher never parses content; it only returns bytes and a status.
*/

// PageFetcher retrieves one page of catalog search results.
type PageFetcher interface {
	FetchPage(
		ctx context.Context,
		filter search.Filter,
		page int,
		timeout time.Duration,
	) PageResult
	Close() error
}

// DefaultUserAgent identifies us to the catalog.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

func requestHeaders(userAgent string, language string) map[string]string {
	acceptLanguage := "en-US,en;q=0.5"
	if language != "" && language != "en" {
		acceptLanguage = language + ",en;q=0.5"
	}
	return map[string]string{
		"User-Agent":      userAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": acceptLanguage,
		"DNT":             "1",
		"Connection":      "keep-alive",
	}
}

// isTimeout reports whether err came from an elapsed deadline rather than
// a refused or broken connection.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
