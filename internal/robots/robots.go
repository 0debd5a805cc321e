package robots

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rohmanhakim/fic-roulette/internal/metadata"
)

/*
Responsibilities

- Fetch the archive's robots.txt once per process
- Resolve the group that applies to our user agent
- Report its crawl delay so the request limiter can honour it

Disallow rules are reported, not enforced: every request this tool sends
is one a person asked for.
*/

const maxRobotsSize = 500 * 1024

// Policy is what robots.txt says about our user agent.
type Policy struct {
	// Found is false when the host has no robots.txt or no group matched.
	Found      bool
	CrawlDelay *time.Duration
	Allows     []string
	Disallows  []string
}

// Delay returns the larger of configured and the crawl delay, if any.
func (p Policy) Delay(configured time.Duration) time.Duration {
	if p.CrawlDelay != nil && *p.CrawlDelay > configured {
		return *p.CrawlDelay
	}
	return configured
}

// Disallowed reports whether path falls under a Disallow rule that no
// longer Allow rule overrides.
func (p Policy) Disallowed(path string) bool {
	longestDisallow := -1
	for _, d := range p.Disallows {
		if strings.HasPrefix(path, d) && len(d) > longestDisallow {
			longestDisallow = len(d)
		}
	}
	if longestDisallow < 0 {
		return false
	}
	for _, a := range p.Allows {
		if strings.HasPrefix(path, a) && len(a) >= longestDisallow {
			return false
		}
	}
	return true
}

type Loader struct {
	metadataSink metadata.MetadataSink
	httpClient   *http.Client
	userAgent    string
}

func NewLoader(metadataSink metadata.MetadataSink, httpClient *http.Client, userAgent string) *Loader {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Loader{
		metadataSink: metadataSink,
		httpClient:   httpClient,
		userAgent:    userAgent,
	}
}

// Load fetches <base>/robots.txt. A 4xx other than 429 means no rules.
func (l *Loader) Load(ctx context.Context, base url.URL) (Policy, *RobotsError) {
	robotsURL := base
	robotsURL.Path = "/robots.txt"
	robotsURL.RawQuery = ""
	robotsURL.Fragment = ""

	policy, err := l.load(ctx, robotsURL.String())
	if err != nil {
		l.metadataSink.RecordError(
			time.Now(),
			"robots",
			"Loader.Load",
			mapRobotsErrorToMetadataCause(err),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, robotsURL.String()),
			},
		)
		return Policy{}, err
	}
	return policy, nil
}

func (l *Loader) load(ctx context.Context, robotsURL string) (Policy, *RobotsError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return Policy{}, &RobotsError{
			Message: fmt.Sprintf("failed to create request: %v", err),
			Cause:   ErrCausePreFetchFailure,
		}
	}
	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "text/plain,*/*")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return Policy{}, &RobotsError{
			Message:   fmt.Sprintf("failed to fetch robots.txt: %v", err),
			Retryable: true,
			Cause:     ErrCauseHttpFetchFailure,
		}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return Policy{}, &RobotsError{
			Message:   fmt.Sprintf("rate limited (429) when fetching %s", robotsURL),
			Retryable: true,
			Cause:     ErrCauseHttpTooManyRequests,
		}
	case resp.StatusCode >= 500:
		return Policy{}, &RobotsError{
			Message:   fmt.Sprintf("server error (%d) when fetching %s", resp.StatusCode, robotsURL),
			Retryable: true,
			Cause:     ErrCauseHttpServerError,
		}
	case resp.StatusCode >= 400:
		return Policy{}, nil
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsSize))
	if err != nil {
		return Policy{}, &RobotsError{
			Message:   fmt.Sprintf("failed to read robots.txt body: %v", err),
			Retryable: true,
			Cause:     ErrCauseReadFailure,
		}
	}

	g := bestGroup(parse(string(content)), l.userAgent)
	if g == nil {
		return Policy{}, nil
	}
	return Policy{
		Found:      true,
		CrawlDelay: g.crawlDelay,
		Allows:     g.allows,
		Disallows:  g.disallows,
	}, nil
}
