package sampler_test

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rohmanhakim/fic-roulette/internal/catalog"
	"github.com/rohmanhakim/fic-roulette/internal/extractor"
	"github.com/rohmanhakim/fic-roulette/internal/fetcher"
	"github.com/rohmanhakim/fic-roulette/internal/mdconvert"
	"github.com/rohmanhakim/fic-roulette/internal/metadata"
	"github.com/rohmanhakim/fic-roulette/internal/search"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testTimeout = 5 * time.Second

// fetcherMock is a testify mock for fetcher.PageFetcher
type fetcherMock struct {
	mock.Mock
}

func (f *fetcherMock) FetchPage(
	ctx context.Context,
	filter search.Filter,
	page int,
	timeout time.Duration,
) fetcher.PageResult {
	args := f.Called(ctx, filter, page, timeout)
	return args.Get(0).(fetcher.PageResult)
}

func (f *fetcherMock) Close() error {
	return nil
}

func searchURL() url.URL {
	u, _ := url.Parse(catalog.DefaultBaseURL + catalog.SearchPath)
	return *u
}

func okPage(body string) fetcher.PageResult {
	return fetcher.NewOKResult(searchURL(), []byte(body), 200)
}

// resultsPage renders a search page with the given heading and n blurbs.
func resultsPage(heading string, n int) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	if heading != "" {
		fmt.Fprintf(&b, `<h3 class="heading">%s</h3>`, heading)
	}
	b.WriteString(`<ol class="work index group">`)
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b,
			`<li class="work blurb group"><h4 class="heading"><a href="/works/%d">Work %d</a> by <a rel="author" href="/users/u%d">u%d</a></h4></li>`,
			i, i, i, i)
	}
	b.WriteString("</ol></body></html>")
	return b.String()
}

func newTestExtractor(t *testing.T) *extractor.PageExtractor {
	t.Helper()
	base, err := url.Parse(catalog.DefaultBaseURL)
	require.NoError(t, err)
	sink := &metadata.NoopSink{}
	return extractor.NewPageExtractor(sink, mdconvert.NewRule(sink, *base), *base)
}

func testFilter() search.Filter {
	return search.NewFilter([]string{"Fluff"}, nil, "")
}
