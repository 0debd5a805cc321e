package sampler

import (
	"context"
	"net/url"
	"time"

	"github.com/rohmanhakim/fic-roulette/internal/catalog"
	"github.com/rohmanhakim/fic-roulette/internal/classify"
	"github.com/rohmanhakim/fic-roulette/internal/extractor"
	"github.com/rohmanhakim/fic-roulette/internal/fetcher"
	"github.com/rohmanhakim/fic-roulette/internal/search"
	"github.com/rohmanhakim/fic-roulette/pkg/failure"
)

// PageExtractor reads a fetched search page.
type PageExtractor interface {
	Extract(sourceUrl url.URL, body []byte) (extractor.PageData, failure.ClassifiedError)
}

// PageCountResolver finds how many result pages a filter has by fetching
// page 1 exactly once.
type PageCountResolver struct {
	fetcher   fetcher.PageFetcher
	extractor PageExtractor
	timeout   time.Duration
}

func NewPageCountResolver(
	pageFetcher fetcher.PageFetcher,
	pageExtractor PageExtractor,
	timeout time.Duration,
) *PageCountResolver {
	return &PageCountResolver{
		fetcher:   pageFetcher,
		extractor: pageExtractor,
		timeout:   timeout,
	}
}

// Resolve returns Success(pages) with pages >= 1, Empty when the catalog
// reports no matches, or Failure(kind).
//
// Without a count, a page that still lists works is taken as a single page.
func (r *PageCountResolver) Resolve(ctx context.Context, filter search.Filter) Outcome[int] {
	result := r.fetcher.FetchPage(ctx, filter, 1, r.timeout)
	if kind := classify.FromPage(result); kind != classify.None {
		return Failure[int](kind)
	}

	data, err := r.extractor.Extract(result.URL(), result.Body())
	if err != nil {
		return Failure[int](classify.FromExtraction(err))
	}

	switch {
	case data.ZeroFound, data.HasTotal && data.TotalResults == 0:
		return Empty[int]()
	case data.HasTotal:
		return Success(catalog.PageCount(data.TotalResults))
	case len(data.Items) > 0:
		return Success(1)
	}
	return Failure[int](classify.ParseError)
}
