package sampler

import (
	"context"
	"time"

	"github.com/rohmanhakim/fic-roulette/internal/catalog"
	"github.com/rohmanhakim/fic-roulette/internal/classify"
	"github.com/rohmanhakim/fic-roulette/internal/fetcher"
	"github.com/rohmanhakim/fic-roulette/internal/search"
	"github.com/rohmanhakim/fic-roulette/pkg/randutil"
)

// DefaultPageCap bounds how deep into the results a random page may be.
// Deep pages are slow to serve, so works past the cap are never drawn.
const DefaultPageCap = 200

// RandomItemFetcher draws a random page, then a random work on that page.
// It is not uniform over the whole result set once the cap kicks in.
type RandomItemFetcher struct {
	fetcher   fetcher.PageFetcher
	extractor PageExtractor
	rng       *randutil.Source
	pageCap   int
	timeout   time.Duration
}

func NewRandomItemFetcher(
	pageFetcher fetcher.PageFetcher,
	pageExtractor PageExtractor,
	rng *randutil.Source,
	pageCap int,
	timeout time.Duration,
) *RandomItemFetcher {
	if pageCap < 1 {
		pageCap = DefaultPageCap
	}
	return &RandomItemFetcher{
		fetcher:   pageFetcher,
		extractor: pageExtractor,
		rng:       rng,
		pageCap:   pageCap,
		timeout:   timeout,
	}
}

// PickPage returns a page in [1, min(totalPages, pageCap)]. totalPages below
// 1 is treated as 1.
func (r *RandomItemFetcher) PickPage(totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	return r.rng.IntBetween(1, min(totalPages, r.pageCap))
}

func (r *RandomItemFetcher) FetchOne(ctx context.Context, filter search.Filter, totalPages int) Outcome[catalog.Item] {
	page := r.PickPage(totalPages)

	result := r.fetcher.FetchPage(ctx, filter, page, r.timeout)
	if kind := classify.FromPage(result); kind != classify.None {
		return Failure[catalog.Item](kind)
	}

	data, err := r.extractor.Extract(result.URL(), result.Body())
	if err != nil {
		return Failure[catalog.Item](classify.FromExtraction(err))
	}
	if len(data.Items) == 0 {
		return Failure[catalog.Item](classify.ParseError)
	}

	return Success(data.Items[r.rng.Intn(len(data.Items))])
}
