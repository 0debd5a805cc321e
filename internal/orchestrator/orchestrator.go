// Package orchestrator picks a random work for a filter, falling back to
// previously cached results when the live catalog fails.
package orchestrator

import (
	"context"
	"time"

	"github.com/rohmanhakim/fic-roulette/internal/cache"
	"github.com/rohmanhakim/fic-roulette/internal/catalog"
	"github.com/rohmanhakim/fic-roulette/internal/classify"
	"github.com/rohmanhakim/fic-roulette/internal/metadata"
	"github.com/rohmanhakim/fic-roulette/internal/sampler"
	"github.com/rohmanhakim/fic-roulette/internal/search"
	"github.com/rohmanhakim/fic-roulette/pkg/hashutil"
	"github.com/rohmanhakim/fic-roulette/pkg/randutil"
)

/*
Fallback Rules

	page count:
	  Empty         -> no works found (live, cache untouched)
	  Failure(kind) -> fall back to cache with Reason(kind)
	  Success(n)    -> item fetch
	item fetch:
	  Success(item) -> cache [item], return it live
	  Failure(kind) -> fall back to cache with Reason(kind)
	cache:
	  entry with results -> random cached item, stale flag from its age
	  no entry           -> catalog unavailable

The cache is read only after a live failure and is never merged with live
results. Each call makes at most two catalog fetches and never retries.
*/

// PageCounter resolves how many result pages a filter has.
type PageCounter interface {
	Resolve(ctx context.Context, filter search.Filter) sampler.Outcome[int]
}

// ItemPicker draws one work from a random result page.
type ItemPicker interface {
	FetchOne(ctx context.Context, filter search.Filter, totalPages int) sampler.Outcome[catalog.Item]
}

type Param struct {
	TTL      time.Duration
	HashAlgo hashutil.HashAlgo
}

type Orchestrator struct {
	metadataSink metadata.MetadataSink
	pageCounter  PageCounter
	itemPicker   ItemPicker
	store        cache.Store
	rng          *randutil.Source
	param        Param
}

func New(
	metadataSink metadata.MetadataSink,
	pageCounter PageCounter,
	itemPicker ItemPicker,
	store cache.Store,
	rng *randutil.Source,
	param Param,
) *Orchestrator {
	return &Orchestrator{
		metadataSink: metadataSink,
		pageCounter:  pageCounter,
		itemPicker:   itemPicker,
		store:        store,
		rng:          rng,
		param:        param,
	}
}

func (o *Orchestrator) GetRandomItem(ctx context.Context, filter search.Filter) Result {
	startTime := time.Now()
	key := cache.DeriveKey(filter, o.param.HashAlgo)

	result := o.run(ctx, filter, key)

	o.metadataSink.RecordOrchestration(metadata.OrchestrationEvent{
		CacheKey:       key.String(),
		Source:         string(result.Source),
		Stale:          result.Stale,
		FallbackReason: result.FallbackReason,
		Error:          result.Error,
		Duration:       time.Since(startTime),
	})
	return result
}

func (o *Orchestrator) run(ctx context.Context, filter search.Filter, key cache.Key) Result {
	pages := o.pageCounter.Resolve(ctx, filter)
	switch pages.Kind() {
	case sampler.OutcomeEmpty:
		return Result{Source: SourceLive, Error: ErrMsgNoWorks}
	case sampler.OutcomeFailure:
		return o.fallback(key, classify.Reason(pages.FailureKind()))
	case sampler.OutcomeSuccess:
	}

	totalPages, _ := pages.Value()
	picked := o.itemPicker.FetchOne(ctx, filter, totalPages)
	switch picked.Kind() {
	case sampler.OutcomeSuccess:
		item, _ := picked.Value()
		o.store.Set(key, []catalog.Item{item})
		return Result{Item: &item, Source: SourceLive}
	case sampler.OutcomeFailure:
		return o.fallback(key, classify.Reason(picked.FailureKind()))
	case sampler.OutcomeEmpty:
	}
	// FetchOne never reports Empty; treat it like an unexplained failure.
	return o.fallback(key, classify.Reason(classify.Unknown))
}

func (o *Orchestrator) fallback(key cache.Key, reason string) Result {
	lookup, ok := o.store.Get(key, o.param.TTL)
	if !ok || len(lookup.Results) == 0 {
		return Result{Source: SourceNone, Error: ErrMsgUnavailable, FallbackReason: reason}
	}

	item := lookup.Results[o.rng.Intn(len(lookup.Results))]
	return Result{
		Item:           &item,
		Source:         SourceCache,
		Stale:          lookup.Stale,
		FallbackReason: reason,
	}
}
