package orchestrator_test

import (
	"context"
	"sync"
	"time"

	"github.com/rohmanhakim/fic-roulette/internal/cache"
	"github.com/rohmanhakim/fic-roulette/internal/catalog"
	"github.com/rohmanhakim/fic-roulette/internal/metadata"
	"github.com/rohmanhakim/fic-roulette/internal/sampler"
	"github.com/rohmanhakim/fic-roulette/internal/search"
	"github.com/stretchr/testify/mock"
)

// pageCounterMock is a testify mock for orchestrator.PageCounter
type pageCounterMock struct {
	mock.Mock
}

func (p *pageCounterMock) Resolve(ctx context.Context, filter search.Filter) sampler.Outcome[int] {
	args := p.Called(ctx, filter)
	return args.Get(0).(sampler.Outcome[int])
}

// itemPickerMock is a testify mock for orchestrator.ItemPicker
type itemPickerMock struct {
	mock.Mock
}

func (i *itemPickerMock) FetchOne(ctx context.Context, filter search.Filter, totalPages int) sampler.Outcome[catalog.Item] {
	args := i.Called(ctx, filter, totalPages)
	return args.Get(0).(sampler.Outcome[catalog.Item])
}

// storeMock is a testify mock for cache.Store
type storeMock struct {
	mock.Mock
}

func (s *storeMock) Get(key cache.Key, ttl time.Duration) (cache.Lookup, bool) {
	args := s.Called(key, ttl)
	return args.Get(0).(cache.Lookup), args.Bool(1)
}

func (s *storeMock) Set(key cache.Key, results []catalog.Item) {
	s.Called(key, results)
}

func (s *storeMock) Clear() error {
	return s.Called().Error(0)
}

func (s *storeMock) List() ([]cache.Listing, error) {
	args := s.Called()
	return args.Get(0).([]cache.Listing), args.Error(1)
}

// orchestrationSink captures orchestration events.
type orchestrationSink struct {
	metadata.NoopSink
	mu     sync.Mutex
	events []metadata.OrchestrationEvent
}

func (o *orchestrationSink) RecordOrchestration(event metadata.OrchestrationEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func liveItem() catalog.Item {
	return catalog.Item{
		Title:     "Live Work",
		Author:    "alice",
		URL:       "https://archiveofourown.org/works/42",
		Rating:    "Teen And Up Audiences",
		WordCount: "4200",
	}
}

func cachedItems() []catalog.Item {
	return []catalog.Item{
		{Title: "Cached A", Author: "bob", URL: "https://archiveofourown.org/works/1", Rating: "General Audiences", WordCount: "100"},
		{Title: "Cached B", Author: "carol", URL: "https://archiveofourown.org/works/2", Rating: "Mature", WordCount: "200"},
	}
}
