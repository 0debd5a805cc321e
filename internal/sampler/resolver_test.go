package sampler_test

import (
	"testing"

	"github.com/rohmanhakim/fic-roulette/internal/classify"
	"github.com/rohmanhakim/fic-roulette/internal/fetcher"
	"github.com/rohmanhakim/fic-roulette/internal/sampler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestResolve_PageCounts(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantKind  sampler.OutcomeKind
		wantPages int
	}{
		{"one work", resultsPage("1 - 1 of 1 Works in Fluff", 1), sampler.OutcomeSuccess, 1},
		{"exactly one page", resultsPage("1 - 20 of 20 Works in Fluff", 20), sampler.OutcomeSuccess, 1},
		{"one past a page", resultsPage("1 - 20 of 21 Works in Fluff", 20), sampler.OutcomeSuccess, 2},
		{"thousands separator", resultsPage("1 - 20 of 1,234 Works in Fluff", 20), sampler.OutcomeSuccess, 62},
		{"zero found", resultsPage("0 Found", 0), sampler.OutcomeEmpty, 0},
		{"zero works", resultsPage("0 of 0 Works", 0), sampler.OutcomeEmpty, 0},
		{"blurbs without count", resultsPage("Search Results", 3), sampler.OutcomeSuccess, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := new(fetcherMock)
			f.On("FetchPage", mock.Anything, mock.Anything, 1, testTimeout).Return(okPage(tt.body)).Once()

			resolver := sampler.NewPageCountResolver(f, newTestExtractor(t), testTimeout)
			outcome := resolver.Resolve(t.Context(), testFilter())

			assert.Equal(t, tt.wantKind, outcome.Kind())
			if tt.wantKind == sampler.OutcomeSuccess {
				pages, ok := outcome.Value()
				assert.True(t, ok)
				assert.Equal(t, tt.wantPages, pages)
			}
			f.AssertExpectations(t)
		})
	}
}

func TestResolve_FetchFailures(t *testing.T) {
	u := searchURL()
	tests := []struct {
		name   string
		result fetcher.PageResult
		want   classify.Kind
	}{
		{"timeout", fetcher.NewTimedOutResult(u, "deadline exceeded"), classify.Timeout},
		{"transport", fetcher.NewTransportResult(u, "connection refused"), classify.NetworkError},
		{"http", fetcher.NewHTTPStatusResult(u, 503, "server error"), classify.HTTPError},
		{"empty", fetcher.NewEmptyResult(u, 200), classify.EmptyResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := new(fetcherMock)
			f.On("FetchPage", mock.Anything, mock.Anything, 1, testTimeout).Return(tt.result).Once()

			resolver := sampler.NewPageCountResolver(f, newTestExtractor(t), testTimeout)
			outcome := resolver.Resolve(t.Context(), testFilter())

			assert.Equal(t, sampler.OutcomeFailure, outcome.Kind())
			assert.Equal(t, tt.want, outcome.FailureKind())
		})
	}
}

func TestResolve_UnrecognizedPageIsParseError(t *testing.T) {
	f := new(fetcherMock)
	f.On("FetchPage", mock.Anything, mock.Anything, 1, testTimeout).
		Return(okPage("<html><body><p>Retry later</p></body></html>")).Once()

	resolver := sampler.NewPageCountResolver(f, newTestExtractor(t), testTimeout)
	outcome := resolver.Resolve(t.Context(), testFilter())

	assert.Equal(t, sampler.OutcomeFailure, outcome.Kind())
	assert.Equal(t, classify.ParseError, outcome.FailureKind())
}
