package catalog_test

import (
	"testing"

	"github.com/rohmanhakim/fic-roulette/internal/catalog"
	"github.com/stretchr/testify/assert"
)

func TestPageCount(t *testing.T) {
	tests := []struct {
		totalResults int
		want         int
	}{
		{totalResults: 0, want: 0},
		{totalResults: -3, want: 0},
		{totalResults: 1, want: 1},
		{totalResults: 20, want: 1},
		{totalResults: 21, want: 2},
		{totalResults: 40, want: 2},
		{totalResults: 41, want: 3},
		{totalResults: 1234, want: 62},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, catalog.PageCount(tt.totalResults), "totalResults=%d", tt.totalResults)
	}
}

func TestItem_WithDefaults(t *testing.T) {
	item := catalog.Item{Title: "A Study", URL: "https://archiveofourown.org/works/1"}.WithDefaults()

	assert.Equal(t, catalog.AnonymousAuthor, item.Author)
	assert.Equal(t, catalog.UnknownRating, item.Rating)
	assert.Equal(t, catalog.UnknownWordCount, item.WordCount)

	kept := catalog.Item{Author: "someone", Rating: "Teen And Up Audiences", WordCount: "1200"}.WithDefaults()
	assert.Equal(t, "someone", kept.Author)
	assert.Equal(t, "Teen And Up Audiences", kept.Rating)
	assert.Equal(t, "1200", kept.WordCount)
}
