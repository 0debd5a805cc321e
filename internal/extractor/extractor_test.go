package extractor_test

import (
	"net/url"
	"testing"

	"github.com/rohmanhakim/fic-roulette/internal/catalog"
	"github.com/rohmanhakim/fic-roulette/internal/extractor"
	"github.com/rohmanhakim/fic-roulette/internal/mdconvert"
	"github.com/rohmanhakim/fic-roulette/internal/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultsPage = `<!DOCTYPE html>
<html><body>
<div id="main" class="works-search region">
  <h3 class="heading">1 - 20 of 1,234 Works found in the archive</h3>
  <ol class="work index group">
    <li id="work_111" class="work blurb group" role="article">
      <div class="header module">
        <h4 class="heading">
          <a href="/works/111">The First Work</a>
          by
          <a rel="author" href="/users/alice/pseuds/alice">alice</a>,
          <a rel="author" href="/users/bob/pseuds/bob">bob</a>
        </h4>
        <ul class="required-tags">
          <li><a class="help symbol question modal"><span class="rating-teen rating" title="Teen And Up Audiences"><span class="text">Teen And Up Audiences</span></span></a></li>
        </ul>
      </div>
      <blockquote class="userstuff summary"><p>A <em>short</em> tale.</p></blockquote>
      <dl class="stats"><dt class="words">Words:</dt><dd class="words">12,345</dd></dl>
    </li>
    <li id="series_9" class="work blurb group" role="article">
      <div class="header module">
        <h4 class="heading"><a href="/series/9">A Series</a></h4>
      </div>
    </li>
    <li id="work_222" class="work blurb group" role="article">
      <div class="header module">
        <h4 class="heading"><a href="/collections/fest/works/222">Anonymous Gift</a></h4>
      </div>
    </li>
  </ol>
</div>
</body></html>`

func newTestExtractor(t *testing.T) *extractor.PageExtractor {
	t.Helper()
	base, err := url.Parse(catalog.DefaultBaseURL)
	require.NoError(t, err)
	sink := &metadata.NoopSink{}
	return extractor.NewPageExtractor(sink, mdconvert.NewRule(sink, *base), *base)
}

func sourceURL() url.URL {
	u, _ := url.Parse(catalog.DefaultBaseURL + catalog.SearchPath)
	return *u
}

func TestExtract_ResultsPage(t *testing.T) {
	ext := newTestExtractor(t)

	data, err := ext.Extract(sourceURL(), []byte(resultsPage))
	require.Nil(t, err)

	assert.False(t, data.ZeroFound)
	assert.True(t, data.HasTotal)
	assert.Equal(t, 1234, data.TotalResults)
	assert.Equal(t, 1, data.Skipped)
	require.Len(t, data.Items, 2)

	first := data.Items[0]
	assert.Equal(t, "The First Work", first.Title)
	assert.Equal(t, "alice, bob", first.Author)
	assert.Equal(t, "https://archiveofourown.org/works/111", first.URL)
	assert.Equal(t, "Teen And Up Audiences", first.Rating)
	assert.Equal(t, "12345", first.WordCount)
	assert.Equal(t, "A *short* tale.", first.Summary)

	second := data.Items[1]
	assert.Equal(t, "Anonymous Gift", second.Title)
	assert.Equal(t, catalog.AnonymousAuthor, second.Author)
	assert.Equal(t, "https://archiveofourown.org/works/222", second.URL)
	assert.Equal(t, catalog.UnknownRating, second.Rating)
	assert.Equal(t, catalog.UnknownWordCount, second.WordCount)
	assert.Empty(t, second.Summary)
}

func TestExtract_ZeroFound(t *testing.T) {
	ext := newTestExtractor(t)
	page := `<html><body><h3 class="heading">0 Found</h3></body></html>`

	data, err := ext.Extract(sourceURL(), []byte(page))
	require.Nil(t, err)

	assert.True(t, data.ZeroFound)
	assert.Equal(t, 0, data.TotalResults)
	assert.Empty(t, data.Items)
}

func TestExtract_TenFoundIsNotZero(t *testing.T) {
	ext := newTestExtractor(t)
	page := `<html><body>
		<h3 class="heading">10 Found</h3>
		<ol><li class="work blurb"><h4 class="heading"><a href="/works/5">Five</a></h4></li></ol>
	</body></html>`

	data, err := ext.Extract(sourceURL(), []byte(page))
	require.Nil(t, err)

	assert.False(t, data.ZeroFound)
	assert.False(t, data.HasTotal)
	require.Len(t, data.Items, 1)
}

func TestExtract_BlurbsWithoutCount(t *testing.T) {
	ext := newTestExtractor(t)
	page := `<html><body>
		<ol><li class="work blurb"><h4 class="heading"><a href="/works/77">Lone</a></h4></li></ol>
	</body></html>`

	data, err := ext.Extract(sourceURL(), []byte(page))
	require.Nil(t, err)

	assert.False(t, data.HasTotal)
	require.Len(t, data.Items, 1)
	assert.Equal(t, "Lone", data.Items[0].Title)
}

func TestExtract_WorkLinks(t *testing.T) {
	tests := []struct {
		name    string
		href    string
		wantURL string
	}{
		{"relative", "/works/42", "https://archiveofourown.org/works/42"},
		{"absolute same host", "https://ArchiveOfOurOwn.org:443/works/42/", "https://archiveofourown.org/works/42"},
		{"query and fragment dropped", "/works/42?view_adult=true#main", "https://archiveofourown.org/works/42"},
		{"off-site work link", "https://mirror.example.com/works/42", ""},
		{"chapter link", "/works/42/chapters/7", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := `<html><body>
				<h3 class="heading">1 - 1 of 1 Works</h3>
				<ol><li class="work blurb"><h4 class="heading"><a href="` + tt.href + `">W</a></h4></li></ol>
			</body></html>`

			data, err := newTestExtractor(t).Extract(sourceURL(), []byte(page))
			require.Nil(t, err)

			if tt.wantURL == "" {
				assert.Empty(t, data.Items)
				assert.Equal(t, 1, data.Skipped)
				return
			}
			require.Len(t, data.Items, 1)
			assert.Equal(t, tt.wantURL, data.Items[0].URL)
		})
	}
}

func TestExtract_NotAResultsPage(t *testing.T) {
	ext := newTestExtractor(t)
	page := `<html><body><h2>Retry later</h2></body></html>`

	_, err := ext.Extract(sourceURL(), []byte(page))
	require.NotNil(t, err)

	var extractionErr *extractor.ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.Equal(t, extractor.ExtractionErrorCause(extractor.ErrCauseNotAResultsPage), extractionErr.Cause)
}

func TestExtract_CountWithoutBlurbs(t *testing.T) {
	ext := newTestExtractor(t)
	page := `<html><body><h3 class="heading">41 - 60 of 45 Works</h3></body></html>`

	data, err := ext.Extract(sourceURL(), []byte(page))
	require.Nil(t, err)

	assert.True(t, data.HasTotal)
	assert.Equal(t, 45, data.TotalResults)
	assert.Empty(t, data.Items)
}
