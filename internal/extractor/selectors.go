package extractor

// CSS selectors for the catalog's search results markup.
const (
	// selectorResultsHeading holds "1 - 20 of 1,234 Works found in ..." or
	// "0 Found".
	selectorResultsHeading = "h3.heading"
	selectorBlurb          = "li.work.blurb"
	selectorBlurbHeading   = "h4.heading"
	selectorTitleLink      = "a"
	selectorAuthor         = `a[rel="author"]`
	selectorRating         = "ul.required-tags span.rating"
	selectorWords          = "dl.stats dd.words"
	selectorSummary        = "blockquote.summary"
)

const zeroFoundMarker = "0 Found"
