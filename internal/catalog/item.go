// Package catalog holds the values shared by everything that talks to the
// remote work catalog.
package catalog

const (
	// DefaultBaseURL is the catalog the service samples from.
	DefaultBaseURL = "https://archiveofourown.org"
	// SearchPath is the work search endpoint, relative to the base URL.
	SearchPath = "/works/search"
	// AutocompleteFandomPath is the fandom name autocomplete endpoint.
	AutocompleteFandomPath = "/autocomplete/fandom"

	// PageSize is the fixed number of works per search results page.
	PageSize = 20

	AnonymousAuthor  = "Anonymous"
	UnknownRating    = "?"
	UnknownWordCount = "Unknown"
)

// Item is one work as shown to the user. The sampling core stores and picks
// items but never looks inside them.
type Item struct {
	Title     string `json:"title"`
	Author    string `json:"author"`
	URL       string `json:"url"`
	Rating    string `json:"rating"`
	WordCount string `json:"word_count"`
	// Summary is the work's blurb summary as Markdown; empty when absent.
	Summary string `json:"summary,omitempty"`
}

// WithDefaults fills the placeholder values the catalog leaves out.
func (i Item) WithDefaults() Item {
	if i.Author == "" {
		i.Author = AnonymousAuthor
	}
	if i.Rating == "" {
		i.Rating = UnknownRating
	}
	if i.WordCount == "" {
		i.WordCount = UnknownWordCount
	}
	return i
}

// PageCount returns how many result pages hold totalResults works.
func PageCount(totalResults int) int {
	if totalResults <= 0 {
		return 0
	}
	return (totalResults + PageSize - 1) / PageSize
}
