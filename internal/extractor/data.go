package extractor

import "github.com/rohmanhakim/fic-roulette/internal/catalog"

// PageData is everything a search results page tells us.
//
// ZeroFound is set when the heading explicitly reports no matches.
// HasTotal is set when the heading exposes the total match count, which is
// then in TotalResults. Items holds every valid work blurb in page order.
type PageData struct {
	ZeroFound    bool
	TotalResults int
	HasTotal     bool
	Items        []catalog.Item
	// Skipped counts blurbs that were present but unusable (series or user
	// links, missing titles).
	Skipped int
}

// HasMarkers reports whether the page looked like a search results page at
// all.
func (p PageData) HasMarkers() bool {
	return p.ZeroFound || p.HasTotal || len(p.Items) > 0
}
