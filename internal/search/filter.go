package search

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// Filter is the immutable set of search criteria. Construct it with
// NewFilter; the zero value is a valid empty filter.
type Filter struct {
	tags       []string
	categories []Category
	fandom     string
}

// Normalized is the canonical form of a Filter: folded, trimmed, sorted and
// deduplicated. Two filters that mean the same search have equal Normalized
// values.
type Normalized struct {
	Categories []string `json:"categories"`
	Fandom     string   `json:"fandom"`
	Tags       []string `json:"tags"`
}

// NewFilter trims and deduplicates its inputs. Tags are compared
// case-insensitively; the first spelling seen is kept for display and query
// building.
func NewFilter(tags []string, categories []Category, fandom string) Filter {
	seenTags := make(map[string]struct{}, len(tags))
	cleanTags := make([]string, 0, len(tags))
	for _, t := range tags {
		display := collapseSpace(t)
		if display == "" {
			continue
		}
		folded := fold(display)
		if _, dup := seenTags[folded]; dup {
			continue
		}
		seenTags[folded] = struct{}{}
		cleanTags = append(cleanTags, display)
	}
	sort.Slice(cleanTags, func(i, j int) bool {
		return fold(cleanTags[i]) < fold(cleanTags[j])
	})

	seenCats := make(map[Category]struct{}, len(categories))
	cleanCats := make([]Category, 0, len(categories))
	for _, c := range categories {
		if c.ID() == "" {
			continue
		}
		if _, dup := seenCats[c]; dup {
			continue
		}
		seenCats[c] = struct{}{}
		cleanCats = append(cleanCats, c)
	}
	sort.Slice(cleanCats, func(i, j int) bool { return cleanCats[i] < cleanCats[j] })

	return Filter{
		tags:       cleanTags,
		categories: cleanCats,
		fandom:     collapseSpace(strings.Trim(strings.TrimSpace(fandom), `"`)),
	}
}

func (f Filter) Tags() []string {
	out := make([]string, len(f.tags))
	copy(out, f.tags)
	return out
}

func (f Filter) Categories() []Category {
	out := make([]Category, len(f.categories))
	copy(out, f.categories)
	return out
}

func (f Filter) Fandom() string {
	return f.fandom
}

// IsEmpty reports whether the filter names no tag, category or fandom.
func (f Filter) IsEmpty() bool {
	return len(f.tags) == 0 && len(f.categories) == 0 && f.fandom == ""
}

func (f Filter) Normalized() Normalized {
	n := Normalized{
		Categories: make([]string, 0, len(f.categories)),
		Fandom:     fold(f.fandom),
		Tags:       make([]string, 0, len(f.tags)),
	}
	for _, t := range f.tags {
		n.Tags = append(n.Tags, fold(t))
	}
	for _, c := range f.categories {
		n.Categories = append(n.Categories, string(c))
	}
	sort.Strings(n.Tags)
	sort.Strings(n.Categories)
	return n
}

// Query builds the catalog's work search form parameters for one page.
func (f Filter) Query(page int, language string) url.Values {
	if page < 1 {
		page = 1
	}
	q := url.Values{}
	q.Set("commit", "Search")
	q.Set("work_search[query]", "")
	q.Set("work_search[other_tag_names]", strings.Join(f.tags, ","))
	if f.fandom != "" {
		q.Set("work_search[fandom_names]", `"`+f.fandom+`"`)
	} else {
		q.Set("work_search[fandom_names]", "")
	}
	for _, c := range f.categories {
		q.Add("work_search[category_ids][]", c.ID())
	}
	q.Set("work_search[language_id]", language)
	q.Set("page", strconv.Itoa(page))
	return q
}

// SearchURL returns the absolute search URL for one page under base.
func (f Filter) SearchURL(base url.URL, searchPath string, page int, language string) url.URL {
	u := base
	u.Path = strings.TrimRight(base.Path, "/") + searchPath
	u.RawQuery = f.Query(page, language).Encode()
	u.Fragment = ""
	return u
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// fold applies Unicode case folding. A Caser is stateful, so each call
// builds its own.
func fold(s string) string {
	return cases.Fold().String(s)
}
