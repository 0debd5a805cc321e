package search

import (
	"fmt"
	"strings"
)

// Category is a relationship category from the catalog's fixed vocabulary.
type Category string

const (
	CategoryFF    Category = "F/F"
	CategoryFM    Category = "F/M"
	CategoryMM    Category = "M/M"
	CategoryMulti Category = "Multi"
	CategoryOther Category = "Other"
	CategoryGen   Category = "Gen"
)

var categoryIDs = map[Category]string{
	CategoryFF:    "116",
	CategoryFM:    "22",
	CategoryMM:    "23",
	CategoryMulti: "2246",
	CategoryOther: "24",
	CategoryGen:   "21",
}

// Categories lists the whole vocabulary in a stable order.
func Categories() []Category {
	return []Category{CategoryFF, CategoryFM, CategoryMM, CategoryMulti, CategoryOther, CategoryGen}
}

// ID is the numeric identifier the catalog's search form uses.
func (c Category) ID() string {
	return categoryIDs[c]
}

// ParseCategory matches name against the vocabulary, ignoring case and
// surrounding whitespace.
func ParseCategory(name string) (Category, error) {
	trimmed := strings.TrimSpace(name)
	for _, c := range Categories() {
		if strings.EqualFold(string(c), trimmed) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, name)
}

// ParseCategories parses every name, failing on the first unknown one.
func ParseCategories(names []string) ([]Category, error) {
	out := make([]Category, 0, len(names))
	for _, n := range names {
		c, err := ParseCategory(n)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
