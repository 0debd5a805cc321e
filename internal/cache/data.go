package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rohmanhakim/fic-roulette/internal/catalog"
	"github.com/rohmanhakim/fic-roulette/internal/search"
	"github.com/rohmanhakim/fic-roulette/pkg/hashutil"
)

// KeyLength is the number of hex characters kept from the filter hash.
const KeyLength = 16

// Key identifies the cached results of one normalized search filter.
type Key string

// DeriveKey hashes the filter's normalized form. Filters that differ only in
// ordering, case or whitespace share a key. It never fails: empty filters are
// legal and unsupported algorithms fall back to sha256.
func DeriveKey(filter search.Filter, algo hashutil.HashAlgo) Key {
	data, err := json.Marshal(filter.Normalized())
	if err != nil {
		data = []byte(fmt.Sprintf("%v", filter.Normalized()))
	}
	return Key(hashutil.ShortHash(data, algo, KeyLength))
}

func (k Key) String() string {
	return string(k)
}

// Valid reports whether k looks like a derived key. Only valid keys are ever
// mapped to storage paths.
func (k Key) Valid() bool {
	if len(k) != KeyLength {
		return false
	}
	for _, r := range k {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return false
		}
	}
	return true
}

// Entry is what is persisted under a key. It is written whole and never
// partially updated.
type Entry struct {
	Results   []catalog.Item `json:"results"`
	WrittenAt time.Time      `json:"written_at"`
}

// Lookup is an entry as seen at read time. Staleness is derived, not stored.
type Lookup struct {
	Results   []catalog.Item
	WrittenAt time.Time
	Age       time.Duration
	Stale     bool
}

// Listing summarizes one stored entry for maintenance output.
type Listing struct {
	Key       Key
	Count     int
	WrittenAt time.Time
}

func newLookup(entry Entry, ttl time.Duration, now time.Time) Lookup {
	age := now.Sub(entry.WrittenAt)
	if age < 0 {
		age = 0
	}
	return Lookup{
		Results:   cloneItems(entry.Results),
		WrittenAt: entry.WrittenAt,
		Age:       age,
		Stale:     age > ttl,
	}
}

func cloneItems(items []catalog.Item) []catalog.Item {
	if items == nil {
		return nil
	}
	out := make([]catalog.Item, len(items))
	copy(out, items)
	return out
}

type options struct {
	now func() time.Time
}

// Option configures a Store.
type Option func(*options)

// WithClock replaces time.Now, for tests that need to age entries.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
