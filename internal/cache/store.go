package cache

import (
	"time"

	"github.com/rohmanhakim/fic-roulette/internal/catalog"
)

/*
Responsibilities
- Persist the results of successful live lookups per filter key
- Report the age and staleness of what is stored
- Fail open: a missing, unreadable or corrupt store behaves as empty

Set never fails the caller. Write failures are recorded to the metadata sink
and dropped; caching is best-effort.

Every backend writes an entry atomically: a reader sees either the previous
entry or the new one. Concurrent writers to one key: last writer wins.
*/
type Store interface {
	Get(key Key, ttl time.Duration) (Lookup, bool)
	Set(key Key, results []catalog.Item)
	// Clear removes every entry. Maintenance only.
	Clear() error
	// List summarizes every readable entry. Maintenance only.
	List() ([]Listing, error)
}
