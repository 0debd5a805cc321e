package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/rohmanhakim/fic-roulette/internal/catalog"
	"github.com/rohmanhakim/fic-roulette/internal/metadata"
)

// MemoryStore keeps entries in a map guarded by an RWMutex. Entries live only
// as long as the process.
type MemoryStore struct {
	metadataSink metadata.MetadataSink
	now          func() time.Time

	mu      sync.RWMutex
	entries map[Key]Entry
}

func NewMemoryStore(metadataSink metadata.MetadataSink, opts ...Option) *MemoryStore {
	o := buildOptions(opts)
	return &MemoryStore{
		metadataSink: metadataSink,
		now:          o.now,
		entries:      make(map[Key]Entry),
	}
}

func (m *MemoryStore) Get(key Key, ttl time.Duration) (Lookup, bool) {
	m.mu.RLock()
	entry, exists := m.entries[key]
	m.mu.RUnlock()

	if !exists {
		m.metadataSink.RecordCache(metadata.CacheOpGet, key.String(), false, false)
		return Lookup{}, false
	}
	lookup := newLookup(entry, ttl, m.now())
	m.metadataSink.RecordCache(metadata.CacheOpGet, key.String(), true, lookup.Stale)
	return lookup, true
}

func (m *MemoryStore) Set(key Key, results []catalog.Item) {
	entry := Entry{
		Results:   cloneItems(results),
		WrittenAt: m.now().UTC(),
	}

	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()

	m.metadataSink.RecordCache(metadata.CacheOpSet, key.String(), false, false)
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	m.entries = make(map[Key]Entry)
	m.mu.Unlock()

	m.metadataSink.RecordCache(metadata.CacheOpClear, "", false, false)
	return nil
}

func (m *MemoryStore) List() ([]Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	listings := make([]Listing, 0, len(m.entries))
	for key, entry := range m.entries {
		listings = append(listings, Listing{Key: key, Count: len(entry.Results), WrittenAt: entry.WrittenAt})
	}
	sortListings(listings)
	return listings, nil
}

// Size returns the number of entries.
func (m *MemoryStore) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func sortListings(listings []Listing) {
	sort.Slice(listings, func(i, j int) bool {
		return listings[i].Key < listings[j].Key
	})
}
