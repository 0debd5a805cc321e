package cache

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rohmanhakim/fic-roulette/internal/catalog"
	"github.com/rohmanhakim/fic-roulette/internal/metadata"
	"github.com/rohmanhakim/fic-roulette/pkg/fileutil"
)

const entryExt = ".json"

// FileStore keeps one JSON document per key under a directory:
//
//	<dir>/<key>.json
//
// Writes go to a temporary file that is renamed over the target, so a
// reader never observes a half-written entry.
type FileStore struct {
	metadataSink metadata.MetadataSink
	dir          string
	now          func() time.Time
}

func NewFileStore(metadataSink metadata.MetadataSink, dir string, opts ...Option) *FileStore {
	o := buildOptions(opts)
	return &FileStore{
		metadataSink: metadataSink,
		dir:          dir,
		now:          o.now,
	}
}

func (f *FileStore) Dir() string {
	return f.dir
}

func (f *FileStore) path(key Key) string {
	return filepath.Join(f.dir, key.String()+entryExt)
}

func (f *FileStore) Get(key Key, ttl time.Duration) (Lookup, bool) {
	entry, err := f.read(key)
	if err != nil {
		recordCacheError(f.metadataSink, "FileStore.Get", key, err)
		f.metadataSink.RecordCache(metadata.CacheOpGet, key.String(), false, false)
		return Lookup{}, false
	}
	if entry == nil {
		f.metadataSink.RecordCache(metadata.CacheOpGet, key.String(), false, false)
		return Lookup{}, false
	}

	lookup := newLookup(*entry, ttl, f.now())
	f.metadataSink.RecordCache(metadata.CacheOpGet, key.String(), true, lookup.Stale)
	return lookup, true
}

// read returns (nil, nil) when there is simply no entry.
func (f *FileStore) read(key Key) (*Entry, *CacheError) {
	if !key.Valid() {
		return nil, &CacheError{Message: "refusing to map key to a path", Cause: ErrCauseInvalidKey}
	}
	path := f.path(key)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &CacheError{Message: err.Error(), Cause: ErrCauseReadFailure, Path: path}
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, &CacheError{Message: err.Error(), Cause: ErrCauseCorruptEntry, Path: path}
	}
	return &entry, nil
}

func (f *FileStore) Set(key Key, results []catalog.Item) {
	if err := f.write(key, results); err != nil {
		recordCacheError(f.metadataSink, "FileStore.Set", key, err)
		return
	}
	f.metadataSink.RecordCache(metadata.CacheOpSet, key.String(), false, false)
}

func (f *FileStore) write(key Key, results []catalog.Item) *CacheError {
	if !key.Valid() {
		return &CacheError{Message: "refusing to map key to a path", Cause: ErrCauseInvalidKey}
	}
	data, err := json.MarshalIndent(Entry{
		Results:   cloneItems(results),
		WrittenAt: f.now().UTC(),
	}, "", "  ")
	if err != nil {
		return &CacheError{Message: err.Error(), Cause: ErrCauseEncodeFailure}
	}

	path := f.path(key)
	if writeErr := fileutil.WriteFileAtomic(path, data, 0o644); writeErr != nil {
		return &CacheError{Message: writeErr.Error(), Cause: ErrCauseWriteFailure, Path: path}
	}
	return nil
}

func (f *FileStore) Clear() error {
	if _, err := fileutil.RemoveGlob(f.dir, "*"+entryExt); err != nil {
		cacheErr := &CacheError{Message: err.Error(), Cause: ErrCauseWriteFailure, Path: f.dir}
		recordCacheError(f.metadataSink, "FileStore.Clear", "", cacheErr)
		return cacheErr
	}
	f.metadataSink.RecordCache(metadata.CacheOpClear, "", false, false)
	return nil
}

func (f *FileStore) List() ([]Listing, error) {
	matches, err := filepath.Glob(filepath.Join(f.dir, "*"+entryExt))
	if err != nil {
		return nil, err
	}

	listings := make([]Listing, 0, len(matches))
	for _, m := range matches {
		key := Key(strings.TrimSuffix(filepath.Base(m), entryExt))
		entry, readErr := f.read(key)
		if readErr != nil || entry == nil {
			continue
		}
		listings = append(listings, Listing{Key: key, Count: len(entry.Results), WrittenAt: entry.WrittenAt})
	}
	sortListings(listings)
	return listings, nil
}
