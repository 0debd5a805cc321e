package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rohmanhakim/fic-roulette/internal/catalog"
	"github.com/rohmanhakim/fic-roulette/internal/metadata"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS cache_entries (
	key        TEXT PRIMARY KEY,
	results    TEXT NOT NULL,
	written_at INTEGER NOT NULL
)`

// SQLiteStore keeps entries in a single SQLite table, one row per key.
// Each Set is a single-row upsert, so readers see whole entries only.
type SQLiteStore struct {
	metadataSink metadata.MetadataSink
	db           *sql.DB
	now          func() time.Time
}

// OpenSQLiteStore opens (creating if needed) the database at path. A file
// that is not a readable SQLite database is moved aside to
// <path>.corrupt-<unix seconds> and replaced by an empty one; the store
// behaves as empty rather than refusing to start.
func OpenSQLiteStore(metadataSink metadata.MetadataSink, path string, opts ...Option) (*SQLiteStore, error) {
	o := buildOptions(opts)

	db, err := openSQLite(path)
	if err != nil && isCorruption(err) {
		aside := fmt.Sprintf("%s.corrupt-%d", path, o.now().Unix())
		recordCacheError(metadataSink, "OpenSQLiteStore", "", &CacheError{
			Message: fmt.Sprintf("%v; moved to %s", err, aside),
			Cause:   ErrCauseCorruptEntry,
			Path:    path,
		})
		if moveErr := moveAside(path, aside); moveErr != nil {
			return nil, fmt.Errorf("failed to move corrupt cache database: %w", moveErr)
		}
		db, err = openSQLite(path)
	}
	if err != nil {
		return nil, err
	}

	return &SQLiteStore{
		metadataSink: metadataSink,
		db:           db,
		now:          o.now,
	}, nil
}

func openSQLite(path string) (*sql.DB, error) {
	// Pragmas go in the DSN so every pooled connection gets them.
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)",
		path,
	)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	// One writer at a time; the cache sees at most a handful of writes per request.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping cache database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache table: %w", err)
	}
	return db, nil
}

// isCorruption reports SQLITE_NOTADB and SQLITE_CORRUPT, including their
// extended codes.
func isCorruption(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() & 0xff {
	case sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CORRUPT:
		return true
	}
	return false
}

// moveAside renames the database and drops its WAL companions, which belong
// to the unreadable file.
func moveAside(path, aside string) error {
	if err := os.Rename(path, aside); err != nil {
		return err
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(path + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(key Key, ttl time.Duration) (Lookup, bool) {
	var (
		raw       string
		writtenAt int64
	)
	err := s.db.QueryRow(
		`SELECT results, written_at FROM cache_entries WHERE key = ?`,
		key.String(),
	).Scan(&raw, &writtenAt)
	if errors.Is(err, sql.ErrNoRows) {
		s.metadataSink.RecordCache(metadata.CacheOpGet, key.String(), false, false)
		return Lookup{}, false
	}
	if err != nil {
		recordCacheError(s.metadataSink, "SQLiteStore.Get", key, &CacheError{
			Message: err.Error(),
			Cause:   ErrCauseReadFailure,
		})
		s.metadataSink.RecordCache(metadata.CacheOpGet, key.String(), false, false)
		return Lookup{}, false
	}

	var results []catalog.Item
	if err := json.Unmarshal([]byte(raw), &results); err != nil {
		recordCacheError(s.metadataSink, "SQLiteStore.Get", key, &CacheError{
			Message: err.Error(),
			Cause:   ErrCauseCorruptEntry,
		})
		s.metadataSink.RecordCache(metadata.CacheOpGet, key.String(), false, false)
		return Lookup{}, false
	}

	entry := Entry{Results: results, WrittenAt: time.Unix(0, writtenAt).UTC()}
	lookup := newLookup(entry, ttl, s.now())
	s.metadataSink.RecordCache(metadata.CacheOpGet, key.String(), true, lookup.Stale)
	return lookup, true
}

func (s *SQLiteStore) Set(key Key, results []catalog.Item) {
	if results == nil {
		results = []catalog.Item{}
	}
	raw, err := json.Marshal(results)
	if err != nil {
		recordCacheError(s.metadataSink, "SQLiteStore.Set", key, &CacheError{
			Message: err.Error(),
			Cause:   ErrCauseEncodeFailure,
		})
		return
	}

	_, err = s.db.Exec(
		`INSERT INTO cache_entries (key, results, written_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET results = excluded.results, written_at = excluded.written_at`,
		key.String(), string(raw), s.now().UTC().UnixNano(),
	)
	if err != nil {
		recordCacheError(s.metadataSink, "SQLiteStore.Set", key, &CacheError{
			Message: err.Error(),
			Cause:   ErrCauseWriteFailure,
		})
		return
	}
	s.metadataSink.RecordCache(metadata.CacheOpSet, key.String(), false, false)
}

func (s *SQLiteStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM cache_entries`); err != nil {
		cacheErr := &CacheError{Message: err.Error(), Cause: ErrCauseWriteFailure}
		recordCacheError(s.metadataSink, "SQLiteStore.Clear", "", cacheErr)
		return cacheErr
	}
	s.metadataSink.RecordCache(metadata.CacheOpClear, "", false, false)
	return nil
}

func (s *SQLiteStore) List() ([]Listing, error) {
	rows, err := s.db.Query(`SELECT key, results, written_at FROM cache_entries ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []Listing
	for rows.Next() {
		var (
			key       string
			raw       string
			writtenAt int64
		)
		if err := rows.Scan(&key, &raw, &writtenAt); err != nil {
			return nil, err
		}
		var results []catalog.Item
		if err := json.Unmarshal([]byte(raw), &results); err != nil {
			continue
		}
		listings = append(listings, Listing{
			Key:       Key(key),
			Count:     len(results),
			WrittenAt: time.Unix(0, writtenAt).UTC(),
		})
	}
	return listings, rows.Err()
}
