package prospectindata

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

// Cache stores JSON response bodies keyed by request identity. Get returns
// ErrCacheMiss for absent or stale entries and wraps ErrCacheCorrupt for
// unreadable ones; the client treats both as a miss, only logging the latter.
type Cache interface {
	Get(endpoint, key string) (json.RawMessage, error)
	Set(endpoint, key string, body json.RawMessage) error
}

// FileCache is the on-disk Cache: one UTF-8 JSON file per request identity at
// <dir>/<sanitized_endpoint>/<key>.json, with the file's mtime as the write
// timestamp. Entries older than the TTL are treated as absent and silently
// overwritten on the next successful fetch; there is no eviction and no size
// bound. Concurrent writers to the same key are tolerated (writes are atomic
// and entries are idempotent snapshots, so last writer wins).
type FileCache struct {
	dir string
	ttl time.Duration
}

// NewFileCache creates the cache root directory if absent. A ttl of zero or
// less disables expiry.
func NewFileCache(dir string, ttl time.Duration) (*FileCache, error) {
	if dir == "" {
		return nil, errors.New("prospectindata: cache directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("prospectindata: create cache dir: %w", err)
	}
	return &FileCache{dir: dir, ttl: ttl}, nil
}

// Dir returns the cache root directory.
func (fc *FileCache) Dir() string { return fc.dir }

// Get returns the cached body for (endpoint, key) if present, fresh and
// parseable.
func (fc *FileCache) Get(endpoint, key string) (json.RawMessage, error) {
	path := fc.path(endpoint, key)

	info, err := os.Stat(path)
	if err != nil {
		return nil, ErrCacheMiss
	}
	if fc.ttl > 0 && time.Since(info.ModTime()) >= fc.ttl {
		return nil, ErrCacheMiss
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("prospectindata: read cache %s: %w", path, err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: %s", ErrCacheCorrupt, path)
	}
	return data, nil
}

// Set persists body for (endpoint, key), overwriting any existing entry. The
// write goes to a temp file first and is renamed into place, so readers and
// concurrent writers never observe a partial entry.
func (fc *FileCache) Set(endpoint, key string, body json.RawMessage) error {
	path := fc.path(endpoint, key)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("prospectindata: create cache subdir: %w", err)
	}

	tmp := fmt.Sprintf("%s.tmp.%d", path, rand.Int())
	if err := os.WriteFile(tmp, body, 0o600); err != nil {
		return fmt.Errorf("prospectindata: write cache %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("prospectindata: write cache %s: %w", path, err)
	}
	return nil
}

func (fc *FileCache) path(endpoint, key string) string {
	return filepath.Join(fc.dir, sanitizeEndpoint(endpoint), key+".json")
}
