package prospectindata

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestFileCacheRoundTrip(t *testing.T) {
	fc, err := NewFileCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}

	body := json.RawMessage(`{"id": 7, "name": "Acme"}`)
	if err := fc.Set("/company_base/collect", "GET-abc123", body); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := fc.Get("/company_base/collect", "GET-abc123")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != string(body) {
		t.Errorf("Get() = %s, want %s", got, body)
	}
}

func TestFileCacheMissForUnknownKey(t *testing.T) {
	fc, err := NewFileCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}

	if _, err := fc.Get("/member/collect", "never-written"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() error = %v, want ErrCacheMiss", err)
	}
}

func TestFileCacheStaleEntryIsMiss(t *testing.T) {
	dir := t.TempDir()
	fc, err := NewFileCache(dir, time.Hour)
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}

	if err := fc.Set("/member/collect", "key", json.RawMessage(`{}`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	path := filepath.Join(dir, "member_collect", "key.json")
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}

	if _, err := fc.Get("/member/collect", "key"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() on stale entry error = %v, want ErrCacheMiss", err)
	}
}

func TestFileCacheZeroTTLNeverExpires(t *testing.T) {
	dir := t.TempDir()
	fc, err := NewFileCache(dir, 0)
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}

	if err := fc.Set("/member/collect", "key", json.RawMessage(`{"a":1}`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	path := filepath.Join(dir, "member_collect", "key.json")
	ancient := time.Now().Add(-24 * 365 * time.Hour)
	if err := os.Chtimes(path, ancient, ancient); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}

	if _, err := fc.Get("/member/collect", "key"); err != nil {
		t.Errorf("Get() with disabled expiry error = %v, want nil", err)
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	dir := t.TempDir()
	fc, err := NewFileCache(dir, time.Hour)
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}

	if err := fc.Set("/member/collect", "key", json.RawMessage(`{"a":1}`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	path := filepath.Join(dir, "member_collect", "key.json")
	if err := os.WriteFile(path, []byte(`{"a":`), 0o600); err != nil {
		t.Fatalf("truncate entry: %v", err)
	}

	_, err = fc.Get("/member/collect", "key")
	if !errors.Is(err, ErrCacheCorrupt) {
		t.Errorf("Get() on corrupt entry error = %v, want wrapped ErrCacheCorrupt", err)
	}
}

func TestFileCacheOverwrite(t *testing.T) {
	fc, err := NewFileCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}

	if err := fc.Set("/e", "k", json.RawMessage(`{"v":1}`)); err != nil {
		t.Fatalf("first Set() error = %v", err)
	}
	if err := fc.Set("/e", "k", json.RawMessage(`{"v":2}`)); err != nil {
		t.Fatalf("second Set() error = %v", err)
	}

	got, err := fc.Get("/e", "k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != `{"v":2}` {
		t.Errorf("Get() = %s, want the second write", got)
	}
}

func TestFileCacheConcurrentWritersLastWins(t *testing.T) {
	dir := t.TempDir()
	fc, err := NewFileCache(dir, time.Hour)
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body, _ := json.Marshal(map[string]int{"writer": i})
			if err := fc.Set("/e", "shared", body); err != nil {
				t.Errorf("Set() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	// Whatever won, the entry must be complete valid JSON, never a torn
	// interleaving.
	got, err := fc.Get("/e", "shared")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	var entry map[string]int
	if err := json.Unmarshal(got, &entry); err != nil {
		t.Errorf("entry is not valid JSON: %v (%s)", err, got)
	}

	// No temp files may survive.
	entries, err := os.ReadDir(filepath.Join(dir, "e"))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	for _, e := range entries {
		if e.Name() != "shared.json" {
			t.Errorf("unexpected file in cache dir: %s", e.Name())
		}
	}
}

func TestNewFileCacheRequiresDir(t *testing.T) {
	if _, err := NewFileCache("", time.Hour); err == nil {
		t.Error("NewFileCache(\"\") should fail")
	}
}

func TestNewFileCacheCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	if _, err := NewFileCache(dir, time.Hour); err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("cache dir was not created: %v", err)
	}
}
