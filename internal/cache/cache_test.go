package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestKey_Namespaced(t *testing.T) {
	a := Key(NamespaceContent, "https://example.com")
	b := Key(NamespaceSearch, "https://example.com")

	if a == b {
		t.Fatal("expected different keys for different namespaces")
	}
	if !strings.HasPrefix(a, "corroborate:v1:content:") {
		t.Errorf("unexpected key prefix: %s", a)
	}
	if ContentKey("https://example.com") != a {
		t.Error("ContentKey should match Key(NamespaceContent, ...)")
	}
}

func TestMemoryCache_SetGetExpire(t *testing.T) {
	c := NewMemoryCache(time.Hour, time.Minute)

	if err := c.Set("k", []byte("v"), 20*time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, ok := c.Get("k"); !ok || string(got) != "v" {
		t.Fatalf("expected hit with v, got %q %v", got, ok)
	}

	time.Sleep(40 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expected entry to expire")
	}
}

func TestMemoryCache_DefaultTTL(t *testing.T) {
	c := NewMemoryCache(time.Hour, time.Minute)
	_ = c.Set("k", []byte("v"), 0)

	if _, ok := c.Get("k"); !ok {
		t.Error("expected zero ttl to use the default expiration")
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 item, got %d", c.Len())
	}

	_ = c.Clear()
	if c.Len() != 0 {
		t.Errorf("expected empty cache after Clear, got %d", c.Len())
	}
}

func TestURLSet(t *testing.T) {
	s := NewURLSet()

	if !s.Add("https://a.example") {
		t.Error("first Add should report newly added")
	}
	if s.Add("https://a.example") {
		t.Error("second Add should report already present")
	}
	if !s.Has("https://a.example") || s.Has("https://b.example") {
		t.Error("Has reported wrong membership")
	}

	s.Remove("https://a.example")
	if s.Len() != 0 {
		t.Errorf("expected empty set, got %d", s.Len())
	}
}

func TestDiskCache_RoundTripAndExpiry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	key := ContentKey("https://example.com/page")

	if err := c.Set(key, []byte("body"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, ok := c.Get(key); !ok || string(got) != "body" {
		t.Fatalf("expected hit with body, got %q %v", got, ok)
	}

	if err := c.Set(key, []byte("stale"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, ok := c.Get(key); ok {
		t.Error("expected expired entry to miss")
	}

	if err := c.Delete(key); err != nil {
		t.Errorf("Delete of missing key should not fail: %v", err)
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	l := NewLayeredCache(time.Hour, dir)
	key := ContentKey("https://example.com/a")

	// Populate disk only, as if written by a previous process
	if err := NewDiskCache(dir, time.Hour).Set(key, []byte("persisted"), 0); err != nil {
		t.Fatalf("disk Set: %v", err)
	}

	got, ok := l.Get(key)
	if !ok || string(got) != "persisted" {
		t.Fatalf("expected disk hit, got %q %v", got, ok)
	}
	if _, ok := l.memory.Get(key); !ok {
		t.Error("expected disk hit to be promoted into memory")
	}

	if err := l.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok := l.Get(key); ok {
		t.Error("expected miss after Clear")
	}
}

func TestDiskCache_PruneAndCorruptEntries(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	fresh := ContentKey("https://example.com/fresh")
	stale := ContentKey("https://example.com/stale")
	if err := c.Set(fresh, []byte("fresh"), 2*time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set(stale, []byte("stale"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	broken := ContentKey("https://example.com/broken")
	if err := os.MkdirAll(filepath.Dir(c.file(broken)), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.file(broken), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	now = now.Add(time.Hour)
	removed, err := c.Prune()
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected stale and corrupt entries pruned, removed %d", removed)
	}
	if _, ok := c.Get(fresh); !ok {
		t.Error("fresh entry should survive pruning")
	}
	if _, err := os.Stat(c.file(stale)); !os.IsNotExist(err) {
		t.Error("stale file still on disk")
	}
}

func TestDiskCache_PruneMissingDir(t *testing.T) {
	c := NewDiskCache(filepath.Join(t.TempDir(), "never-created"), time.Hour)
	if n, err := c.Prune(); err != nil || n != 0 {
		t.Errorf("expected nothing pruned from a missing dir, got %d %v", n, err)
	}
}
