package cache

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/3-lines-studio/hydrate/internal/adapters/store"
	"github.com/3-lines-studio/hydrate/internal/core"
)

type countingStore struct {
	store.BundleStore
	mu     sync.Mutex
	exists int
	err    error
}

func (s *countingStore) Exists(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	s.exists++
	s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	return s.BundleStore.Exists(ctx, name)
}

func TestCacheStoreAndExists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st := &countingStore{BundleStore: store.NewDiskStore(dir)}

	c, err := New(core.EnvDevelopment, st, 8)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	key, err := c.Key("pages/home.jsx", map[string]any{"name": "World"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	ok, err := c.Exists(ctx, key)
	if err != nil || ok {
		t.Fatalf("Expected miss, got ok=%v err=%v", ok, err)
	}

	if err := c.Store(ctx, key, []byte("bundle")); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if got, want := c.Location(key), filepath.Join(dir, string(key)+".js"); got != want {
		t.Errorf("Expected location %s, got %s", want, got)
	}

	before := st.exists
	for range 3 {
		ok, err := c.Exists(ctx, key)
		if err != nil || !ok {
			t.Fatalf("Expected hit, got ok=%v err=%v", ok, err)
		}
	}
	if st.exists != before {
		t.Errorf("Expected stored key to be answered from memory, store consulted %d times", st.exists-before)
	}
}

func TestCacheMemoizesDiskHits(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	disk := store.NewDiskStore(dir)
	if err := disk.Put(ctx, "0123.js", []byte("x")); err != nil {
		t.Fatal(err)
	}

	st := &countingStore{BundleStore: disk}
	c, _ := New(core.EnvProduction, st, 8)

	for range 2 {
		ok, err := c.Exists(ctx, "0123")
		if err != nil || !ok {
			t.Fatalf("Expected hit, got ok=%v err=%v", ok, err)
		}
	}
	if st.exists != 1 {
		t.Errorf("Expected store to be consulted once, got %d", st.exists)
	}
}

func TestCacheExistsError(t *testing.T) {
	st := &countingStore{BundleStore: store.NewDiskStore(t.TempDir()), err: errors.New("boom")}
	c, _ := New(core.EnvDevelopment, st, 8)

	if _, err := c.Exists(context.Background(), "abc"); err == nil {
		t.Error("Expected store error to propagate")
	}
}

func TestCacheList(t *testing.T) {
	ctx := context.Background()
	c, _ := New(core.EnvDevelopment, store.NewDiskStore(t.TempDir()), 0)

	for _, k := range []core.CacheKey{"bbb", "aaa"} {
		if err := c.Store(ctx, k, []byte(k)); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := c.List(ctx)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(entries) != 2 || entries[0].Key != "aaa" || entries[1].Key != "bbb" {
		t.Errorf("Expected aaa and bbb in order, got %+v", entries)
	}
}
