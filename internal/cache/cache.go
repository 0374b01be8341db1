// Package cache is the content-addressed bundle cache. A bundle is named by
// the hash of its logical inputs, so identical inputs always map to the same
// bundle and a stored bundle never needs invalidating.
package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/3-lines-studio/hydrate/internal/adapters/store"
	"github.com/3-lines-studio/hydrate/internal/core"
	"github.com/3-lines-studio/hydrate/internal/metrics"
)

type Entry struct {
	Key      core.CacheKey
	Location string
	Size     int64
	ModTime  time.Time
}

type Cache struct {
	env   core.Environment
	store store.BundleStore
	// known memoizes keys confirmed present. Stored bundles are immutable,
	// so a positive answer never goes stale.
	known *lru.Cache
}

func New(env core.Environment, st store.BundleStore, size int) (*Cache, error) {
	if size <= 0 {
		size = 1
	}
	known, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Cache{env: env, store: st, known: known}, nil
}

func (c *Cache) Key(filePath string, props map[string]any) (core.CacheKey, error) {
	return core.ComputeKey(c.env, filePath, props)
}

func (c *Cache) Exists(ctx context.Context, key core.CacheKey) (bool, error) {
	if c.known.Contains(key) {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return true, nil
	}

	ok, err := c.store.Exists(ctx, core.BundleFileName(key))
	if err != nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		return false, err
	}
	if ok {
		c.known.Add(key, struct{}{})
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return true, nil
	}

	metrics.CacheLookups.WithLabelValues("miss").Inc()
	return false, nil
}

func (c *Cache) Store(ctx context.Context, key core.CacheKey, data []byte) error {
	if err := c.store.Put(ctx, core.BundleFileName(key), data); err != nil {
		return err
	}
	c.known.Add(key, struct{}{})
	return nil
}

func (c *Cache) Location(key core.CacheKey) string {
	return c.store.Location(core.BundleFileName(key))
}

func (c *Cache) List(ctx context.Context) ([]Entry, error) {
	objects, err := c.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bundles: %w", err)
	}

	entries := make([]Entry, 0, len(objects))
	for _, obj := range objects {
		key := core.CacheKey(obj.Name[:len(obj.Name)-len(core.BundleExt)])
		entries = append(entries, Entry{
			Key:      key,
			Location: c.store.Location(obj.Name),
			Size:     obj.Size,
			ModTime:  obj.ModTime,
		})
	}
	return entries, nil
}
