package ownedread

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"ownedread/store"

	"golang.org/x/sync/singleflight"
)

// Loader produces the backing store for a key on a cache miss.
type Loader interface {
	Load(ctx context.Context, key string) (Backing, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, key string) (Backing, error)

func (f LoaderFunc) Load(ctx context.Context, key string) (Backing, error) { return f(ctx, key) }

// CacheOptions configures a ReaderCache.
type CacheOptions struct {
	MaxBytes        int64
	Expiration      time.Duration // 0 keeps entries until evicted
	CleanupInterval time.Duration
}

func DefaultCacheOptions() CacheOptions {
	return CacheOptions{
		MaxBytes:        8 * 1024 * 1024,
		CleanupInterval: time.Minute,
	}
}

// CacheOption overrides one CacheOptions field.
type CacheOption func(*CacheOptions)

// WithExpiration sets how long a loaded backing stays cached.
func WithExpiration(d time.Duration) CacheOption {
	return func(o *CacheOptions) {
		o.Expiration = d
	}
}

// WithCleanupInterval sets how often expired entries are swept.
func WithCleanupInterval(d time.Duration) CacheOption {
	return func(o *CacheOptions) {
		o.CleanupInterval = d
	}
}

// ReaderCache memoizes backing stores by key. Every Open returns a new
// reader over the full cached backing, so callers share one allocation
// and never see each other's cursor. Readers stay valid after their entry
// is evicted or deleted.
type ReaderCache struct {
	name       string
	loader     Loader
	entries    *store.LRU
	flight     singleflight.Group
	expiration time.Duration
	closed     int32
	stats      cacheStats
}

type cacheStats struct {
	hits         int64
	misses       int64
	loads        int64
	loadErrors   int64
	loadDuration int64 // nanoseconds
	dropped      int64 // evicted, expired or deleted
}

// NewReaderCache builds a cache bounded to maxBytes of backing data.
func NewReaderCache(name string, maxBytes int64, loader Loader, opts ...CacheOption) *ReaderCache {
	if loader == nil {
		panic("nil Loader")
	}
	o := DefaultCacheOptions()
	o.MaxBytes = maxBytes
	for _, opt := range opts {
		opt(&o)
	}

	c := &ReaderCache{
		name:       name,
		loader:     loader,
		expiration: o.Expiration,
	}
	c.entries = store.New(store.Options{
		MaxBytes:        o.MaxBytes,
		CleanupInterval: o.CleanupInterval,
		OnEvicted: func(key string, _ store.Value) {
			atomic.AddInt64(&c.stats.dropped, 1)
		},
	})
	logger.Infof("reader cache %s created with maxBytes=%d, expiration=%s", name, o.MaxBytes, o.Expiration)
	return c
}

// Open returns a fresh reader over the backing for key, loading it on a
// miss. Concurrent misses for the same key share a single load.
func (c *ReaderCache) Open(ctx context.Context, key string) (*OwnedRead, error) {
	if atomic.LoadInt32(&c.closed) == 1 {
		return nil, ErrCacheClosed
	}
	if key == "" {
		return nil, ErrKeyRequired
	}

	if v, ok := c.entries.Get(key); ok {
		atomic.AddInt64(&c.stats.hits, 1)
		return v.(*OwnedRead).Clone(), nil
	}
	atomic.AddInt64(&c.stats.misses, 1)
	return c.load(ctx, key)
}

// load runs the loader once per key across concurrent callers. The shared
// load ignores any single caller's cancellation; each caller stops waiting
// when its own ctx is done.
func (c *ReaderCache) load(ctx context.Context, key string) (*OwnedRead, error) {
	loadCtx := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(key, func() (interface{}, error) {
		// A previous flight may have filled the entry after our miss.
		if v, ok := c.entries.Get(key); ok {
			return v, nil
		}

		start := time.Now()
		b, err := c.loader.Load(loadCtx, key)
		atomic.AddInt64(&c.stats.loadDuration, time.Since(start).Nanoseconds())
		atomic.AddInt64(&c.stats.loads, 1)
		if err != nil {
			atomic.AddInt64(&c.stats.loadErrors, 1)
			return nil, fmt.Errorf("load %q: %w", key, err)
		}
		if b == nil {
			atomic.AddInt64(&c.stats.loadErrors, 1)
			return nil, fmt.Errorf("load %q: %w", key, ErrBackingRequired)
		}
		r := New(b)
		c.cache(key, r)
		return r, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			logger.Warnf("reader cache %s: %v", c.name, res.Err)
			return nil, res.Err
		}
		return res.Val.(*OwnedRead).Clone(), nil
	}
}

// cache stores r unless the cache is closed. Close may land between the
// check and the store, so the closed flag is read again afterwards.
func (c *ReaderCache) cache(key string, r *OwnedRead) {
	if atomic.LoadInt32(&c.closed) == 1 {
		return
	}
	c.entries.SetWithExpiration(key, r, c.expiration)
	if atomic.LoadInt32(&c.closed) == 1 {
		c.entries.Delete(key)
	}
}

// Put caches b under key, replacing any previous entry.
func (c *ReaderCache) Put(key string, b Backing) error {
	if atomic.LoadInt32(&c.closed) == 1 {
		return ErrCacheClosed
	}
	if key == "" {
		return ErrKeyRequired
	}
	if b == nil {
		return ErrBackingRequired
	}
	return c.entries.SetWithExpiration(key, New(b), c.expiration)
}

// Delete drops key from the cache. Readers already opened are unaffected.
func (c *ReaderCache) Delete(key string) bool {
	if atomic.LoadInt32(&c.closed) == 1 {
		return false
	}
	return c.entries.Delete(key)
}

func (c *ReaderCache) Len() int {
	if atomic.LoadInt32(&c.closed) == 1 {
		return 0
	}
	return c.entries.Len()
}

// Close empties the cache and stops its background sweep.
func (c *ReaderCache) Close() {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return
	}
	c.entries.Clear()
	c.entries.Close()
	logger.Infof("reader cache %s closed, hits:%d, misses:%d",
		c.name, atomic.LoadInt64(&c.stats.hits), atomic.LoadInt64(&c.stats.misses))
}

// Stats reports hit, miss and load counters.
func (c *ReaderCache) Stats() map[string]interface{} {
	hits := atomic.LoadInt64(&c.stats.hits)
	misses := atomic.LoadInt64(&c.stats.misses)
	stats := map[string]interface{}{
		"name":        c.name,
		"closed":      atomic.LoadInt32(&c.closed) == 1,
		"hits":        hits,
		"misses":      misses,
		"loads":       atomic.LoadInt64(&c.stats.loads),
		"load_errors": atomic.LoadInt64(&c.stats.loadErrors),
		"dropped":     atomic.LoadInt64(&c.stats.dropped),
		"entries":     c.Len(),
		"used_bytes":  c.entries.UsedBytes(),
	}
	if loads := atomic.LoadInt64(&c.stats.loads); loads > 0 {
		stats["avg_load_time_ms"] = float64(atomic.LoadInt64(&c.stats.loadDuration)) / float64(loads) / 1e6
	}
	if hits+misses > 0 {
		stats["hit_rate"] = float64(hits) / float64(hits+misses)
	}
	return stats
}
