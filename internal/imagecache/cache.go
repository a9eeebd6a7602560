package imagecache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	ristretto_store "github.com/eko/gocache/store/ristretto/v4"
)

const (
	defaultMaxBytes = 64 << 20
	// rough size used to size the admission counters
	typicalImageBytes = 64 << 10
)

var ErrEmptyFilename = errors.New("image filename must not be empty")

// Fetcher retrieves raw image bytes from the stylist service.
type Fetcher interface {
	Image(ctx context.Context, filename string) ([]byte, error)
}

// Config bounds the cache. Zero TTL keeps entries until evicted by size.
type Config struct {
	MaxBytes int64
	TTL      time.Duration
}

// Cache is a read-through cache of wardrobe images keyed by filename.
type Cache struct {
	inner    *cache.Cache[[]byte]
	loadable *cache.LoadableCache[[]byte]
	logger   *slog.Logger
	misses   atomic.Int64
}

// New creates a Loadable cache backed by Ristretto.
func New(fetcher Fetcher, cfg Config, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	counters := maxBytes / typicalImageBytes * 10
	if counters < 1000 {
		counters = 1000
	}

	client, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: counters,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ristretto cache: %w", err)
	}
	inner := cache.New[[]byte](ristretto_store.NewRistretto(client))

	c := &Cache{inner: inner, logger: logger}
	load := func(ctx context.Context, key any) ([]byte, []store.Option, error) {
		filename, ok := key.(string)
		if !ok {
			return nil, nil, fmt.Errorf("invalid key type provided to image cache: expected string, got %T", key)
		}
		c.misses.Add(1)
		logger.Debug("image cache miss", "filename", filename)
		data, err := fetcher.Image(ctx, filename)
		if err != nil {
			return nil, nil, err
		}
		opts := []store.Option{store.WithCost(int64(len(data)))}
		if cfg.TTL > 0 {
			opts = append(opts, store.WithExpiration(cfg.TTL))
		}
		return data, opts, nil
	}
	c.loadable = cache.NewLoadable[[]byte](load, inner)
	return c, nil
}

// Get returns the image, fetching it on a miss. Fetch failures are not cached.
func (c *Cache) Get(ctx context.Context, filename string) ([]byte, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, ErrEmptyFilename
	}
	return c.loadable.Get(ctx, filename)
}

// Cached reports whether filename is held without triggering a fetch.
func (c *Cache) Cached(ctx context.Context, filename string) bool {
	_, err := c.inner.Get(ctx, filename)
	return err == nil
}

// Invalidate drops a single entry.
func (c *Cache) Invalidate(ctx context.Context, filename string) error {
	return c.loadable.Delete(ctx, filename)
}

// Misses is the number of fetches issued so far.
func (c *Cache) Misses() int64 { return c.misses.Load() }

// Close stops the background setter.
func (c *Cache) Close() error { return c.loadable.Close() }
