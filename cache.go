package prismblog

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/eringen/prismblog/blog"
	"github.com/eringen/prismblog/prismic"
)

const (
	keyFirstPage  = "listing:first"
	keyAllPosts   = "listing:all"
	keyPostPrefix = "post:"

	fetchTimeout = 30 * time.Second
)

type entry struct {
	value   any
	fetched time.Time
}

// ContentCache is an in-memory TTL cache in front of a Source. Fetched
// content is also written to the Store, so a restart or a content API
// outage still serves the last good copy.
type ContentCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	group   singleflight.Group

	source   Source
	store    *Store // optional
	logger   Logger
	postType string
	pageSize int
	now      func() time.Time
}

// NewContentCache creates a cache over src. store may be nil.
func NewContentCache(src Source, store *Store, cfg SiteConfig, logger Logger) *ContentCache {
	if logger == nil {
		logger = discardLogger
	}
	return &ContentCache{
		entries:  make(map[string]entry),
		ttl:      cfg.CacheTTL,
		source:   src,
		store:    store,
		logger:   logger,
		postType: cfg.PostType,
		pageSize: cfg.PageSize,
		now:      time.Now,
	}
}

func (c *ContentCache) valid(e entry) bool {
	return c.now().Sub(e.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *ContentCache) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// FirstPage returns the first listing page, newest first.
func (c *ContentCache) FirstPage(ctx context.Context) (blog.PostPagination, error) {
	return cached(ctx, c, keyFirstPage, func(ctx context.Context) (blog.PostPagination, error) {
		return c.source.FetchByType(ctx, c.postType, c.pageSize, blog.ByFirstPublicationDesc)
	})
}

// AllPosts returns every post, newest first.
func (c *ContentCache) AllPosts(ctx context.Context) ([]blog.PostSummary, error) {
	return cached(ctx, c, keyAllPosts, func(ctx context.Context) ([]blog.PostSummary, error) {
		return c.source.FetchAll(ctx, c.postType, blog.ByFirstPublicationDesc)
	})
}

// Post returns the post with the given uid. Unknown uids yield an error
// wrapping prismic.ErrNotFound.
func (c *ContentCache) Post(ctx context.Context, uid string) (blog.PostDocument, error) {
	return cached(ctx, c, keyPostPrefix+uid, func(ctx context.Context) (blog.PostDocument, error) {
		return c.source.FetchByUID(ctx, c.postType, uid)
	})
}

func (c *ContentCache) lookup(key string) (entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

func (c *ContentCache) set(key string, e entry) {
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
}

func (c *ContentCache) forget(ctx context.Context, key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	if c.store != nil {
		if err := c.store.Delete(key); err != nil {
			c.logger.Warn(ctx, "store delete failed", "key", key, "error", err)
		}
	}
}

// cached serves key from memory, then from the store, then from fetch.
// Concurrent misses for one key share a single fetch, which runs detached
// from any one caller's cancellation and is bounded by fetchTimeout. When fetch fails
// with anything but not-found, a stale copy is served if one exists.
func cached[T any](ctx context.Context, c *ContentCache, key string, fetch func(context.Context) (T, error)) (T, error) {
	if e, ok := c.lookup(key); ok && c.valid(e) {
		return e.value.(T), nil
	}
	ch := c.group.DoChan(key, func() (any, error) {
		// Shared by every waiting reader, not owned by the first one.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		mem, inMem := c.lookup(key)
		if inMem && c.valid(mem) {
			return mem.value, nil
		}

		var stored T
		var storedAt time.Time
		haveStored := false
		if c.store != nil {
			at, err := c.store.Get(key, &stored)
			switch {
			case err == nil:
				haveStored = true
				storedAt = at
				if c.valid(entry{fetched: at}) {
					c.set(key, entry{value: stored, fetched: at})
					return stored, nil
				}
			case !errors.Is(err, ErrNotFound):
				c.logger.Warn(ctx, "store read failed", "key", key, "error", err)
			}
		}

		fresh, err := fetch(ctx)
		if err != nil {
			if errors.Is(err, prismic.ErrNotFound) {
				c.forget(ctx, key)
				return nil, err
			}
			switch {
			case inMem:
				c.logger.Warn(ctx, "content API failed, serving stale copy", "key", key, "fetched", mem.fetched, "error", err)
				return mem.value, nil
			case haveStored:
				c.logger.Warn(ctx, "content API failed, serving stored copy", "key", key, "fetched", storedAt, "error", err)
				return stored, nil
			}
			return nil, err
		}

		now := c.now()
		c.set(key, entry{value: fresh, fetched: now})
		if c.store != nil {
			if err := c.store.Put(key, fresh, now); err != nil {
				c.logger.Warn(ctx, "store write failed", "key", key, "error", err)
			}
		}
		return fresh, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return zero, r.Err
		}
		return r.Val.(T), nil
	}
}
