package catalog

import (
	"context"
	"strconv"
	"sync"
	"time"

	"dealboard-bot/models"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// cacheKey identifies one page of one region's search results.
type cacheKey struct {
	Region string
	Page   int
}

func (k cacheKey) String() string {
	return k.Region + ":" + strconv.Itoa(k.Page)
}

// PageFetcher is the upstream a cache miss falls through to.
type PageFetcher interface {
	FetchPage(ctx context.Context, region string, pageIndex int) (*models.Page, error)
}

// PageCache is the TTL-bounded LRU of search result pages. Capacity pressure
// evicts the least-recently-touched entry; expiry removes entries on access.
// A singleflight group collapses concurrent misses for the same key into one
// upstream fetch whose result every waiter shares.
type PageCache struct {
	upstream    PageFetcher
	ttl         time.Duration
	extendOnHit bool

	mu     sync.Mutex
	lru    *lru.Cache[cacheKey, *models.Page]
	flight singleflight.Group
}

// NewPageCache builds a cache of at most capacity pages with the given TTL.
// With extendOnHit set, every hit slides the entry's expiry forward a full
// TTL, keeping hot pages alive indefinitely.
func NewPageCache(upstream PageFetcher, capacity int, ttl time.Duration, extendOnHit bool) (*PageCache, error) {
	l, err := lru.New[cacheKey, *models.Page](capacity)
	if err != nil {
		return nil, err
	}
	return &PageCache{
		upstream:    upstream,
		ttl:         ttl,
		extendOnHit: extendOnHit,
		lru:         l,
	}, nil
}

// Get returns the cached page, or nil when the key is absent or expired.
// A hit touches LRU recency.
func (c *PageCache) Get(region string, pageIndex int) *models.Page {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey{Region: region, Page: pageIndex}
	page, ok := c.lru.Get(key)
	if !ok {
		return nil
	}
	now := time.Now()
	if page.Expired(now) {
		c.lru.Remove(key)
		return nil
	}
	if c.extendOnHit {
		page.ExpiresAt = now.Add(c.ttl)
	}
	return page
}

// Set stores a page under (region, pageIndex), stamping a fresh TTL and
// touching recency. Inserting past capacity evicts the least-recently-touched
// entry, regardless of insertion order.
func (c *PageCache) Set(region string, pageIndex int, page *models.Page) {
	c.mu.Lock()
	defer c.mu.Unlock()

	page.ExpiresAt = time.Now().Add(c.ttl)
	c.lru.Add(cacheKey{Region: region, Page: pageIndex}, page)
}

// Contains reports whether a fresh entry exists without touching recency.
// Used by the warmer to probe before scheduling work.
func (c *PageCache) Contains(region string, pageIndex int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	page, ok := c.lru.Peek(cacheKey{Region: region, Page: pageIndex})
	return ok && !page.Expired(time.Now())
}

// Len returns the number of resident entries, expired stragglers included.
func (c *PageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// GetOrFetch returns the cached page or pulls it from upstream. Concurrent
// miss-callers for one key trigger exactly one fetch; the flight entry is
// dropped when it settles and a failed fetch is never cached, so the next
// caller retries fresh.
func (c *PageCache) GetOrFetch(ctx context.Context, region string, pageIndex int) (*models.Page, error) {
	if page := c.Get(region, pageIndex); page != nil {
		return page, nil
	}

	key := cacheKey{Region: region, Page: pageIndex}
	v, err, _ := c.flight.Do(key.String(), func() (interface{}, error) {
		// A flight that settled while we queued may have filled the cache.
		if page := c.Get(region, pageIndex); page != nil {
			return page, nil
		}
		page, err := c.upstream.FetchPage(ctx, region, pageIndex)
		if err != nil {
			return nil, err
		}
		c.Set(region, pageIndex, page)
		return page, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Page), nil
}

// Refresh pulls the page fresh from upstream regardless of any cached copy,
// sharing its flight with concurrent fetches of the same key. Used by the
// periodic board refresh so displayed prices never outlive the cycle.
func (c *PageCache) Refresh(ctx context.Context, region string, pageIndex int) (*models.Page, error) {
	key := cacheKey{Region: region, Page: pageIndex}
	v, err, _ := c.flight.Do(key.String(), func() (interface{}, error) {
		page, err := c.upstream.FetchPage(ctx, region, pageIndex)
		if err != nil {
			return nil, err
		}
		c.Set(region, pageIndex, page)
		return page, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Page), nil
}
