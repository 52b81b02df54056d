// Package cache holds read-through caches for comment lists.
package cache

import (
	"sync"
	"time"

	"github.com/timmy/plantgram/internal/domain"
	"github.com/timmy/plantgram/internal/metrics"
)

type cachedComments struct {
	comments  []domain.Comment
	timestamp time.Time
}

// CommentListCache is an LRU cache with TTL of comment lists keyed by post ID.
// A post's entry is dropped by Invalidate whenever its comments change.
//
// Read-through fills use Version and SetIfVersion: a list read from the store
// before an Invalidate must not be cached after it.
type CommentListCache struct {
	mu      sync.Mutex
	entries map[string]*cachedComments
	epoch   uint64 // bumped by every Invalidate
	order   []string // LRU order, oldest first
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

// NewCommentListCache creates a cache. Non-positive arguments fall back to
// 500 entries and a 5 minute TTL.
func NewCommentListCache(maxSize int, ttl time.Duration) *CommentListCache {
	if maxSize <= 0 {
		maxSize = 500
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CommentListCache{
		entries: make(map[string]*cachedComments),
		order:   make([]string, 0, maxSize),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Get returns a copy of the cached list for postID.
func (c *CommentListCache) Get(postID string) ([]domain.Comment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cached, ok := c.entries[postID]
	if !ok {
		metrics.CommentCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	if c.now().Sub(cached.timestamp) > c.ttl {
		delete(c.entries, postID)
		c.removeFromOrder(postID)
		metrics.CommentCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}

	c.removeFromOrder(postID)
	c.order = append(c.order, postID)
	metrics.CommentCacheLookups.WithLabelValues("hit").Inc()
	return append([]domain.Comment(nil), cached.comments...), true
}

// Set stores the list for postID, evicting the least recently used entries
// at capacity.
func (c *CommentListCache) Set(postID string, comments []domain.Comment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(postID, comments)
}

func (c *CommentListCache) setLocked(postID string, comments []domain.Comment) {
	if _, exists := c.entries[postID]; !exists {
		for len(c.entries) >= c.maxSize && len(c.order) > 0 {
			oldest := c.order[0]
			delete(c.entries, oldest)
			c.order = c.order[1:]
		}
	}

	c.entries[postID] = &cachedComments{
		comments:  append([]domain.Comment(nil), comments...),
		timestamp: c.now(),
	}
	c.removeFromOrder(postID)
	c.order = append(c.order, postID)
}

// Version returns a token to pass to SetIfVersion. Take it before reading
// the list from the store.
func (c *CommentListCache) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// SetIfVersion stores the list only if no Invalidate happened since version
// was taken. It reports whether the list was stored.
func (c *CommentListCache) SetIfVersion(postID string, version uint64, comments []domain.Comment) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if version != c.epoch {
		return false
	}
	c.setLocked(postID, comments)
	return true
}

// Invalidate marks the comment list of postID as stale. In-flight fills
// that started before the call are discarded.
func (c *CommentListCache) Invalidate(postID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch++
	delete(c.entries, postID)
	c.removeFromOrder(postID)
}

// Len returns the number of cached posts.
func (c *CommentListCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *CommentListCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
