package memory

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/kirillkom/benefits-navigator/internal/core/domain"
)

// Cache is the in-process answer cache: LRU over a fixed capacity, with
// per-entry TTL checked lazily on read. It is the default backend; the redis
// cache replaces it when answers must be shared across replicas.
type Cache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List // front = most recently used

	hits   uint64
	misses uint64

	now func() time.Time
}

type cacheEntry struct {
	key    string
	answer domain.CachedAnswer
}

func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 1000
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		now:      time.Now,
	}
}

func (c *Cache) Get(_ context.Context, key string) (*domain.CachedAnswer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	entry := elem.Value.(*cacheEntry)
	if entry.answer.Expired(c.now()) {
		c.order.Remove(elem)
		delete(c.entries, key)
		c.misses++
		return nil, false
	}

	c.order.MoveToFront(elem)
	c.hits++
	answer := entry.answer
	return &answer, true
}

func (c *Cache) Put(_ context.Context, key string, answer domain.CachedAnswer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		elem.Value.(*cacheEntry).answer = answer
		c.order.MoveToFront(elem)
		return
	}

	elem := c.order.PushFront(&cacheEntry{key: key, answer: answer})
	c.entries[key] = elem

	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).key)
		}
	}
}

func (c *Cache) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.order.Init()
	return nil
}

func (c *Cache) Stats(context.Context) domain.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	rate := 0.0
	if total > 0 {
		rate = float64(c.hits) / float64(total)
	}
	return domain.CacheStats{
		Size:    len(c.entries),
		HitRate: rate,
	}
}
