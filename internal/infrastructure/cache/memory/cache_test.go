package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kirillkom/benefits-navigator/internal/core/domain"
)

func cachedAnswer(text string, ttl time.Duration, created time.Time) domain.CachedAnswer {
	return domain.CachedAnswer{
		Answer:    text,
		CreatedAt: created,
		TTL:       ttl,
	}
}

func TestGetReturnsStoredAnswer(t *testing.T) {
	c := New(10)
	ctx := context.Background()

	c.Put(ctx, "k1", cachedAnswer("answer", time.Hour, time.Now()))

	got, ok := c.Get(ctx, "k1")
	if !ok {
		t.Fatalf("expected hit")
	}
	if got.Answer != "answer" {
		t.Fatalf("unexpected answer %q", got.Answer)
	}
}

func TestExpiredEntryIsMissAndRemoved(t *testing.T) {
	c := New(10)
	ctx := context.Background()

	base := time.Now()
	c.now = func() time.Time { return base.Add(2 * time.Hour) }
	c.Put(ctx, "k1", cachedAnswer("stale", time.Hour, base))

	if _, ok := c.Get(ctx, "k1"); ok {
		t.Fatalf("expired entry must be a miss")
	}
	if stats := c.Stats(ctx); stats.Size != 0 {
		t.Fatalf("expired entry must be evicted on read, size=%d", stats.Size)
	}
}

func TestEvictsLeastRecentlyUsedAtCapacity(t *testing.T) {
	c := New(2)
	ctx := context.Background()
	now := time.Now()

	c.Put(ctx, "a", cachedAnswer("a", time.Hour, now))
	c.Put(ctx, "b", cachedAnswer("b", time.Hour, now))

	// Touch "a" so "b" becomes the eviction candidate.
	if _, ok := c.Get(ctx, "a"); !ok {
		t.Fatalf("expected hit on a")
	}
	c.Put(ctx, "c", cachedAnswer("c", time.Hour, now))

	if _, ok := c.Get(ctx, "b"); ok {
		t.Fatalf("b should have been evicted")
	}
	if _, ok := c.Get(ctx, "a"); !ok {
		t.Fatalf("a should have survived")
	}
	if _, ok := c.Get(ctx, "c"); !ok {
		t.Fatalf("c should be present")
	}
}

func TestPutSameKeyUpdatesInPlace(t *testing.T) {
	c := New(2)
	ctx := context.Background()
	now := time.Now()

	c.Put(ctx, "k", cachedAnswer("v1", time.Hour, now))
	c.Put(ctx, "k", cachedAnswer("v2", time.Hour, now))

	got, ok := c.Get(ctx, "k")
	if !ok || got.Answer != "v2" {
		t.Fatalf("expected updated value, got %+v ok=%v", got, ok)
	}
	if stats := c.Stats(ctx); stats.Size != 1 {
		t.Fatalf("update must not grow the cache, size=%d", stats.Size)
	}
}

func TestClearEmptiesCache(t *testing.T) {
	c := New(10)
	ctx := context.Background()

	c.Put(ctx, "k", cachedAnswer("v", time.Hour, time.Now()))
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatalf("cleared cache must miss")
	}
	if stats := c.Stats(ctx); stats.Size != 0 {
		t.Fatalf("expected empty cache, size=%d", stats.Size)
	}
}

func TestStatsTracksHitRate(t *testing.T) {
	c := New(10)
	ctx := context.Background()

	c.Put(ctx, "k", cachedAnswer("v", time.Hour, time.Now()))
	c.Get(ctx, "k")      // hit
	c.Get(ctx, "absent") // miss

	stats := c.Stats(ctx)
	if stats.HitRate != 0.5 {
		t.Fatalf("expected hit rate 0.5, got %.2f", stats.HitRate)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New(50)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := fmt.Sprintf("k-%d", j%60)
				c.Put(ctx, key, cachedAnswer(key, time.Hour, time.Now()))
				c.Get(ctx, key)
			}
		}(i)
	}
	wg.Wait()

	if stats := c.Stats(ctx); stats.Size > 50 {
		t.Fatalf("cache exceeded capacity: %d", stats.Size)
	}
}
