package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/rueidis"

	"github.com/kirillkom/benefits-navigator/internal/core/domain"
)

const defaultKeyPrefix = "bnav:answers:"

// Cache is the shared answer cache for multi-replica deployments. Entries
// are JSON values under <prefix><key> with a server-side TTL, so expiry
// needs no lazy sweep here. Any read problem, including a corrupted value,
// is reported as a miss.
type Cache struct {
	client rueidis.Client
	prefix string
	logger *slog.Logger

	// Hit accounting is per process; the server only knows key counts.
	hits   atomic.Uint64
	misses atomic.Uint64
}

type Config struct {
	Addrs     []string
	Username  string
	Password  string
	DB        int
	KeyPrefix string
}

func New(cfg Config, logger *slog.Logger) (*Cache, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("redis addrs are required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create redis client: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &Cache{client: client, prefix: prefix, logger: logger}, nil
}

func (c *Cache) Close() {
	c.client.Close()
}

func (c *Cache) Get(ctx context.Context, key string) (*domain.CachedAnswer, bool) {
	cmd := c.client.B().Get().Key(c.prefix + key).Build()
	data, err := c.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if !rueidis.IsRedisNil(err) {
			c.logger.Warn("answer_cache_read_failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}

	var answer domain.CachedAnswer
	if err := json.Unmarshal(data, &answer); err != nil {
		// A corrupt entry is a miss; drop it so the next write replaces it.
		c.logger.Warn("answer_cache_entry_corrupt", "key", key, "error", err)
		del := c.client.B().Del().Key(c.prefix + key).Build()
		_ = c.client.Do(ctx, del).Error()
		c.misses.Add(1)
		return nil, false
	}
	if answer.Expired(time.Now()) {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return &answer, true
}

func (c *Cache) Put(ctx context.Context, key string, answer domain.CachedAnswer) {
	data, err := json.Marshal(answer)
	if err != nil {
		c.logger.Warn("answer_cache_marshal_failed", "key", key, "error", err)
		return
	}
	ttl := answer.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	cmd := c.client.B().Set().Key(c.prefix + key).Value(string(data)).Ex(ttl).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		// Cache writes are best effort; the answer is already on its way out.
		c.logger.Warn("answer_cache_write_failed", "key", key, "error", err)
	}
}

func (c *Cache) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		cmd := c.client.B().Scan().Cursor(cursor).Match(c.prefix + "*").Count(500).Build()
		entry, err := c.client.Do(ctx, cmd).AsScanEntry()
		if err != nil {
			return fmt.Errorf("scan answer keys: %w", err)
		}
		if len(entry.Elements) > 0 {
			del := c.client.B().Del().Key(entry.Elements...).Build()
			if err := c.client.Do(ctx, del).Error(); err != nil {
				return fmt.Errorf("delete answer keys: %w", err)
			}
		}
		cursor = entry.Cursor
		if cursor == 0 {
			c.hits.Store(0)
			c.misses.Store(0)
			return nil
		}
	}
}

func (c *Cache) Stats(ctx context.Context) domain.CacheStats {
	var size int
	var cursor uint64
	for {
		cmd := c.client.B().Scan().Cursor(cursor).Match(c.prefix + "*").Count(500).Build()
		entry, err := c.client.Do(ctx, cmd).AsScanEntry()
		if err != nil {
			c.logger.Warn("answer_cache_stats_failed", "error", err)
			break
		}
		size += len(entry.Elements)
		cursor = entry.Cursor
		if cursor == 0 {
			break
		}
	}
	return domain.CacheStats{Size: size, HitRate: c.hitRate()}
}

func (c *Cache) hitRate() float64 {
	hits := c.hits.Load()
	total := hits + c.misses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
