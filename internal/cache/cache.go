// Package cache provides an optional Redis-backed cache for group metadata
// lookups made during admin checks.
//
// Graceful fallback: with no Redis configured (or Redis down) every lookup
// is simply a miss and the dispatcher goes to the transport, so the cache
// never blocks business logic.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/idlanyor/kachina-go/internal/logger"
	"github.com/idlanyor/kachina-go/internal/wa"
)

const keyGroupMeta = "gmeta:"

// Config holds Redis connection settings.
type Config struct {
	URL string        // redis://host:port, empty disables the cache
	TTL time.Duration // entry lifetime, default 1 minute
}

// Cache caches group metadata snapshots. The zero value and a nil *Cache
// are valid, always-miss caches.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// New connects to Redis if configured. A connection failure downgrades to
// an always-miss cache rather than failing startup.
func New(cfg Config, log *logger.Logger) *Cache {
	if log == nil {
		log = logger.Nop()
	}
	c := &Cache{ttl: cfg.TTL, log: log.WithPrefix("Cache")}
	if c.ttl <= 0 {
		c.ttl = time.Minute
	}
	if cfg.URL == "" {
		return c
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		c.log.Warnf("invalid redis url, cache disabled: %v", err)
		return c
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		c.log.Warnf("redis unreachable, cache disabled: %v", err)
		client.Close()
		return c
	}

	c.client = client
	c.log.Info("group metadata cache enabled")
	return c
}

// GetGroupMetadata returns a cached snapshot or nil on miss.
func (c *Cache) GetGroupMetadata(ctx context.Context, jid string) *wa.GroupMetadata {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := c.client.Get(ctx, keyGroupMeta+jid).Bytes()
	if err != nil {
		return nil
	}
	var meta wa.GroupMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil
	}
	return &meta
}

// SetGroupMetadata stores a snapshot. Failures are logged and ignored.
func (c *Cache) SetGroupMetadata(ctx context.Context, meta *wa.GroupMetadata) {
	if c == nil || c.client == nil || meta == nil {
		return
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, keyGroupMeta+meta.JID, data, c.ttl).Err(); err != nil {
		c.log.Debugf("cache set failed: %v", err)
	}
}

// Close releases the Redis connection.
func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
