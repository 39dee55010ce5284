package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chatstack/chat-service/internal/config"
	"github.com/chatstack/chat-service/internal/model"
	registrycache "github.com/chatstack/chat-service/internal/registry/cache"
	goredis "github.com/redis/go-redis/v9"
)

const defaultTTL = 10 * time.Minute

func init() {
	registrycache.Register(registrycache.Plugin{
		Name:   "redis",
		Loader: load,
	})
}

func load(ctx context.Context) (registrycache.GroupCache, error) {
	cfg := config.FromContext(ctx)
	if cfg == nil || cfg.RedisURL == "" {
		return nil, fmt.Errorf("redis cache: CHAT_SERVICE_REDIS_URL is required")
	}
	ttl := cfg.CacheGroupTTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return LoadFromURLWithTTL(ctx, cfg.RedisURL, ttl)
}

// LoadFromURL creates a GroupCache from a Redis-compatible URL.
func LoadFromURL(ctx context.Context, redisURL string) (registrycache.GroupCache, error) {
	return LoadFromURLWithTTL(ctx, redisURL, defaultTTL)
}

// LoadFromURLWithTTL creates a cache with an explicit group-entry TTL.
func LoadFromURLWithTTL(ctx context.Context, redisURL string, ttl time.Duration) (registrycache.GroupCache, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis cache: invalid URL: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis cache: ping failed: %w", err)
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &redisGroupCache{client: client, ttl: ttl}, nil
}

type redisGroupCache struct {
	client *goredis.Client
	ttl    time.Duration
}

func groupKey(groupID string) string {
	return "chat-group:" + groupID
}

func (c *redisGroupCache) Available() bool {
	return true
}

func (c *redisGroupCache) Get(ctx context.Context, groupID string) (*model.Group, error) {
	data, err := c.client.Get(ctx, groupKey(groupID)).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var group model.Group
	if err := json.Unmarshal(data, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

func (c *redisGroupCache) Set(ctx context.Context, group model.Group) error {
	data, err := json.Marshal(group)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, groupKey(group.ID), data, c.ttl).Err()
}

func (c *redisGroupCache) Remove(ctx context.Context, groupID string) error {
	return c.client.Del(ctx, groupKey(groupID)).Err()
}

var _ registrycache.GroupCache = (*redisGroupCache)(nil)
