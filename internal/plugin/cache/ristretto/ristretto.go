package ristretto

import (
	"context"
	"time"

	"github.com/chatstack/chat-service/internal/config"
	"github.com/chatstack/chat-service/internal/model"
	"github.com/chatstack/chat-service/internal/registry/cache"
	dgristretto "github.com/dgraph-io/ristretto/v2"
)

const defaultTTL = 10 * time.Minute

func init() {
	cache.Register(cache.Plugin{
		Name:   "memory",
		Loader: load,
	})
}

func load(ctx context.Context) (cache.GroupCache, error) {
	ttl := defaultTTL
	if cfg := config.FromContext(ctx); cfg != nil && cfg.CacheGroupTTL > 0 {
		ttl = cfg.CacheGroupTTL
	}
	inner, err := dgristretto.NewCache(&dgristretto.Config[string, model.Group]{
		NumCounters: 10_000,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &ristrettoGroupCache{cache: inner, ttl: ttl}, nil
}

// ristrettoGroupCache keeps group lookups in process memory. Suited for
// single-instance deployments; multi-instance setups should use the redis
// cache so group updates invalidate everywhere.
type ristrettoGroupCache struct {
	cache *dgristretto.Cache[string, model.Group]
	ttl   time.Duration
}

func (c *ristrettoGroupCache) Available() bool {
	return true
}

func (c *ristrettoGroupCache) Get(_ context.Context, groupID string) (*model.Group, error) {
	group, ok := c.cache.Get(groupID)
	if !ok {
		return nil, nil
	}
	return &group, nil
}

func (c *ristrettoGroupCache) Set(_ context.Context, group model.Group) error {
	c.cache.SetWithTTL(group.ID, group, 1, c.ttl)
	return nil
}

func (c *ristrettoGroupCache) Remove(_ context.Context, groupID string) error {
	c.cache.Del(groupID)
	return nil
}

var _ cache.GroupCache = (*ristrettoGroupCache)(nil)
