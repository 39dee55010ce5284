package cache

import (
	"context"
	"fmt"

	"github.com/chatstack/chat-service/internal/model"
)

type groupCacheKey struct{}

// WithGroupCacheContext returns a new context carrying the given GroupCache.
func WithGroupCacheContext(ctx context.Context, c GroupCache) context.Context {
	return context.WithValue(ctx, groupCacheKey{}, c)
}

// GroupCacheFromContext retrieves the GroupCache from the context.
// Returns nil if none was set.
func GroupCacheFromContext(ctx context.Context) GroupCache {
	c, _ := ctx.Value(groupCacheKey{}).(GroupCache)
	return c
}

// GroupCache caches group membership lookups made during target resolution.
// A nil *model.Group with a nil error means the cache has no entry.
type GroupCache interface {
	Available() bool
	Get(ctx context.Context, groupID string) (*model.Group, error)
	Set(ctx context.Context, group model.Group) error
	Remove(ctx context.Context, groupID string) error
}

// Loader creates a cache from config.
type Loader func(ctx context.Context) (GroupCache, error)

// Plugin represents a cache plugin.
type Plugin struct {
	Name   string
	Loader Loader
}

var plugins []Plugin

// Register adds a cache plugin.
func Register(p Plugin) {
	plugins = append(plugins, p)
}

// Names returns all registered cache plugin names.
func Names() []string {
	names := make([]string, len(plugins))
	for i, p := range plugins {
		names[i] = p.Name
	}
	return names
}

// Select returns the loader for the named cache plugin.
func Select(name string) (Loader, error) {
	for _, p := range plugins {
		if p.Name == name {
			return p.Loader, nil
		}
	}
	return nil, fmt.Errorf("unknown cache %q; valid: %v", name, Names())
}
