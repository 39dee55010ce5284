package noop

import (
	"context"

	"github.com/chatstack/chat-service/internal/model"
	"github.com/chatstack/chat-service/internal/registry/cache"
)

func init() {
	cache.Register(cache.Plugin{
		Name: "none",
		Loader: func(ctx context.Context) (cache.GroupCache, error) {
			return &noopGroupCache{}, nil
		},
	})
}

type noopGroupCache struct{}

func (n *noopGroupCache) Available() bool { return false }
func (n *noopGroupCache) Get(_ context.Context, _ string) (*model.Group, error) {
	return nil, nil
}
func (n *noopGroupCache) Set(_ context.Context, _ model.Group) error { return nil }
func (n *noopGroupCache) Remove(_ context.Context, _ string) error   { return nil }

var _ cache.GroupCache = (*noopGroupCache)(nil)
