// Package route is the registry of HTTP route plugins. Route packages
// register themselves from init(); the serve command mounts them in Order
// so the API surface is assembled without the command importing every
// handler package by hand.
package route

import (
	"sort"
	"sync"

	"github.com/gin-gonic/gin"
)

// RouterLoader mounts a plugin's routes on the gin engine.
type RouterLoader func(r *gin.Engine) error

// RouteType says which listener a plugin's routes belong to.
type RouteType int

const (
	// RouteTypeMain routes serve the chat API: conversations, groups,
	// users, and the websocket endpoint.
	RouteTypeMain RouteType = iota
	// RouteTypeManagement routes serve health, readiness, and Prometheus
	// metrics. They get their own listener when a management port is
	// configured, and fold into the main listener otherwise.
	RouteTypeManagement
)

// Plugin is one registered route package. Order fixes the mount sequence,
// which matters because gin resolves routes in registration order.
type Plugin struct {
	Order  int
	Type   RouteType
	Loader RouterLoader
}

var (
	plugins  []Plugin
	sortOnce sync.Once
)

// Register adds a route plugin. Called from init() in route packages.
func Register(p Plugin) {
	plugins = append(plugins, p)
}

func sorted() []Plugin {
	sortOnce.Do(func() {
		sort.Slice(plugins, func(i, j int) bool { return plugins[i].Order < plugins[j].Order })
	})
	return plugins
}

// MainRouteLoaders returns the RouteTypeMain loaders in mount order.
func MainRouteLoaders() []RouterLoader {
	var loaders []RouterLoader
	for _, p := range sorted() {
		if p.Type == RouteTypeMain {
			loaders = append(loaders, p.Loader)
		}
	}
	return loaders
}

// ManagementRouteLoaders returns the RouteTypeManagement loaders in mount order.
func ManagementRouteLoaders() []RouterLoader {
	var loaders []RouterLoader
	for _, p := range sorted() {
		if p.Type == RouteTypeManagement {
			loaders = append(loaders, p.Loader)
		}
	}
	return loaders
}
