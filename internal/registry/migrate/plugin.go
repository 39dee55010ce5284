// Package migrate is the registry of startup schema migrators. Store
// backends register a migrator from init(); the serve and migrate commands
// run them before any store is opened, so collection and index creation
// always precedes traffic.
package migrate

import (
	"context"
	"fmt"
	"sort"
)

// Migrator prepares one backend's schema. Implementations must be
// idempotent: both commands run them unconditionally.
type Migrator interface {
	Name() string
	Migrate(ctx context.Context) error
}

// Plugin is one registered migrator. Order fixes the execution sequence.
type Plugin struct {
	Order    int
	Migrator Migrator
}

var plugins []Plugin

// Register adds a migration plugin. Called from init() in store packages.
func Register(p Plugin) {
	plugins = append(plugins, p)
}

// RunAll executes every registered migrator in Order. The first failure
// aborts the run; later migrators do not execute.
func RunAll(ctx context.Context) error {
	sorted := make([]Plugin, len(plugins))
	copy(sorted, plugins)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	for _, p := range sorted {
		if err := p.Migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("migration %s failed: %w", p.Migrator.Name(), err)
		}
	}
	return nil
}
