// Package registry collects named test groups. A group is a function that
// registers suites into an Environment; binaries export groups at init time
// and import the selected ones before a run.
package registry

import (
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/log"

	"github.com/fossillogic/fossil-test/types"
)

// Group registers the suites of one test group
type Group func(env *types.Environment)

// Registry manages test groups
type Registry struct {
	log    log.Logger
	groups map[string]Group
	order  []string
	mu     sync.RWMutex
}

// Config contains registry configuration
type Config struct {
	Log log.Logger
}

// NewRegistry creates a new registry instance
func NewRegistry(cfg Config) *Registry {
	if cfg.Log == nil {
		cfg.Log = log.New()
	}
	return &Registry{
		log:    cfg.Log,
		groups: make(map[string]Group),
	}
}

// Export adds a group. Exporting the same name twice is an error.
func (r *Registry) Export(name string, group Group) error {
	if name == "" {
		return fmt.Errorf("group name is required")
	}
	if group == nil {
		return fmt.Errorf("group %q has no register function", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[name]; ok {
		return fmt.Errorf("group %q already exported", name)
	}
	r.groups[name] = group
	r.order = append(r.order, name)
	return nil
}

// Names returns the exported group names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := slices.Clone(r.order)
	sort.Strings(names)
	return names
}

// Import registers the named groups into env in the given order. A name
// given more than once is imported once, at its first position. With no
// names every group is imported in export order.
func (r *Registry) Import(env *types.Environment, names ...string) error {
	r.mu.RLock()
	if len(names) == 0 {
		names = slices.Clone(r.order)
	}
	picked := make([]string, 0, len(names))
	selected := make([]Group, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		group, ok := r.groups[name]
		if !ok {
			r.mu.RUnlock()
			return fmt.Errorf("unknown test group %q", name)
		}
		seen[name] = struct{}{}
		picked = append(picked, name)
		selected = append(selected, group)
	}
	r.mu.RUnlock()

	for i, group := range selected {
		before := len(env.Suites())
		group(env)
		r.log.Debug("Imported test group", "group", picked[i], "suites", len(env.Suites())-before)
	}
	return nil
}

var defaultRegistry = NewRegistry(Config{Log: log.Root()})

// Default returns the process wide registry used by Export
func Default() *Registry {
	return defaultRegistry
}

// Export adds a group to the default registry. It panics on a duplicate name,
// which makes it safe to call from init functions only once per group.
func Export(name string, group Group) {
	if err := defaultRegistry.Export(name, group); err != nil {
		panic(err)
	}
}
