package plugin

import (
	"sort"
	"sync"

	"github.com/idlanyor/kachina-go/internal/logger"
)

// Registry holds loaded plugins, indexed by name and by every alias.
// A colliding alias is taken over by the last-loaded plugin.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]*Plugin
	aliases map[string]*Plugin
	loaded  bool
	log     *logger.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{
		plugins: make(map[string]*Plugin),
		aliases: make(map[string]*Plugin),
		log:     log.WithPrefix("Plugins"),
	}
}

// Load validates a Spec and registers the resulting plugin. Validation
// failures are logged and yield nil; they never propagate to the caller.
func (r *Registry) Load(spec Spec) *Plugin {
	return r.load(spec, "")
}

func (r *Registry) load(spec Spec, fallbackName string) *Plugin {
	p, err := Normalize(spec, fallbackName)
	if err != nil {
		r.log.Errorf("skipping plugin: %v", err)
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.plugins[p.Name]; ok {
		for _, alias := range prev.Aliases {
			if r.aliases[alias] == prev {
				delete(r.aliases, alias)
			}
		}
	}
	r.plugins[p.Name] = p
	for _, alias := range p.Aliases {
		r.aliases[alias] = p
	}
	return p
}

// Reload removes a plugin and all its aliases from the registry. It does
// not load anything back; callers re-Load explicitly. Returns whether the
// plugin was present.
func (r *Registry) Reload(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.plugins[name]
	if !ok {
		return false
	}
	for _, alias := range p.Aliases {
		if r.aliases[alias] == p {
			delete(r.aliases, alias)
		}
	}
	delete(r.plugins, name)
	return true
}

// Get returns the plugin registered under name, or nil.
func (r *Registry) Get(name string) *Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.plugins[name]
}

// Resolve returns the plugin owning an alias, or nil. Empty aliases never
// match.
func (r *Registry) Resolve(alias string) *Plugin {
	if alias == "" {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.aliases[alias]
}

// List returns all registered plugins sorted by name.
func (r *Registry) List() []*Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Plugin, 0, len(r.plugins))
	for _, p := range r.plugins {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered plugins.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// Loaded reports whether at least one load pass has completed. The event
// bridge only auto-dispatches once this is true.
func (r *Registry) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// MarkLoaded records that a load pass has completed.
func (r *Registry) MarkLoaded() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded = true
}
