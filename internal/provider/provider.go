// Package provider defines the Provider interface every data source
// implements, and a Registry that constructs them by type name.
package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/flowtoy/flowtoy/internal/result"
)

// Provider is a synchronous data source: it turns a rendered payload into
// a Result. Implementations should be cheap to construct (one per step
// invocation) and must never panic past Call's boundary — the Registry's
// caller recovers panics and converts them to result.FromException, but
// well-behaved providers return errors instead.
type Provider interface {
	Call(ctx context.Context, payload interface{}) (result.Result, error)
}

// Constructor builds a Provider from its rendered configuration map.
type Constructor func(config map[string]interface{}) (Provider, error)

var (
	pluginMu sync.RWMutex
	plugins  = map[string]Constructor{}
)

// RegisterPlugin adds a built-in provider constructor to the package-level
// plugin table. Called from each provider subpackage's init(), the same
// pattern database/sql uses for driver registration.
func RegisterPlugin(name string, ctor Constructor) {
	pluginMu.Lock()
	defer pluginMu.Unlock()
	if _, exists := plugins[name]; exists {
		panic(fmt.Sprintf("provider: RegisterPlugin called twice for %q", name))
	}
	plugins[name] = ctor
}

// ErrUnknownProvider is returned by Registry.Create when no constructor,
// runtime-registered or plugin, is registered for the requested type.
type ErrUnknownProvider struct {
	Type      string
	Available []string
}

func (e *ErrUnknownProvider) Error() string {
	return fmt.Sprintf("unknown provider type %q, available: %v", e.Type, e.Available)
}

// Registry resolves provider type names to constructors. Lookup order is
// first-hit-wins: constructors registered on this instance, then the
// package-level plugin table.
type Registry struct {
	mu    sync.RWMutex
	local map[string]Constructor
}

// NewRegistry returns an empty Registry backed by the built-in plugins.
func NewRegistry() *Registry {
	return &Registry{local: map[string]Constructor{}}
}

// RegisterFunc registers a constructor directly on this Registry instance,
// taking priority over any plugin registered under the same name.
func (r *Registry) RegisterFunc(name string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.local[name] = ctor
}

// Create constructs a Provider for the given type name and rendered
// configuration.
func (r *Registry) Create(typeName string, config map[string]interface{}) (Provider, error) {
	r.mu.RLock()
	ctor, ok := r.local[typeName]
	r.mu.RUnlock()

	if !ok {
		pluginMu.RLock()
		ctor, ok = plugins[typeName]
		pluginMu.RUnlock()
	}

	if !ok {
		return nil, &ErrUnknownProvider{Type: typeName, Available: r.availableNames()}
	}
	return ctor(config)
}

func (r *Registry) availableNames() []string {
	r.mu.RLock()
	pluginMu.RLock()
	defer r.mu.RUnlock()
	defer pluginMu.RUnlock()

	seen := map[string]struct{}{}
	for name := range r.local {
		seen[name] = struct{}{}
	}
	for name := range plugins {
		seen[name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
