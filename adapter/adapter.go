// Package adapter puts dependency-injection engines behind one interface so
// the same behavioural probes can run against each of them.
package adapter

import (
	"fmt"
	"reflect"
	"sync"
)

// Adapter is the common surface of an engine. impl is a reflect.Type of a
// struct or a constructor function.
type Adapter interface {
	Name() string
	RegisterSingleton(service reflect.Type, impl any) error
	RegisterTransient(service reflect.Type, impl any) error
	RegisterInstance(service reflect.Type, instance any) error
	Resolve(service reflect.Type) (any, error)
	ResolveAll(service reflect.Type) ([]any, error)
}

// Factory creates a fresh, empty adapter.
type Factory func() Adapter

// Named pairs a factory with its registry name.
type Named struct {
	Name    string
	Factory Factory
}

// Registry holds adapter factories in registration order.
type Registry struct {
	factories map[string]Factory
	order     []string
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory under name.
func (r *Registry) Register(name string, f Factory) error {
	if name == "" {
		return fmt.Errorf("adapter name cannot be empty")
	}
	if f == nil {
		return fmt.Errorf("adapter %s: nil factory", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("adapter %s already registered", name)
	}
	r.factories[name] = f
	r.order = append(r.order, name)

	return nil
}

// Get returns the factory registered under name.
func (r *Registry) Get(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.factories[name]
	return f, ok
}

// Names returns the registered names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// All returns every factory in registration order.
func (r *Registry) All() []Named {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Named, len(r.order))
	for i, name := range r.order {
		out[i] = Named{Name: name, Factory: r.factories[name]}
	}
	return out
}

// Select returns the named factories in the given order. No names selects
// all of them.
func (r *Registry) Select(names []string) ([]Named, error) {
	if len(names) == 0 {
		return r.All(), nil
	}

	out := make([]Named, 0, len(names))
	for _, name := range names {
		f, ok := r.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown adapter %q (available: %v)", name, r.Names())
		}
		out = append(out, Named{Name: name, Factory: f})
	}
	return out, nil
}
