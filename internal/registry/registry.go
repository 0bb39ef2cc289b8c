package registry

import (
	"sync"
)

// Binding maps a key to an implementation and a lifetime. Bindings are
// immutable once registered.
type Binding struct {
	ID             uint64
	Key            ServiceKey
	Implementation Descriptor
	Lifetime       Lifetime
}

// Registry stores bindings per key in registration order. The last binding of
// a key is its default.
type Registry struct {
	bindings map[ServiceKey][]*Binding
	order    []ServiceKey
	all      []*Binding
	nextID   uint64
	mu       sync.RWMutex
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		bindings: make(map[ServiceKey][]*Binding),
	}
}

// Register appends a binding for key. The implementation is not validated.
func (r *Registry) Register(key ServiceKey, impl Descriptor, lifetime Lifetime) *Binding {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	b := &Binding{
		ID:             r.nextID,
		Key:            key,
		Implementation: impl,
		Lifetime:       lifetime,
	}

	if _, exists := r.bindings[key]; !exists {
		r.order = append(r.order, key)
	}
	r.bindings[key] = append(r.bindings[key], b)
	r.all = append(r.all, b)

	return b
}

// LookupDefault returns the last binding registered for key.
func (r *Registry) LookupDefault(key ServiceKey) (*Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.bindings[key]
	if len(list) == 0 {
		return nil, false
	}
	return list[len(list)-1], true
}

// LookupAll returns every binding for key in registration order.
func (r *Registry) LookupAll(key ServiceKey) []*Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.bindings[key]
	out := make([]*Binding, len(list))
	copy(out, list)
	return out
}

// Has reports whether key has at least one binding.
func (r *Registry) Has(key ServiceKey) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bindings[key]) > 0
}

// Keys returns registered keys in order of first registration.
func (r *Registry) Keys() []ServiceKey {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ServiceKey, len(r.order))
	copy(out, r.order)
	return out
}

// Bindings returns every binding in registration order.
func (r *Registry) Bindings() []*Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Binding, len(r.all))
	copy(out, r.all)
	return out
}

// Len returns the number of bindings.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.all)
}
