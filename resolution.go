package anvil

import (
	anvilerrors "github.com/xraph/anvil/errors"
	"github.com/xraph/anvil/internal/lifetime"
	"github.com/xraph/anvil/internal/logger"
	"github.com/xraph/anvil/internal/registry"
)

// resolution tracks one top-level Resolve or ResolveAll call. It is the
// Resolver handed to the activator and to factories, so nested lookups share
// its construction stack. It is used by a single goroutine.
type resolution struct {
	c      *Container
	scope  *lifetime.Cache
	active map[ServiceKey]struct{}
	stack  []ServiceKey
}

func (c *Container) newResolution(scope *lifetime.Cache) *resolution {
	return &resolution{
		c:      c,
		scope:  scope,
		active: make(map[ServiceKey]struct{}),
	}
}

func (r *resolution) Resolve(key ServiceKey) (any, error) {
	b, ok := r.c.lookup(key)
	if !ok {
		return nil, anvilerrors.ErrNotRegistered(key.String())
	}
	return r.resolveBinding(b)
}

func (r *resolution) ResolveAll(key ServiceKey) ([]any, error) {
	bindings := r.c.registry.LookupAll(key)
	instances := make([]any, 0, len(bindings))

	for _, b := range bindings {
		instance, err := r.resolveBinding(b)
		if err != nil {
			return nil, err
		}
		instances = append(instances, instance)
	}

	return instances, nil
}

func (r *resolution) CanResolve(key ServiceKey) bool {
	return r.c.CanResolve(key)
}

// resolveBinding runs cycle detection, then lets the lifetime manager decide
// between a cached instance and a new construction.
func (r *resolution) resolveBinding(b *registry.Binding) (any, error) {
	if _, busy := r.active[b.Key]; busy {
		return nil, anvilerrors.ErrCyclicDependency(r.cyclePath(b.Key))
	}

	r.active[b.Key] = struct{}{}
	r.stack = append(r.stack, b.Key)
	defer func() {
		r.stack = r.stack[:len(r.stack)-1]
		delete(r.active, b.Key)
	}()

	if b.Implementation.Kind == registry.KindInstance {
		return r.c.activator.Construct(b.Key, b.Implementation, r)
	}

	// Singletons never see the caller's scope.
	if b.Lifetime == registry.Singleton && r.scope != nil {
		saved := r.scope
		r.scope = nil
		defer func() { r.scope = saved }()
	}

	slot := lifetime.Slot{ID: b.ID, Key: b.Key.String()}
	return r.c.lifetimes.GetOrCreate(b.Lifetime, r.scope, slot, func() (any, error) {
		instance, err := r.c.activator.Construct(b.Key, b.Implementation, r)
		if err != nil {
			return nil, err
		}

		r.c.metrics.Construction(b.Lifetime.String())
		r.c.logger.Debug("service constructed",
			logger.String("key", b.Key.String()),
			logger.String("lifetime", b.Lifetime.String()),
		)
		return instance, nil
	})
}

// cyclePath renders the stack from the first occurrence of key, closed by key.
func (r *resolution) cyclePath(key ServiceKey) []string {
	start := 0
	for i, k := range r.stack {
		if k == key {
			start = i
			break
		}
	}

	path := make([]string, 0, len(r.stack)-start+1)
	for _, k := range r.stack[start:] {
		path = append(path, k.String())
	}
	return append(path, key.String())
}
