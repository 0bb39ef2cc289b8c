package anvil

import (
	anvilerrors "github.com/xraph/anvil/errors"
	"github.com/xraph/anvil/internal/lifetime"
)

// Scope is a lifetime boundary for scoped services, typically one unit of
// work. Singletons and transients resolve through a scope exactly as through
// the container.
type Scope struct {
	id    string
	c     *Container
	cache *lifetime.Cache
}

// ID returns the scope identifier.
func (s *Scope) ID() string {
	return s.id
}

// Resolve resolves key within the scope.
func (s *Scope) Resolve(key ServiceKey) (any, error) {
	if s.c.lifetimes.Ended(s.cache) {
		return nil, anvilerrors.ErrScopeEnded(s.id)
	}
	return s.c.resolve(key, s.cache)
}

// ResolveAll resolves every binding of key within the scope.
func (s *Scope) ResolveAll(key ServiceKey) ([]any, error) {
	if s.c.lifetimes.Ended(s.cache) {
		return nil, anvilerrors.ErrScopeEnded(s.id)
	}
	return s.c.resolveAll(key, s.cache)
}

// CanResolve reports whether key has a binding.
func (s *Scope) CanResolve(key ServiceKey) bool {
	return s.c.CanResolve(key)
}

// End releases the scoped instances in reverse creation order. Ending a scope
// twice is a no-op.
func (s *Scope) End() error {
	return s.c.endScope(s)
}
