package anvil

import (
	"fmt"

	anvilerrors "github.com/xraph/anvil/errors"
	"github.com/xraph/anvil/internal/graph"
	"github.com/xraph/anvil/internal/registry"
)

// Validate checks every binding without constructing anything. It reports
// unusable implementations, dependency cycles and required dependencies that
// have no binding. Factories and instances are treated as leaves.
func (c *Container) Validate() error {
	g := graph.NewDependencyGraph()

	var errs []error
	for _, b := range c.registry.Bindings() {
		if b.Implementation.Kind == registry.KindInvalid {
			errs = append(errs, anvilerrors.ErrConstruction(b.Key.String(),
				fmt.Errorf("%w: %s", anvilerrors.ErrUnsupportedDescriptor, b.Implementation)))
			continue
		}

		deps, err := c.activator.Dependencies(b.Key, b.Implementation, c.CanResolve)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		edges := make([]graph.Edge, len(deps))
		for i, d := range deps {
			edges[i] = graph.Edge{Key: d.Key, Optional: d.Optional}
		}
		g.AddNode(b.Key, edges)
	}

	if _, err := g.TopologicalSort(); err != nil {
		errs = append(errs, err)
	}

	for _, m := range g.Missing() {
		if c.CanResolve(m.Dependency) {
			continue
		}
		errs = append(errs, anvilerrors.ErrUnresolvableDependency(m.Owner.String(), m.Dependency.String(),
			anvilerrors.ErrNotRegistered(m.Dependency.String())))
	}

	if len(errs) > 0 {
		c.logger.Debug("validation failed")
	}

	return anvilerrors.Join(errs...)
}
