// Package graph checks a set of bindings statically for cycles and missing
// dependencies.
package graph

import (
	anvilerrors "github.com/xraph/anvil/errors"
	"github.com/xraph/anvil/internal/registry"
)

// Edge is a dependency of a node.
type Edge struct {
	Key      registry.ServiceKey
	Optional bool
}

// Missing describes a required dependency that has no node.
type Missing struct {
	Owner      registry.ServiceKey
	Dependency registry.ServiceKey
}

// DependencyGraph manages service dependencies.
type DependencyGraph struct {
	nodes map[registry.ServiceKey]*node
	order []registry.ServiceKey // Preserve registration order
}

type node struct {
	key   registry.ServiceKey
	edges []Edge
}

// NewDependencyGraph creates a new dependency graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes: make(map[registry.ServiceKey]*node),
		order: make([]registry.ServiceKey, 0),
	}
}

// AddNode adds a node with its dependencies. Adding a key twice merges the
// edges, so every binding of a key contributes.
func (g *DependencyGraph) AddNode(key registry.ServiceKey, edges []Edge) {
	if n, ok := g.nodes[key]; ok {
		n.edges = append(n.edges, edges...)
		return
	}

	g.nodes[key] = &node{
		key:   key,
		edges: edges,
	}
	g.order = append(g.order, key)
}

// Has reports whether key is a node.
func (g *DependencyGraph) Has(key registry.ServiceKey) bool {
	_, ok := g.nodes[key]
	return ok
}

// Missing lists required edges to keys that are not nodes, in registration
// order.
func (g *DependencyGraph) Missing() []Missing {
	var out []Missing
	for _, key := range g.order {
		for _, e := range g.nodes[key].edges {
			if !e.Optional && !g.Has(e.Key) {
				out = append(out, Missing{Owner: key, Dependency: e.Key})
			}
		}
	}
	return out
}

// TopologicalSort returns nodes in dependency order.
// Nodes without dependencies maintain their registration order (FIFO).
// Returns a CyclicDependency error carrying the cycle path.
func (g *DependencyGraph) TopologicalSort() ([]registry.ServiceKey, error) {
	visited := make(map[registry.ServiceKey]bool)
	visiting := make(map[registry.ServiceKey]bool)
	result := make([]registry.ServiceKey, 0, len(g.nodes))
	var stack []registry.ServiceKey

	for _, key := range g.order {
		if err := g.visit(key, visited, visiting, &stack, &result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// visit performs DFS traversal.
func (g *DependencyGraph) visit(key registry.ServiceKey, visited, visiting map[registry.ServiceKey]bool, stack, result *[]registry.ServiceKey) error {
	if visited[key] {
		return nil
	}

	if visiting[key] {
		return anvilerrors.ErrCyclicDependency(cyclePath(*stack, key))
	}

	n := g.nodes[key]
	if n == nil {
		// Missing dependencies are reported by Missing.
		return nil
	}

	visiting[key] = true
	*stack = append(*stack, key)

	for _, e := range n.edges {
		if err := g.visit(e.Key, visited, visiting, stack, result); err != nil {
			return err
		}
	}

	*stack = (*stack)[:len(*stack)-1]
	visiting[key] = false
	visited[key] = true
	*result = append(*result, key)

	return nil
}

// cyclePath renders the stack from the first occurrence of key, closed by key.
func cyclePath(stack []registry.ServiceKey, key registry.ServiceKey) []string {
	start := 0
	for i, k := range stack {
		if k == key {
			start = i
			break
		}
	}

	path := make([]string, 0, len(stack)-start+1)
	for _, k := range stack[start:] {
		path = append(path, k.String())
	}
	return append(path, key.String())
}
