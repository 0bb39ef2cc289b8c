package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	anvilerrors "github.com/xraph/anvil/errors"
	"github.com/xraph/anvil/internal/registry"
)

type (
	a struct{}
	b struct{}
	c struct{}
	d struct{}
)

var (
	keyA = registry.KeyFor[a]("")
	keyB = registry.KeyFor[b]("")
	keyC = registry.KeyFor[c]("")
	keyD = registry.KeyFor[d]("")
)

func deps(keys ...registry.ServiceKey) []Edge {
	edges := make([]Edge, len(keys))
	for i, k := range keys {
		edges[i] = Edge{Key: k}
	}
	return edges
}

func indexOf(slice []registry.ServiceKey, k registry.ServiceKey) int {
	for i, v := range slice {
		if v == k {
			return i
		}
	}
	return -1
}

func TestDependencyGraph_TopologicalSort_Simple(t *testing.T) {
	g := NewDependencyGraph()
	g.AddNode(keyA, nil)
	g.AddNode(keyB, deps(keyA))
	g.AddNode(keyC, deps(keyB))

	result, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []registry.ServiceKey{keyA, keyB, keyC}, result)
}

func TestDependencyGraph_TopologicalSort_Complex(t *testing.T) {
	g := NewDependencyGraph()
	g.AddNode(keyD, deps(keyB, keyC))
	g.AddNode(keyB, deps(keyA))
	g.AddNode(keyC, deps(keyA))
	g.AddNode(keyA, nil)

	result, err := g.TopologicalSort()
	require.NoError(t, err)

	assert.Less(t, indexOf(result, keyA), indexOf(result, keyB))
	assert.Less(t, indexOf(result, keyA), indexOf(result, keyC))
	assert.Less(t, indexOf(result, keyB), indexOf(result, keyD))
	assert.Less(t, indexOf(result, keyC), indexOf(result, keyD))
}

func TestDependencyGraph_TopologicalSort_CircularDependency(t *testing.T) {
	g := NewDependencyGraph()
	g.AddNode(keyC, nil)
	g.AddNode(keyA, deps(keyC, keyB))
	g.AddNode(keyB, deps(keyA))

	_, err := g.TopologicalSort()
	require.ErrorIs(t, err, anvilerrors.ErrCyclicDependencySentinel)
	assert.Equal(t, "cyclic dependency detected: graph.a -> graph.b -> graph.a", err.Error())
}

func TestDependencyGraph_TopologicalSort_SelfReference(t *testing.T) {
	g := NewDependencyGraph()
	g.AddNode(keyA, deps(keyA))

	_, err := g.TopologicalSort()
	assert.ErrorIs(t, err, anvilerrors.ErrCyclicDependencySentinel)
}

func TestDependencyGraph_OptionalEdgesStillFormCycles(t *testing.T) {
	g := NewDependencyGraph()
	g.AddNode(keyA, []Edge{{Key: keyB, Optional: true}})
	g.AddNode(keyB, deps(keyA))

	_, err := g.TopologicalSort()
	assert.True(t, anvilerrors.IsCyclicDependency(err))
}

func TestDependencyGraph_Missing(t *testing.T) {
	g := NewDependencyGraph()
	g.AddNode(keyA, []Edge{{Key: keyB}, {Key: keyC, Optional: true}})
	g.AddNode(keyD, deps(keyA))

	result, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []registry.ServiceKey{keyA, keyD}, result)

	assert.Equal(t, []Missing{{Owner: keyA, Dependency: keyB}}, g.Missing())
}

func TestDependencyGraph_MergesRepeatedKeys(t *testing.T) {
	g := NewDependencyGraph()
	g.AddNode(keyA, nil)
	g.AddNode(keyA, deps(keyB))

	assert.Len(t, g.Missing(), 1)
}

func TestDependencyGraph_TopologicalSort_Empty(t *testing.T) {
	g := NewDependencyGraph()

	result, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Empty(t, result)
}
