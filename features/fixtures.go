package features

import (
	"sync/atomic"
)

// TestService is the service interface the probes register and resolve.
type TestService interface {
	ID() int64
}

var componentSeq atomic.Int64

// IndependentComponent has no dependencies.
type IndependentComponent struct {
	id int64
}

// NewIndependentComponent returns a component with a unique ID.
func NewIndependentComponent() *IndependentComponent {
	return &IndependentComponent{id: componentSeq.Add(1)}
}

// ID returns the component identity. Zero-allocated components report 0.
func (c *IndependentComponent) ID() int64 {
	return c.id
}

// ComponentWithConstructorDependency receives its service through the
// constructor.
type ComponentWithConstructorDependency struct {
	Service TestService
}

// NewComponentWithConstructorDependency builds the component.
func NewComponentWithConstructorDependency(service TestService) *ComponentWithConstructorDependency {
	return &ComponentWithConstructorDependency{Service: service}
}

// ComponentWithPropertyDependency expects its service to be set after
// construction.
type ComponentWithPropertyDependency struct {
	Service TestService
}

// ComponentWithCollectionDependency receives every registered service.
type ComponentWithCollectionDependency struct {
	Services []TestService
}

// NewComponentWithCollectionDependency builds the component.
func NewComponentWithCollectionDependency(services []TestService) *ComponentWithCollectionDependency {
	return &ComponentWithCollectionDependency{Services: services}
}

// CyclicA and CyclicB depend on each other.
type CyclicA struct{ B *CyclicB }

// CyclicB depends on CyclicA.
type CyclicB struct{ A *CyclicA }

// NewCyclicA builds CyclicA.
func NewCyclicA(b *CyclicB) *CyclicA { return &CyclicA{B: b} }

// NewCyclicB builds CyclicB.
func NewCyclicB(a *CyclicA) *CyclicB { return &CyclicB{A: a} }
