package features

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/xraph/anvil/adapter"
)

var (
	testServiceType   = reflect.TypeFor[TestService]()
	componentType     = reflect.TypeFor[IndependentComponent]()
	componentPtrType  = reflect.TypeFor[*IndependentComponent]()
	errNotSame        = errors.New("expected the same instance")
	errSame           = errors.New("expected distinct instances")
	errNotInjected    = errors.New("dependency was not injected")
	errExpectedFailed = errors.New("expected resolution to fail")
)

// Group IDs of the default suite.
const (
	GroupBasic       = "basic"
	GroupCollections = "collections"
	GroupErrors      = "errors"
)

// DefaultSuite returns the built-in probe groups.
func DefaultSuite() []Group {
	return []Group{basicGroup(), collectionsGroup(), errorsGroup()}
}

func basicGroup() Group {
	return Group{
		ID:    GroupBasic,
		Name:  "Basic",
		Order: 1,
		Description: `
			Features every container is expected to have.
			A failure here usually means the adapter is wired incorrectly.`,
		Probes: []Probe{
			{
				ID:    "ResolvesJustRegisteredService",
				Name:  "Resolves a just-registered service",
				Order: 1,
				Run: func(a adapter.Adapter) error {
					if err := a.RegisterTransient(testServiceType, componentType); err != nil {
						return err
					}
					_, err := resolveAs[TestService](a)
					return err
				},
			},
			{
				ID:    "ResolvesServiceJustRegisteredAsItself",
				Name:  "Resolves a service registered as itself",
				Order: 2,
				Run: func(a adapter.Adapter) error {
					if err := a.RegisterTransient(componentPtrType, componentType); err != nil {
						return err
					}
					_, err := resolveAs[*IndependentComponent](a)
					return err
				},
			},
			{
				ID:    "SupportsSingletons",
				Name:  "Singletons",
				Order: 3,
				Run: func(a adapter.Adapter) error {
					if err := a.RegisterSingleton(testServiceType, componentType); err != nil {
						return err
					}
					first, second, err := resolveTwice(a)
					if err != nil {
						return err
					}
					if first != second {
						return errNotSame
					}
					return nil
				},
			},
			{
				ID:    "SupportsTransients",
				Name:  "Transients",
				Order: 4,
				Run: func(a adapter.Adapter) error {
					if err := a.RegisterTransient(testServiceType, componentType); err != nil {
						return err
					}
					first, second, err := resolveTwice(a)
					if err != nil {
						return err
					}
					if first == second {
						return errSame
					}
					return nil
				},
			},
			{
				ID:    "SupportsInstanceResolution",
				Name:  "Instance resolution",
				Order: 5,
				Run: func(a adapter.Adapter) error {
					instance := NewIndependentComponent()
					if err := a.RegisterInstance(testServiceType, instance); err != nil {
						return err
					}
					got, err := resolveAs[TestService](a)
					if err != nil {
						return err
					}
					if got != TestService(instance) {
						return errNotSame
					}
					return nil
				},
			},
			{
				ID:    "SupportsInstanceResolutionForDependency",
				Name:  "Instance resolution for a dependency",
				Order: 6,
				Run: func(a adapter.Adapter) error {
					instance := NewIndependentComponent()
					if err := a.RegisterInstance(testServiceType, instance); err != nil {
						return err
					}
					if err := registerConstructorComponent(a); err != nil {
						return err
					}
					got, err := resolveAs[*ComponentWithConstructorDependency](a)
					if err != nil {
						return err
					}
					if got.Service != TestService(instance) {
						return errNotSame
					}
					return nil
				},
			},
			{
				ID:    "SupportsConstructorDependency",
				Name:  "Constructor dependency",
				Order: 7,
				Run: func(a adapter.Adapter) error {
					if err := a.RegisterTransient(testServiceType, componentType); err != nil {
						return err
					}
					if err := registerConstructorComponent(a); err != nil {
						return err
					}
					got, err := resolveAs[*ComponentWithConstructorDependency](a)
					if err != nil {
						return err
					}
					if got.Service == nil {
						return errNotInjected
					}
					return nil
				},
			},
			{
				ID:    "SupportsPropertyDependency",
				Name:  "Property dependency",
				Order: 8,
				Description: `
					The component is built without a constructor and its
					exported service field is filled afterwards.`,
				Run: func(a adapter.Adapter) error {
					if err := a.RegisterTransient(testServiceType, componentType); err != nil {
						return err
					}
					err := a.RegisterTransient(
						reflect.TypeFor[*ComponentWithPropertyDependency](),
						reflect.TypeFor[ComponentWithPropertyDependency](),
					)
					if err != nil {
						return err
					}
					got, err := resolveAs[*ComponentWithPropertyDependency](a)
					if err != nil {
						return err
					}
					if got.Service == nil {
						return errNotInjected
					}
					return nil
				},
			},
			{
				ID:    "ResolvesUnregisteredConcreteType",
				Name:  "Unregistered concrete type",
				Order: 9,
				Description: `
					A concrete type nobody registered is built on demand.`,
				Run: func(a adapter.Adapter) error {
					got, err := resolveAs[*IndependentComponent](a)
					if err != nil {
						return err
					}
					if got == nil {
						return errNotInjected
					}
					return nil
				},
				SpecialCases: map[string]SpecialCase{
					adapter.NameAnvil: {
						Skip:    true,
						Comment: "The strict policy requires every key to be registered. anvil-permissive enables this.",
					},
				},
			},
		},
	}
}

func collectionsGroup() Group {
	return Group{
		ID:    GroupCollections,
		Name:  "Collections",
		Order: 2,
		Description: `
			Resolving every binding of a service, directly or as a
			constructor parameter.`,
		Probes: []Probe{
			{
				ID:    "ResolvesAllInRegistrationOrder",
				Name:  "Resolve all in registration order",
				Order: 1,
				Run: func(a adapter.Adapter) error {
					want := registerInstances(a, 3)
					if want == nil {
						return errors.New("registering instances failed")
					}
					items, err := a.ResolveAll(testServiceType)
					if err != nil {
						return err
					}
					return sameOrder(want, items)
				},
			},
			{
				ID:    "EmptyCollectionForUnregisteredService",
				Name:  "Empty collection for an unregistered service",
				Order: 2,
				Run: func(a adapter.Adapter) error {
					items, err := a.ResolveAll(testServiceType)
					if err != nil {
						return err
					}
					if len(items) != 0 {
						return fmt.Errorf("expected no items, got %d", len(items))
					}
					return nil
				},
			},
			{
				ID:    "SingletonSharedWithCollection",
				Name:  "Singleton shared between collection and single resolution",
				Order: 3,
				Run: func(a adapter.Adapter) error {
					if err := a.RegisterTransient(testServiceType, componentType); err != nil {
						return err
					}
					if err := a.RegisterSingleton(testServiceType, componentType); err != nil {
						return err
					}
					items, err := a.ResolveAll(testServiceType)
					if err != nil {
						return err
					}
					if len(items) != 2 {
						return fmt.Errorf("expected 2 items, got %d", len(items))
					}
					single, err := resolveAs[TestService](a)
					if err != nil {
						return err
					}
					if items[1] != any(single) {
						return errNotSame
					}
					return nil
				},
			},
			{
				ID:    "SupportsConstructorCollectionDependency",
				Name:  "Constructor collection dependency",
				Order: 4,
				Run: func(a adapter.Adapter) error {
					want := registerInstances(a, 2)
					if want == nil {
						return errors.New("registering instances failed")
					}
					err := a.RegisterTransient(
						reflect.TypeFor[*ComponentWithCollectionDependency](),
						NewComponentWithCollectionDependency,
					)
					if err != nil {
						return err
					}
					got, err := resolveAs[*ComponentWithCollectionDependency](a)
					if err != nil {
						return err
					}
					items := make([]any, len(got.Services))
					for i, s := range got.Services {
						items[i] = s
					}
					return sameOrder(want, items)
				},
			},
		},
	}
}

func errorsGroup() Group {
	return Group{
		ID:          GroupErrors,
		Name:        "Errors",
		Order:       3,
		Description: `Misconfigurations must surface as errors.`,
		Probes: []Probe{
			{
				ID:    "FailsOnUnregisteredService",
				Name:  "Unregistered service fails",
				Order: 1,
				Run: func(a adapter.Adapter) error {
					if _, err := a.Resolve(testServiceType); err == nil {
						return errExpectedFailed
					}
					return nil
				},
			},
			{
				ID:    "FailsOnCyclicDependency",
				Name:  "Cyclic dependency fails",
				Order: 2,
				Run: func(a adapter.Adapter) error {
					if err := a.RegisterTransient(reflect.TypeFor[*CyclicA](), NewCyclicA); err != nil {
						return err
					}
					if err := a.RegisterTransient(reflect.TypeFor[*CyclicB](), NewCyclicB); err != nil {
						return err
					}
					if _, err := a.Resolve(reflect.TypeFor[*CyclicA]()); err == nil {
						return errExpectedFailed
					}
					return nil
				},
				SpecialCases: map[string]SpecialCase{
					adapter.NameVessel: {
						Skip:    true,
						Comment: "vessel does not detect recursion. Resolving a cycle never returns.",
					},
				},
			},
		},
	}
}

func registerConstructorComponent(a adapter.Adapter) error {
	return a.RegisterTransient(
		reflect.TypeFor[*ComponentWithConstructorDependency](),
		NewComponentWithConstructorDependency,
	)
}

// registerInstances registers n fresh instances and returns them, or nil when
// a registration fails.
func registerInstances(a adapter.Adapter, n int) []any {
	out := make([]any, n)
	for i := range out {
		c := NewIndependentComponent()
		if err := a.RegisterInstance(testServiceType, c); err != nil {
			return nil
		}
		out[i] = c
	}
	return out
}

func sameOrder(want, got []any) error {
	if len(want) != len(got) {
		return fmt.Errorf("expected %d items, got %d", len(want), len(got))
	}
	for i := range want {
		if want[i] != got[i] {
			return fmt.Errorf("item %d: %w", i, errNotSame)
		}
	}
	return nil
}

func resolveTwice(a adapter.Adapter) (TestService, TestService, error) {
	first, err := resolveAs[TestService](a)
	if err != nil {
		return nil, nil, err
	}
	second, err := resolveAs[TestService](a)
	if err != nil {
		return nil, nil, err
	}
	return first, second, nil
}

func resolveAs[T any](a adapter.Adapter) (T, error) {
	var zero T

	v, err := a.Resolve(reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("resolved %T, expected %s", v, reflect.TypeFor[T]())
	}
	return out, nil
}
