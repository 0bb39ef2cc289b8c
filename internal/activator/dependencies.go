package activator

import (
	"reflect"

	"github.com/xraph/anvil/internal/registry"
)

// Dependency is a static edge from a binding to a key it needs.
type Dependency struct {
	Key registry.ServiceKey
	// Optional edges never fail validation when missing: collections and
	// properties.
	Optional bool
}

// Dependencies lists what constructing desc would resolve, without calling
// anything. can reports whether a key has a binding. Factories and instances
// are opaque and have no dependencies.
func (a *Activator) Dependencies(key registry.ServiceKey, desc registry.Descriptor, can func(registry.ServiceKey) bool) ([]Dependency, error) {
	var (
		deps   []Dependency
		target reflect.Type
	)

	switch desc.Kind {
	case registry.KindConstructor:
		sig, err := a.catalog.signature(desc.Func.Type())
		if err != nil {
			return nil, err
		}
		deps = paramDependencies(sig, can)
		target = sig.out

	case registry.KindType:
		target = desc.Type
		if ctors := a.catalog.constructorsFor(desc.Type); len(ctors) > 0 {
			chosen, err := selectConstructor(key, desc.Type, ctors, func(p reflect.Type) bool {
				return p.Kind() == reflect.Slice || can(registry.KeyOf(p, ""))
			})
			if err != nil {
				return nil, err
			}
			deps = paramDependencies(chosen.sig, can)
		}

	default:
		return nil, nil
	}

	if a.mode == PropertiesOff {
		return deps, nil
	}
	if target.Kind() == reflect.Pointer {
		target = target.Elem()
	}
	if target.Kind() != reflect.Struct {
		return deps, nil
	}
	for _, f := range a.catalog.fieldsOf(target) {
		if f.tagged {
			deps = append(deps, Dependency{Key: f.key, Optional: true})
		}
	}

	return deps, nil
}

func paramDependencies(sig *signature, can func(registry.ServiceKey) bool) []Dependency {
	deps := make([]Dependency, 0, len(sig.params))
	for _, p := range sig.params {
		key := registry.KeyOf(p, "")
		if p.Kind() == reflect.Slice && !can(key) {
			deps = append(deps, Dependency{Key: registry.KeyOf(p.Elem(), ""), Optional: true})
			continue
		}
		deps = append(deps, Dependency{Key: key})
	}
	return deps
}
