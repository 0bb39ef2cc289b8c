package registry

import (
	"fmt"
	"reflect"
	"runtime"
)

// Kind classifies how an implementation produces instances.
type Kind int

const (
	// KindInvalid marks an implementation the activator cannot use. The error
	// surfaces when the binding is resolved.
	KindInvalid Kind = iota
	// KindType is a concrete struct type built through a declared constructor
	// or zero-value allocation.
	KindType
	// KindConstructor is a Go constructor function whose parameters are
	// resolved from the container.
	KindConstructor
	// KindFactory is invoked directly with the resolver.
	KindFactory
	// KindInstance is a pre-built value returned as-is.
	KindInstance
)

// String returns the human-readable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindType:
		return "type"
	case KindConstructor:
		return "constructor"
	case KindFactory:
		return "factory"
	case KindInstance:
		return "instance"
	default:
		return "invalid"
	}
}

// Resolver is the view of the container handed to factories and used by the
// activator for dependency lookups.
type Resolver interface {
	Resolve(key ServiceKey) (any, error)
	ResolveAll(key ServiceKey) ([]any, error)
	CanResolve(key ServiceKey) bool
}

// Factory builds an instance directly. Nested lookups should go through r so
// they share the caller's construction stack. A lookup through the container
// itself still fails with a cyclic dependency error rather than blocking.
type Factory func(r Resolver) (any, error)

// Instance marks a pre-built value so that function values can be registered
// as instances rather than constructors.
type Instance struct {
	Value any
}

// Descriptor is the classified form of an implementation.
type Descriptor struct {
	Kind     Kind
	Type     reflect.Type
	Func     reflect.Value
	Factory  Factory
	Instance any
	Raw      any
}

// Describe classifies impl. It never fails: unusable values become
// KindInvalid.
func Describe(impl any) Descriptor {
	switch v := impl.(type) {
	case nil:
		return Descriptor{Kind: KindInvalid}
	case Descriptor:
		return v
	case Instance:
		return Descriptor{Kind: KindInstance, Instance: v.Value, Raw: impl}
	case Factory:
		if v == nil {
			return Descriptor{Kind: KindInvalid, Raw: impl}
		}
		return Descriptor{Kind: KindFactory, Factory: v, Raw: impl}
	case func(Resolver) (any, error):
		if v == nil {
			return Descriptor{Kind: KindInvalid, Raw: impl}
		}
		return Descriptor{Kind: KindFactory, Factory: Factory(v), Raw: impl}
	case reflect.Type:
		t := v
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if t.Kind() != reflect.Struct {
			return Descriptor{Kind: KindInvalid, Raw: impl}
		}
		return Descriptor{Kind: KindType, Type: t, Raw: impl}
	}

	rv := reflect.ValueOf(impl)
	if rv.Kind() == reflect.Func && !rv.IsNil() {
		return Descriptor{Kind: KindConstructor, Type: rv.Type(), Func: rv, Raw: impl}
	}
	return Descriptor{Kind: KindInvalid, Raw: impl}
}

// String describes the implementation for diagnostics.
func (d Descriptor) String() string {
	switch d.Kind {
	case KindType:
		return d.Type.String()
	case KindConstructor:
		return FuncName(d.Func)
	case KindFactory:
		return "factory"
	case KindInstance:
		return fmt.Sprintf("instance(%T)", d.Instance)
	default:
		return fmt.Sprintf("invalid(%T)", d.Raw)
	}
}

// FuncName returns the symbol name of a function value.
func FuncName(fn reflect.Value) string {
	if !fn.IsValid() || fn.Kind() != reflect.Func {
		return "<nil>"
	}
	if f := runtime.FuncForPC(fn.Pointer()); f != nil {
		return f.Name()
	}
	return fn.Type().String()
}
