package registry

import (
	"reflect"
)

// ServiceKey identifies a service: its type plus an optional name.
type ServiceKey struct {
	Type reflect.Type
	Name string
}

// KeyOf builds a key for t.
func KeyOf(t reflect.Type, name string) ServiceKey {
	return ServiceKey{Type: t, Name: name}
}

// KeyFor builds a key for the static type T. Interface types are supported.
func KeyFor[T any](name string) ServiceKey {
	return ServiceKey{Type: reflect.TypeFor[T](), Name: name}
}

// IsZero reports whether the key has no type.
func (k ServiceKey) IsZero() bool {
	return k.Type == nil
}

// String renders "type" or "type[name]".
func (k ServiceKey) String() string {
	t := "<nil>"
	if k.Type != nil {
		t = k.Type.String()
	}
	if k.Name == "" {
		return t
	}
	return t + "[" + k.Name + "]"
}

// Lifetime controls instance reuse.
type Lifetime int

const (
	// Transient creates a new instance on every resolution.
	Transient Lifetime = iota
	// Singleton creates one instance per container.
	Singleton
	// Scoped creates one instance per scope.
	Scoped
)

// String returns the human-readable name of the lifetime.
func (l Lifetime) String() string {
	switch l {
	case Transient:
		return "transient"
	case Singleton:
		return "singleton"
	case Scoped:
		return "scoped"
	default:
		return "unknown"
	}
}

// ParseLifetime is the inverse of String.
func ParseLifetime(s string) (Lifetime, bool) {
	switch s {
	case "transient":
		return Transient, true
	case "singleton":
		return Singleton, true
	case "scoped":
		return Scoped, true
	default:
		return Transient, false
	}
}
