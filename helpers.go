package anvil

import (
	"fmt"
	"reflect"

	"github.com/xraph/anvil/internal/registry"
)

// TypeOf returns the reflect.Type of T. Interface types are supported.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

// Key returns the unnamed key of T.
func Key[T any]() ServiceKey {
	return registry.KeyFor[T]("")
}

// NamedKey returns the key of T under name.
func NamedKey[T any](name string) ServiceKey {
	return registry.KeyFor[T](name)
}

// RegisterSingleton is a convenience wrapper
func RegisterSingleton[S any](c *Container, impl any, opts ...RegisterOption) error {
	return c.RegisterSingleton(TypeOf[S](), impl, opts...)
}

// RegisterTransient is a convenience wrapper
func RegisterTransient[S any](c *Container, impl any, opts ...RegisterOption) error {
	return c.RegisterTransient(TypeOf[S](), impl, opts...)
}

// RegisterScoped is a convenience wrapper for scoped services
func RegisterScoped[S any](c *Container, impl any, opts ...RegisterOption) error {
	return c.RegisterScoped(TypeOf[S](), impl, opts...)
}

// RegisterInstance registers a pre-built instance
func RegisterInstance[S any](c *Container, instance S, opts ...RegisterOption) error {
	return c.RegisterInstance(TypeOf[S](), instance, opts...)
}

// RegisterFactory registers a typed factory with the given lifetime.
func RegisterFactory[S any](c *Container, lifetime Lifetime, factory func(Resolver) (S, error), opts ...RegisterOption) error {
	return c.RegisterFactory(TypeOf[S](), lifetime, func(r Resolver) (any, error) {
		return factory(r)
	}, opts...)
}

// Resolve with type safety
func Resolve[T any](r Resolver) (T, error) {
	return resolveKey[T](r, Key[T]())
}

// ResolveNamed resolves the named key of T.
func ResolveNamed[T any](r Resolver, name string) (T, error) {
	return resolveKey[T](r, NamedKey[T](name))
}

// ResolveAll resolves every binding of T in registration order.
func ResolveAll[T any](r Resolver) ([]T, error) {
	instances, err := r.ResolveAll(Key[T]())
	if err != nil {
		return nil, err
	}

	typed := make([]T, len(instances))
	for i, instance := range instances {
		if instance == nil {
			continue
		}
		v, ok := instance.(T)
		if !ok {
			return nil, fmt.Errorf("%w: %T is not %s", ErrTypeMismatch, instance, TypeOf[T]())
		}
		typed[i] = v
	}
	return typed, nil
}

// MustResolve resolves or panics - use only during startup
func MustResolve[T any](r Resolver) T {
	instance, err := Resolve[T](r)
	if err != nil {
		panic(fmt.Sprintf("failed to resolve %s: %v", TypeOf[T](), err))
	}
	return instance
}

func resolveKey[T any](r Resolver, key ServiceKey) (T, error) {
	var zero T
	instance, err := r.Resolve(key)
	if err != nil {
		return zero, err
	}
	if instance == nil {
		return zero, nil
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("%w: service %s is not of type %T", ErrTypeMismatch, key, instance)
	}
	return typed, nil
}
