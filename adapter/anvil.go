package adapter

import (
	"reflect"

	"github.com/xraph/anvil"
)

// Names of the built-in adapters.
const (
	NameAnvil           = "anvil"
	NameAnvilPermissive = "anvil-permissive"
	NameVessel          = "vessel"
)

type anvilAdapter struct {
	name string
	c    *anvil.Container
}

// NewAnvil wraps a new anvil container built with opts.
func NewAnvil(opts ...anvil.Option) Adapter {
	return newAnvil(NameAnvil, opts)
}

// NewAnvilPermissive wraps a new anvil container that auto-resolves
// unregistered concrete types.
func NewAnvilPermissive(opts ...anvil.Option) Adapter {
	opts = append(opts, anvil.WithResolutionPolicy(anvil.ResolutionPermissive))
	return newAnvil(NameAnvilPermissive, opts)
}

func newAnvil(name string, opts []anvil.Option) *anvilAdapter {
	return &anvilAdapter{
		name: name,
		c:    anvil.New(opts...),
	}
}

func (a *anvilAdapter) Name() string {
	return a.name
}

func (a *anvilAdapter) RegisterSingleton(service reflect.Type, impl any) error {
	return a.c.RegisterSingleton(service, impl)
}

func (a *anvilAdapter) RegisterTransient(service reflect.Type, impl any) error {
	return a.c.RegisterTransient(service, impl)
}

func (a *anvilAdapter) RegisterInstance(service reflect.Type, instance any) error {
	return a.c.RegisterInstance(service, instance)
}

func (a *anvilAdapter) Resolve(service reflect.Type) (any, error) {
	return a.c.Resolve(anvil.ServiceKey{Type: service})
}

func (a *anvilAdapter) ResolveAll(service reflect.Type) ([]any, error) {
	return a.c.ResolveAll(anvil.ServiceKey{Type: service})
}

// Close disposes the underlying container.
func (a *anvilAdapter) Close() error {
	return a.c.Dispose()
}

// Default returns a registry holding the built-in adapters. opts are applied
// to every anvil container.
func Default(opts ...anvil.Option) *Registry {
	r := NewRegistry()
	_ = r.Register(NameAnvil, func() Adapter { return NewAnvil(opts...) })
	_ = r.Register(NameAnvilPermissive, func() Adapter { return NewAnvilPermissive(opts...) })
	_ = r.Register(NameVessel, NewVessel)
	return r
}
