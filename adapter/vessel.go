package adapter

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/xraph/vessel"

	anvilerrors "github.com/xraph/anvil/errors"
)

var errorType = reflect.TypeFor[error]()

// vesselAdapter maps typed registrations onto vessel's name-keyed services.
// Every registration becomes a uniquely named vessel service; the adapter
// remembers the names per type. Constructor parameters are resolved by type
// through the same mapping.
type vesselAdapter struct {
	v     vessel.Vessel
	names map[reflect.Type][]string
	seq   int
	mu    sync.RWMutex
}

// NewVessel wraps a new vessel container.
func NewVessel() Adapter {
	return &vesselAdapter{
		v:     vessel.New(),
		names: make(map[reflect.Type][]string),
	}
}

func (a *vesselAdapter) Name() string {
	return NameVessel
}

func (a *vesselAdapter) RegisterSingleton(service reflect.Type, impl any) error {
	factory, err := a.factoryFor(service, impl)
	if err != nil {
		return err
	}
	return a.register(service, factory, vessel.Singleton())
}

func (a *vesselAdapter) RegisterTransient(service reflect.Type, impl any) error {
	factory, err := a.factoryFor(service, impl)
	if err != nil {
		return err
	}
	return a.register(service, factory, vessel.Transient())
}

func (a *vesselAdapter) RegisterInstance(service reflect.Type, instance any) error {
	return a.register(service, func(vessel.Vessel) (any, error) {
		return instance, nil
	}, vessel.Singleton())
}

func (a *vesselAdapter) register(service reflect.Type, factory func(vessel.Vessel) (any, error), opt vessel.RegisterOption) error {
	a.mu.Lock()
	a.seq++
	name := fmt.Sprintf("%s#%d", service, a.seq)
	a.mu.Unlock()

	if err := a.v.Register(name, factory, opt); err != nil {
		return err
	}

	a.mu.Lock()
	a.names[service] = append(a.names[service], name)
	a.mu.Unlock()

	return nil
}

func (a *vesselAdapter) Resolve(service reflect.Type) (any, error) {
	names := a.namesOf(service)
	if len(names) == 0 {
		return nil, anvilerrors.ErrNotRegistered(service.String())
	}
	return a.v.Resolve(names[len(names)-1])
}

func (a *vesselAdapter) ResolveAll(service reflect.Type) ([]any, error) {
	names := a.namesOf(service)
	out := make([]any, 0, len(names))

	for _, name := range names {
		instance, err := a.v.Resolve(name)
		if err != nil {
			return nil, err
		}
		out = append(out, instance)
	}
	return out, nil
}

func (a *vesselAdapter) namesOf(service reflect.Type) []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.names[service]
}

// factoryFor turns impl into a vessel factory. reflect.Type implementations
// are zero-allocated; functions are called with parameters resolved by type.
func (a *vesselAdapter) factoryFor(service reflect.Type, impl any) (func(vessel.Vessel) (any, error), error) {
	if t, ok := impl.(reflect.Type); ok {
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if t.Kind() != reflect.Struct {
			return nil, fmt.Errorf("%w: %s", anvilerrors.ErrUnsupportedDescriptor, t)
		}
		return func(vessel.Vessel) (any, error) {
			p := reflect.New(t)
			if service.Kind() == reflect.Struct {
				return p.Elem().Interface(), nil
			}
			return p.Interface(), nil
		}, nil
	}

	fn := reflect.ValueOf(impl)
	if fn.Kind() != reflect.Func || fn.IsNil() {
		return nil, fmt.Errorf("%w: %T", anvilerrors.ErrUnsupportedDescriptor, impl)
	}
	ft := fn.Type()
	if ft.NumOut() == 0 || ft.NumOut() > 2 || (ft.NumOut() == 2 && ft.Out(1) != errorType) {
		return nil, fmt.Errorf("%w: %s must return (T) or (T, error)", anvilerrors.ErrUnsupportedDescriptor, ft)
	}

	return func(vessel.Vessel) (any, error) {
		args := make([]reflect.Value, ft.NumIn())
		for i := range args {
			arg, err := a.resolveParam(ft.In(i))
			if err != nil {
				return nil, err
			}
			args[i] = arg
		}

		results := fn.Call(args)
		if ft.NumOut() == 2 && !results[1].IsNil() {
			return nil, results[1].Interface().(error)
		}
		return results[0].Interface(), nil
	}, nil
}

func (a *vesselAdapter) resolveParam(t reflect.Type) (reflect.Value, error) {
	if t.Kind() == reflect.Slice && len(a.namesOf(t)) == 0 {
		items, err := a.ResolveAll(t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		out := reflect.MakeSlice(t, 0, len(items))
		for _, item := range items {
			out = reflect.Append(out, reflect.ValueOf(item))
		}
		return out, nil
	}

	instance, err := a.Resolve(t)
	if err != nil {
		return reflect.Value{}, err
	}
	if instance == nil {
		return reflect.Zero(t), nil
	}

	v := reflect.ValueOf(instance)
	if !v.Type().AssignableTo(t) {
		return reflect.Value{}, fmt.Errorf("%w: %s is not assignable to %s", anvilerrors.ErrTypeMismatch, v.Type(), t)
	}
	return v, nil
}
