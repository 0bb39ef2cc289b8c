// Package activator builds service instances from registry descriptors. It
// calls constructors and factories, selects among declared constructors of a
// concrete type, and injects properties after construction.
package activator

import (
	"fmt"
	"reflect"
	"strings"

	anvilerrors "github.com/xraph/anvil/errors"
	"github.com/xraph/anvil/internal/registry"
)

// PropertyMode selects which struct fields are injected after construction.
type PropertyMode int

const (
	// PropertiesExported injects every exported, settable, zero-valued field
	// whose key can be resolved. Only interface and pointer fields qualify
	// unless the field carries an inject tag.
	PropertiesExported PropertyMode = iota
	// PropertiesTagged injects only fields tagged `inject:"..."`.
	PropertiesTagged
	// PropertiesOff disables property injection.
	PropertiesOff
)

// String returns the configuration name of the mode.
func (m PropertyMode) String() string {
	switch m {
	case PropertiesExported:
		return "exported"
	case PropertiesTagged:
		return "tagged"
	case PropertiesOff:
		return "off"
	default:
		return "unknown"
	}
}

// ParsePropertyMode is the inverse of String.
func ParsePropertyMode(s string) (PropertyMode, bool) {
	switch strings.ToLower(s) {
	case "exported", "":
		return PropertiesExported, true
	case "tagged":
		return PropertiesTagged, true
	case "off", "none":
		return PropertiesOff, true
	default:
		return PropertiesExported, false
	}
}

// Activator constructs instances. It is safe for concurrent use.
type Activator struct {
	catalog *Catalog
	mode    PropertyMode
}

// New creates an activator with its own constructor catalog.
func New(mode PropertyMode) *Activator {
	return &Activator{
		catalog: NewCatalog(),
		mode:    mode,
	}
}

// Catalog returns the constructor catalog.
func (a *Activator) Catalog() *Catalog {
	return a.catalog
}

// Mode returns the property injection mode.
func (a *Activator) Mode() PropertyMode {
	return a.mode
}

// Construct builds an instance of key.Type from desc. Dependencies are
// resolved through r.
func (a *Activator) Construct(key registry.ServiceKey, desc registry.Descriptor, r registry.Resolver) (any, error) {
	var (
		instance any
		err      error
	)

	switch desc.Kind {
	case registry.KindInstance:
		return conform(key, desc.Instance)

	case registry.KindFactory:
		instance, err = callFactory(key, desc.Factory, r)
		if err != nil {
			return nil, err
		}
		return conform(key, instance)

	case registry.KindConstructor:
		var sig *signature
		sig, err = a.catalog.signature(desc.Func.Type())
		if err != nil {
			return nil, anvilerrors.ErrConstruction(key.String(), err)
		}
		instance, err = a.invoke(key, desc.Func, sig, r)

	case registry.KindType:
		instance, err = a.activate(key, desc.Type, r)

	default:
		return nil, anvilerrors.ErrConstruction(key.String(),
			fmt.Errorf("%w: %s", anvilerrors.ErrUnsupportedDescriptor, desc))
	}

	if err != nil {
		return nil, err
	}

	instance, err = a.injectProperties(key, instance, r)
	if err != nil {
		return nil, err
	}

	return conform(key, instance)
}

// activate builds the struct type t through the widest resolvable declared
// constructor, or allocates it when none is declared.
func (a *Activator) activate(key registry.ServiceKey, t reflect.Type, r registry.Resolver) (any, error) {
	ctors := a.catalog.constructorsFor(t)
	if len(ctors) == 0 {
		return reflect.New(t).Interface(), nil
	}

	chosen, err := selectConstructor(key, t, ctors, func(p reflect.Type) bool {
		return canResolveParam(p, r)
	})
	if err != nil {
		return nil, err
	}

	return a.invoke(key, chosen.fn, chosen.sig, r)
}

// selectConstructor picks the constructor with the most parameters that are
// all resolvable. A tie is broken by a single preferred constructor.
func selectConstructor(key registry.ServiceKey, t reflect.Type, ctors []*constructor, can func(reflect.Type) bool) (*constructor, error) {
	var (
		tied  []*constructor
		width = -1
	)

	for _, c := range ctors {
		if !allResolvable(c.sig, can) {
			continue
		}
		switch n := len(c.sig.params); {
		case n > width:
			width = n
			tied = []*constructor{c}
		case n == width:
			tied = append(tied, c)
		}
	}

	switch len(tied) {
	case 0:
		widest := ctors[0]
		for _, c := range ctors[1:] {
			if len(c.sig.params) > len(widest.sig.params) {
				widest = c
			}
		}
		for _, p := range widest.sig.params {
			if !can(p) {
				dep := registry.KeyOf(p, "")
				return nil, anvilerrors.ErrUnresolvableDependency(key.String(), dep.String(),
					anvilerrors.ErrNotRegistered(dep.String()))
			}
		}
		return widest, nil
	case 1:
		return tied[0], nil
	}

	var preferred []*constructor
	for _, c := range tied {
		if c.preferred {
			preferred = append(preferred, c)
		}
	}
	if len(preferred) == 1 {
		return preferred[0], nil
	}

	names := make([]string, len(tied))
	for i, c := range tied {
		names[i] = c.name
	}
	return nil, anvilerrors.ErrAmbiguousConstructor(t.String(), names)
}

func allResolvable(sig *signature, can func(reflect.Type) bool) bool {
	for _, p := range sig.params {
		if !can(p) {
			return false
		}
	}
	return true
}

// canResolveParam reports whether a parameter of type p can be supplied.
// Slices always can: an unbound slice resolves as a possibly empty collection.
func canResolveParam(p reflect.Type, r registry.Resolver) bool {
	if p.Kind() == reflect.Slice {
		return true
	}
	return r.CanResolve(registry.KeyOf(p, ""))
}

// invoke resolves the parameters of fn and calls it.
func (a *Activator) invoke(key registry.ServiceKey, fn reflect.Value, sig *signature, r registry.Resolver) (any, error) {
	args := make([]reflect.Value, len(sig.params))
	for i, p := range sig.params {
		arg, err := resolveParam(key, p, r)
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}

	return call(key, fn, sig, args)
}

// resolveParam resolves a single constructor parameter. A slice parameter with
// no binding of its own resolves as the collection of its element type.
func resolveParam(owner registry.ServiceKey, p reflect.Type, r registry.Resolver) (reflect.Value, error) {
	key := registry.KeyOf(p, "")

	if p.Kind() == reflect.Slice && !r.CanResolve(key) {
		elem := registry.KeyOf(p.Elem(), "")
		items, err := r.ResolveAll(elem)
		if err != nil {
			return reflect.Value{}, dependencyError(owner, elem, err)
		}

		out := reflect.MakeSlice(p, 0, len(items))
		for _, item := range items {
			v, err := valueOf(item, p.Elem())
			if err != nil {
				return reflect.Value{}, anvilerrors.ErrConstruction(owner.String(), err)
			}
			out = reflect.Append(out, v)
		}
		return out, nil
	}

	instance, err := r.Resolve(key)
	if err != nil {
		return reflect.Value{}, dependencyError(owner, key, err)
	}

	v, err := valueOf(instance, p)
	if err != nil {
		return reflect.Value{}, anvilerrors.ErrConstruction(owner.String(), err)
	}
	return v, nil
}

// dependencyError turns a missing dependency into UnresolvableDependency.
// Failures further down the chain already carry their own context.
func dependencyError(owner, dep registry.ServiceKey, err error) error {
	var e *anvilerrors.Error
	if anvilerrors.As(err, &e) && e.Code == anvilerrors.CodeNotRegistered {
		return anvilerrors.ErrUnresolvableDependency(owner.String(), dep.String(), err)
	}
	return err
}

// call invokes fn, converting panics and returned errors into construction
// errors.
func call(key registry.ServiceKey, fn reflect.Value, sig *signature, args []reflect.Value) (instance any, err error) {
	defer recoverConstruction(key, &err)

	var results []reflect.Value
	if sig.variadic {
		results = fn.CallSlice(args)
	} else {
		results = fn.Call(args)
	}

	if sig.returnsError && !results[1].IsNil() {
		return nil, anvilerrors.ErrConstruction(key.String(), results[1].Interface().(error))
	}

	return results[0].Interface(), nil
}

func callFactory(key registry.ServiceKey, factory registry.Factory, r registry.Resolver) (instance any, err error) {
	defer recoverConstruction(key, &err)

	instance, err = factory(r)
	if err != nil {
		return nil, anvilerrors.ErrConstruction(key.String(), err)
	}
	return instance, nil
}

func recoverConstruction(key registry.ServiceKey, err *error) {
	p := recover()
	if p == nil {
		return
	}

	cause, ok := p.(error)
	if ok {
		cause = fmt.Errorf("panic: %w", cause)
	} else {
		cause = fmt.Errorf("panic: %v", p)
	}
	*err = anvilerrors.ErrConstruction(key.String(), cause)
}

// conform converts instance to the service type of key. A *T result serves a
// T service and a T result serves a *T service.
func conform(key registry.ServiceKey, instance any) (any, error) {
	service := key.Type
	if instance == nil {
		if nilable(service) {
			return nil, nil
		}
		return nil, anvilerrors.ErrConstruction(key.String(),
			fmt.Errorf("%w: nil is not assignable to %s", anvilerrors.ErrTypeMismatch, service))
	}

	rv := reflect.ValueOf(instance)
	rt := rv.Type()

	switch {
	case rt.AssignableTo(service):
		return instance, nil
	case rt.Kind() == reflect.Pointer && !rv.IsNil() && rt.Elem().AssignableTo(service):
		return rv.Elem().Interface(), nil
	case service.Kind() == reflect.Pointer && rt.AssignableTo(service.Elem()):
		p := reflect.New(service.Elem())
		p.Elem().Set(rv)
		return p.Interface(), nil
	}

	return nil, anvilerrors.ErrConstruction(key.String(),
		fmt.Errorf("%w: %s is not assignable to %s", anvilerrors.ErrTypeMismatch, rt, service))
}

// valueOf wraps instance as a value of type t.
func valueOf(instance any, t reflect.Type) (reflect.Value, error) {
	if instance == nil {
		return reflect.Zero(t), nil
	}

	rv := reflect.ValueOf(instance)
	if !rv.Type().AssignableTo(t) {
		return reflect.Value{}, fmt.Errorf("%w: %s is not assignable to %s", anvilerrors.ErrTypeMismatch, rv.Type(), t)
	}
	return rv, nil
}

func nilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	default:
		return false
	}
}
