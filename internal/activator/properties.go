package activator

import (
	"reflect"

	"github.com/xraph/anvil/internal/registry"
)

// injectProperties fills the injectable fields of instance. A struct value is
// copied so the returned instance carries the injected fields.
func (a *Activator) injectProperties(key registry.ServiceKey, instance any, r registry.Resolver) (any, error) {
	if a.mode == PropertiesOff || instance == nil {
		return instance, nil
	}

	rv := reflect.ValueOf(instance)

	var target reflect.Value
	switch {
	case rv.Kind() == reflect.Pointer && rv.Type().Elem().Kind() == reflect.Struct:
		if rv.IsNil() {
			return instance, nil
		}
		target = rv.Elem()
	case rv.Kind() == reflect.Struct:
		p := reflect.New(rv.Type())
		p.Elem().Set(rv)
		target = p.Elem()
	default:
		return instance, nil
	}

	for _, f := range a.catalog.fieldsOf(target.Type()) {
		if a.mode == PropertiesTagged && !f.tagged {
			continue
		}

		fv := target.FieldByIndex(f.index)
		if !fv.CanSet() || !fv.IsZero() {
			continue
		}
		if !r.CanResolve(f.key) {
			continue
		}

		dep, err := r.Resolve(f.key)
		if err != nil {
			if f.tagged {
				return nil, err
			}
			continue
		}

		v, err := valueOf(dep, fv.Type())
		if err != nil {
			if f.tagged {
				return nil, err
			}
			continue
		}
		fv.Set(v)
	}

	if rv.Kind() == reflect.Struct {
		return target.Interface(), nil
	}
	return instance, nil
}
