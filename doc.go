// Package anvil is a dependency-injection container.
//
// Bindings map a service key (a type plus an optional name) to an
// implementation and a lifetime. An implementation is one of:
//
//   - a reflect.Type of a struct, built through the widest declared
//     constructor whose parameters all resolve, or zero-allocated;
//   - a constructor function whose parameters are resolved by type;
//   - a Factory, called with the resolver;
//   - an Instance, returned as-is.
//
// Usage:
//
//	c := anvil.New(anvil.WithLogger(anvil.NewDevelopmentLogger()))
//	_ = anvil.RegisterSingleton[Store](c, NewPostgresStore)
//	_ = anvil.RegisterTransient[*Handler](c, anvil.TypeOf[Handler]())
//
//	h, err := anvil.Resolve[*Handler](c)
//
// Transient bindings build a new instance on every resolution, singletons one
// per container and scoped bindings one per Scope. A singleton never sees the
// scope it was first resolved from, so it cannot capture a scoped dependency.
//
// After construction, exported interface and pointer fields that are still
// zero are injected when their type has a binding. Tag a field
// `inject:"name"` to select a named binding or `inject:"-"` to skip it.
package anvil
