package activator

import (
	"fmt"
	"reflect"
	"sync"

	anvilerrors "github.com/xraph/anvil/errors"
	"github.com/xraph/anvil/internal/registry"
)

var errorType = reflect.TypeFor[error]()

// signature is the inspected shape of a function type.
type signature struct {
	params       []reflect.Type
	out          reflect.Type
	variadic     bool
	returnsError bool
}

// field is an injectable struct field.
type field struct {
	index  []int
	name   string
	key    registry.ServiceKey
	tagged bool
}

type constructor struct {
	fn        reflect.Value
	sig       *signature
	name      string
	preferred bool
}

// Catalog holds declared constructors per struct type together with the
// reflection metadata the activator needs. Metadata is computed once per type.
type Catalog struct {
	signatures   map[reflect.Type]*signature
	fields       map[reflect.Type][]field
	constructors map[reflect.Type][]*constructor
	mu           sync.RWMutex
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		signatures:   make(map[reflect.Type]*signature),
		fields:       make(map[reflect.Type][]field),
		constructors: make(map[reflect.Type][]*constructor),
	}
}

// Declare records fn as a constructor of the struct type it returns. fn must
// return T or *T for a struct T, optionally followed by an error.
func (c *Catalog) Declare(fn any, preferred bool) error {
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return fmt.Errorf("%w: constructor must be a function, got %T", anvilerrors.ErrUnsupportedDescriptor, fn)
	}

	sig, err := c.signature(rv.Type())
	if err != nil {
		return err
	}

	target := sig.out
	if target.Kind() == reflect.Pointer {
		target = target.Elem()
	}
	if target.Kind() != reflect.Struct {
		return fmt.Errorf("%w: constructor %s must return a struct or pointer to struct", anvilerrors.ErrUnsupportedDescriptor, rv.Type())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.constructors[target] = append(c.constructors[target], &constructor{
		fn:        rv,
		sig:       sig,
		name:      registry.FuncName(rv),
		preferred: preferred,
	})

	return nil
}

// Constructors returns the number of constructors declared for t.
func (c *Catalog) Constructors(t reflect.Type) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.constructors[t])
}

func (c *Catalog) constructorsFor(t reflect.Type) []*constructor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	list := c.constructors[t]
	out := make([]*constructor, len(list))
	copy(out, list)
	return out
}

// signature inspects fnType, caching the result.
func (c *Catalog) signature(fnType reflect.Type) (*signature, error) {
	c.mu.RLock()
	sig, ok := c.signatures[fnType]
	c.mu.RUnlock()
	if ok {
		return sig, nil
	}

	switch {
	case fnType.NumOut() == 1:
	case fnType.NumOut() == 2 && fnType.Out(1) == errorType:
	default:
		return nil, fmt.Errorf("%w: %s must return (T) or (T, error)", anvilerrors.ErrUnsupportedDescriptor, fnType)
	}

	sig = &signature{
		params:       make([]reflect.Type, fnType.NumIn()),
		out:          fnType.Out(0),
		variadic:     fnType.IsVariadic(),
		returnsError: fnType.NumOut() == 2,
	}
	for i := range sig.params {
		sig.params[i] = fnType.In(i)
	}

	c.mu.Lock()
	c.signatures[fnType] = sig
	c.mu.Unlock()

	return sig, nil
}

// fieldsOf lists the injectable fields of struct type t. Untagged fields are
// only candidates when they hold an interface or a pointer.
func (c *Catalog) fieldsOf(t reflect.Type) []field {
	c.mu.RLock()
	fields, ok := c.fields[t]
	c.mu.RUnlock()
	if ok {
		return fields
	}

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() || sf.Anonymous {
			continue
		}

		name, tagged := sf.Tag.Lookup("inject")
		if name == "-" {
			continue
		}
		if !tagged {
			if k := sf.Type.Kind(); k != reflect.Interface && k != reflect.Pointer {
				continue
			}
		}

		fields = append(fields, field{
			index:  sf.Index,
			name:   sf.Name,
			key:    registry.KeyOf(sf.Type, name),
			tagged: tagged,
		})
	}

	c.mu.Lock()
	c.fields[t] = fields
	c.mu.Unlock()

	return fields
}
