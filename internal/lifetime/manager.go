// Package lifetime caches singleton and scoped instances and releases them in
// reverse creation order.
package lifetime

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync"

	anvilerrors "github.com/xraph/anvil/errors"
	"github.com/xraph/anvil/internal/registry"
)

// Disposable is implemented by instances that release resources when their
// cache ends.
type Disposable interface {
	Dispose() error
}

// DisposeHook observes the release of a single instance. err is nil on
// success.
type DisposeHook func(slot Slot, err error)

var errConstructionAborted = errors.New("construction aborted")

// Manager applies lifetime policies. One mutex guards every cache; it is never
// held while an instance is being constructed.
type Manager struct {
	root      *Cache
	waiting   map[uint64]*call
	running   map[uint64][]*call
	onDispose DisposeHook
	mu        sync.Mutex
}

// NewManager creates a manager with an empty root cache. onDispose may be nil.
func NewManager(onDispose DisposeHook) *Manager {
	root := NewCache("root")
	root.root = true

	return &Manager{
		root:      root,
		waiting:   make(map[uint64]*call),
		running:   make(map[uint64][]*call),
		onDispose: onDispose,
	}
}

// Root returns the singleton cache.
func (m *Manager) Root() *Cache {
	return m.root
}

// GetOrCreate returns the instance for slot under lifetime lt, calling create
// at most once per cache. Transient always calls create. Scoped requires a
// non-nil scope.
func (m *Manager) GetOrCreate(lt registry.Lifetime, scope *Cache, slot Slot, create func() (any, error)) (any, error) {
	var cache *Cache
	switch lt {
	case registry.Transient:
		return create()
	case registry.Singleton:
		cache = m.root
	case registry.Scoped:
		if scope == nil {
			return nil, anvilerrors.ErrScopeRequired(slot.Key)
		}
		cache = scope
	default:
		return nil, fmt.Errorf("unknown lifetime %d for %s", lt, slot.Key)
	}

	m.mu.Lock()

	if cache.ended {
		m.mu.Unlock()
		return nil, endedError(cache)
	}

	if v, ok := cache.values[slot.ID]; ok {
		m.mu.Unlock()
		return v, nil
	}

	gid := goroutineID()

	if c, ok := cache.calls[slot.ID]; ok {
		if path, cyclic := m.waitPath(c, gid); cyclic {
			m.mu.Unlock()
			return nil, anvilerrors.ErrCyclicDependency(append(path, slot.Key))
		}

		m.waiting[gid] = c
		m.mu.Unlock()

		<-c.done

		m.mu.Lock()
		delete(m.waiting, gid)
		m.mu.Unlock()

		return c.val, c.err
	}

	c := &call{
		done: make(chan struct{}),
		gid:  gid,
		key:  slot.Key,
	}
	cache.calls[slot.ID] = c
	m.running[gid] = append(m.running[gid], c)
	m.mu.Unlock()

	return m.run(cache, slot, c, create)
}

// run executes create for an in-flight call and publishes the result.
func (m *Manager) run(cache *Cache, slot Slot, c *call, create func() (any, error)) (val any, err error) {
	finished := false
	defer func() {
		if !finished {
			m.finish(cache, slot, c, nil, errConstructionAborted)
		}
	}()

	val, err = create()
	finished = true
	m.finish(cache, slot, c, val, err)

	return val, err
}

func (m *Manager) finish(cache *Cache, slot Slot, c *call, val any, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(cache.calls, slot.ID)
	m.popRunning(c)
	if err == nil && !cache.ended {
		cache.values[slot.ID] = val
		cache.order = append(cache.order, created{slot: slot, instance: val})
	}

	c.val, c.err = val, err
	close(c.done)
}

// waitPath reports whether waiting on c from goroutine gid would close a
// wait-for cycle: some call along the chain is running further down gid's own
// stack. The returned path lists the keys held along the chain.
func (m *Manager) waitPath(c *call, gid uint64) ([]string, bool) {
	if gid == 0 {
		return nil, false
	}

	var path []string
	for cur := c; ; {
		if cur.gid == gid {
			return append(path, m.runningFrom(cur)...), true
		}
		path = append(path, cur.key)

		next, ok := m.waiting[cur.gid]
		if !ok {
			return nil, false
		}
		cur = next
	}
}

// runningFrom lists the keys under construction on c's goroutine, starting at c.
func (m *Manager) runningFrom(c *call) []string {
	stack := m.running[c.gid]
	for i, rc := range stack {
		if rc == c {
			keys := make([]string, 0, len(stack)-i)
			for _, k := range stack[i:] {
				keys = append(keys, k.key)
			}
			return keys
		}
	}
	return []string{c.key}
}

func (m *Manager) popRunning(c *call) {
	stack := m.running[c.gid]
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == c {
			stack = append(stack[:i], stack[i+1:]...)
			break
		}
	}
	if len(stack) == 0 {
		delete(m.running, c.gid)
		return
	}
	m.running[c.gid] = stack
}

// Cached reports whether cache holds an instance for binding id.
func (m *Manager) Cached(cache *Cache, id uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := cache.values[id]
	return ok
}

// Len returns the number of cached instances.
func (m *Manager) Len(cache *Cache) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(cache.order)
}

// Ended reports whether cache has been disposed.
func (m *Manager) Ended(cache *Cache) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return cache.ended
}

// Dispose ends cache and releases its instances in reverse creation order.
// Every instance is attempted; failures are collected into an
// AggregateDisposalError. Disposing an ended cache is a no-op.
func (m *Manager) Dispose(cache *Cache) error {
	m.mu.Lock()
	if cache.ended {
		m.mu.Unlock()
		return nil
	}
	cache.ended = true
	items := cache.order
	cache.order = nil
	cache.values = make(map[uint64]any)
	m.mu.Unlock()

	var (
		errs []error
		seen = make(map[any]struct{})
	)

	for i := len(items) - 1; i >= 0; i-- {
		item := items[i]

		if isPointer(item.instance) {
			if _, dup := seen[item.instance]; dup {
				continue
			}
			seen[item.instance] = struct{}{}
		}

		handled, err := release(item.instance)
		if !handled {
			continue
		}
		if err != nil {
			errs = append(errs, &anvilerrors.DisposalError{Key: item.slot.Key, Err: err})
		}
		if m.onDispose != nil {
			m.onDispose(item.slot, err)
		}
	}

	return anvilerrors.NewAggregateDisposalError(errs)
}

// release calls Dispose or Close on instance. A panic counts as a failure.
func release(instance any) (handled bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	switch v := instance.(type) {
	case Disposable:
		handled = true
		return handled, v.Dispose()
	case io.Closer:
		handled = true
		return handled, v.Close()
	default:
		return false, nil
	}
}

func isPointer(v any) bool {
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Pointer
}

func endedError(cache *Cache) error {
	if cache.root {
		return anvilerrors.ErrContainerDisposed("resolve")
	}
	return anvilerrors.ErrScopeEnded(cache.id)
}
