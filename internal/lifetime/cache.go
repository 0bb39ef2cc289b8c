package lifetime

// Slot identifies a cached instance: the binding that produced it and its key
// for diagnostics.
type Slot struct {
	ID  uint64
	Key string
}

type created struct {
	slot     Slot
	instance any
}

// call is a construction in progress. Waiters block on done.
type call struct {
	done chan struct{}
	gid  uint64
	key  string
	val  any
	err  error
}

// Cache holds the instances of one lifetime boundary: the container for
// singletons or a scope for scoped services. All fields are guarded by the
// owning Manager.
type Cache struct {
	id     string
	root   bool
	values map[uint64]any
	calls  map[uint64]*call
	order  []created
	ended  bool
}

// NewCache creates an empty cache for a scope.
func NewCache(id string) *Cache {
	return &Cache{
		id:     id,
		values: make(map[uint64]any),
		calls:  make(map[uint64]*call),
	}
}

// ID returns the cache identifier.
func (c *Cache) ID() string {
	return c.id
}
