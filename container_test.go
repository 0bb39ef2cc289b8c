package anvil_test

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/xraph/anvil"
)

// =============================================================================
// FIXTURES
// =============================================================================

type Clock interface{ Now() int }

type fixedClock struct{ t int }

func (c *fixedClock) Now() int { return c.t }

func newFixedClock() *fixedClock { return &fixedClock{t: 42} }

type Reporter struct {
	Clock Clock
}

func NewReporter(c Clock) *Reporter { return &Reporter{Clock: c} }

type Sink interface{ Write(string) }

type memorySink struct{ lines []string }

func (m *memorySink) Write(s string) { m.lines = append(m.lines, s) }

type nodeA struct{ B *nodeB }
type nodeB struct{ A *nodeA }

func newNodeA(b *nodeB) *nodeA { return &nodeA{B: b} }
func newNodeB(a *nodeA) *nodeB { return &nodeB{A: a} }

type request struct{ id int }

var requestSeq atomic.Int64

func newRequest() *request { return &request{id: int(requestSeq.Add(1))} }

type cache struct{ Req *request }

func newCache(r *request) *cache { return &cache{Req: r} }

type closable struct {
	name string
	log  *[]string
}

func (c *closable) Close() error {
	*c.log = append(*c.log, c.name)
	return nil
}

type failing struct{}

func (failing) Dispose() error { return errors.New("dispose failed") }

type failingScoped struct{ id int }

func (*failingScoped) Dispose() error { return errors.New("scoped dispose failed") }

// =============================================================================
// CORE PROPERTIES
// =============================================================================

func TestTransientInstancesAreDistinct(t *testing.T) {
	c := anvil.New()
	require.NoError(t, anvil.RegisterTransient[Clock](c, newFixedClock))

	a, err := anvil.Resolve[Clock](c)
	require.NoError(t, err)
	b, err := anvil.Resolve[Clock](c)
	require.NoError(t, err)

	assert.NotSame(t, a, b)
}

func TestSingletonIdentity(t *testing.T) {
	c := anvil.New()
	require.NoError(t, anvil.RegisterSingleton[Clock](c, newFixedClock))

	a, err := anvil.Resolve[Clock](c)
	require.NoError(t, err)
	b, err := anvil.Resolve[Clock](c)
	require.NoError(t, err)

	assert.Same(t, a, b)
}

func TestInstanceIdentity(t *testing.T) {
	c := anvil.New()
	clock := &fixedClock{t: 7}
	require.NoError(t, anvil.RegisterInstance[Clock](c, clock))
	require.NoError(t, anvil.RegisterTransient[*Reporter](c, NewReporter))

	got, err := anvil.Resolve[Clock](c)
	require.NoError(t, err)
	assert.Same(t, clock, got)

	t.Run("as a dependency", func(t *testing.T) {
		r, err := anvil.Resolve[*Reporter](c)
		require.NoError(t, err)
		assert.Same(t, clock, r.Clock)
	})
}

func TestConstructorInjection(t *testing.T) {
	c := anvil.New()
	require.NoError(t, anvil.RegisterSingleton[Clock](c, newFixedClock))
	require.NoError(t, anvil.RegisterTransient[*Reporter](c, NewReporter))

	r, err := anvil.Resolve[*Reporter](c)
	require.NoError(t, err)
	require.IsType(t, &fixedClock{}, r.Clock)
	assert.Equal(t, 42, r.Clock.Now())
}

func TestNotRegistered(t *testing.T) {
	c := anvil.New()

	_, err := anvil.Resolve[Clock](c)
	assert.True(t, anvil.IsNotRegistered(err))
	assert.ErrorIs(t, err, anvil.ErrNotRegisteredSentinel)
}

func TestCyclicDependency(t *testing.T) {
	c := anvil.New()
	require.NoError(t, anvil.RegisterTransient[*nodeA](c, newNodeA))
	require.NoError(t, anvil.RegisterTransient[*nodeB](c, newNodeB))

	_, err := anvil.Resolve[*nodeA](c)
	require.True(t, anvil.IsCyclicDependency(err))
	assert.Contains(t, err.Error(), "*anvil_test.nodeA -> *anvil_test.nodeB -> *anvil_test.nodeA")

	t.Run("container stays usable", func(t *testing.T) {
		require.NoError(t, anvil.RegisterSingleton[Clock](c, newFixedClock))
		_, err := anvil.Resolve[Clock](c)
		assert.NoError(t, err)
	})
}

func TestCyclicSingletons(t *testing.T) {
	c := anvil.New()
	require.NoError(t, anvil.RegisterSingleton[*nodeA](c, newNodeA))
	require.NoError(t, anvil.RegisterSingleton[*nodeB](c, newNodeB))

	_, err := anvil.Resolve[*nodeB](c)
	assert.True(t, anvil.IsCyclicDependency(err))
}

func TestResolveAllOrderAndSingletonSharing(t *testing.T) {
	c := anvil.New()
	require.NoError(t, anvil.RegisterTransient[Sink](c, func() *memorySink { return &memorySink{lines: []string{"first"}} }))
	require.NoError(t, anvil.RegisterTransient[Sink](c, func() *memorySink { return &memorySink{lines: []string{"second"}} }))
	require.NoError(t, anvil.RegisterSingleton[Sink](c, func() *memorySink { return &memorySink{lines: []string{"shared"}} }))

	all, err := anvil.ResolveAll[Sink](c)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"first"}, all[0].(*memorySink).lines)
	assert.Equal(t, []string{"second"}, all[1].(*memorySink).lines)
	assert.Equal(t, []string{"shared"}, all[2].(*memorySink).lines)

	again, err := anvil.ResolveAll[Sink](c)
	require.NoError(t, err)
	require.Len(t, again, 3)
	assert.NotSame(t, all[0], again[0])
	assert.NotSame(t, all[1], again[1])
	assert.Same(t, all[2], again[2])

	last, err := anvil.Resolve[Sink](c)
	require.NoError(t, err)
	assert.Same(t, all[2], last)
}

func TestResolveAllUnregisteredIsEmpty(t *testing.T) {
	c := anvil.New()

	all, err := anvil.ResolveAll[Sink](c)
	require.NoError(t, err)
	assert.Empty(t, all)
}

// =============================================================================
// REGISTRATION FORMS
// =============================================================================

func TestLastRegistrationWins(t *testing.T) {
	c := anvil.New()
	require.NoError(t, anvil.RegisterTransient[Clock](c, func() Clock { return &fixedClock{t: 1} }))
	require.NoError(t, anvil.RegisterTransient[Clock](c, func() Clock { return &fixedClock{t: 2} }))

	got, err := anvil.Resolve[Clock](c)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Now())
}

func TestNamedBindings(t *testing.T) {
	c := anvil.New()
	require.NoError(t, anvil.RegisterSingleton[Clock](c, func() Clock { return &fixedClock{t: 1} }))
	require.NoError(t, anvil.RegisterSingleton[Clock](c, func() Clock { return &fixedClock{t: 9} }, anvil.Named("utc")))

	def, err := anvil.Resolve[Clock](c)
	require.NoError(t, err)
	utc, err := anvil.ResolveNamed[Clock](c, "utc")
	require.NoError(t, err)

	assert.Equal(t, 1, def.Now())
	assert.Equal(t, 9, utc.Now())

	_, err = anvil.ResolveNamed[Clock](c, "local")
	assert.True(t, anvil.IsNotRegistered(err))
}

func TestRegisterType(t *testing.T) {
	c := anvil.New()
	require.NoError(t, anvil.RegisterSingleton[Clock](c, newFixedClock))
	require.NoError(t, anvil.RegisterTransient[*Reporter](c, anvil.TypeOf[Reporter]()))

	t.Run("zero allocated and property injected", func(t *testing.T) {
		r, err := anvil.Resolve[*Reporter](c)
		require.NoError(t, err)
		require.NotNil(t, r.Clock)
		assert.Equal(t, 42, r.Clock.Now())
	})

	t.Run("declared constructor", func(t *testing.T) {
		require.NoError(t, c.DeclareConstructor(func(clock Clock) *Reporter {
			return &Reporter{Clock: &fixedClock{t: clock.Now() + 1}}
		}))

		r, err := anvil.Resolve[*Reporter](c)
		require.NoError(t, err)
		assert.Equal(t, 43, r.Clock.Now())
	})
}

func TestAmbiguousConstructor(t *testing.T) {
	c := anvil.New()
	require.NoError(t, anvil.RegisterSingleton[Clock](c, newFixedClock))
	require.NoError(t, anvil.RegisterSingleton[Sink](c, func() *memorySink { return &memorySink{} }))
	require.NoError(t, anvil.RegisterTransient[*Reporter](c, anvil.TypeOf[Reporter]()))
	require.NoError(t, c.DeclareConstructor(func(Clock) *Reporter { return &Reporter{} }))
	require.NoError(t, c.DeclareConstructor(func(Sink) *Reporter { return &Reporter{} }))

	_, err := anvil.Resolve[*Reporter](c)
	assert.True(t, anvil.IsAmbiguousConstructor(err))

	require.NoError(t, c.DeclarePreferredConstructor(func(s Sink) (*Reporter, error) { return &Reporter{}, nil }))
	_, err = anvil.Resolve[*Reporter](c)
	assert.NoError(t, err, "a single preferred constructor settles the tie")
}

func TestPreferredConstructorBreaksTie(t *testing.T) {
	c := anvil.New(anvil.WithPropertyInjection(anvil.PropertiesOff))
	require.NoError(t, anvil.RegisterSingleton[Clock](c, newFixedClock))
	require.NoError(t, anvil.RegisterSingleton[Sink](c, func() *memorySink { return &memorySink{} }))
	require.NoError(t, anvil.RegisterTransient[*Reporter](c, anvil.TypeOf[Reporter]()))
	require.NoError(t, c.DeclareConstructor(func(Sink) *Reporter { return &Reporter{} }))
	require.NoError(t, c.DeclarePreferredConstructor(func(cl Clock) *Reporter { return &Reporter{Clock: cl} }))

	r, err := anvil.Resolve[*Reporter](c)
	require.NoError(t, err)
	assert.NotNil(t, r.Clock)
}

func TestFactory(t *testing.T) {
	c := anvil.New()
	require.NoError(t, anvil.RegisterSingleton[Clock](c, newFixedClock))
	require.NoError(t, anvil.RegisterFactory(c, anvil.Transient, func(r anvil.Resolver) (*Reporter, error) {
		clock, err := anvil.Resolve[Clock](r)
		if err != nil {
			return nil, err
		}
		return &Reporter{Clock: clock}, nil
	}))

	r, err := anvil.Resolve[*Reporter](c)
	require.NoError(t, err)
	assert.Equal(t, 42, r.Clock.Now())

	t.Run("failure is a construction error", func(t *testing.T) {
		boom := errors.New("boom")
		require.NoError(t, anvil.RegisterFactory(c, anvil.Transient, func(anvil.Resolver) (Sink, error) {
			return nil, boom
		}))

		_, err := anvil.Resolve[Sink](c)
		assert.True(t, anvil.IsConstructionError(err))
		assert.ErrorIs(t, err, boom)
	})
}

func TestFactoryCycleIsDetected(t *testing.T) {
	c := anvil.New()
	require.NoError(t, anvil.RegisterFactory(c, anvil.Singleton, func(r anvil.Resolver) (Clock, error) {
		return anvil.Resolve[Clock](r)
	}))

	_, err := anvil.Resolve[Clock](c)
	assert.True(t, anvil.IsCyclicDependency(err))
}

func TestFactoryCycleThroughCapturedContainer(t *testing.T) {
	c := anvil.New()
	require.NoError(t, anvil.RegisterFactory(c, anvil.Singleton, func(anvil.Resolver) (*nodeA, error) {
		b, err := anvil.Resolve[*nodeB](c)
		if err != nil {
			return nil, err
		}
		return &nodeA{B: b}, nil
	}))
	require.NoError(t, anvil.RegisterSingleton[*nodeB](c, newNodeB))

	done := make(chan error, 1)
	go func() {
		_, err := anvil.Resolve[*nodeA](c)
		done <- err
	}()

	select {
	case err := <-done:
		require.True(t, anvil.IsCyclicDependency(err))
		assert.Contains(t, err.Error(), "*anvil_test.nodeA -> *anvil_test.nodeB -> *anvil_test.nodeA")
	case <-time.After(5 * time.Second):
		t.Fatal("resolve through the captured container deadlocked")
	}

	t.Run("failed singleton is not cached", func(t *testing.T) {
		_, err := anvil.Resolve[*nodeB](c)
		assert.True(t, anvil.IsCyclicDependency(err))
	})
}

func TestUnresolvableDependency(t *testing.T) {
	c := anvil.New()
	require.NoError(t, anvil.RegisterTransient[*Reporter](c, NewReporter))

	_, err := anvil.Resolve[*Reporter](c)
	assert.True(t, anvil.IsUnresolvableDependency(err))
	assert.True(t, anvil.IsNotRegistered(err))
}

func TestInvalidImplementationFailsAtResolution(t *testing.T) {
	c := anvil.New()
	require.NoError(t, c.RegisterTransient(anvil.TypeOf[Clock](), 42))

	_, err := anvil.Resolve[Clock](c)
	assert.True(t, anvil.IsConstructionError(err))
}

func TestTypeMismatch(t *testing.T) {
	c := anvil.New()
	require.NoError(t, anvil.RegisterTransient[Clock](c, func() *memorySink { return &memorySink{} }))

	_, err := anvil.Resolve[Clock](c)
	assert.ErrorIs(t, err, anvil.ErrTypeMismatch)
}

func TestMustResolve(t *testing.T) {
	c := anvil.New()
	assert.Panics(t, func() { anvil.MustResolve[Clock](c) })

	require.NoError(t, anvil.RegisterSingleton[Clock](c, newFixedClock))
	assert.NotPanics(t, func() { anvil.MustResolve[Clock](c) })
}

// =============================================================================
// POLICIES
// =============================================================================

func TestPermissivePolicy(t *testing.T) {
	c := anvil.New(anvil.WithResolutionPolicy(anvil.ResolutionPermissive))
	require.NoError(t, anvil.RegisterSingleton[Clock](c, newFixedClock))

	r, err := anvil.Resolve[*Reporter](c)
	require.NoError(t, err)
	assert.NotNil(t, r.Clock)

	other, err := anvil.Resolve[*Reporter](c)
	require.NoError(t, err)
	assert.NotSame(t, r, other, "auto-resolved types are transient")

	_, err = anvil.Resolve[Sink](c)
	assert.True(t, anvil.IsNotRegistered(err), "interfaces are never auto-resolved")

	_, err = anvil.ResolveNamed[*Reporter](c, "x")
	assert.True(t, anvil.IsNotRegistered(err), "named keys are never auto-resolved")
}

func TestPropertyInjectionModes(t *testing.T) {
	type tagged struct {
		Clock Clock `inject:""`
		Sink  Sink
	}

	setup := func(mode anvil.PropertyMode) *anvil.Container {
		c := anvil.New(anvil.WithPropertyInjection(mode))
		require.NoError(t, anvil.RegisterSingleton[Clock](c, newFixedClock))
		require.NoError(t, anvil.RegisterSingleton[Sink](c, func() *memorySink { return &memorySink{} }))
		require.NoError(t, anvil.RegisterTransient[*tagged](c, anvil.TypeOf[tagged]()))
		return c
	}

	tests := []struct {
		mode      anvil.PropertyMode
		wantClock bool
		wantSink  bool
	}{
		{anvil.PropertiesExported, true, true},
		{anvil.PropertiesTagged, true, false},
		{anvil.PropertiesOff, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			v, err := anvil.Resolve[*tagged](setup(tt.mode))
			require.NoError(t, err)
			assert.Equal(t, tt.wantClock, v.Clock != nil)
			assert.Equal(t, tt.wantSink, v.Sink != nil)
		})
	}
}

// =============================================================================
// SCOPES
// =============================================================================

func TestScopedLifetime(t *testing.T) {
	c := anvil.New()
	require.NoError(t, anvil.RegisterScoped[*request](c, newRequest))
	require.NoError(t, anvil.RegisterTransient[*cache](c, newCache))

	s1 := c.BeginScope()
	s2 := c.BeginScope()
	assert.NotEqual(t, s1.ID(), s2.ID())

	a, err := anvil.Resolve[*request](s1)
	require.NoError(t, err)
	b, err := anvil.Resolve[*request](s1)
	require.NoError(t, err)
	other, err := anvil.Resolve[*request](s2)
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.NotSame(t, a, other)

	t.Run("dependencies share the scope", func(t *testing.T) {
		ch, err := anvil.Resolve[*cache](s1)
		require.NoError(t, err)
		assert.Same(t, a, ch.Req)
	})

	t.Run("root resolution requires a scope", func(t *testing.T) {
		_, err := anvil.Resolve[*request](c)
		assert.True(t, anvil.IsScopeRequired(err))
	})

	t.Run("ended scope rejects resolution", func(t *testing.T) {
		require.NoError(t, s1.End())
		_, err := anvil.Resolve[*request](s1)
		assert.True(t, anvil.IsScopeEnded(err))
		assert.NoError(t, s1.End())
	})
}

func TestSingletonCannotCaptureScoped(t *testing.T) {
	c := anvil.New()
	require.NoError(t, anvil.RegisterScoped[*request](c, newRequest))
	require.NoError(t, anvil.RegisterSingleton[*cache](c, newCache))

	s := c.BeginScope()
	defer s.End()

	_, err := anvil.Resolve[*cache](s)
	assert.True(t, anvil.IsScopeRequired(err))
}

func TestSingletonSharedAcrossScopes(t *testing.T) {
	c := anvil.New()
	require.NoError(t, anvil.RegisterSingleton[Clock](c, newFixedClock))

	s1, s2 := c.BeginScope(), c.BeginScope()
	a, err := anvil.Resolve[Clock](s1)
	require.NoError(t, err)
	b, err := anvil.Resolve[Clock](s2)
	require.NoError(t, err)
	root, err := anvil.Resolve[Clock](c)
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Same(t, a, root)
}

// =============================================================================
// DISPOSAL
// =============================================================================

func TestDisposeReverseOrder(t *testing.T) {
	var log []string
	c := anvil.New()
	require.NoError(t, anvil.RegisterSingleton[*closable](c, func() *closable { return &closable{name: "first", log: &log} }))
	require.NoError(t, anvil.RegisterSingleton[*closable](c, func() *closable { return &closable{name: "second", log: &log} }, anvil.Named("2")))

	_, err := anvil.Resolve[*closable](c)
	require.NoError(t, err)
	_, err = anvil.ResolveNamed[*closable](c, "2")
	require.NoError(t, err)

	require.NoError(t, c.Dispose())
	assert.Equal(t, []string{"second", "first"}, log)

	t.Run("disposed container rejects use", func(t *testing.T) {
		_, err := anvil.Resolve[*closable](c)
		assert.True(t, anvil.IsContainerDisposed(err))
		assert.True(t, anvil.IsContainerDisposed(anvil.RegisterTransient[Clock](c, newFixedClock)))
		assert.NoError(t, c.Dispose())
	})
}

func TestDisposeEndsOpenScopes(t *testing.T) {
	var log []string
	var seq atomic.Int32
	c := anvil.New()
	require.NoError(t, anvil.RegisterScoped[*closable](c, func() *closable {
		return &closable{name: fmt.Sprintf("scope-%d", seq.Add(1)), log: &log}
	}))

	for range 3 {
		s := c.BeginScope()
		_, err := anvil.Resolve[*closable](s)
		require.NoError(t, err)
	}

	require.NoError(t, c.Dispose())
	assert.Equal(t, []string{"scope-3", "scope-2", "scope-1"}, log)
}

func TestDisposeAggregatesFailures(t *testing.T) {
	c := anvil.New()
	require.NoError(t, anvil.RegisterSingleton[failing](c, func() failing { return failing{} }))
	require.NoError(t, anvil.RegisterScoped[*failingScoped](c, func() *failingScoped { return &failingScoped{} }))
	_, err := anvil.Resolve[failing](c)
	require.NoError(t, err)

	for range 2 {
		_, err = anvil.Resolve[*failingScoped](c.BeginScope())
		require.NoError(t, err)
	}

	err = c.Dispose()
	require.True(t, anvil.IsAggregateDisposal(err))

	var agg *anvil.AggregateDisposalError
	require.ErrorAs(t, err, &agg)
	require.Len(t, agg.Errors, 3)
	for _, e := range agg.Errors {
		assert.False(t, anvil.IsAggregateDisposal(e))
	}
}

func TestInstancesAreNotDisposed(t *testing.T) {
	var log []string
	c := anvil.New()
	require.NoError(t, anvil.RegisterInstance(c, &closable{name: "owned by caller", log: &log}))

	_, err := anvil.Resolve[*closable](c)
	require.NoError(t, err)
	require.NoError(t, c.Dispose())
	assert.Empty(t, log)
}

// =============================================================================
// CONCURRENCY
// =============================================================================

func TestConcurrentSingletonResolution(t *testing.T) {
	c := anvil.New()
	var built atomic.Int32
	require.NoError(t, anvil.RegisterSingleton[Clock](c, func() Clock {
		built.Add(1)
		return newFixedClock()
	}))

	var wg sync.WaitGroup
	results := make([]Clock, 64)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := anvil.Resolve[Clock](c)
			assert.NoError(t, err)
			results[i] = v
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), built.Load())
	for _, v := range results {
		assert.Same(t, results[0], v)
	}
}

// =============================================================================
// DIAGNOSTICS
// =============================================================================

func TestInspect(t *testing.T) {
	c := anvil.New()
	require.NoError(t, anvil.RegisterTransient[Clock](c, newFixedClock))
	require.NoError(t, anvil.RegisterSingleton[Clock](c, anvil.TypeOf[fixedClock]()))

	infos := c.Inspect(anvil.Key[Clock]())
	require.Len(t, infos, 2)
	assert.Equal(t, "constructor", infos[0].Kind)
	assert.Equal(t, "type", infos[1].Kind)
	assert.Equal(t, anvil.Singleton, infos[1].Lifetime)
	assert.False(t, infos[1].Cached)

	_, err := anvil.Resolve[Clock](c)
	require.NoError(t, err)
	assert.True(t, c.Inspect(anvil.Key[Clock]())[1].Cached)

	assert.True(t, c.Has(anvil.Key[Clock]()))
	assert.Equal(t, []anvil.ServiceKey{anvil.Key[Clock]()}, c.Keys())
}

func TestValidate(t *testing.T) {
	t.Run("valid graph", func(t *testing.T) {
		c := anvil.New()
		require.NoError(t, anvil.RegisterSingleton[Clock](c, newFixedClock))
		require.NoError(t, anvil.RegisterTransient[*Reporter](c, NewReporter))
		assert.NoError(t, c.Validate())
	})

	t.Run("cycle", func(t *testing.T) {
		c := anvil.New()
		require.NoError(t, anvil.RegisterTransient[*nodeA](c, newNodeA))
		require.NoError(t, anvil.RegisterTransient[*nodeB](c, newNodeB))
		assert.True(t, anvil.IsCyclicDependency(c.Validate()))
	})

	t.Run("missing dependency", func(t *testing.T) {
		c := anvil.New()
		require.NoError(t, anvil.RegisterTransient[*Reporter](c, NewReporter))
		assert.True(t, anvil.IsUnresolvableDependency(c.Validate()))
	})

	t.Run("invalid implementation", func(t *testing.T) {
		c := anvil.New()
		require.NoError(t, c.RegisterTransient(anvil.TypeOf[Clock](), "nope"))
		assert.True(t, anvil.IsConstructionError(c.Validate()))
	})
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := anvil.New(anvil.WithMetrics(reg))
	require.NoError(t, anvil.RegisterSingleton[*closable](c, func() *closable {
		return &closable{name: "m", log: new([]string)}
	}))

	for range 3 {
		_, err := anvil.Resolve[*closable](c)
		require.NoError(t, err)
	}
	_, err := anvil.Resolve[Clock](c)
	require.Error(t, err)
	require.NoError(t, c.Dispose())

	count, err := testutil.GatherAndCount(reg,
		"anvil_resolutions_total", "anvil_constructions_total", "anvil_disposals_total")
	require.NoError(t, err)
	assert.Equal(t, 4, count, "one series per label set: two resolutions, one construction, one disposal")
}

func TestTracing(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })

	c := anvil.New(anvil.WithTracerProvider(tp))
	require.NoError(t, anvil.RegisterSingleton[Clock](c, newFixedClock))

	_, err := anvil.Resolve[Clock](c)
	require.NoError(t, err)
	_, err = anvil.ResolveAll[Clock](c)
	require.NoError(t, err)
	_, err = anvil.Resolve[Sink](c)
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 3)

	assert.Equal(t, "anvil.Resolve", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("anvil.lifetime", "singleton"))
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	assert.Equal(t, "anvil.ResolveAll", spans[1].Name())
	assert.Contains(t, spans[1].Attributes(), attribute.String("anvil.lifetime", "collection"))

	assert.Equal(t, codes.Error, spans[2].Status().Code)
	assert.Contains(t, spans[2].Attributes(), attribute.String("anvil.outcome", "failure"))
}
