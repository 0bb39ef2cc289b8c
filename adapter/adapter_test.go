package adapter

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	anvilerrors "github.com/xraph/anvil/errors"
)

type greeter interface{ Greet() string }

type english struct{ accent string }

func (*english) Greet() string { return "hello" }

type host struct {
	G greeter
}

func newHost(g greeter) *host { return &host{G: g} }

type party struct {
	Guests []greeter
}

func newParty(gs []greeter) *party { return &party{Guests: gs} }

var (
	greeterType = reflect.TypeFor[greeter]()
	englishType = reflect.TypeFor[english]()
	hostType    = reflect.TypeFor[*host]()
	partyType   = reflect.TypeFor[*party]()
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("a", NewVessel))
	require.NoError(t, r.Register("b", func() Adapter { return NewAnvil() }))

	assert.Error(t, r.Register("a", NewVessel), "duplicate names are rejected")
	assert.Error(t, r.Register("", NewVessel))
	assert.Error(t, r.Register("c", nil))

	assert.Equal(t, []string{"a", "b"}, r.Names())

	f, ok := r.Get("b")
	require.True(t, ok)
	assert.Equal(t, NameAnvil, f().Name())

	t.Run("select", func(t *testing.T) {
		sel, err := r.Select([]string{"b", "a"})
		require.NoError(t, err)
		require.Len(t, sel, 2)
		assert.Equal(t, "b", sel[0].Name)

		all, err := r.Select(nil)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		_, err = r.Select([]string{"zzz"})
		assert.ErrorContains(t, err, "unknown adapter")
	})
}

func TestDefault(t *testing.T) {
	r := Default()
	assert.Equal(t, []string{NameAnvil, NameAnvilPermissive, NameVessel}, r.Names())

	for _, n := range r.All() {
		assert.Equal(t, n.Name, n.Factory().Name())
	}
}

// Both engines must agree on the behaviour the adapters normalise.
func TestAdapters_CommonBehaviour(t *testing.T) {
	for _, n := range Default().All() {
		t.Run(n.Name, func(t *testing.T) {
			t.Run("singleton", func(t *testing.T) {
				a := n.Factory()
				require.NoError(t, a.RegisterSingleton(greeterType, englishType))

				x, err := a.Resolve(greeterType)
				require.NoError(t, err)
				y, err := a.Resolve(greeterType)
				require.NoError(t, err)
				assert.Same(t, x, y)
				assert.Equal(t, "hello", x.(greeter).Greet())
			})

			t.Run("transient", func(t *testing.T) {
				a := n.Factory()
				require.NoError(t, a.RegisterTransient(greeterType, englishType))

				x, err := a.Resolve(greeterType)
				require.NoError(t, err)
				y, err := a.Resolve(greeterType)
				require.NoError(t, err)
				assert.NotSame(t, x, y)
			})

			t.Run("instance", func(t *testing.T) {
				a := n.Factory()
				e := &english{}
				require.NoError(t, a.RegisterInstance(greeterType, e))

				x, err := a.Resolve(greeterType)
				require.NoError(t, err)
				assert.Same(t, e, x)
			})

			t.Run("constructor dependency", func(t *testing.T) {
				a := n.Factory()
				require.NoError(t, a.RegisterSingleton(greeterType, englishType))
				require.NoError(t, a.RegisterTransient(hostType, newHost))

				x, err := a.Resolve(hostType)
				require.NoError(t, err)
				assert.NotNil(t, x.(*host).G)
			})

			t.Run("collection", func(t *testing.T) {
				a := n.Factory()
				require.NoError(t, a.RegisterTransient(greeterType, englishType))
				require.NoError(t, a.RegisterTransient(greeterType, englishType))
				require.NoError(t, a.RegisterTransient(partyType, newParty))

				all, err := a.ResolveAll(greeterType)
				require.NoError(t, err)
				assert.Len(t, all, 2)

				p, err := a.Resolve(partyType)
				require.NoError(t, err)
				assert.Len(t, p.(*party).Guests, 2)
			})

			t.Run("unregistered", func(t *testing.T) {
				a := n.Factory()
				_, err := a.Resolve(greeterType)
				assert.Error(t, err)
			})
		})
	}
}

func TestVessel_RejectsUnsupportedImplementations(t *testing.T) {
	a := NewVessel()
	assert.ErrorIs(t, a.RegisterSingleton(greeterType, 42), anvilerrors.ErrUnsupportedDescriptor)
	assert.ErrorIs(t, a.RegisterSingleton(greeterType, reflect.TypeFor[int]()), anvilerrors.ErrUnsupportedDescriptor)
	assert.ErrorIs(t, a.RegisterSingleton(greeterType, func() {}), anvilerrors.ErrUnsupportedDescriptor)
}

func TestVessel_UnregisteredIsNotRegistered(t *testing.T) {
	_, err := NewVessel().Resolve(greeterType)
	assert.True(t, anvilerrors.IsNotRegistered(err))
}

func TestAnvil_Close(t *testing.T) {
	a := NewAnvil()
	closer, ok := a.(interface{ Close() error })
	require.True(t, ok)
	assert.NoError(t, closer.Close())

	_, err := a.Resolve(greeterType)
	assert.True(t, anvilerrors.IsContainerDisposed(err))
}
