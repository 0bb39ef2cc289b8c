package anvil

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	anvilerrors "github.com/xraph/anvil/errors"
	"github.com/xraph/anvil/internal/activator"
	"github.com/xraph/anvil/internal/lifetime"
	"github.com/xraph/anvil/internal/logger"
	"github.com/xraph/anvil/internal/metrics"
	"github.com/xraph/anvil/internal/registry"
)

// ServiceKey identifies a service by type and optional name.
type ServiceKey = registry.ServiceKey

// Lifetime controls instance reuse.
type Lifetime = registry.Lifetime

// Lifetimes.
const (
	Transient = registry.Transient
	Singleton = registry.Singleton
	Scoped    = registry.Scoped
)

// Resolver resolves services. It is implemented by Container and Scope, and
// handed to factories during construction.
type Resolver = registry.Resolver

// Factory builds an instance directly from a resolver.
type Factory = registry.Factory

// Instance marks a pre-built value for registration.
type Instance = registry.Instance

const instrumentationName = "github.com/xraph/anvil"

// Container registers bindings and resolves instances.
type Container struct {
	registry  *registry.Registry
	activator *activator.Activator
	lifetimes *lifetime.Manager
	logger    logger.Logger
	metrics   metrics.Recorder
	tracer    trace.Tracer
	policy    ResolutionPolicy
	disposed  atomic.Bool

	scopes []*Scope
	mu     sync.Mutex
}

// New creates an empty container.
func New(opts ...Option) *Container {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	c := &Container{
		registry:  registry.New(),
		activator: activator.New(o.properties),
		logger:    o.logger.Named("anvil"),
		tracer:    o.tracing.Tracer(instrumentationName),
		policy:    o.policy,
	}

	rec, err := metrics.NewRecorder(o.registerer)
	if err != nil {
		c.logger.Warn("metrics disabled", logger.Error(err))
		rec = metrics.NewNoopRecorder()
	}
	c.metrics = rec
	c.lifetimes = lifetime.NewManager(c.onDispose)

	return c
}

// =============================================================================
// REGISTRATION
// =============================================================================

// Register binds key to impl with the given lifetime. impl is a reflect.Type
// of a struct, a constructor function, a Factory or an Instance. Unusable
// implementations fail when resolved, not here.
func (c *Container) Register(key ServiceKey, impl any, lifetime Lifetime) error {
	if c.disposed.Load() {
		return anvilerrors.ErrContainerDisposed("register")
	}

	b := c.registry.Register(key, registry.Describe(impl), lifetime)

	c.logger.Debug("service registered",
		logger.String("key", key.String()),
		logger.String("lifetime", lifetime.String()),
		logger.String("implementation", b.Implementation.String()),
		logger.Uint64("binding", b.ID),
	)

	return nil
}

// RegisterSingleton binds service to impl as a singleton.
func (c *Container) RegisterSingleton(service reflect.Type, impl any, opts ...RegisterOption) error {
	return c.Register(registry.KeyOf(service, applyRegisterOptions(opts).name), impl, Singleton)
}

// RegisterTransient binds service to impl as a transient.
func (c *Container) RegisterTransient(service reflect.Type, impl any, opts ...RegisterOption) error {
	return c.Register(registry.KeyOf(service, applyRegisterOptions(opts).name), impl, Transient)
}

// RegisterScoped binds service to impl with one instance per scope.
func (c *Container) RegisterScoped(service reflect.Type, impl any, opts ...RegisterOption) error {
	return c.Register(registry.KeyOf(service, applyRegisterOptions(opts).name), impl, Scoped)
}

// RegisterInstance binds service to a pre-built instance. The container
// returns it as-is and never disposes it.
func (c *Container) RegisterInstance(service reflect.Type, instance any, opts ...RegisterOption) error {
	return c.Register(registry.KeyOf(service, applyRegisterOptions(opts).name), Instance{Value: instance}, Singleton)
}

// RegisterFactory binds service to a factory.
func (c *Container) RegisterFactory(service reflect.Type, lifetime Lifetime, factory Factory, opts ...RegisterOption) error {
	return c.Register(registry.KeyOf(service, applyRegisterOptions(opts).name), factory, lifetime)
}

// DeclareConstructor adds fn to the constructors considered when a struct
// type is registered by reflect.Type. fn returns T or *T, optionally with an
// error.
func (c *Container) DeclareConstructor(fn any) error {
	return c.activator.Catalog().Declare(fn, false)
}

// DeclarePreferredConstructor is like DeclareConstructor but the constructor
// wins ties with other constructors of the same width.
func (c *Container) DeclarePreferredConstructor(fn any) error {
	return c.activator.Catalog().Declare(fn, true)
}

// =============================================================================
// RESOLUTION
// =============================================================================

// Resolve returns the instance for key built from its last registered binding.
func (c *Container) Resolve(key ServiceKey) (any, error) {
	return c.resolve(key, nil)
}

// ResolveAll returns one instance per binding of key in registration order.
// An unregistered key yields an empty slice.
func (c *Container) ResolveAll(key ServiceKey) ([]any, error) {
	return c.resolveAll(key, nil)
}

// CanResolve reports whether Resolve could find a binding for key.
func (c *Container) CanResolve(key ServiceKey) bool {
	_, ok := c.lookup(key)
	return ok
}

func (c *Container) resolve(key ServiceKey, scope *lifetime.Cache) (any, error) {
	if c.disposed.Load() {
		return nil, anvilerrors.ErrContainerDisposed("resolve")
	}

	start := time.Now()
	span := c.startSpan("anvil.Resolve", key)
	label := "none"

	var (
		instance any
		err      error
	)
	if b, ok := c.lookup(key); ok {
		label = b.Lifetime.String()
		instance, err = c.newResolution(scope).resolveBinding(b)
	} else {
		err = anvilerrors.ErrNotRegistered(key.String())
	}

	c.observe(span, key, label, start, err)
	return instance, err
}

func (c *Container) resolveAll(key ServiceKey, scope *lifetime.Cache) ([]any, error) {
	if c.disposed.Load() {
		return nil, anvilerrors.ErrContainerDisposed("resolve")
	}

	start := time.Now()
	span := c.startSpan("anvil.ResolveAll", key)
	instances, err := c.newResolution(scope).ResolveAll(key)
	c.observe(span, key, "collection", start, err)

	return instances, err
}

func (c *Container) startSpan(name string, key ServiceKey) trace.Span {
	_, span := c.tracer.Start(context.Background(), name,
		trace.WithAttributes(attribute.String("anvil.key", key.String())),
	)
	return span
}

func (c *Container) observe(span trace.Span, key ServiceKey, label string, start time.Time, err error) {
	outcome := metrics.Outcome(err)
	c.metrics.Resolution(label, outcome, time.Since(start))

	span.SetAttributes(
		attribute.String("anvil.lifetime", label),
		attribute.String("anvil.outcome", outcome),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()

	if err != nil {
		c.logger.Debug("resolution failed",
			logger.String("key", key.String()),
			logger.Error(err),
		)
	}
}

// lookup returns the default binding for key, synthesizing a transient one
// under the permissive policy.
func (c *Container) lookup(key ServiceKey) (*registry.Binding, bool) {
	if key.Type == nil {
		return nil, false
	}
	if b, ok := c.registry.LookupDefault(key); ok {
		return b, true
	}
	if c.policy != ResolutionPermissive || key.Name != "" {
		return nil, false
	}

	desc := registry.Describe(key.Type)
	if desc.Kind != registry.KindType {
		return nil, false
	}
	return &registry.Binding{Key: key, Implementation: desc, Lifetime: Transient}, true
}

// =============================================================================
// SCOPES AND DISPOSAL
// =============================================================================

// BeginScope opens a scope. Scoped services resolved through it are shared
// within the scope and released by End.
func (c *Container) BeginScope() *Scope {
	id := uuid.NewString()
	s := &Scope{
		id:    id,
		c:     c,
		cache: lifetime.NewCache(id),
	}

	c.mu.Lock()
	c.scopes = append(c.scopes, s)
	c.mu.Unlock()

	c.logger.Debug("scope started", logger.String("scope", id))
	return s
}

func (c *Container) endScope(s *Scope) error {
	c.mu.Lock()
	for i, open := range c.scopes {
		if open == s {
			c.scopes = append(c.scopes[:i], c.scopes[i+1:]...)
			break
		}
	}
	c.mu.Unlock()

	err := c.lifetimes.Dispose(s.cache)
	c.logger.Debug("scope ended", logger.String("scope", s.id), logger.Bool("clean", err == nil))
	return err
}

// Dispose ends open scopes, releases singletons in reverse creation order and
// marks the container unusable. Calling Dispose again is a no-op.
func (c *Container) Dispose() error {
	if !c.disposed.CompareAndSwap(false, true) {
		return nil
	}

	c.mu.Lock()
	open := append([]*Scope(nil), c.scopes...)
	c.mu.Unlock()

	// Scopes opened last end first.
	var errs []error
	for i := len(open) - 1; i >= 0; i-- {
		errs = appendDisposal(errs, c.endScope(open[i]))
	}
	errs = appendDisposal(errs, c.lifetimes.Dispose(c.lifetimes.Root()))

	c.logger.Debug("container disposed", logger.Int("failures", len(errs)))

	return anvilerrors.NewAggregateDisposalError(errs)
}

// appendDisposal flattens aggregate disposal errors into errs.
func appendDisposal(errs []error, err error) []error {
	if err == nil {
		return errs
	}
	var agg *anvilerrors.AggregateDisposalError
	if anvilerrors.As(err, &agg) {
		return append(errs, agg.Errors...)
	}
	return append(errs, err)
}

func (c *Container) onDispose(slot lifetime.Slot, err error) {
	c.metrics.Disposal(metrics.Outcome(err))
	if err != nil {
		c.logger.Warn("dispose failed",
			logger.String("key", slot.Key),
			logger.Error(err),
		)
	}
}

// =============================================================================
// DIAGNOSTICS
// =============================================================================

// Has reports whether key has at least one binding.
func (c *Container) Has(key ServiceKey) bool {
	return c.registry.Has(key)
}

// Keys returns every registered key in order of first registration.
func (c *Container) Keys() []ServiceKey {
	return c.registry.Keys()
}

// BindingInfo describes a binding for diagnostics.
type BindingInfo struct {
	ID             uint64
	Key            ServiceKey
	Lifetime       Lifetime
	Kind           string
	Implementation string
	Cached         bool
}

// Inspect describes every binding of key in registration order. Cached is
// set for singletons that have been constructed.
func (c *Container) Inspect(key ServiceKey) []BindingInfo {
	bindings := c.registry.LookupAll(key)
	infos := make([]BindingInfo, len(bindings))

	for i, b := range bindings {
		infos[i] = BindingInfo{
			ID:             b.ID,
			Key:            b.Key,
			Lifetime:       b.Lifetime,
			Kind:           b.Implementation.Kind.String(),
			Implementation: b.Implementation.String(),
			Cached:         b.Lifetime == Singleton && c.lifetimes.Cached(c.lifetimes.Root(), b.ID),
		}
	}

	return infos
}
