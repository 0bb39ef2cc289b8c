package anvil

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/xraph/anvil/internal/activator"
	"github.com/xraph/anvil/internal/logger"
)

// ResolutionPolicy controls what happens when an unregistered key is resolved.
type ResolutionPolicy int

const (
	// ResolutionStrict fails every unregistered key with NotRegistered.
	ResolutionStrict ResolutionPolicy = iota
	// ResolutionPermissive builds unregistered, unnamed struct and
	// pointer-to-struct keys as transient concrete types.
	ResolutionPermissive
)

// String returns the configuration name of the policy.
func (p ResolutionPolicy) String() string {
	switch p {
	case ResolutionStrict:
		return "strict"
	case ResolutionPermissive:
		return "permissive"
	default:
		return "unknown"
	}
}

// ParseResolutionPolicy is the inverse of String.
func ParseResolutionPolicy(s string) (ResolutionPolicy, bool) {
	switch strings.ToLower(s) {
	case "strict", "":
		return ResolutionStrict, true
	case "permissive":
		return ResolutionPermissive, true
	default:
		return ResolutionStrict, false
	}
}

// PropertyMode selects which struct fields are injected after construction.
type PropertyMode = activator.PropertyMode

// Property injection modes.
const (
	PropertiesExported = activator.PropertiesExported
	PropertiesTagged   = activator.PropertiesTagged
	PropertiesOff      = activator.PropertiesOff
)

// ParsePropertyMode parses "exported", "tagged" or "off".
var ParsePropertyMode = activator.ParsePropertyMode

// Option configures a Container.
type Option func(*options)

type options struct {
	logger     logger.Logger
	registerer prometheus.Registerer
	tracing    trace.TracerProvider
	policy     ResolutionPolicy
	properties PropertyMode
}

func defaultOptions() *options {
	return &options{
		logger:     logger.NewNoopLogger(),
		tracing:    noop.NewTracerProvider(),
		policy:     ResolutionStrict,
		properties: PropertiesExported,
	}
}

// WithLogger sets the container logger. A nil logger disables logging.
func WithLogger(l Logger) Option {
	return func(o *options) {
		if l == nil {
			l = logger.NewNoopLogger()
		}
		o.logger = l
	}
}

// WithMetrics registers the container metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithTracerProvider records a span for every top-level resolution. A nil
// provider disables tracing.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		if tp == nil {
			tp = noop.NewTracerProvider()
		}
		o.tracing = tp
	}
}

// WithResolutionPolicy sets the policy for unregistered keys.
func WithResolutionPolicy(p ResolutionPolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithPropertyInjection sets the property injection mode.
func WithPropertyInjection(m PropertyMode) Option {
	return func(o *options) {
		o.properties = m
	}
}

// RegisterOption configures a single registration.
type RegisterOption func(*registerOptions)

type registerOptions struct {
	name string
}

// Named registers the binding under a named key.
func Named(name string) RegisterOption {
	return func(o *registerOptions) {
		o.name = name
	}
}

func applyRegisterOptions(opts []RegisterOption) registerOptions {
	var o registerOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
