// Package tracing builds the OpenTelemetry tracer provider handed to
// containers through anvil.WithTracerProvider.
package tracing

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	anvilerrors "github.com/xraph/anvil/errors"
)

// Config selects the OTLP/HTTP collector spans are sent to.
type Config struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// DefaultServiceName is reported when Config.ServiceName is empty.
const DefaultServiceName = "anvil-features"

// Shutdown flushes and stops a provider.
type Shutdown func(ctx context.Context) error

// Validate checks an enabled configuration.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Endpoint == "" {
		return anvilerrors.ErrInvalidConfig("tracing.endpoint", errors.New("endpoint is required when tracing is enabled"))
	}
	if c.SampleRatio < 0 || c.SampleRatio > 1 {
		return anvilerrors.ErrInvalidConfig("tracing.sample_ratio",
			fmt.Errorf("must be between 0 and 1, got %v", c.SampleRatio))
	}
	return nil
}

// NewProvider returns a batching OTLP/HTTP provider, or a no-op provider when
// tracing is disabled.
func NewProvider(ctx context.Context, cfg Config) (trace.TracerProvider, Shutdown, error) {
	if !cfg.Enabled {
		return noop.NewTracerProvider(), func(context.Context) error { return nil }, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	name := cfg.ServiceName
	if name == "" {
		name = DefaultServiceName
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sampler(cfg.SampleRatio)),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(name),
		)),
	)

	return provider, provider.Shutdown, nil
}

// sampler treats a zero ratio as "sample everything".
func sampler(ratio float64) sdktrace.Sampler {
	if ratio == 0 || ratio >= 1 {
		return sdktrace.AlwaysSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}
