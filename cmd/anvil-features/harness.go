package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/xraph/anvil"
	"github.com/xraph/anvil/adapter"
	"github.com/xraph/anvil/config"
	"github.com/xraph/anvil/features"
	"github.com/xraph/anvil/internal/logger"
	"github.com/xraph/anvil/internal/server"
	"github.com/xraph/anvil/internal/tracing"
)

// harness owns everything a probe run needs: the logger, the tracer provider
// and the adapter registry built with the configured container options.
type harness struct {
	log      logger.Logger
	adapters *adapter.Registry
	runner   *features.Runner
	shutdown tracing.Shutdown
}

// newHarness wires the configured logger, tracing and metrics into the
// adapter registry. reg may be nil.
func newHarness(ctx context.Context, cfg *config.Config, reg *prometheus.Registry) (*harness, error) {
	log := logger.NewLogger(cfg.Logging)

	tp, shutdown, err := tracing.NewProvider(ctx, cfg.Tracing)
	if err != nil {
		return nil, err
	}

	opts := append(cfg.Container.Options(),
		anvil.WithLogger(log),
		anvil.WithTracerProvider(tp),
	)
	if reg != nil {
		opts = append(opts, anvil.WithMetrics(reg))
	}

	return &harness{
		log:      log,
		adapters: adapter.Default(opts...),
		runner:   features.NewRunner(log),
		shutdown: shutdown,
	}, nil
}

func (h *harness) report(ctx context.Context, requested []string) ([]*features.Table, error) {
	selected, err := h.adapters.Select(requested)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", server.ErrBadRequest, err)
	}

	h.log.Debug("running feature probes", logger.Strings("adapters", adapterNames(selected)))

	return h.runner.Run(ctx, features.DefaultSuite(), selected)
}

func (h *harness) close() {
	if err := h.shutdown(context.Background()); err != nil {
		h.log.Warn("tracer shutdown failed", logger.Error(err))
	}
	_ = h.log.Sync()
}

func adapterNames(selected []adapter.Named) []string {
	out := make([]string, len(selected))
	for i, n := range selected {
		out[i] = n.Name
	}
	return out
}
