package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/xraph/anvil/config"
	"github.com/xraph/anvil/features"
	"github.com/xraph/anvil/features/render"
	"github.com/xraph/anvil/internal/server"
)

// errFailures is returned when a probe failed and the report is configured
// to fail on failures. The report itself already explains what failed.
var errFailures = errors.New("feature probes failed")

type flags struct {
	configPath string
	envFiles   []string
	format     string
	adapters   []string
	noColor    bool
	metrics    bool
	failOn     bool
	addr       string
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "anvil-features",
		Short: "Compare dependency-injection adapters feature by feature",
		Long: `Run every feature probe against each selected adapter and print
one table per probe group.

Settings are read from the YAML file given with --config, then from .env
files and ANVIL_* environment variables, then from flags.`,
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			return runReport(cmd.Context(), cfg, f.metrics || cfg.Metrics.Enabled, stdout, stderr)
		},
	}

	cmd.PersistentFlags().StringVarP(&f.configPath, "config", "c", "", "YAML configuration file")
	cmd.PersistentFlags().StringSliceVar(&f.envFiles, "env", nil, ".env files to load (default .env when present)")
	cmd.PersistentFlags().StringSliceVarP(&f.adapters, "adapters", "a", nil, "adapters to compare (default all)")
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "output format: text, markdown, yaml or json")
	cmd.Flags().BoolVar(&f.noColor, "no-color", false, "disable colored output")
	cmd.Flags().BoolVar(&f.metrics, "metrics", false, "print container metrics after the report")
	cmd.Flags().BoolVar(&f.failOn, "fail-on-failure", false, "exit with status 1 when a probe fails")

	cmd.AddCommand(newServeCommand(&f))

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	return cmd
}

func newServeCommand(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve reports and metrics over HTTP",
		Long: `Serve GET /report?format=json&adapters=a,b, GET /metrics and GET /healthz.

Every report request runs the probes again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, *f)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&f.addr, "addr", "", "listen address (default from config, :8080)")

	return cmd
}

// loadConfig layers the config file, the environment and the flags.
func loadConfig(cmd *cobra.Command, f flags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.LoadEnv(f.envFiles...); err != nil {
		return nil, err
	}

	if f.format != "" {
		cfg.Report.Format = f.format
	}
	if len(f.adapters) > 0 {
		cfg.Report.Adapters = f.adapters
	}
	if f.noColor {
		cfg.Report.Color = config.ColorNever
	}
	if f.addr != "" {
		cfg.Server.Addr = f.addr
	}
	if fl := cmd.Flags().Lookup("fail-on-failure"); fl != nil && fl.Changed {
		cfg.Report.FailOnFailure = f.failOn
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runReport(ctx context.Context, cfg *config.Config, withMetrics bool, stdout, stderr io.Writer) error {
	var reg *prometheus.Registry
	if withMetrics {
		reg = prometheus.NewRegistry()
	}

	h, err := newHarness(ctx, cfg, reg)
	if err != nil {
		return err
	}
	defer h.close()

	renderer, err := render.ForFormat(cfg.Report.Format, render.ColorEnabled(cfg.Report.Color, stdout))
	if err != nil {
		return err
	}

	tables, err := h.report(ctx, cfg.Report.Adapters)
	if err != nil {
		return err
	}

	if err := renderer.Render(stdout, tables); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	if reg != nil {
		if err := writeMetrics(stderr, reg); err != nil {
			return err
		}
	}

	if cfg.Report.FailOnFailure && features.Total(tables).Failure > 0 {
		return errFailures
	}
	return nil
}

func runServer(ctx context.Context, cfg *config.Config) error {
	reg := prometheus.NewRegistry()

	h, err := newHarness(ctx, cfg, reg)
	if err != nil {
		return err
	}
	defer h.close()

	defaults := cfg.Report.Adapters
	reporter := func(ctx context.Context, adapters []string) ([]*features.Table, error) {
		if len(adapters) == 0 {
			adapters = defaults
		}
		return h.report(ctx, adapters)
	}

	return server.New(cfg.Server, reporter, reg, h.log).ListenAndServe(ctx)
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
