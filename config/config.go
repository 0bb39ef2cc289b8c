// Package config loads container and harness settings from YAML files and
// ANVIL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/xraph/anvil"
	anvilerrors "github.com/xraph/anvil/errors"
	"github.com/xraph/anvil/features/render"
	"github.com/xraph/anvil/internal/logger"
	"github.com/xraph/anvil/internal/server"
	"github.com/xraph/anvil/internal/tracing"
)

// Config is the complete configuration.
type Config struct {
	Container ContainerConfig      `yaml:"container"`
	Logging   logger.LoggingConfig `yaml:"logging"`
	Metrics   MetricsConfig        `yaml:"metrics"`
	Tracing   tracing.Config       `yaml:"tracing"`
	Server    server.Config        `yaml:"server"`
	Report    ReportConfig         `yaml:"report"`
}

// ContainerConfig selects container policies.
type ContainerConfig struct {
	Resolution string `yaml:"resolution"`
	Properties string `yaml:"properties"`
}

// MetricsConfig toggles Prometheus instrumentation.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ReportConfig controls the feature table output.
type ReportConfig struct {
	Format        string   `yaml:"format"`
	Adapters      []string `yaml:"adapters"`
	Color         string   `yaml:"color"`
	FailOnFailure bool     `yaml:"fail_on_failure"`
}

// Color modes.
const (
	ColorAuto   = render.ColorAuto
	ColorAlways = render.ColorAlways
	ColorNever  = render.ColorNever
)

var formats = []string{render.FormatText, render.FormatMarkdown, render.FormatYAML, render.FormatJSON}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Container: ContainerConfig{
			Resolution: anvil.ResolutionStrict.String(),
			Properties: anvil.PropertiesExported.String(),
		},
		Logging: logger.LoggingConfig{
			Level:       string(logger.LevelInfo),
			Format:      "console",
			Environment: "development",
			Output:      "stderr",
		},
		Tracing: tracing.Config{
			ServiceName: tracing.DefaultServiceName,
			SampleRatio: 1,
		},
		Server: server.DefaultConfig(),
		Report: ReportConfig{
			Format: "text",
			Color:  ColorAuto,
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	return tryLoadConfig(path)
}

// tryLoadConfig attempts to load config from a specific path
func tryLoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// LoadEnv loads the given .env files, or .env when none are given, and
// applies ANVIL_* overrides. A missing default .env is not an error.
func (c *Config) LoadEnv(files ...string) error {
	if len(files) == 0 {
		// Non-fatal: .env may not exist
		_ = godotenv.Load()
	} else if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("failed to load env files: %w", err)
	}

	return c.applyEnv()
}

func (c *Config) applyEnv() error {
	setString(&c.Container.Resolution, "ANVIL_RESOLUTION")
	setString(&c.Container.Properties, "ANVIL_PROPERTIES")
	setString(&c.Logging.Level, "ANVIL_LOG_LEVEL")
	setString(&c.Logging.Format, "ANVIL_LOG_FORMAT")
	setString(&c.Logging.Output, "ANVIL_LOG_OUTPUT")
	setString(&c.Report.Format, "ANVIL_REPORT_FORMAT")
	setString(&c.Report.Color, "ANVIL_COLOR")

	if v := os.Getenv("ANVIL_ADAPTERS"); v != "" {
		c.Report.Adapters = SplitList(v)
	}

	if err := setBool(&c.Metrics.Enabled, "ANVIL_METRICS"); err != nil {
		return err
	}
	if err := setBool(&c.Tracing.Enabled, "ANVIL_TRACING"); err != nil {
		return err
	}
	setString(&c.Tracing.Endpoint, "ANVIL_OTLP_ENDPOINT")
	setString(&c.Server.Addr, "ANVIL_SERVER_ADDR")
	return setBool(&c.Report.FailOnFailure, "ANVIL_FAIL_ON_FAILURE")
}

// Validate checks every enumerated setting.
func (c *Config) Validate() error {
	if _, ok := anvil.ParseResolutionPolicy(c.Container.Resolution); !ok {
		return anvilerrors.ErrInvalidConfig("container.resolution",
			fmt.Errorf("unknown policy %q", c.Container.Resolution))
	}
	if _, ok := anvil.ParsePropertyMode(c.Container.Properties); !ok {
		return anvilerrors.ErrInvalidConfig("container.properties",
			fmt.Errorf("unknown mode %q", c.Container.Properties))
	}
	if !slices.Contains(formats, c.Report.Format) {
		return anvilerrors.ErrInvalidConfig("report.format",
			fmt.Errorf("must be one of %s", strings.Join(formats, ", ")))
	}
	switch c.Report.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return anvilerrors.ErrInvalidConfig("report.color",
			fmt.Errorf("must be auto, always or never, got %q", c.Report.Color))
	}
	if c.Server.Addr == "" {
		return anvilerrors.ErrInvalidConfig("server.addr", errors.New("address is required"))
	}
	return c.Tracing.Validate()
}

// Options converts the container settings into container options. Invalid
// values fall back to the defaults; call Validate first to reject them.
func (c ContainerConfig) Options() []anvil.Option {
	policy, _ := anvil.ParseResolutionPolicy(c.Resolution)
	mode, _ := anvil.ParsePropertyMode(c.Properties)

	return []anvil.Option{
		anvil.WithResolutionPolicy(policy),
		anvil.WithPropertyInjection(mode),
	}
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ── helpers ─────────────────────────────────────────────────────────────────

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return anvilerrors.ErrInvalidConfig(key, err)
	}
	*dst = b
	return nil
}
