// Package server exposes feature reports and container metrics over HTTP.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xraph/anvil/features"
	"github.com/xraph/anvil/features/render"
	"github.com/xraph/anvil/internal/logger"
)

// Reporter runs the probes against the named adapters. No names means all.
type Reporter func(ctx context.Context, adapters []string) ([]*features.Table, error)

// ErrBadRequest marks reporter errors caused by the request, such as an
// unknown adapter name.
var ErrBadRequest = errors.New("bad request")

// Config holds the listener settings.
type Config struct {
	Addr            string        `yaml:"addr"`
	Timeout         time.Duration `yaml:"timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DefaultConfig listens on :8080.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		Timeout:         30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Server serves /report, /metrics and /healthz.
type Server struct {
	config   Config
	reporter Reporter
	logger   logger.Logger
	router   chi.Router
}

// New builds the router. gatherer may be nil, in which case /metrics is not
// mounted.
func New(cfg Config, reporter Reporter, gatherer prometheus.Gatherer, l logger.Logger) *Server {
	if l == nil {
		l = logger.NewNoopLogger()
	}

	s := &Server{
		config:   cfg,
		reporter: reporter,
		logger:   l.Named("server"),
		router:   chi.NewRouter(),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	s.router.Get("/report", s.report)
	if gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

var contentTypes = map[string]string{
	render.FormatJSON:     "application/json",
	render.FormatYAML:     "application/yaml",
	render.FormatMarkdown: "text/markdown; charset=utf-8",
	render.FormatText:     "text/plain; charset=utf-8",
}

// report handles GET /report?format=json&adapters=a,b.
func (s *Server) report(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = render.FormatJSON
	}
	contentType, ok := contentTypes[format]
	if !ok {
		http.Error(w, fmt.Sprintf("unknown format %q", format), http.StatusBadRequest)
		return
	}
	renderer, err := render.ForFormat(format, false)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tables, err := s.reporter(r.Context(), splitList(r.URL.Query().Get("adapters")))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrBadRequest) {
			status = http.StatusBadRequest
		}
		s.logger.Warn("report failed",
			logger.String("request_id", middleware.GetReqID(r.Context())),
			logger.Error(err),
		)
		http.Error(w, err.Error(), status)
		return
	}

	var buf bytes.Buffer
	if err := renderer.Render(&buf, tables); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(buf.Bytes())
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.router,
		ReadTimeout:  s.config.Timeout,
		WriteTimeout: s.config.Timeout,
		IdleTimeout:  s.config.Timeout * 2,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	s.logger.Info("listening", logger.String("addr", s.config.Addr))

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	s.logger.Info("starting graceful shutdown", logger.Duration("timeout", s.config.ShutdownTimeout))
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' '
	})
}
