// Package metrics records container activity with Prometheus.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

const namespace = "anvil"

// Recorder receives container events.
type Recorder interface {
	Resolution(lifetime, outcome string, d time.Duration)
	Construction(lifetime string)
	Disposal(outcome string)
}

// NewRecorder creates a Prometheus recorder registered with reg. A nil reg
// returns a recorder that discards everything.
func NewRecorder(reg prometheus.Registerer) (Recorder, error) {
	if reg == nil {
		return NewNoopRecorder(), nil
	}

	r := &promRecorder{
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolutions_total",
				Help:      "Total number of top-level service resolutions",
			},
			[]string{"lifetime", "outcome"},
		),
		constructions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "constructions_total",
				Help:      "Total number of instances constructed",
			},
			[]string{"lifetime"},
		),
		disposals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "disposals_total",
				Help:      "Total number of instances released",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "resolve_duration_seconds",
				Help:      "Top-level resolution duration in seconds",
				Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		),
	}

	var err error
	if r.resolutions, err = register(reg, r.resolutions); err != nil {
		return nil, err
	}
	if r.constructions, err = register(reg, r.constructions); err != nil {
		return nil, err
	}
	if r.disposals, err = register(reg, r.disposals); err != nil {
		return nil, err
	}
	if r.duration, err = register(reg, r.duration); err != nil {
		return nil, err
	}

	return r, nil
}

// register adds c to reg. When an identical collector is already registered
// the existing one is returned, so several containers can share a registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}

	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}

	var zero C
	return zero, err
}

type promRecorder struct {
	resolutions   *prometheus.CounterVec
	constructions *prometheus.CounterVec
	disposals     *prometheus.CounterVec
	duration      prometheus.Histogram
}

func (r *promRecorder) Resolution(lifetime, outcome string, d time.Duration) {
	r.resolutions.WithLabelValues(lifetime, outcome).Inc()
	r.duration.Observe(d.Seconds())
}

func (r *promRecorder) Construction(lifetime string) {
	r.constructions.WithLabelValues(lifetime).Inc()
}

func (r *promRecorder) Disposal(outcome string) {
	r.disposals.WithLabelValues(outcome).Inc()
}

// NewNoopRecorder returns a recorder that discards every event.
func NewNoopRecorder() Recorder {
	return noopRecorder{}
}

type noopRecorder struct{}

func (noopRecorder) Resolution(string, string, time.Duration) {}

func (noopRecorder) Construction(string) {}

func (noopRecorder) Disposal(string) {}

// Outcome maps an error to an outcome label.
func Outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
