// Package metrics exposes Prometheus counters for the tutoring loop.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pathtutor/internal/logging"
	"pathtutor/internal/perception"
)

// Metrics holds the tutor's collectors, registered on their own registry.
//
// Metrics:
//   - pathtutor_classifications_total{category}
//   - pathtutor_dispatches_total{category,outcome}
//   - pathtutor_provider_calls_total{provider,operation,outcome}
//   - pathtutor_provider_call_duration_seconds{provider,operation}
//   - pathtutor_turns_recorded_total
//   - pathtutor_interrupts_total
type Metrics struct {
	registry *prometheus.Registry

	Classifications *prometheus.CounterVec
	Dispatches      *prometheus.CounterVec
	ProviderCalls   *prometheus.CounterVec
	ProviderLatency *prometheus.HistogramVec
	TurnsRecorded   prometheus.Counter
	InterruptsTotal prometheus.Counter
}

// New creates and registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Classifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pathtutor_classifications_total",
				Help: "Questions classified, by resulting category",
			},
			[]string{"category"},
		),
		Dispatches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pathtutor_dispatches_total",
				Help: "Specialist dispatches, by category and outcome",
			},
			[]string{"category", "outcome"}, // "success", "failure", "unhandled"
		),
		ProviderCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pathtutor_provider_calls_total",
				Help: "Completion provider calls, by provider, operation and outcome",
			},
			[]string{"provider", "operation", "outcome"},
		),
		ProviderLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pathtutor_provider_call_duration_seconds",
				Help:    "Completion provider call latency in seconds",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
			},
			[]string{"provider", "operation"},
		),
		TurnsRecorded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pathtutor_turns_recorded_total",
				Help: "Turns appended to conversation memory",
			},
		),
		InterruptsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pathtutor_interrupts_total",
				Help: "Sessions ended by an interrupt",
			},
		),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordClassification counts one classification result.
func (m *Metrics) RecordClassification(category string) {
	m.Classifications.WithLabelValues(category).Inc()
}

// RecordDispatch counts one dispatch outcome.
func (m *Metrics) RecordDispatch(category, outcome string) {
	m.Dispatches.WithLabelValues(category, outcome).Inc()
}

// RecordTurn counts one appended turn.
func (m *Metrics) RecordTurn() {
	m.TurnsRecorded.Inc()
}

// RecordInterrupt counts one interrupted session.
func (m *Metrics) RecordInterrupt() {
	m.InterruptsTotal.Inc()
}

// ObserveProviderCall implements perception.CallObserver.
func (m *Metrics) ObserveProviderCall(provider, operation string, elapsed time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.ProviderCalls.WithLabelValues(provider, operation, outcome).Inc()
	m.ProviderLatency.WithLabelValues(provider, operation).Observe(elapsed.Seconds())
}

var _ perception.CallObserver = (*Metrics)(nil)

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return m.serveListener(ctx, ln)
}

func (m *Metrics) serveListener(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logging.Boot("Metrics listening on %s", ln.Addr())

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
