// Package metrics exposes lending client and node request metrics as Prometheus collectors.
// Collectors live on a private registry so tests and embedded clients never collide with
// the process-wide default registry.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	lenderr "github.com/mrz1836/lendkit/pkg/errors"
)

const (
	namespace = "lend"

	// OutcomeOK labels a call that returned no error.
	OutcomeOK = "ok"

	// shutdownTimeout bounds how long Serve waits for in-flight scrapes.
	shutdownTimeout = 5 * time.Second

	// readHeaderTimeout guards the metrics listener against slow clients.
	readHeaderTimeout = 10 * time.Second
)

// Metrics holds the lending collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	queries        *prometheus.CounterVec
	transactions   *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	busy           prometheus.Gauge
	lastPosition   *prometheus.GaugeVec
}

// New builds the collectors and registers them, together with the Go runtime
// collector, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "queries_total",
			Help:      "Contract queries issued by the lending client, by query kind and outcome.",
		}, []string{"kind", "outcome"}),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "transactions_total",
			Help:      "Transactions submitted by the lending client, by action and outcome.",
		}, []string{"action", "outcome"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "node",
			Name:      "request_duration_seconds",
			Help:      "Latency of REST and RPC requests to the chain node.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"route", "outcome"}),
		busy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "busy",
			Help:      "1 while a submitting operation is in flight.",
		}),
		lastPosition: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "position",
			Name:      "amount",
			Help:      "Last observed position amounts in the token's smallest unit.",
		}, []string{"field"}),
	}

	m.registry.MustRegister(
		m.queries,
		m.transactions,
		m.requestLatency,
		m.busy,
		m.lastPosition,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry returns the private registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordQuery counts one contract query.
func (m *Metrics) RecordQuery(kind string, err error) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(kind, Outcome(err)).Inc()
}

// RecordTx counts one submitted transaction.
func (m *Metrics) RecordTx(action string, err error) {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues(action, Outcome(err)).Inc()
}

// ObserveRequest records the latency of one node request.
func (m *Metrics) ObserveRequest(route string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.requestLatency.WithLabelValues(route, Outcome(err)).Observe(elapsed.Seconds())
}

// SetBusy mirrors the client's busy flag.
func (m *Metrics) SetBusy(busy bool) {
	if m == nil {
		return
	}
	if busy {
		m.busy.Set(1)
		return
	}
	m.busy.Set(0)
}

// SetPosition records one position field. Values beyond float64 precision are approximate.
func (m *Metrics) SetPosition(field string, value float64) {
	if m == nil {
		return
	}
	m.lastPosition.WithLabelValues(field).Set(value)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes Handler at /metrics on addr until ctx is canceled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Outcome maps an error to a bounded label value: "ok", or the lowercase error code.
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	return strings.ToLower(lenderr.Code(err))
}
