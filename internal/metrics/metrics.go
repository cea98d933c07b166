// Package metrics exposes Prometheus counters for the phone tools.
package metrics

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "phonetool"

// Metrics holds every collector the service updates.
type Metrics struct {
	reg *prometheus.Registry

	Runs        *prometheus.CounterVec // kind, result
	Records     prometheus.Counter
	Tokens      *prometheus.CounterVec // outcome: valid, invalid
	UnlockFiles *prometheus.CounterVec // outcome: unlocked, failed
	RunDuration *prometheus.HistogramVec
	ActiveJobs  prometheus.Gauge
}

// New registers all collectors on a fresh registry, including the Go and
// process collectors.
func New() (*Metrics, error) {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "runs_total",
			Help: "Completed runs by kind and result",
		}, []string{"kind", "result"}),
		Records: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "records_total",
			Help: "Input records processed by split runs",
		}),
		Tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "tokens_total",
			Help: "Phone number tokens by validation outcome",
		}, []string{"outcome"}),
		UnlockFiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "unlock_files_total",
			Help: "Workbooks handled by unlock runs by outcome",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "run_duration_seconds",
			Help:    "Wall time of runs by kind",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"kind"}),
		ActiveJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "active_jobs",
			Help: "Runs currently holding a job slot",
		}),
	}

	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Runs, m.Records, m.Tokens, m.UnlockFiles, m.RunDuration, m.ActiveJobs,
	} {
		if err := register(reg, c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func register(reg prometheus.Registerer, c prometheus.Collector) error {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return nil
		}
		return fmt.Errorf("register collector: %w", err)
	}
	return nil
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	h := promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		h.ServeHTTP(w, r)
	})
}

// ObserveSplit records the outcome of a split run.
func (m *Metrics) ObserveSplit(records, valid, invalid int, seconds float64) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues("split", "ok").Inc()
	m.Records.Add(float64(records))
	m.Tokens.WithLabelValues("valid").Add(float64(valid))
	m.Tokens.WithLabelValues("invalid").Add(float64(invalid))
	m.RunDuration.WithLabelValues("split").Observe(seconds)
}

// ObserveUnlock records the outcome of an unlock run.
func (m *Metrics) ObserveUnlock(unlocked, failed int, seconds float64) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues("unlock", "ok").Inc()
	m.UnlockFiles.WithLabelValues("unlocked").Add(float64(unlocked))
	m.UnlockFiles.WithLabelValues("failed").Add(float64(failed))
	m.RunDuration.WithLabelValues("unlock").Observe(seconds)
}

// ObserveFailure counts a run that ended in an error.
func (m *Metrics) ObserveFailure(kind string) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(kind, "error").Inc()
}

// JobStarted and JobFinished track the active-jobs gauge.
func (m *Metrics) JobStarted() {
	if m != nil {
		m.ActiveJobs.Inc()
	}
}

func (m *Metrics) JobFinished() {
	if m != nil {
		m.ActiveJobs.Dec()
	}
}
