package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/getmockd/seedql/pkg/instance"
	"github.com/getmockd/seedql/pkg/seed"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "seedql"

// Metrics holds the collectors of one server.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	matches         *prometheus.CounterVec
	misses          prometheus.Counter
	registrations   *prometheus.CounterVec
	exhausted       prometheus.Counter
	warnings        prometheus.Counter
	mergeErrors     prometheus.Counter
	instances       prometheus.Gauge
	instanceBuild   prometheus.Histogram
}

var (
	_ seed.Observer     = (*Metrics)(nil)
	_ instance.Observer = (*Metrics)(nil)
)

// New creates the collectors and registers them, together with the Go
// runtime and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seed_matches_total",
			Help:      "Requests answered by a seed.",
		}, []string{"kind"}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seed_misses_total",
			Help:      "Requests no seed matched.",
		}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seed_registrations_total",
			Help:      "Seeds registered.",
		}, []string{"kind"}),
		exhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seeds_exhausted_total",
			Help:      "Seeds removed after their last use.",
		}),
		warnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merge_warnings_total",
			Help:      "Seed keys that could not be applied to a baseline.",
		}),
		mergeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merge_errors_total",
			Help:      "Merges aborted by a schema inconsistency.",
		}),
		instances: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "instances",
			Help:      "Mock instances built.",
		}),
		instanceBuild: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "instance_build_seconds",
			Help:      "Time to build a mock instance.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		m.requests,
		m.requestDuration,
		m.matches,
		m.misses,
		m.registrations,
		m.exhausted,
		m.warnings,
		m.mergeErrors,
		m.instances,
		m.instanceBuild,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one handled HTTP request.
func (m *Metrics) ObserveRequest(route string, status int, duration time.Duration) {
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func (m *Metrics) OnRegister(_, _ string, kind seed.Kind) {
	m.registrations.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) OnMatch(_, _ string, kind seed.Kind) {
	m.matches.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) OnMiss(_, _ string) {
	m.misses.Inc()
}

func (m *Metrics) OnWarnings(_ string, count int) {
	m.warnings.Add(float64(count))
}

func (m *Metrics) OnExhausted(_, _ string) {
	m.exhausted.Inc()
}

func (m *Metrics) OnError(_ string, _ error) {
	m.mergeErrors.Inc()
}

func (m *Metrics) OnInstanceCreated(_, _ string, duration time.Duration) {
	m.instances.Inc()
	m.instanceBuild.Observe(duration.Seconds())
}
