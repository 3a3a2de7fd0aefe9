// Package metrics exposes turn telemetry on a private Prometheus registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"crappybird/pkg/bird"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "crappybird"

// Metrics implements bird.Recorder. Each instance owns its registry so tests
// and multiple servers in one process do not collide.
type Metrics struct {
	registry *prometheus.Registry

	turns          *prometheus.CounterVec
	turnDuration   *prometheus.HistogramVec
	crumbViolation *prometheus.CounterVec
	intimacy       prometheus.Gauge
	httpRequests   *prometheus.CounterVec
}

var _ bird.Recorder = (*Metrics)(nil)

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		turns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Turns handled, partitioned by tier and outcome.",
		}, []string{"tier", "outcome"}),
		turnDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Time from receiving a turn to a validated reaction or failure.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		}, []string{"tier"}),
		crumbViolation: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crumb_rule_violations_total",
			Help:      "Feeding turns answered with a feeling_delta outside the tier's crumb range.",
		}, []string{"tier"}),
		intimacy: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "intimacy",
			Help:      "Last intimacy score written by the server.",
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) ObserveTurn(tier bird.Tier, outcome string, elapsed time.Duration) {
	m.turns.WithLabelValues(tier.String(), outcome).Inc()
	m.turnDuration.WithLabelValues(tier.String()).Observe(elapsed.Seconds())
}

func (m *Metrics) CrumbRuleViolation(tier bird.Tier) {
	m.crumbViolation.WithLabelValues(tier.String()).Inc()
}

func (m *Metrics) SetIntimacy(score int) {
	m.intimacy.Set(float64(score))
}

// ObserveRequest counts one finished HTTP request. route is the matched
// pattern, not the raw path.
func (m *Metrics) ObserveRequest(method, route string, status int) {
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
