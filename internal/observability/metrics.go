package observability

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riskibarqy/penalty-tracker/internal/domain/penalty"
	"github.com/riskibarqy/penalty-tracker/internal/platform/logging"
)

const metricsNamespace = "penalty_tracker"

// Metrics holds the crawl and provider counters on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	providerRequests *prometheus.CounterVec
	providerRetries  *prometheus.CounterVec
	teamsExpanded    prometheus.Counter
	matchesProcessed prometheus.Counter
	penaltiesFound   *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	auto := promauto.With(registry)

	return &Metrics{
		registry: registry,
		providerRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "provider_requests_total",
			Help:      "HTTP attempts against the statistics provider by resource and result.",
		}, []string{"resource", "result"}),
		providerRetries: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "provider_retries_total",
			Help:      "Backoff waits taken after a failed provider attempt.",
		}, []string{"resource"}),
		teamsExpanded: auto.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "crawl_teams_expanded_total",
			Help:      "Teams whose match history was listed.",
		}),
		matchesProcessed: auto.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "crawl_matches_processed_total",
			Help:      "Finished matches whose incidents were classified.",
		}),
		penaltiesFound: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "penalties_found_total",
			Help:      "Penalty records produced by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) ObserveRequest(resource, result string) {
	if m == nil {
		return
	}
	m.providerRequests.WithLabelValues(resource, result).Inc()
}

func (m *Metrics) ObserveRetry(resource string) {
	if m == nil {
		return
	}
	m.providerRetries.WithLabelValues(resource).Inc()
}

func (m *Metrics) TeamExpanded() {
	if m == nil {
		return
	}
	m.teamsExpanded.Inc()
}

func (m *Metrics) MatchProcessed() {
	if m == nil {
		return
	}
	m.matchesProcessed.Inc()
}

func (m *Metrics) PenaltyFound(outcome penalty.Outcome) {
	if m == nil {
		return
	}
	m.penaltiesFound.WithLabelValues(string(outcome)).Inc()
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ServeMetrics exposes /metrics on addr until the returned shutdown is
// called. An empty addr disables the endpoint.
func ServeMetrics(m *Metrics, addr string, logger *logging.Logger) (func(context.Context) error, error) {
	if logger == nil {
		logger = logging.Default()
	}
	addr = strings.TrimSpace(addr)
	if m == nil || addr == "" {
		return func(context.Context) error { return nil }, nil
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	logger.Info("metrics endpoint enabled", "addr", listener.Addr().String())

	return server.Shutdown, nil
}
