// Package metrics exposes Prometheus counters for the dashboard.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build as many as they like.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	saves           *prometheus.CounterVec
	newsFetches     *prometheus.CounterVec
	withdrawals     *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zeus_requests_total",
				Help: "How many HTTP requests processed, partitioned by status code, method and route.",
			},
			[]string{"code", "method", "route"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "zeus_request_duration_seconds",
				Help: "The HTTP request latencies in seconds.",
			},
			[]string{"code", "method", "route"},
		),
		saves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zeus_ledger_saves_total",
				Help: "Ledger saves, partitioned by result.",
			},
			[]string{"result"},
		),
		newsFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zeus_news_fetches_total",
				Help: "News feed fetches, partitioned by result (ok, error, cached).",
			},
			[]string{"result"},
		),
		withdrawals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zeus_savings_withdrawals_total",
				Help: "Savings withdrawals, partitioned by whether they were applied.",
			},
			[]string{"applied"},
		),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestCount,
		m.requestDuration,
		m.saves,
		m.newsFetches,
		m.withdrawals,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requestCount.WithLabelValues(code, method, route).Inc()
	m.requestDuration.WithLabelValues(code, method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) LedgerSaved(err error) {
	if m == nil {
		return
	}
	m.saves.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) NewsFetched(err error, cached bool) {
	if m == nil {
		return
	}
	if cached {
		m.newsFetches.WithLabelValues("cached").Inc()
		return
	}
	m.newsFetches.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) Withdrawal(applied bool) {
	if m == nil {
		return
	}
	m.withdrawals.WithLabelValues(strconv.FormatBool(applied)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
