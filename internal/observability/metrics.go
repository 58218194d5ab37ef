// internal/observability/metrics.go
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics - счётчики и гистограммы сервиса для Prometheus
type Metrics struct {
	TickRuns        prometheus.Counter
	TickDuration    prometheus.Histogram
	TickUserErrors  prometheus.Counter
	HazardsDetected *prometheus.CounterVec // label: type
	HazardsSent     prometheus.Counter
	SendFailures    prometheus.Counter
	UpstreamErrors  prometheus.Counter
	ForecastCache   *prometheus.CounterVec // label: result={hit,miss}
}

func newMetrics() *Metrics {
	return &Metrics{
		TickRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "meteovip",
			Name:      "tick_runs_total",
			Help:      "Total hazard sweep executions.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "meteovip",
			Name:      "tick_duration_seconds",
			Help:      "Duration of a complete hazard sweep.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		TickUserErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "meteovip",
			Name:      "tick_user_errors_total",
			Help:      "Per-user failures isolated inside the sweep.",
		}),
		HazardsDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meteovip",
			Name:      "hazards_detected_total",
			Help:      "Hazard intervals detected, including deduplicated ones.",
		}, []string{"type"}),
		HazardsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "meteovip",
			Name:      "hazards_sent_total",
			Help:      "Hazard notifications actually delivered.",
		}),
		SendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "meteovip",
			Name:      "hazard_send_failures_total",
			Help:      "Hazard notifications recorded but not delivered.",
		}),
		UpstreamErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "meteovip",
			Name:      "weather_upstream_errors_total",
			Help:      "Failed requests to the weather provider.",
		}),
		ForecastCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meteovip",
			Name:      "forecast_cache_total",
			Help:      "Forecast cache lookups by result.",
		}, []string{"result"}),
	}
}

// NewMetrics создает метрики и регистрирует их в стандартном реестре
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.TickRuns,
		m.TickDuration,
		m.TickUserErrors,
		m.HazardsDetected,
		m.HazardsSent,
		m.SendFailures,
		m.UpstreamErrors,
		m.ForecastCache,
	)
	return m
}

// NewMetricsForTesting создает метрики без регистрации, чтобы тесты
// не падали на повторном MustRegister
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
