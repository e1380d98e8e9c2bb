package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"
)

type Metrics struct {
	Operations        *prometheus.CounterVec
	Addresses         prometheus.Gauge
	BackfillProcessed *prometheus.CounterVec
	APIErrors         prometheus.Counter
	RequestSeconds    *prometheus.HistogramVec
	ActiveWorkers     prometheus.Gauge
	BreakerState      prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Operations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "addressbook_operations_total",
			Help: "Total number of address book operations by operation and status.",
		}, []string{"operation", "status"}),
		Addresses: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "addressbook_addresses",
			Help: "Number of addresses currently held by the store.",
		}),
		BackfillProcessed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "addressbook_backfill_processed_total",
			Help: "Total number of addresses processed by the coordinate backfill.",
		}, []string{"status"}),
		APIErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "addressbook_geocoding_api_errors_total",
			Help: "Total number of errors received from the geocoding provider API.",
		}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "addressbook_geocoding_request_duration_seconds",
			Help:    "Duration of requests to the geocoding provider API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		ActiveWorkers: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "addressbook_backfill_active_workers",
			Help: "Current number of active backfill workers.",
		}),
		BreakerState: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "addressbook_api_circuit_breaker_state",
			Help: "State of the backend circuit breaker (0=closed, 1=half-open, 2=open).",
		}),
	}
}

// ObserveBreaker records a breaker transition.
func (m *Metrics) ObserveBreaker(state gobreaker.State) {
	switch state {
	case gobreaker.StateClosed:
		m.BreakerState.Set(0)
	case gobreaker.StateHalfOpen:
		m.BreakerState.Set(1)
	case gobreaker.StateOpen:
		m.BreakerState.Set(2)
	}
}
