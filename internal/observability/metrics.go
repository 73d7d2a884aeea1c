package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics centralizes Prometheus instrumentation for billing runs.
type Metrics struct {
	registry *prometheus.Registry

	runDuration       *prometheus.HistogramVec
	customersBilled   *prometheus.CounterVec
	interfacesSkipped prometheus.Counter
	lastRun           prometheus.Gauge
}

// NewMetrics builds a metrics container backed by the provided registry. If no
// registry is supplied, a new one is created.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{registry: reg}

	m.runDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "burstbill_billing_run_seconds",
		Help:    "Durations of billing runs",
		Buckets: prometheus.DefBuckets,
	}, []string{"status"})
	m.customersBilled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "burstbill_customers_billed_total",
		Help: "Customers billed per run",
	}, []string{"status"})
	m.interfacesSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "burstbill_interfaces_skipped_total",
		Help: "Interfaces skipped because their series could not be read",
	})
	m.lastRun = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "burstbill_last_run_timestamp_seconds",
		Help: "Completion time of the most recent billing run",
	})

	reg.MustRegister(m.runDuration, m.customersBilled, m.interfacesSkipped, m.lastRun)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveBillingRun records the outcome of one run. It satisfies the
// billing engine's Metrics interface.
func (m *Metrics) ObserveBillingRun(duration time.Duration, customers, skipped int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.runDuration.WithLabelValues(status).Observe(duration.Seconds())
	m.customersBilled.WithLabelValues(status).Add(float64(customers))
	m.interfacesSkipped.Add(float64(skipped))
	m.lastRun.SetToCurrentTime()
}
