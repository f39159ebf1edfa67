package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "detdb"

// Outcome labels of a finished transaction.
const (
	OutcomeCommitted = "committed"
	OutcomeAborted   = "aborted"
	OutcomeLockAbort = "lock_abort"
	OutcomeFailed    = "failed"
)

// Metrics holds the collectors of a single database instance.
// Every method is safe to call on a nil *Metrics, which records nothing.
type Metrics struct {
	registry *prometheus.Registry

	lockWait   prometheus.Histogram
	lockAborts prometheus.Counter
	admissions prometheus.Counter
	txCounter  *prometheus.CounterVec
	txDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		lockWait: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "locktable",
				Name:      "wait_duration_seconds",
				Help:      "Bucketed histogram of the time spent waiting for a lock.",
				Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 18),
			}),
		lockAborts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "locktable",
				Name:      "lock_aborts_total",
				Help:      "Counter of lock requests that exceeded the wait budget.",
			}),
		admissions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "gate",
				Name:      "admissions_total",
				Help:      "Counter of transactions admitted through the gate.",
			}),
		txCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "sproc",
				Name:      "txns_total",
				Help:      "Counter of stored procedure executions by outcome.",
			}, []string{"procedure", "result"}),
		txDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "sproc",
				Name:      "execute_duration_seconds",
				Help:      "Bucketed histogram of stored procedure execution time.",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 13),
			}, []string{"procedure", "result"}),
	}

	m.registry.MustRegister(m.lockWait, m.lockAborts, m.admissions, m.txCounter, m.txDuration)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the collectors of this instance in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveLockWait(d time.Duration) {
	if m == nil {
		return
	}
	m.lockWait.Observe(d.Seconds())
}

func (m *Metrics) IncLockAbort() {
	if m == nil {
		return
	}
	m.lockAborts.Inc()
}

func (m *Metrics) IncAdmission() {
	if m == nil {
		return
	}
	m.admissions.Inc()
}

// ObserveTx records the outcome and the duration of a procedure execution.
func (m *Metrics) ObserveTx(procedure, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.txCounter.WithLabelValues(procedure, outcome).Inc()
	m.txDuration.WithLabelValues(procedure, outcome).Observe(d.Seconds())
}
