package signpool

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pkt-cash/pktsign/btcutil/er"
	"github.com/pkt-cash/pktsign/signing"
)

const (
	variantSequential = "sequential"
	variantConcurrent = "concurrent"
)

// Metrics are the prometheus collectors of a pool.  A nil *Metrics records
// nothing.
type Metrics struct {
	batches  *prometheus.CounterVec
	tasks    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	workers  prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.  Collectors
// which reg already has are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, er.R) {
	m := &Metrics{
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pktsign",
			Subsystem: "pool",
			Name:      "batches_total",
			Help:      "Signing batches run, by pool variant.",
		}, []string{"variant"}),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pktsign",
			Subsystem: "pool",
			Name:      "tasks_total",
			Help:      "Signing tasks run, by pool variant and result.",
		}, []string{"variant", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pktsign",
			Subsystem: "pool",
			Name:      "batch_duration_seconds",
			Help:      "Time taken to sign a batch.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"variant"}),
		workers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pktsign",
			Subsystem: "pool",
			Name:      "workers",
			Help:      "Worker goroutines currently running.",
		}),
	}
	var err er.R
	m.batches = register(reg, m.batches, &err).(*prometheus.CounterVec)
	m.tasks = register(reg, m.tasks, &err).(*prometheus.CounterVec)
	m.duration = register(reg, m.duration, &err).(*prometheus.HistogramVec)
	m.workers = register(reg, m.workers, &err).(prometheus.Gauge)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// register registers c, returning the collector already registered in its
// place if there is one.  The first failure is stored in errOut.
func register(reg prometheus.Registerer, c prometheus.Collector, errOut *er.R) prometheus.Collector {
	errr := reg.Register(c)
	if errr == nil {
		return c
	}
	if are, ok := errr.(prometheus.AlreadyRegisteredError); ok {
		return are.ExistingCollector
	}
	if *errOut == nil {
		*errOut = er.E(errr)
	}
	return c
}

func (m *Metrics) observe(variant string, out *signing.Outcome) {
	if m == nil {
		return
	}
	m.batches.WithLabelValues(variant).Inc()
	m.tasks.WithLabelValues(variant, "ok").Add(float64(len(out.Signatures)))
	m.tasks.WithLabelValues(variant, "error").Add(float64(len(out.Errors)))
	m.duration.WithLabelValues(variant).Observe(out.Duration.Seconds())
}

func (m *Metrics) setWorkers(n int) {
	if m == nil {
		return
	}
	m.workers.Set(float64(n))
}
