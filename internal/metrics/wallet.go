package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "xcc_wallet"

const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Wallet records lifecycle operation counts and latency. A nil *Wallet is a no-op.
type Wallet struct {
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	errors     *prometheus.CounterVec
}

// NewWallet registers the wallet collectors on reg. A nil reg leaves the
// collectors unregistered, which is convenient in tests.
func NewWallet(reg prometheus.Registerer) (*Wallet, error) {
	w := &Wallet{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Wallet lifecycle operations by result.",
		}, []string{"operation", "result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_seconds",
			Help:      "Wallet lifecycle operation latency.",
			Buckets:   []float64{.001, .005, .025, .1, .25, .5, 1, 2.5, 5},
		}, []string{"operation"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Wallet errors by category.",
		}, []string{"category"}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{w.operations, w.latency, w.errors} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return w, nil
}

func (w *Wallet) RecordOp(operation string, started time.Time, err error) {
	if w == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	w.operations.WithLabelValues(operation, result).Inc()
	w.latency.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func (w *Wallet) RecordError(category string) {
	if w == nil {
		return
	}
	w.errors.WithLabelValues(category).Inc()
}

func (w *Wallet) OperationCount(operation, result string) prometheus.Counter {
	return w.operations.WithLabelValues(operation, result)
}

func (w *Wallet) ErrorCount(category string) prometheus.Counter {
	return w.errors.WithLabelValues(category)
}
