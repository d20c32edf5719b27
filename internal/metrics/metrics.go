// Package metrics exposes Prometheus instruments for transfers, downloads
// and the HTTP API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	transferObjects  *prometheus.CounterVec
	downloadFiles    *prometheus.CounterVec
	downloadBytes    prometheus.Counter
	statusUpdateErrs prometheus.Counter
	runDuration      *prometheus.HistogramVec
	httpRequests     *prometheus.CounterVec
}

// New registers the instruments on reg under namespace.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		transferObjects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transfer",
			Name:      "objects_total",
			Help:      "Objects copied between buckets by outcome",
		}, []string{"outcome"}),
		downloadFiles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "download",
			Name:      "files_total",
			Help:      "Files fetched to local storage by outcome",
		}, []string{"outcome"}),
		downloadBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "download",
			Name:      "bytes_total",
			Help:      "Bytes written to local storage",
		}),
		statusUpdateErrs: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "download",
			Name:      "status_update_errors_total",
			Help:      "Metadata status updates that failed",
		}),
		runDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a full transfer or download run",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"operation"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"route", "code"}),
	}
}

func outcome(ok bool) string {
	if ok {
		return OutcomeSuccess
	}
	return OutcomeFailure
}

func (m *Metrics) ObserveTransfer(ok bool) {
	if m == nil {
		return
	}
	m.transferObjects.WithLabelValues(outcome(ok)).Inc()
}

func (m *Metrics) ObserveDownload(ok bool, bytes int64) {
	if m == nil {
		return
	}
	m.downloadFiles.WithLabelValues(outcome(ok)).Inc()
	if bytes > 0 {
		m.downloadBytes.Add(float64(bytes))
	}
}

func (m *Metrics) ObserveStatusUpdateError() {
	if m == nil {
		return
	}
	m.statusUpdateErrs.Inc()
}

func (m *Metrics) ObserveRun(operation string, started time.Time) {
	if m == nil {
		return
	}
	m.runDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func (m *Metrics) ObserveRequest(route, code string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, code).Inc()
}
