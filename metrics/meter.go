// Package metrics is this module's own operational instrumentation: queue
// depth, export latency, retries, backpressure and handler-rejection
// counts. It is unrelated to the trace/span *data* this module exports —
// Non-goals excludes shipping a metrics *signal*, not this package.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Unity-Technologies/trace-exporter-go/internal/log"
)

var latencyBuckets = []float64{
	0.001, 0.002, 0.005, 0.01, 0.02, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20,
}

var queueDepth = NewGaugeVec(
	"traceexport", "queue", "depth",
	"Current number of batches sitting in the export queue",
)

var queueCapacity = NewGaugeVec(
	"traceexport", "queue", "capacity",
	"Configured capacity of the export queue",
)

var exportLatency = NewHistVec(
	"traceexport", "rpc", "export_latency_seconds",
	"Seconds taken by one Export RPC call attempt, including failed attempts",
	latencyBuckets,
)

var retryTotal = NewCounterVec(
	"traceexport", "rpc", "retries_total",
	"Number of retried Export RPC call attempts",
)

var backpressureTotal = NewCounterVec(
	"traceexport", "queue", "backpressure_rejections_total",
	"Number of Export calls rejected because the export queue was full",
)

var handlerRejectedTotal = NewCounterVec(
	"traceexport", "rpc", "handler_rejected_spans_total",
	"Total spans a receiver reported as rejected via partial_success",
)

var droppedBatchesTotal = NewCounterVec(
	"traceexport", "worker", "dropped_batches_total",
	"Batches dropped after exhausting the retry policy",
)

func init() {
	prometheus.MustRegister(queueDepth)
	prometheus.MustRegister(queueCapacity)
	prometheus.MustRegister(exportLatency)
	prometheus.MustRegister(retryTotal)
	prometheus.MustRegister(backpressureTotal)
	prometheus.MustRegister(handlerRejectedTotal)
	prometheus.MustRegister(droppedBatchesTotal)
}

// NewCounterVec, NewGaugeVec, and NewHistVec trim the usual
// namespace/subsystem/name/help constructor down to this module's
// label-free metrics: every metric here has exactly one instance per
// process, so no label_keys are threaded through.
func NewCounterVec(system, subsys, name, help string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: system, Subsystem: subsys, Name: name, Help: help},
		nil,
	)
}

func NewGaugeVec(system, subsys, name, help string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: system, Subsystem: subsys, Name: name, Help: help},
		nil,
	)
}

func NewHistVec(system, subsys, name, help string, buckets []float64) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: system, Subsystem: subsys, Name: name, Help: help, Buckets: buckets},
		nil,
	)
}

// SecondsSince matches the teacher's helper of the same name.
func SecondsSince(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Second)
}

// SetQueueCapacity records the export queue's fixed capacity once at
// startup, the direct analogue of the teacher's
// metric.NewCapacityUsage(float64(cap(queue)), ...) call.
func SetQueueCapacity(capacity int) {
	m, err := queueCapacity.GetMetricWithLabelValues()
	if nil != err {
		log.Fail().Map("metrics: can't get queue capacity metric", err)
		return
	}
	m.Set(float64(capacity))
}

// ObserveQueueDepth records the current export-queue length, the direct
// analogue of the teacher's capacity.Record(float64(len(queue))) call site.
func ObserveQueueDepth(depth int) {
	m, err := queueDepth.GetMetricWithLabelValues()
	if nil != err {
		log.Fail().Map("metrics: can't get queue depth metric", err)
		return
	}
	m.Set(float64(depth))
}

// ObserveExportLatency records one Export RPC call attempt's wall time.
func ObserveExportLatency(d time.Duration) {
	m, err := exportLatency.GetMetricWithLabelValues()
	if nil != err {
		log.Fail().Map("metrics: can't get export latency metric", err)
		return
	}
	m.Observe(d.Seconds())
}

// IncRetry counts one retried Export call attempt.
func IncRetry() {
	m, err := retryTotal.GetMetricWithLabelValues()
	if nil != err {
		log.Fail().Map("metrics: can't get retry counter", err)
		return
	}
	m.Inc()
}

// IncBackpressure counts one Export call rejected for a full queue.
func IncBackpressure() {
	m, err := backpressureTotal.GetMetricWithLabelValues()
	if nil != err {
		log.Fail().Map("metrics: can't get backpressure counter", err)
		return
	}
	m.Inc()
}

// IncHandlerRejected adds rejected to the total rejected-span count
// reported by receivers via partial_success.
func IncHandlerRejected(rejected uint64) {
	m, err := handlerRejectedTotal.GetMetricWithLabelValues()
	if nil != err {
		log.Fail().Map("metrics: can't get handler-rejected counter", err)
		return
	}
	m.Add(float64(rejected))
}

// IncDropped counts one batch dropped after exhausting the retry policy.
func IncDropped() {
	m, err := droppedBatchesTotal.GetMetricWithLabelValues()
	if nil != err {
		log.Fail().Map("metrics: can't get dropped-batches counter", err)
		return
	}
	m.Inc()
}
