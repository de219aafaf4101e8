// Package prometheus exposes run progress of the fetch core as Prometheus metrics.
package prometheus

import (
	"net/http"
	"time"

	"github.com/m-mizutani/stargazer/pkg/domain/interfaces"
	"github.com/m-mizutani/stargazer/pkg/domain/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stargazer"

// Observer records run progress on its own registry
type Observer struct {
	registry *prometheus.Registry

	pagesFetched   *prometheus.CounterVec
	rowsForwarded  prometheus.Counter
	queueDepth     prometheus.Gauge
	workerFinished *prometheus.CounterVec
	runsTotal      *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
	lastSuccess    prometheus.Gauge
}

var _ interfaces.RunObserver = (*Observer)(nil)

// NewObserver creates an observer with Go runtime and process collectors registered
func NewObserver() *Observer {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Observer{
		registry: reg,
		pagesFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "pages_total",
			Help:      "Total number of stargazer pages fetched by source",
		}, []string{"source"}),
		rowsForwarded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "rows_forwarded_total",
			Help:      "Total number of rows handed to the sink writer",
		}),
		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "queue_depth",
			Help:      "Messages waiting in the shared queue",
		}),
		workerFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "workers_finished_total",
			Help:      "Source workers finished by result (exhausted, watermark, failed)",
		}, []string{"source", "result"}),
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "total",
			Help:      "Ingestion runs by mode and status",
		}, []string{"mode", "status"}),
		runDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Duration of ingestion runs",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		}, []string{"mode"}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run",
		}),
	}
}

func (o *Observer) PageFetched(source string) {
	o.pagesFetched.WithLabelValues(source).Inc()
}

func (o *Observer) RowsForwarded(n int) {
	o.rowsForwarded.Add(float64(n))
}

func (o *Observer) QueueDepth(depth int) {
	o.queueDepth.Set(float64(depth))
}

func (o *Observer) WorkerFinished(source string, result string) {
	o.workerFinished.WithLabelValues(source, result).Inc()
}

func (o *Observer) RunFinished(mode types.Mode, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	o.runsTotal.WithLabelValues(mode.String(), status).Inc()
	o.runDuration.WithLabelValues(mode.String()).Observe(duration.Seconds())
	if success {
		o.lastSuccess.SetToCurrentTime()
	}
}

// Registry returns the registry holding the collectors
func (o *Observer) Registry() *prometheus.Registry {
	return o.registry
}

// Handler serves the registry in the Prometheus exposition format
func (o *Observer) Handler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{})
}
