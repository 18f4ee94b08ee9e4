package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so tests and multiple app instances do
// not collide on the global one.
type Collector struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration prometheus.Histogram
	remoteCalls     *prometheus.CounterVec
	jobRuns         *prometheus.CounterVec
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "evaltool",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by status code.",
		}, []string{"code"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "evaltool",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		remoteCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "evaltool",
			Subsystem: "remote",
			Name:      "calls_total",
			Help:      "Remote store calls by operation and result.",
		}, []string{"op", "result"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "evaltool",
			Subsystem: "jobs",
			Name:      "runs_total",
			Help:      "Background job runs by type and status.",
		}, []string{"job", "status"}),
	}
	c.registry.MustRegister(
		c.requests,
		c.requestDuration,
		c.remoteCalls,
		c.jobRuns,
		collectors.NewGoCollector(),
	)
	return c
}

func (c *Collector) Record(status int, duration time.Duration) {
	c.requests.WithLabelValues(strconv.Itoa(status)).Inc()
	c.requestDuration.Observe(duration.Seconds())
}

// ObserveRemote satisfies evaluation.RemoteObserver.
func (c *Collector) ObserveRemote(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.remoteCalls.WithLabelValues(op, result).Inc()
}

func (c *Collector) RecordJob(jobType string, err error) {
	status := "completed"
	if err != nil {
		status = "failed"
	}
	c.jobRuns.WithLabelValues(jobType, status).Inc()
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
