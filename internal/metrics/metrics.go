// Package metrics exposes Prometheus counters for scans, fetches and alerts.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns a private registry. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	analyses      *prometheus.CounterVec
	skipped       *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter
	notifications *prometheus.CounterVec
}

// New creates a Recorder with all collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "tradescout_analyses_total", Help: "Completed analyses by final signal"},
			[]string{"signal"},
		),
		skipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "tradescout_skipped_total", Help: "Instruments skipped during analysis"},
			[]string{"reason"},
		),
		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradescout_fetch_duration_seconds",
				Help:    "Market data fetch latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		cacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "tradescout_cache_hits_total", Help: "Price series served from cache"},
		),
		cacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "tradescout_cache_misses_total", Help: "Price series fetched from source"},
		),
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "tradescout_notifications_total", Help: "Notifications sent by channel and status"},
			[]string{"channel", "status"},
		),
	}
	r.registry.MustRegister(r.analyses, r.skipped, r.fetchDuration, r.cacheHits, r.cacheMisses, r.notifications)
	return r
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) Analysis(signal string) {
	if r != nil {
		r.analyses.WithLabelValues(signal).Inc()
	}
}

func (r *Recorder) Skipped(reason string) {
	if r != nil {
		r.skipped.WithLabelValues(reason).Inc()
	}
}

func (r *Recorder) ObserveFetch(source string, d time.Duration) {
	if r != nil {
		r.fetchDuration.WithLabelValues(source).Observe(d.Seconds())
	}
}

func (r *Recorder) CacheHit() {
	if r != nil {
		r.cacheHits.Inc()
	}
}

func (r *Recorder) CacheMiss() {
	if r != nil {
		r.cacheMisses.Inc()
	}
}

func (r *Recorder) Notification(channel string, err error) {
	if r == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.notifications.WithLabelValues(channel, status).Inc()
}
