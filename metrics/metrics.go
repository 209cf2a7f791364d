// Package metrics exposes Prometheus instrumentation for feed builds, AniList
// page fetches and the page cache.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "animecal"

// Build results
const (
	BuildSuccess = "success"
	BuildError   = "error"
)

// Metrics records feed activity. A nil *Metrics is valid and records nothing.
type Metrics struct {
	pages         *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	cacheWrites   *prometheus.CounterVec
	builds        *prometheus.CounterVec
	buildDuration prometheus.Histogram
	events        prometheus.Gauge
	lastSuccessTS prometheus.Gauge
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "anilist_pages_total",
			Help:      "AniList pages served, by source",
		}, []string{"source"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Page cache lookups, by result",
		}, []string{"result"}),
		cacheWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_writes_total",
			Help:      "Page cache writes, by result",
		}, []string{"result"}),
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_builds_total",
			Help:      "Calendar feed builds, by result",
		}, []string{"result"}),
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_build_duration_seconds",
			Help:      "Time spent building the calendar feed",
			Buckets:   prometheus.DefBuckets,
		}),
		events: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_events",
			Help:      "Number of events in the last successfully built feed",
		}),
		lastSuccessTS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_last_success_timestamp_seconds",
			Help:      "Unix timestamp of the last successful feed build",
		}),
	}

	reg.MustRegister(
		m.pages, m.cacheLookups, m.cacheWrites,
		m.builds, m.buildDuration, m.events, m.lastSuccessTS,
	)

	return m
}

// ObservePage counts a page served from source
func (m *Metrics) ObservePage(source string) {
	if m == nil {
		return
	}
	m.pages.WithLabelValues(source).Inc()
}

// ObserveLookup counts a cache lookup outcome
func (m *Metrics) ObserveLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveWrite counts a cache write outcome
func (m *Metrics) ObserveWrite(result string) {
	if m == nil {
		return
	}
	m.cacheWrites.WithLabelValues(result).Inc()
}

// ObserveBuild records one feed build. The event gauge and success timestamp
// only move on success.
func (m *Metrics) ObserveBuild(result string, elapsed time.Duration, events int) {
	if m == nil {
		return
	}
	m.builds.WithLabelValues(result).Inc()
	m.buildDuration.Observe(elapsed.Seconds())
	if result == BuildSuccess {
		m.events.Set(float64(events))
		m.lastSuccessTS.SetToCurrentTime()
	}
}

// Handler serves the metrics gathered by g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
