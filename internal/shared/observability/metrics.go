package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modscan_scans_total",
		Help: "Total number of scan builds by outcome.",
	}, []string{"outcome"})

	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "modscan_scan_seconds",
		Help:    "Time spent on a full scan build.",
		Buckets: prometheus.DefBuckets,
	})

	ModulesVisited = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "modscan_modules_visited",
		Help: "Number of modules visited by the most recent scan.",
	})

	ResultModules = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "modscan_result_modules",
		Help: "Number of modules returned by the most recent scan.",
	})

	ReferencesDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modscan_references_dropped_total",
		Help: "Total number of references not followed during deep scans, by filter stage.",
	}, []string{"reason"})

	LoadFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modscan_load_failures_total",
		Help: "Total number of module loads that failed, by phase and kind.",
	}, []string{"phase", "kind"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "modscan_watcher_events_total",
		Help: "Total number of file system events received by the manifest watcher.",
	})

	RescansThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "modscan_rescans_throttled_total",
		Help: "Total number of watch-mode rescans delayed by the rate limiter.",
	})
)
