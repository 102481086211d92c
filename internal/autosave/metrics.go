package autosave

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	savesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rostercore_autosave_saves_total",
		Help: "Autosave ticks that ran a save, by outcome.",
	}, []string{"status"})

	saveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rostercore_autosave_save_duration_seconds",
		Help:    "Duration of autosave save operations.",
		Buckets: prometheus.DefBuckets,
	})

	consecutiveFailures = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rostercore_autosave_consecutive_failures",
		Help: "Consecutive failed autosave ticks; resets to zero on success.",
	})
)
