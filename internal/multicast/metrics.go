package multicast

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	instancesDiscovered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "multicast",
		Subsystem: "engine",
		Name:      "instances_discovered_total",
		Help:      "Raw multicast annotation instances accepted for expansion.",
	})

	instancesImported = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "multicast",
		Subsystem: "engine",
		Name:      "instances_imported_total",
		Help:      "Instances imported from referenced assemblies.",
	})

	bindingsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "multicast",
		Subsystem: "engine",
		Name:      "bindings_written_total",
		Help:      "Final bindings written, by storage kind.",
	}, []string{"storage"})

	diagnosticsReported = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "multicast",
		Subsystem: "engine",
		Name:      "diagnostics_total",
		Help:      "Diagnostics reported, by code.",
	}, []string{"code"})

	resolutionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "multicast",
		Subsystem: "engine",
		Name:      "resolution_duration_seconds",
		Help:      "Time to resolve the multicast annotations of one module.",
		Buckets:   prometheus.DefBuckets,
	})
)
