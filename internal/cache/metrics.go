package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	hitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tidegate",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Reads served from a fresh cache entry.",
	}, []string{"dataset"})

	missesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tidegate",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Reads that found no fresh entry and had to wait on a refresh.",
	}, []string{"dataset"})

	fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tidegate",
		Subsystem: "cache",
		Name:      "upstream_fetches_total",
		Help:      "Upstream fetches actually issued after coalescing.",
	}, []string{"dataset"})

	coalescedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tidegate",
		Subsystem: "cache",
		Name:      "coalesced_waits_total",
		Help:      "Reads that shared another caller's in-flight fetch.",
	}, []string{"dataset"})

	refreshFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tidegate",
		Subsystem: "cache",
		Name:      "refresh_failures_total",
		Help:      "Refresh attempts that ended in an upstream error.",
	}, []string{"dataset"})

	staleServesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tidegate",
		Subsystem: "cache",
		Name:      "stale_serves_total",
		Help:      "Reads answered with an expired entry after a refresh failure.",
	}, []string{"dataset"})
)
