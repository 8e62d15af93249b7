// Package metrics provides Prometheus collectors for the ritual, backlog and search subsystems.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BallotsTotal counts ballot submissions by result (accepted, rejected).
	BallotsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moviepick_ballots_total",
		Help: "Total number of ritual ballot submissions, by result.",
	}, []string{"result"})

	// TalliesTotal counts tallies by outcome.
	TalliesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moviepick_tallies_total",
		Help: "Total number of ritual tallies, by outcome.",
	}, []string{"outcome"})

	// RunoffsTotal counts candidate set restrictions.
	RunoffsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moviepick_runoffs_total",
		Help: "Total number of runoff rounds started.",
	})

	// PicksTotal counts committed winners, by whether they came from a random draw.
	PicksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moviepick_picks_total",
		Help: "Total number of committed ritual winners, by drawn flag.",
	}, []string{"drawn"})

	// ActiveRituals tracks live ritual sessions.
	ActiveRituals = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "moviepick_active_rituals",
		Help: "Current number of live ritual sessions.",
	})

	// BacklogWritesTotal counts backlog inserts and updates by operation and result.
	BacklogWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moviepick_backlog_writes_total",
		Help: "Total number of backlog writes, by operation and result.",
	}, []string{"op", "result"})

	// SearchRequestsTotal counts metadata searches by kind and result (ok, error, cached).
	SearchRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moviepick_search_requests_total",
		Help: "Total number of metadata searches, by media kind and result.",
	}, []string{"kind", "result"})

	// SearchPagesTotal counts upstream result pages fetched.
	SearchPagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moviepick_search_pages_total",
		Help: "Total number of metadata search result pages fetched.",
	})

	// HTTPRequestDuration measures API latency by route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "moviepick_http_request_duration_seconds",
		Help:    "HTTP request latencies in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	// HTTPRequestsInFlight tracks requests being served.
	HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "moviepick_http_requests_in_flight",
		Help: "Current number of HTTP requests being served.",
	})
)
