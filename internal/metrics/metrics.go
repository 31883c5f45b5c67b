// Package metrics defines the Prometheus instrumentation shared by the
// fetcher, crawler, rate limiter and circuit breaker. Metrics are package
// level promauto vars, registered against the default registry once at
// import time, and served over chi by Serve when the global
// --metrics-addr flag is set.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueueDepth tracks the current length of a named work queue
	// (accounts, replay_ids, stats, retries).
	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "blitzstats_queue_depth",
			Help: "Current number of items buffered in a work queue",
		},
		[]string{"queue"},
	)

	// RateLimiterTokens reports the token bucket's available tokens for a
	// named upstream endpoint class.
	RateLimiterTokens = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "blitzstats_rate_limiter_tokens",
			Help: "Tokens currently available in the upstream rate limiter",
		},
		[]string{"endpoint"},
	)

	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blitzstats_upstream_requests_total",
			Help: "Total upstream HTTP requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blitzstats_upstream_request_duration_seconds",
			Help:    "Upstream HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "blitzstats_circuit_breaker_state",
			Help: "Circuit breaker state: 0=closed 1=half-open 2=open",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blitzstats_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	FetcherAccountsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blitzstats_fetcher_accounts_processed_total",
			Help: "Accounts processed by the fetcher pipeline, by outcome",
		},
		[]string{"outcome"},
	)

	CrawlerReplaysSeen = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blitzstats_crawler_replays_seen_total",
			Help: "Replay ids observed by the crawler, by outcome",
		},
		[]string{"outcome"},
	)

	CrawlerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "blitzstats_crawler_state",
			Help: "Crawler state machine position: 0=spidering 1=fetching 2=draining",
		},
	)

	DedupeDuplicatesFound = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blitzstats_dedupe_duplicates_found_total",
			Help: "Duplicate stat rows identified by the analyzer, by kind",
		},
		[]string{"kind"},
	)

	SnapshotPartitionsMerged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blitzstats_snapshot_partitions_merged_total",
			Help: "Partitions merged from archive into latest by the snapshotter",
		},
	)
)
