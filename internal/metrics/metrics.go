package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels shared by the counters below.
const (
	OutcomeDeparture      = "departure"
	OutcomeNoDeparture    = "no_departure"
	OutcomeNetworkFailure = "network_failure"
	OutcomeUnavailable    = "unavailable"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"

	SyncWritten   = "written"
	SyncUnchanged = "unchanged"
	SyncOversize  = "oversize"
	SyncFailed    = "failed"
)

var (
	// OutgoingLatency tracks the duration of every request sent by the pooled client.
	OutgoingLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nexttram_outgoing_request_duration_seconds",
		Help:    "Latency of outgoing HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"url", "method", "status"})
)

var (
	IntentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nexttram_intents_total",
		Help: "Number of handled intents by name and outcome (success or the failure kind)",
	}, []string{"intent", "outcome"})
)

var (
	ScheduleFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nexttram_schedule_fetches_total",
		Help: "Number of next-departure lookups by provider and outcome",
	}, []string{"provider", "outcome"})
)

var (
	PreferenceSyncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nexttram_preference_sync_total",
		Help: "Number of persistence sync cycles by outcome",
	}, []string{"outcome"})

	SnapshotBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nexttram_preference_snapshot_bytes",
		Help: "Size of the last serialized preference snapshot",
	})

	StoredCallers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nexttram_preference_callers",
		Help: "Number of callers with stored preferences",
	})
)
