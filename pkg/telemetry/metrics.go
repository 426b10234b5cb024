package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Sources feed the gauges. Any field may be nil.
type Sources struct {
	Conversations func() int
	Messages      func() int
	Dirty         func() int
	Typing        func() int
}

var (
	srcMu   sync.RWMutex
	sources Sources
)

// SetSources points the gauges at live components. Passing the zero value
// detaches them.
func SetSources(s Sources) {
	srcMu.Lock()
	sources = s
	srcMu.Unlock()
}

func gauge(pick func(Sources) func() int) func() float64 {
	return func() float64 {
		srcMu.RLock()
		fn := pick(sources)
		srcMu.RUnlock()
		if fn == nil {
			return 0
		}
		return float64(fn())
	}
}

var (
	Mutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_store_mutations_total",
			Help: "Store mutations by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)

	SearchQueries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "parley_search_queries_total",
			Help: "Search queries evaluated.",
		},
	)

	SearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "parley_search_duration_seconds",
			Help:    "Time spent evaluating a search query.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_http_requests_total",
			Help: "HTTP requests by method and status code.",
		},
		[]string{"method", "code"},
	)

	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "parley_http_rate_limited_total",
			Help: "Requests rejected by the per-caller rate limiter.",
		},
	)

	SnapshotRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_snapshot_runs_total",
			Help: "Snapshot flushes by outcome.",
		},
		[]string{"outcome"},
	)

	SnapshotSaved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "parley_snapshot_conversations_saved_total",
			Help: "Conversations written by snapshot flushes.",
		},
	)

	TypingChanges = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "parley_typing_changes_total",
			Help: "Changes to any conversation's typing set.",
		},
	)

	TypingSwept = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "parley_typing_swept_total",
			Help: "Stale typing indicators removed by the sweeper.",
		},
	)

	DiskUsedPercent = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "parley_disk_used_percent",
			Help: "Used space on the database volume, as last sampled by the sensor.",
		},
	)

	HeapUsedPercent = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "parley_heap_used_percent",
			Help: "Heap in use relative to heap obtained from the OS.",
		},
	)

	ResourceAlerts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_resource_alerts_total",
			Help: "Times a resource crossed its high watermark.",
		},
		[]string{"resource"},
	)

	conversations = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "parley_conversations",
			Help: "Conversations held in memory.",
		},
		gauge(func(s Sources) func() int { return s.Conversations }),
	)

	messages = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "parley_messages",
			Help: "Messages held in memory, tombstones included.",
		},
		gauge(func(s Sources) func() int { return s.Messages }),
	)

	dirty = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "parley_dirty_conversations",
			Help: "Conversations with changes not yet saved.",
		},
		gauge(func(s Sources) func() int { return s.Dirty }),
	)

	typing = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "parley_typing_indicators",
			Help: "Live typing indicators.",
		},
		gauge(func(s Sources) func() int { return s.Typing }),
	)
)

func init() {
	prometheus.MustRegister(Mutations)
	prometheus.MustRegister(SearchQueries)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(HTTPRequests)
	prometheus.MustRegister(RateLimited)
	prometheus.MustRegister(SnapshotRuns)
	prometheus.MustRegister(SnapshotSaved)
	prometheus.MustRegister(TypingChanges)
	prometheus.MustRegister(TypingSwept)
	prometheus.MustRegister(DiskUsedPercent)
	prometheus.MustRegister(HeapUsedPercent)
	prometheus.MustRegister(ResourceAlerts)
	prometheus.MustRegister(conversations)
	prometheus.MustRegister(messages)
	prometheus.MustRegister(dirty)
	prometheus.MustRegister(typing)
}

// RecordMutation counts one store mutation. found is whether the target
// message existed.
func RecordMutation(op string, found bool) {
	outcome := "applied"
	if !found {
		outcome = "missing"
	}
	Mutations.WithLabelValues(op, outcome).Inc()
}
