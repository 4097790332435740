// Package metrics exposes Prometheus instrumentation for the EV engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ev_engine"

// Recorder holds every metric the service emits
type Recorder struct {
	runs            *prometheus.CounterVec
	runDuration     prometheus.Histogram
	eventsProcessed *prometheus.CounterVec
	fetchFailures   *prometheus.CounterVec
	malformedQuotes prometheus.Counter
	snapshotWrites  prometheus.Counter
	snapshotErrors  prometheus.Counter
	playsEmitted    prometheus.Counter
	boardSize       prometheus.Gauge
	publishFailures prometheus.Counter
}

// NewRecorder registers the metrics on reg. A nil registerer uses the default.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Recorder{
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed batch runs by result.",
		}, []string{"result"}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a batch run.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		eventsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_processed_total",
			Help:      "Events evaluated by sport.",
		}, []string{"sport"}),
		fetchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Provider fetch failures by operation.",
		}, []string{"operation"}),
		malformedQuotes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_quotes_total",
			Help:      "Outcomes dropped during normalization.",
		}),
		snapshotWrites: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_writes_total",
			Help:      "Snapshots recorded.",
		}),
		snapshotErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_errors_total",
			Help:      "Snapshot record failures.",
		}),
		playsEmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plays_emitted_total",
			Help:      "Plays written to the artifact.",
		}),
		boardSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "board_plays",
			Help:      "Plays currently on the board.",
		}),
		publishFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_failures_total",
			Help:      "Play batches that failed to publish.",
		}),
	}
}

// RunCompleted records a finished run
func (r *Recorder) RunCompleted(d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.runs.WithLabelValues(result).Inc()
	r.runDuration.Observe(d.Seconds())
}

func (r *Recorder) EventProcessed(sport string) {
	r.eventsProcessed.WithLabelValues(sport).Inc()
}

func (r *Recorder) FetchFailed(operation string) {
	r.fetchFailures.WithLabelValues(operation).Inc()
}

func (r *Recorder) MalformedQuotes(n int) {
	r.malformedQuotes.Add(float64(n))
}

func (r *Recorder) SnapshotRecorded() {
	r.snapshotWrites.Inc()
}

func (r *Recorder) SnapshotFailed() {
	r.snapshotErrors.Inc()
}

// PlaysEmitted records an artifact write and the resulting board size
func (r *Recorder) PlaysEmitted(n int) {
	r.playsEmitted.Add(float64(n))
	r.boardSize.Set(float64(n))
}

func (r *Recorder) PublishFailed() {
	r.publishFailures.Inc()
}
