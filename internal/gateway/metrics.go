package gateway

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/parley-dev/parley/internal/generator"
	"github.com/parley-dev/parley/internal/session"
)

// Turn outcome labels.
const (
	outcomeCompleted = "completed"
	outcomeFailed    = "failed"
)

// Metrics collects gateway counters into a dedicated Prometheus
// registry. Session occupancy and generator counters are sampled at
// scrape time through Gauge/CounterFuncs; turn counters are recorded
// by the handlers.
type Metrics struct {
	registry *prometheus.Registry

	sessionsStarted prometheus.Counter
	turns           *prometheus.CounterVec
	turnDuration    prometheus.Histogram
}

func newMetrics(sessions *session.Store, stats func() generator.Stats) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "parley_sessions_started_total",
			Help: "Interview sessions created.",
		}),
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_turns_total",
			Help: "Processed interview turns by outcome.",
		}, []string{"outcome"}),
		turnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "parley_turn_duration_seconds",
			Help: "Wall time spent processing one turn.",
			// Turns wait on generation and can run well past 10s.
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}
	reg.MustRegister(m.sessionsStarted, m.turns, m.turnDuration)

	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "parley_active_sessions",
		Help: "Sessions currently held in memory.",
	}, func() float64 { return float64(sessions.Len()) }))

	if stats != nil {
		counterFunc := func(name, help string, field func(generator.Stats) uint64) prometheus.CounterFunc {
			return prometheus.NewCounterFunc(prometheus.CounterOpts{Name: name, Help: help}, func() float64 {
				return float64(field(stats()))
			})
		}
		reg.MustRegister(
			counterFunc("parley_generator_attempts_total", "Upstream generation calls made.",
				func(s generator.Stats) uint64 { return s.Attempts }),
			counterFunc("parley_generator_retries_total", "Generation attempts that followed a transient failure.",
				func(s generator.Stats) uint64 { return s.Retries }),
			counterFunc("parley_generator_rotations_total", "API key rotations caused by retries.",
				func(s generator.Stats) uint64 { return s.Rotations }),
			counterFunc("parley_generator_exhausted_total", "Requests that spent the full attempt budget.",
				func(s generator.Stats) uint64 { return s.Exhausted }),
		)
	}

	return m
}

// handler serves the registry in Prometheus exposition format.
func (m *Metrics) handler() http.HandlerFunc {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP
}

func (m *Metrics) recordSessionStart() {
	m.sessionsStarted.Inc()
}

func (m *Metrics) recordTurn(err error, elapsed time.Duration) {
	outcome := outcomeCompleted
	if err != nil {
		outcome = outcomeFailed
	}
	m.turns.WithLabelValues(outcome).Inc()
	m.turnDuration.Observe(elapsed.Seconds())
}
