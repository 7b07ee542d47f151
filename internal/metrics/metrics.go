package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder wraps the Prometheus collectors used across the pipeline.
// A nil *Recorder is valid and records nothing, so components can take it
// as an optional dependency.
type Recorder struct {
	forecastsTotal   *prometheus.CounterVec
	venueFetchErrors *prometheus.CounterVec
	matchRunsTotal   prometheus.Counter
	oracleLatency    prometheus.Histogram
}

func New() *Recorder {
	return &Recorder{
		forecastsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foresight_forecasts_total",
				Help: "Total number of oracle forecasts by outcome",
			},
			[]string{"outcome"},
		),
		venueFetchErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foresight_venue_fetch_errors_total",
				Help: "Total number of failed venue catalog fetches",
			},
			[]string{"platform"},
		),
		matchRunsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "foresight_match_runs_total",
				Help: "Total number of full matching passes",
			},
		),
		oracleLatency: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "foresight_oracle_call_duration_seconds",
				Help:    "Duration of oracle calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// RecordForecast records one oracle forecast. Outcome is "ok", "error", or
// "parse_error".
func (r *Recorder) RecordForecast(outcome string) {
	if r == nil {
		return
	}
	r.forecastsTotal.WithLabelValues(outcome).Inc()
}

// RecordVenueFetchError records a failed catalog fetch for a platform.
func (r *Recorder) RecordVenueFetchError(platform string) {
	if r == nil {
		return
	}
	r.venueFetchErrors.WithLabelValues(platform).Inc()
}

// RecordMatchRun records a completed matching pass.
func (r *Recorder) RecordMatchRun() {
	if r == nil {
		return
	}
	r.matchRunsTotal.Inc()
}

// ObserveOracleCall records the duration of a single oracle call.
func (r *Recorder) ObserveOracleCall(d time.Duration) {
	if r == nil {
		return
	}
	r.oracleLatency.Observe(d.Seconds())
}
