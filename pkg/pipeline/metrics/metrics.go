// Package metrics exposes optional Prometheus instrumentation for the
// pipeline engine. It is pure ambient observability: nothing in the core
// engine requires it, and a nil *Recorder is never dereferenced because
// callers wire it in only via engine.WithObserver.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Azure/pipeline-orchestrator/pkg/pipeline"
)

// Recorder records stage outcomes and durations as Prometheus metrics.
type Recorder struct {
	outcomes  *prometheus.CounterVec
	durations *prometheus.HistogramVec
	runs      prometheus.Counter
	speedup   prometheus.Gauge
}

// NewRecorder creates a Recorder and registers its collectors with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_stage_outcomes_total",
			Help: "Count of stage terminal outcomes by stage name and status.",
		}, []string{"stage", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pipeline_stage_duration_milliseconds",
			Help:    "Observed stage duration in milliseconds.",
			Buckets: prometheus.ExponentialBuckets(50, 2, 12),
		}, []string{"stage"}),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Count of completed pipeline runs.",
		}),
		speedup: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pipeline_last_speedup_factor",
			Help: "Speedup factor observed in the most recently completed run.",
		}),
	}
	reg.MustRegister(r.outcomes, r.durations, r.runs, r.speedup)
	return r
}

// Observer adapts a Recorder to pipeline.Observer. Logging and metrics
// compose via a fan-out observer rather than the Recorder implementing
// pipeline.Observer directly, keeping the metrics-only surface small.
type Observer struct {
	rec *Recorder
}

// NewObserver wraps rec as a pipeline.Observer.
func NewObserver(rec *Recorder) *Observer {
	return &Observer{rec: rec}
}

var _ pipeline.Observer = (*Observer)(nil)

func (Observer) TierStarted(int, []string)    {}
func (Observer) PipelineAborted(int)          {}
func (Observer) RunStarted(string, int)       {}

func (o *Observer) StageSkipped(name, _ string) {
	o.rec.outcomes.WithLabelValues(name, string(pipeline.StatusSkipped)).Inc()
}

func (o *Observer) StagePassed(name string, durationMS int64) {
	o.rec.outcomes.WithLabelValues(name, string(pipeline.StatusPassed)).Inc()
	o.rec.durations.WithLabelValues(name).Observe(float64(durationMS))
}

func (o *Observer) StageFailed(name string, durationMS int64, _ string) {
	o.rec.outcomes.WithLabelValues(name, string(pipeline.StatusFailed)).Inc()
	o.rec.durations.WithLabelValues(name).Observe(float64(durationMS))
}

func (o *Observer) RunCompleted(_ string, result *pipeline.PipelineResult) {
	o.rec.runs.Inc()
	o.rec.speedup.Set(result.SpeedupFactor)
}

// Fanout dispatches every pipeline.Observer event to all of its observers.
type Fanout []pipeline.Observer

var _ pipeline.Observer = Fanout(nil)

func (f Fanout) TierStarted(tier int, stages []string) {
	for _, o := range f {
		o.TierStarted(tier, stages)
	}
}

func (f Fanout) StageSkipped(name, reason string) {
	for _, o := range f {
		o.StageSkipped(name, reason)
	}
}

func (f Fanout) StagePassed(name string, durationMS int64) {
	for _, o := range f {
		o.StagePassed(name, durationMS)
	}
}

func (f Fanout) StageFailed(name string, durationMS int64, reason string) {
	for _, o := range f {
		o.StageFailed(name, durationMS, reason)
	}
}

func (f Fanout) PipelineAborted(tier int) {
	for _, o := range f {
		o.PipelineAborted(tier)
	}
}

func (f Fanout) RunStarted(runID string, stageCount int) {
	for _, o := range f {
		o.RunStarted(runID, stageCount)
	}
}

func (f Fanout) RunCompleted(runID string, result *pipeline.PipelineResult) {
	for _, o := range f {
		o.RunCompleted(runID, result)
	}
}
