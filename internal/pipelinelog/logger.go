// Package pipelinelog adapts the pipeline engine's lifecycle events to
// structured zerolog output, the same console-writer setup the rest of
// this codebase uses for stdout/stderr level splitting.
package pipelinelog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/Azure/pipeline-orchestrator/pkg/pipeline"
)

// New builds a zerolog.Logger that writes INFO/DEBUG/WARN to stdout and
// ERROR+ to stderr, split by two level-filtered specificLevelWriters.
func New(level string) zerolog.Logger {
	writer := zerolog.MultiLevelWriter(
		specificLevelWriter{
			Writer: zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339},
			Levels: []zerolog.Level{zerolog.DebugLevel, zerolog.InfoLevel, zerolog.WarnLevel},
		},
		specificLevelWriter{
			Writer: zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339},
			Levels: []zerolog.Level{zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel},
		},
	)
	l := zerolog.New(writer).With().Timestamp().Logger()
	if lvl, err := zerolog.ParseLevel(level); err == nil {
		l = l.Level(lvl)
	}
	return l
}

type specificLevelWriter struct {
	io.Writer
	Levels []zerolog.Level
}

func (w specificLevelWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	for _, l := range w.Levels {
		if l == level {
			return w.Write(p)
		}
	}
	return len(p), nil
}

// Observer logs every pipeline lifecycle event at the level the teacher's
// code uses for the equivalent outcome (info for progress, error for
// failures).
type Observer struct {
	log zerolog.Logger
}

// NewObserver wraps log as a pipeline.Observer.
func NewObserver(log zerolog.Logger) *Observer {
	return &Observer{log: log.With().Str("component", "pipeline").Logger()}
}

var _ pipeline.Observer = (*Observer)(nil)

func (o *Observer) RunStarted(runID string, stageCount int) {
	o.log.Info().Str("run_id", runID).Int("stages", stageCount).Msg("run_started")
}

func (o *Observer) TierStarted(tier int, stages []string) {
	o.log.Info().Int("tier", tier).Strs("stages", stages).Msg("tier_started")
}

func (o *Observer) StageSkipped(name, reason string) {
	o.log.Info().Str("stage", name).Str("reason", reason).Msg("stage_skipped")
}

func (o *Observer) StagePassed(name string, durationMS int64) {
	o.log.Info().Str("stage", name).Int64("duration_ms", durationMS).Msg("stage_passed")
}

func (o *Observer) StageFailed(name string, durationMS int64, reason string) {
	o.log.Error().Str("stage", name).Int64("duration_ms", durationMS).Str("error", pipeline.Truncate(reason, pipeline.PreviewBytes)).Msg("stage_failed")
}

func (o *Observer) PipelineAborted(tier int) {
	o.log.Error().Int("tier", tier).Msg("pipeline_aborted")
}

func (o *Observer) RunCompleted(runID string, result *pipeline.PipelineResult) {
	passed, failed, skipped := 0, 0, 0
	for _, s := range result.Stages {
		switch s.Status {
		case pipeline.StatusPassed:
			passed++
		case pipeline.StatusFailed:
			failed++
		case pipeline.StatusSkipped:
			skipped++
		}
	}
	o.log.Info().
		Str("run_id", runID).
		Int64("total_time_ms", result.TotalTimeMS).
		Float64("speedup_factor", result.SpeedupFactor).
		Int("passed", passed).
		Int("failed", failed).
		Int("skipped", skipped).
		Msg("pipeline_complete")
}
