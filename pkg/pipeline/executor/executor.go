// Package executor runs one wave at a time, launching runnable stages
// concurrently and joining on the wave's completion before advancing.
package executor

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/Azure/pipeline-orchestrator/pkg/pipeline"
	"github.com/Azure/pipeline-orchestrator/pkg/pipeline/resolver"
)

// Supervisor is the subset of supervisor.Supervisor the executor depends
// on, so tests can substitute a fake without spawning real processes.
type Supervisor interface {
	Supervise(ctx context.Context, stage *pipeline.Stage)
}

// Hooks lets a caller observe lifecycle events (structured logging,
// metrics) without the executor importing a concrete logger/metrics
// package. All fields are optional.
type Hooks struct {
	TierStarted   func(tier int, stages []string)
	StageSkipped  func(name, reason string)
	StagePassed   func(name string, durationMS int64)
	StageFailed   func(name string, durationMS int64, reason string)
	PipelineAbort func(tier int)
}

// Engine runs all waves of a resolved pipeline in ascending tier order.
type Engine struct {
	Supervisor Supervisor
	Hooks      Hooks
}

// New returns an Engine that supervises stages with sup.
func New(sup Supervisor) *Engine {
	return &Engine{Supervisor: sup}
}

// RunWaves executes waves in order against the stage map (keyed by name).
// It returns true if the pipeline aborted (every stage in some wave ended
// in FAILED or SKIPPED), in which case the caller must promote any
// remaining PENDING stages in later waves to SKIPPED.
func (e *Engine) RunWaves(ctx context.Context, waves []resolver.Wave, byName map[string]*pipeline.Stage) bool {
	for _, wave := range waves {
		e.runWave(ctx, wave, byName)

		if allTerminalFailed(wave, byName) {
			if e.Hooks.PipelineAbort != nil {
				e.Hooks.PipelineAbort(wave.Tier)
			}
			return true
		}
	}
	return false
}

func (e *Engine) runWave(ctx context.Context, wave resolver.Wave, byName map[string]*pipeline.Stage) {
	var runnable []*pipeline.Stage

	for _, name := range wave.Stages {
		stage := byName[name]
		if stage.State.Status != pipeline.StatusPending {
			continue // anomaly: not PENDING at wave entry, ignored per spec
		}

		if depFailed, reason := dependencyFailed(stage, byName); depFailed {
			stage.State.Status = pipeline.StatusSkipped
			stage.State.DurationMS = 0
			stage.State.Error = reason
			if e.Hooks.StageSkipped != nil {
				e.Hooks.StageSkipped(stage.Name, "dependency_failed")
			}
			continue
		}

		runnable = append(runnable, stage)
	}

	if len(runnable) == 0 {
		return
	}

	if e.Hooks.TierStarted != nil {
		names := make([]string, len(runnable))
		for i, s := range runnable {
			names[i] = s.Name
		}
		e.Hooks.TierStarted(wave.Tier, names)
	}

	// Supervisor goroutines never return a non-nil error to the group:
	// a stage's own failure must never cancel its siblings' contexts, so
	// outcomes are recorded on each *Stage directly and errgroup is used
	// purely as a structured fan-out/fan-in join, not for error
	// propagation.
	g, gctx := errgroup.WithContext(ctx)
	for _, stage := range runnable {
		stage := stage
		g.Go(func() error {
			e.Supervisor.Supervise(gctx, stage)
			switch stage.State.Status {
			case pipeline.StatusPassed:
				if e.Hooks.StagePassed != nil {
					e.Hooks.StagePassed(stage.Name, stage.State.DurationMS)
				}
			case pipeline.StatusFailed:
				if e.Hooks.StageFailed != nil {
					e.Hooks.StageFailed(stage.Name, stage.State.DurationMS, stage.State.Error)
				}
			}
			return nil
		})
	}
	_ = g.Wait()
}

// dependencyFailed reports whether any of stage's dependencies ended in
// FAILED or SKIPPED. Dependencies always live in strictly lower-numbered
// waves (enforced by resolver.Resolve), so by the time this wave runs
// every dependency is already terminal.
func dependencyFailed(stage *pipeline.Stage, byName map[string]*pipeline.Stage) (bool, string) {
	for _, dep := range stage.DependsOn {
		depStage := byName[dep]
		if depStage.State.Status == pipeline.StatusFailed || depStage.State.Status == pipeline.StatusSkipped {
			return true, "dependency_failed"
		}
	}
	return false, ""
}

// allTerminalFailed reports whether every stage in wave is FAILED or
// SKIPPED, the condition that triggers a pipeline-wide abort.
func allTerminalFailed(wave resolver.Wave, byName map[string]*pipeline.Stage) bool {
	for _, name := range wave.Stages {
		s := byName[name].State.Status
		if s != pipeline.StatusFailed && s != pipeline.StatusSkipped {
			return false
		}
	}
	return true
}
