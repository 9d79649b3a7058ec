// Package engine wires the resolver, executor, and supervisor packages
// into the single entry point spec.md §6 describes: admit a stage set,
// resolve it into waves, and run them to completion.
package engine

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/Azure/pipeline-orchestrator/pkg/pipeline"
	"github.com/Azure/pipeline-orchestrator/pkg/pipeline/executor"
	"github.com/Azure/pipeline-orchestrator/pkg/pipeline/perr"
	"github.com/Azure/pipeline-orchestrator/pkg/pipeline/resolver"
	"github.com/Azure/pipeline-orchestrator/pkg/pipeline/supervisor"
)

// Option configures an Engine.
type Option func(*Engine)

// WithObserver attaches an Observer for logging/metrics.
func WithObserver(o pipeline.Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithSupervisor overrides the default subprocess supervisor, primarily
// for tests that need a fake supervisor.
func WithSupervisor(s executor.Supervisor) Option {
	return func(e *Engine) { e.supervisor = s }
}

// Engine admits a stage set, resolves it into waves at construction time,
// and runs them on Run. It is the sole entry point spec §6 describes.
type Engine struct {
	stages     []pipeline.Stage
	waves      []resolver.Wave
	workspace  string
	observer   pipeline.Observer
	supervisor executor.Supervisor
}

// New validates and admits stages. It returns a *perr.Error with
// Code == perr.InvalidDAG if the stage set is malformed; no stage runs in
// that case.
func New(stages []pipeline.Stage, workspace string, opts ...Option) (*Engine, error) {
	waves, err := resolver.Resolve(stages)
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(workspace); statErr != nil {
		return nil, perr.New(perr.SupervisorInternalError, "workspace does not exist", statErr)
	}

	e := &Engine{
		stages:    pipeline.Clone(stages),
		waves:     waves,
		workspace: workspace,
		observer:  pipeline.NoopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.supervisor == nil {
		e.supervisor = supervisor.New(workspace)
	}
	return e, nil
}

// NewEngine is an alias for New, kept so callers can spell out the
// package-qualified form (engine.NewEngine) as readably as engine.New.
func NewEngine(stages []pipeline.Stage, workspace string, opts ...Option) (*Engine, error) {
	return New(stages, workspace, opts...)
}

// Run executes the pipeline to completion (naturally or by abort) and
// returns the PipelineResult. It never returns an error for stage
// failures; those are reported in the result.
func (e *Engine) Run(ctx context.Context) (*pipeline.PipelineResult, error) {
	runID := uuid.NewString()
	e.observer.RunStarted(runID, len(e.stages))

	start := time.Now()

	byName := make(map[string]*pipeline.Stage, len(e.stages))
	for i := range e.stages {
		byName[e.stages[i].Name] = &e.stages[i]
	}

	eng := executor.New(e.supervisor)
	eng.Hooks = executor.Hooks{
		TierStarted:   e.observer.TierStarted,
		StageSkipped:  e.observer.StageSkipped,
		StagePassed:   e.observer.StagePassed,
		StageFailed:   e.observer.StageFailed,
		PipelineAbort: e.observer.PipelineAborted,
	}
	eng.RunWaves(ctx, e.waves, byName)

	result := pipeline.Aggregate(start, e.stages)
	e.observer.RunCompleted(runID, result)
	return result, nil
}
