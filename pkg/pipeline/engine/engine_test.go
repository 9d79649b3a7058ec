package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Azure/pipeline-orchestrator/pkg/pipeline"
	"github.com/Azure/pipeline-orchestrator/pkg/pipeline/engine"
	"github.com/Azure/pipeline-orchestrator/pkg/pipeline/executor"
)

// scriptedSupervisor resolves a stage's outcome by name without spawning a
// real subprocess, matching spec.md §8's concrete end-to-end scenarios.
type scriptedSupervisor struct {
	outcome map[string]pipeline.Status
	sleep   map[string]time.Duration
}

var _ executor.Supervisor = scriptedSupervisor{}

func (s scriptedSupervisor) Supervise(ctx context.Context, stage *pipeline.Stage) {
	if d, ok := s.sleep[stage.Name]; ok {
		deadline := time.Duration(stage.TimeoutSeconds) * time.Second
		select {
		case <-time.After(d):
		case <-time.After(deadline):
			stage.State.Status = pipeline.StatusFailed
			stage.State.Error = "Timeout after 1s"
			stage.State.DurationMS = deadline.Milliseconds()
			return
		}
	}
	status := s.outcome[stage.Name]
	stage.State.Status = status
	if status == pipeline.StatusPassed {
		stage.State.DurationMS = 5
	} else {
		stage.State.DurationMS = 5
		stage.State.Error = "failed"
	}
}

func TestEngine_AllPassTrivial(t *testing.T) {
	stages := []pipeline.Stage{{Name: "a", Tier: 1, Command: "true", TimeoutSeconds: 10}}
	eng, err := engine.New(stages, t.TempDir(),
		engine.WithSupervisor(scriptedSupervisor{outcome: map[string]pipeline.Status{"a": pipeline.StatusPassed}}))
	require.NoError(t, err)

	result, err := eng.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, pipeline.StatusPassed, result.Stages["a"].Status)
	assert.Len(t, result.Stages, 1)
	assert.Equal(t, 1.0, result.SpeedupFactor)
}

func TestEngine_DependencySkip(t *testing.T) {
	stages := []pipeline.Stage{
		{Name: "a", Tier: 1, Command: "false", TimeoutSeconds: 10},
		{Name: "b", Tier: 2, Command: "true", DependsOn: []string{"a"}, TimeoutSeconds: 10},
	}
	eng, err := engine.New(stages, t.TempDir(),
		engine.WithSupervisor(scriptedSupervisor{outcome: map[string]pipeline.Status{"a": pipeline.StatusFailed}}))
	require.NoError(t, err)

	result, err := eng.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, pipeline.StatusFailed, result.Stages["a"].Status)
	assert.Equal(t, pipeline.StatusSkipped, result.Stages["b"].Status)
	assert.Equal(t, int64(0), result.Stages["b"].DurationMS)
}

func TestEngine_FullWaveAbort(t *testing.T) {
	stages := []pipeline.Stage{
		{Name: "a", Tier: 1, Command: "false", TimeoutSeconds: 10},
		{Name: "b", Tier: 1, Command: "false", TimeoutSeconds: 10},
		{Name: "c", Tier: 2, Command: "true", DependsOn: []string{"a"}, TimeoutSeconds: 10},
	}
	eng, err := engine.New(stages, t.TempDir(),
		engine.WithSupervisor(scriptedSupervisor{outcome: map[string]pipeline.Status{
			"a": pipeline.StatusFailed,
			"b": pipeline.StatusFailed,
		}}))
	require.NoError(t, err)

	result, err := eng.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, pipeline.StatusFailed, result.Stages["a"].Status)
	assert.Equal(t, pipeline.StatusFailed, result.Stages["b"].Status)
	assert.Equal(t, pipeline.StatusSkipped, result.Stages["c"].Status)
}

func TestEngine_CycleRejectedBeforeRun(t *testing.T) {
	stages := []pipeline.Stage{
		{Name: "a", Tier: 1, Command: "true", DependsOn: []string{"b"}, TimeoutSeconds: 10},
		{Name: "b", Tier: 1, Command: "true", DependsOn: []string{"a"}, TimeoutSeconds: 10},
	}
	_, err := engine.New(stages, t.TempDir())
	require.Error(t, err)
}

func TestEngine_NoStageEverPendingOrRunningAfterReturn(t *testing.T) {
	stages := []pipeline.Stage{
		{Name: "a", Tier: 1, Command: "false", TimeoutSeconds: 10},
		{Name: "b", Tier: 1, Command: "false", TimeoutSeconds: 10},
		{Name: "c", Tier: 2, Command: "true", DependsOn: []string{"a"}, TimeoutSeconds: 10},
		{Name: "d", Tier: 3, Command: "true", DependsOn: []string{"c"}, TimeoutSeconds: 10},
	}
	eng, err := engine.New(stages, t.TempDir(),
		engine.WithSupervisor(scriptedSupervisor{outcome: map[string]pipeline.Status{
			"a": pipeline.StatusFailed,
			"b": pipeline.StatusFailed,
		}}))
	require.NoError(t, err)

	result, err := eng.Run(context.Background())
	require.NoError(t, err)

	for name, s := range result.Stages {
		assert.NotEqual(t, pipeline.StatusPending, s.Status, name)
		assert.NotEqual(t, pipeline.StatusRunning, s.Status, name)
	}
}

func TestEngine_WorkspaceMustExist(t *testing.T) {
	stages := []pipeline.Stage{{Name: "a", Tier: 1, Command: "true", TimeoutSeconds: 10}}
	_, err := engine.New(stages, "/nonexistent/workspace/path")
	require.Error(t, err)
}
