package executor_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Azure/pipeline-orchestrator/pkg/pipeline"
	"github.com/Azure/pipeline-orchestrator/pkg/pipeline/executor"
	"github.com/Azure/pipeline-orchestrator/pkg/pipeline/resolver"
)

// scriptedSupervisor resolves every stage to the outcome named in script,
// in place of spawning real subprocesses.
type scriptedSupervisor struct {
	script map[string]pipeline.Status
}

func (s scriptedSupervisor) Supervise(_ context.Context, stage *pipeline.Stage) {
	outcome := s.script[stage.Name]
	stage.State.Status = outcome
	if outcome == pipeline.StatusPassed {
		stage.State.DurationMS = 10
	} else {
		stage.State.DurationMS = 5
		stage.State.Error = "boom"
	}
}

func byNameMap(stages []pipeline.Stage) map[string]*pipeline.Stage {
	out := make(map[string]*pipeline.Stage, len(stages))
	for i := range stages {
		out[stages[i].Name] = &stages[i]
	}
	return out
}

func TestRunWaves_SkipPropagation(t *testing.T) {
	stages := []pipeline.Stage{
		{Name: "a", Tier: 1, Command: "false", TimeoutSeconds: 10},
		{Name: "x", Tier: 1, Command: "true", TimeoutSeconds: 10},
		{Name: "b", Tier: 2, Command: "true", DependsOn: []string{"a"}, TimeoutSeconds: 10},
	}
	waves, err := resolver.Resolve(stages)
	require.NoError(t, err)

	byName := byNameMap(stages)
	// x passes, so wave 1 does not abort and wave 2 is entered, where b is
	// skipped because its dependency a failed; wave 2 is then all SKIPPED,
	// which aborts the pipeline.
	eng := executor.New(scriptedSupervisor{script: map[string]pipeline.Status{
		"a": pipeline.StatusFailed,
		"x": pipeline.StatusPassed,
	}})
	aborted := eng.RunWaves(context.Background(), waves, byName)

	assert.True(t, aborted)
	assert.Equal(t, pipeline.StatusFailed, byName["a"].State.Status)
	assert.Equal(t, pipeline.StatusSkipped, byName["b"].State.Status)
	assert.Equal(t, int64(0), byName["b"].State.DurationMS)
}

func TestRunWaves_FullWaveAbortStopsLaterWaves(t *testing.T) {
	stages := []pipeline.Stage{
		{Name: "a", Tier: 1, Command: "false", TimeoutSeconds: 10},
		{Name: "b", Tier: 1, Command: "false", TimeoutSeconds: 10},
		{Name: "c", Tier: 2, Command: "true", DependsOn: []string{"a"}, TimeoutSeconds: 10},
	}
	waves, err := resolver.Resolve(stages)
	require.NoError(t, err)

	byName := byNameMap(stages)
	eng := executor.New(scriptedSupervisor{script: map[string]pipeline.Status{
		"a": pipeline.StatusFailed,
		"b": pipeline.StatusFailed,
	}})
	aborted := eng.RunWaves(context.Background(), waves, byName)

	assert.True(t, aborted)
	assert.Equal(t, pipeline.StatusFailed, byName["a"].State.Status)
	assert.Equal(t, pipeline.StatusFailed, byName["b"].State.Status)
	// c never ran; RunWaves stops after the aborted wave and leaves it PENDING
	// for the aggregator to promote to SKIPPED.
	assert.Equal(t, pipeline.StatusPending, byName["c"].State.Status)
}

func TestRunWaves_AllPass(t *testing.T) {
	stages := []pipeline.Stage{
		{Name: "a", Tier: 1, Command: "true", TimeoutSeconds: 10},
		{Name: "b", Tier: 2, Command: "true", DependsOn: []string{"a"}, TimeoutSeconds: 10},
	}
	waves, err := resolver.Resolve(stages)
	require.NoError(t, err)

	byName := byNameMap(stages)
	eng := executor.New(scriptedSupervisor{script: map[string]pipeline.Status{
		"a": pipeline.StatusPassed,
		"b": pipeline.StatusPassed,
	}})
	aborted := eng.RunWaves(context.Background(), waves, byName)

	assert.False(t, aborted)
	assert.Equal(t, pipeline.StatusPassed, byName["a"].State.Status)
	assert.Equal(t, pipeline.StatusPassed, byName["b"].State.Status)
}

func TestRunWaves_TierStartedHookOnlyForRunnable(t *testing.T) {
	stages := []pipeline.Stage{
		{Name: "a", Tier: 1, Command: "false", TimeoutSeconds: 10},
		{Name: "b", Tier: 1, Command: "true", TimeoutSeconds: 10},
	}
	waves, err := resolver.Resolve(stages)
	require.NoError(t, err)

	byName := byNameMap(stages)
	eng := executor.New(scriptedSupervisor{script: map[string]pipeline.Status{
		"a": pipeline.StatusFailed,
		"b": pipeline.StatusPassed,
	}})

	var started []string
	eng.Hooks.TierStarted = func(_ int, stages []string) { started = append(started, stages...) }
	eng.RunWaves(context.Background(), waves, byName)

	assert.ElementsMatch(t, []string{"a", "b"}, started)
}
