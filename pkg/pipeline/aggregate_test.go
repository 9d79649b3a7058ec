package pipeline_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Azure/pipeline-orchestrator/pkg/pipeline"
)

func TestAggregate_PromotesLeftoverPendingToSkipped(t *testing.T) {
	stages := []pipeline.Stage{
		{Name: "a", Tier: 1, State: pipeline.StageState{Status: pipeline.StatusFailed, DurationMS: 100}},
		{Name: "b", Tier: 2, State: pipeline.StageState{Status: pipeline.StatusPending}},
	}
	result := pipeline.Aggregate(time.Now().Add(-50*time.Millisecond), stages)

	assert.Equal(t, pipeline.StatusSkipped, result.Stages["b"].Status)
	assert.Equal(t, int64(0), result.Stages["b"].DurationMS)
}

func TestAggregate_SequentialBaselineIsSum(t *testing.T) {
	stages := []pipeline.Stage{
		{Name: "a", State: pipeline.StageState{Status: pipeline.StatusPassed, DurationMS: 120}},
		{Name: "b", State: pipeline.StageState{Status: pipeline.StatusPassed, DurationMS: 80}},
	}
	result := pipeline.Aggregate(time.Now().Add(-100*time.Millisecond), stages)

	assert.Equal(t, int64(200), result.SequentialBaselineMS)
}

func TestAggregate_SpeedupDefaultsToOneWhenElapsedIsZero(t *testing.T) {
	stages := []pipeline.Stage{
		{Name: "a", State: pipeline.StageState{Status: pipeline.StatusPassed, DurationMS: 100}},
	}
	result := pipeline.Aggregate(time.Now(), stages)

	assert.Equal(t, 1.0, result.SpeedupFactor)
}

func TestAggregate_PreviewsCapped(t *testing.T) {
	big := make([]byte, pipeline.PreviewBytes+50)
	for i := range big {
		big[i] = 'x'
	}
	stages := []pipeline.Stage{
		{Name: "a", State: pipeline.StageState{Status: pipeline.StatusPassed, Output: string(big), Error: string(big)}},
	}
	result := pipeline.Aggregate(time.Now().Add(-time.Millisecond), stages)

	assert.Len(t, result.Stages["a"].OutputPreview, pipeline.PreviewBytes)
	assert.Len(t, result.Stages["a"].ErrorPreview, pipeline.PreviewBytes)
}
