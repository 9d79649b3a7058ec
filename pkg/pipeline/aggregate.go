package pipeline

import "time"

// Aggregate computes the final PipelineResult. Any stage still PENDING
// (only possible after an abort) is promoted to SKIPPED with
// DurationMS == 0 before the summary is computed.
func Aggregate(runStart time.Time, stages []Stage) *PipelineResult {
	var sequentialSum int64
	results := make(map[string]StageResult, len(stages))

	for i := range stages {
		s := &stages[i]
		if s.State.Status == StatusPending {
			s.State.Status = StatusSkipped
			s.State.DurationMS = 0
		}
		sequentialSum += s.State.DurationMS
		results[s.Name] = StageResult{
			Status:        s.State.Status,
			Tier:          s.Tier,
			DurationMS:    s.State.DurationMS,
			OutputPreview: Truncate(s.State.Output, PreviewBytes),
			ErrorPreview:  Truncate(s.State.Error, PreviewBytes),
		}
	}

	parallelActual := time.Since(runStart).Milliseconds()

	speedup := 1.0
	if parallelActual > 0 {
		speedup = roundTo2(float64(sequentialSum) / float64(parallelActual))
	}

	return &PipelineResult{
		TotalTimeMS:          parallelActual,
		SequentialBaselineMS: sequentialSum,
		ParallelActualMS:     parallelActual,
		SpeedupFactor:        speedup,
		Stages:               results,
	}
}

func roundTo2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}
