package pipeline

// StageResult is the terminal, read-only subrecord for one stage, emitted
// once at the end of a run.
type StageResult struct {
	Status        Status `json:"status"`
	Tier          int    `json:"tier"`
	DurationMS    int64  `json:"duration_ms"`
	OutputPreview string `json:"output_preview"`
	ErrorPreview  string `json:"error_preview"`
}

// PipelineResult is the single record emitted once, at the end of a run.
type PipelineResult struct {
	TotalTimeMS          int64                  `json:"total_time_ms"`
	SequentialBaselineMS int64                  `json:"sequential_baseline_ms"`
	ParallelActualMS     int64                  `json:"parallel_actual_ms"`
	SpeedupFactor        float64                `json:"speedup_factor"`
	Stages               map[string]StageResult `json:"stages"`
}

// Aborted reports whether any stage failed to reach PASSED, which is the
// host-visible signal a CLI wrapper uses to decide its own exit code (a
// host concern, not part of the core result contract).
func (r *PipelineResult) Aborted() bool {
	for _, s := range r.Stages {
		if s.Status != StatusPassed {
			return true
		}
	}
	return false
}
