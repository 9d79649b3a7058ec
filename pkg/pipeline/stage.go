// Package pipeline defines the stage model, run state, and result record for
// the parallel DAG pipeline engine.
package pipeline

// Status is the terminal-or-transitional state of a Stage during a run.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusRunning Status = "RUNNING"
	StatusPassed  Status = "PASSED"
	StatusFailed  Status = "FAILED"
	StatusSkipped Status = "SKIPPED"
)

// Terminal reports whether s is one of PASSED, FAILED, SKIPPED.
func (s Status) Terminal() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusSkipped:
		return true
	default:
		return false
	}
}

const (
	// MaxOutputBytes is the stdout retention cap per stage.
	MaxOutputBytes = 5000
	// MaxErrorBytes is the stderr/failure-reason retention cap per stage.
	MaxErrorBytes = 2000
	// PreviewBytes is the cap on output/error previews in the result record.
	PreviewBytes = 200
)

// Stage is the immutable declaration of one unit of work plus its mutable
// per-run state. The declaration fields (Name, Tier, Command, DependsOn,
// TimeoutSeconds) are set once by the caller before a run and never
// mutated afterward; State is owned exclusively by the Wave Executor and
// the Stage Supervisor for the duration of one run.
type Stage struct {
	Name           string
	Tier           int
	Command        string
	DependsOn      []string
	TimeoutSeconds int

	State StageState
}

// StageState is the mutable run state of a Stage. It transitions
// PENDING -> RUNNING -> {PASSED, FAILED}, or PENDING -> SKIPPED, and no
// other path.
type StageState struct {
	Status     Status
	DurationMS int64
	Output     string
	Error      string
}

// Clone returns a copy of stages suitable for a fresh run: declarations are
// preserved, state is reset to PENDING.
func Clone(stages []Stage) []Stage {
	out := make([]Stage, len(stages))
	for i, s := range stages {
		deps := make([]string, len(s.DependsOn))
		copy(deps, s.DependsOn)
		out[i] = Stage{
			Name:           s.Name,
			Tier:           s.Tier,
			Command:        s.Command,
			DependsOn:      deps,
			TimeoutSeconds: s.TimeoutSeconds,
			State:          StageState{Status: StatusPending},
		}
	}
	return out
}

// Truncate caps s to n bytes, preserving the prefix.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
