// Package supervisor spawns and supervises exactly one subprocess per stage.
package supervisor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/Azure/pipeline-orchestrator/pkg/pipeline"
)

// SpawnError marks a supervisor-local failure that happened before or
// instead of the child ever running (pipe setup or Start failure) —
// distinct from the child exiting with a non-zero status, which is
// reported as a plain error from Run. Errors while draining the pipes are
// not reported.
type SpawnError struct{ Err error }

func (e *SpawnError) Error() string { return e.Err.Error() }
func (e *SpawnError) Unwrap() error { return e.Err }

// Runner abstracts subprocess execution so stages can be supervised against
// a fake in tests, mirroring the teacher's CommandRunner/FakeCommandRunner
// split.
type Runner interface {
	// Run executes command through the host shell with cwd=workspace,
	// streaming stdout/stderr into the returned buffers capped at
	// pipeline.MaxOutputBytes/MaxErrorBytes, and returns the process exit
	// error (nil on exit code 0).
	Run(ctx context.Context, command, workspace string) (stdout, stderr string, err error)
}

// ShellRunner is the default Runner: it invokes command as a single
// argument to the host OS shell (`sh -c "<command>"` on POSIX).
type ShellRunner struct{}

var _ Runner = ShellRunner{}

func (ShellRunner) Run(ctx context.Context, command, workspace string) (string, string, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = workspace
	cmd.Cancel = killProcessGroup(cmd)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return "", "", &SpawnError{fmt.Errorf("stdout pipe: %w", err)}
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return "", "", &SpawnError{fmt.Errorf("stderr pipe: %w", err)}
	}

	if err := cmd.Start(); err != nil {
		return "", "", &SpawnError{fmt.Errorf("spawn: %w", err)}
	}

	var outBuf, errBuf boundedBuffer
	outBuf.limit = pipeline.MaxOutputBytes
	errBuf.limit = pipeline.MaxErrorBytes

	done := make(chan struct{}, 2)
	go func() { _, _ = io.Copy(&outBuf, stdoutPipe); done <- struct{}{} }()
	go func() { _, _ = io.Copy(&errBuf, stderrPipe); done <- struct{}{} }()
	<-done
	<-done

	waitErr := cmd.Wait()
	return outBuf.String(), errBuf.String(), waitErr
}

// boundedBuffer retains at most limit bytes (the prefix), discarding the
// tail of anything written beyond it, so in-memory retention during
// capture never exceeds the stage's truncation limit.
type boundedBuffer struct {
	buf   bytes.Buffer
	limit int
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	room := b.limit - b.buf.Len()
	if room > 0 {
		if room > len(p) {
			room = len(p)
		}
		b.buf.Write(p[:room])
	}
	return len(p), nil
}

func (b *boundedBuffer) String() string { return b.buf.String() }

// Supervisor owns exactly one subprocess from spawn to terminal status per
// Supervise call; it mutates only the Stage passed to it.
type Supervisor struct {
	Runner    Runner
	Workspace string
}

// New returns a Supervisor using the real OS shell.
func New(workspace string) *Supervisor {
	return &Supervisor{Runner: ShellRunner{}, Workspace: workspace}
}

// Supervise transitions stage from PENDING to RUNNING, spawns its command
// under a wall-clock deadline of stage.TimeoutSeconds, and leaves stage in
// a terminal {PASSED, FAILED} state with Output/Error/DurationMS set.
func (s *Supervisor) Supervise(ctx context.Context, stage *pipeline.Stage) {
	stage.State.Status = pipeline.StatusRunning
	start := time.Now()

	deadline := time.Duration(stage.TimeoutSeconds) * time.Second
	runCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	stdout, stderr, err := s.Runner.Run(runCtx, stage.Command, s.Workspace)
	elapsed := time.Since(start)

	stage.State.Output = pipeline.Truncate(stdout, pipeline.MaxOutputBytes)

	switch {
	case runCtx.Err() == context.DeadlineExceeded:
		stage.State.Status = pipeline.StatusFailed
		stage.State.Error = pipeline.Truncate(fmt.Sprintf("Timeout after %ds", stage.TimeoutSeconds), pipeline.MaxErrorBytes)
		stage.State.DurationMS = int64(stage.TimeoutSeconds) * 1000
	case err != nil:
		stage.State.Status = pipeline.StatusFailed
		var spawnErr *SpawnError
		if errors.As(err, &spawnErr) {
			stage.State.Error = pipeline.Truncate(spawnErr.Error(), pipeline.MaxErrorBytes)
		} else {
			stage.State.Error = pipeline.Truncate(stderr, pipeline.MaxErrorBytes)
		}
		stage.State.DurationMS = elapsed.Milliseconds()
	default:
		stage.State.Status = pipeline.StatusPassed
		stage.State.Error = pipeline.Truncate(stderr, pipeline.MaxErrorBytes)
		stage.State.DurationMS = elapsed.Milliseconds()
	}
}
