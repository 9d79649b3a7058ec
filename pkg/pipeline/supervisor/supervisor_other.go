//go:build !unix

package supervisor

import "os/exec"

// killProcessGroup falls back to killing just the child process on
// platforms without POSIX process groups.
func killProcessGroup(cmd *exec.Cmd) func() error {
	return func() error {
		if cmd.Process == nil {
			return nil
		}
		return cmd.Process.Kill()
	}
}
