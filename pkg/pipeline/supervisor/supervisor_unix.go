//go:build unix

package supervisor

import (
	"os/exec"
	"syscall"
)

// killProcessGroup arranges for cmd's child to run as the leader of a new
// process group and returns a Cancel function that kills the whole group,
// so a timeout reaches descendants spawned by the shell, not just the
// shell itself.
func killProcessGroup(cmd *exec.Cmd) func() error {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	return func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
