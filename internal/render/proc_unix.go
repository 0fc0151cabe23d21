//go:build unix

package render

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// configureProcess puts mmdc in its own process group so that cancellation
// also kills the headless browser it spawns.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		if errors.Is(err, syscall.ESRCH) {
			return os.ErrProcessDone
		}
		return err
	}
}
