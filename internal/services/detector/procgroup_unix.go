//go:build unix

package detector

import (
	"os"
	"os/exec"
	"syscall"
)

// setProcessGroup puts the sidecar in its own process group so a wrapper
// script and the interpreter it launches can be killed together.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killProcessGroup(p *os.Process) {
	if err := syscall.Kill(-p.Pid, syscall.SIGKILL); err != nil {
		p.Kill()
	}
}
