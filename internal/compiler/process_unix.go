//go:build unix

package compiler

import (
	"os/exec"
	"syscall"
)

// configureProcessGroup runs the compiler in its own process group so that a
// canceled build also stops the tools it spawned (latexmk runs pdflatex, bibtex).
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
