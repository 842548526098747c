//go:build windows

package runner

import (
	"os"
	"os/exec"
	"syscall"
)

func prepareCommand(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: 0x08000000,
	}
}

// terminate ends the process. Windows has no SIGTERM equivalent for a
// console-less child, so this is a kill.
func terminate(p *os.Process) error {
	return p.Kill()
}
