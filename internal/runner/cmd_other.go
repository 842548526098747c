//go:build !windows

package runner

import (
	"os"
	"os/exec"
	"syscall"
)

func prepareCommand(cmd *exec.Cmd) {}

func terminate(p *os.Process) error {
	return p.Signal(syscall.SIGTERM)
}
