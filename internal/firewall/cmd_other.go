//go:build !windows

package firewall

import "os/exec"

func prepareCommand(cmd *exec.Cmd) {}
