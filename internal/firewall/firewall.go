package firewall

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
)

var ErrUnsupported = errors.New("opening firewall ports is only supported on windows")

// RuleName is the name of the inbound rule created for a port.
func RuleName(port int) string {
	return fmt.Sprintf("MCServer%d", port)
}

// Command builds the netsh invocation that allows inbound TCP on port.
func Command(port int) (*exec.Cmd, error) {
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid port %d", port)
	}
	return exec.Command("netsh", "advfirewall", "firewall", "add", "rule",
		"name="+RuleName(port),
		"dir=in",
		"action=allow",
		"protocol=TCP",
		fmt.Sprintf("localport=%d", port),
	), nil
}

// OpenPort adds the inbound rule. Success or failure is all that is
// reported; netsh output is not parsed.
func OpenPort(port int) error {
	if runtime.GOOS != "windows" {
		return ErrUnsupported
	}

	cmd, err := Command(port)
	if err != nil {
		return err
	}
	prepareCommand(cmd)

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to add firewall rule for port %d: %w", port, err)
	}
	return nil
}
