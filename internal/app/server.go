package app

import (
	"crafthost/internal/domain"
	"crafthost/internal/runner"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
)

// LaunchOptions derives launch settings from the stored record, falling back
// to the configured memory bounds and to "java" from PATH.
func (c *Container) LaunchOptions(inst *domain.Installation) runner.LaunchOptions {
	opts := runner.LaunchOptions{
		MinHeapMB: c.Config.Memory.MinMB,
		MaxHeapMB: c.Config.Memory.MaxMB,
	}
	if inst == nil {
		return opts
	}

	if inst.MinHeapMB > 0 && inst.MaxHeapMB >= inst.MinHeapMB {
		opts.MinHeapMB = inst.MinHeapMB
		opts.MaxHeapMB = inst.MaxHeapMB
	}

	if inst.JavaPath != "" {
		if _, err := os.Stat(inst.JavaPath); err == nil {
			opts.JavaPath = inst.JavaPath
			return opts
		}
	}
	if inst.JavaMajor > 0 {
		if found, err := c.JvmManager.Find(inst.JavaMajor, c.Layout.Root); err == nil {
			opts.JavaPath = found
		}
	}
	return opts
}

// StartServer launches the provisioned server with console output sent to out.
func (c *Container) StartServer(out io.Writer) (*runner.Instance, error) {
	if pid, ok := runner.RecordedPID(c.Layout); ok && c.Supervisor.Instance() == nil {
		return nil, fmt.Errorf("%w (pid %d, started by another crafthost process)", runner.ErrAlreadyRunning, pid)
	}

	inst, err := c.Provisioner.Installation()
	if err != nil {
		return nil, err
	}
	if !c.Layout.EULAAccepted() {
		c.Logger.Warn("eula has not been accepted; the server will exit on startup", zap.String("eula", c.Layout.EULAPath()))
	}

	return c.Supervisor.Start(c.Layout, c.LaunchOptions(inst), out)
}

// ServerRunning reports a server tracked by this process or recorded by
// another one.
func (c *Container) ServerRunning() (int, bool) {
	if inst := c.Supervisor.Instance(); inst != nil {
		return inst.PID, true
	}
	return runner.RecordedPID(c.Layout)
}

// InitialPort is the configured port while the installation has no
// server.properties yet, and 0 afterwards so provisioning keeps the file's port.
func (c *Container) InitialPort() int {
	if _, err := os.Stat(c.Layout.PropertiesPath()); err == nil {
		return 0
	}
	return c.Config.Port
}
