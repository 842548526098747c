package runner

import (
	"crafthost/internal/installation"
	"os"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

func writePIDFile(layout installation.Layout, pid int) error {
	return os.WriteFile(layout.PIDPath(), []byte(strconv.Itoa(pid)+"\n"), 0644)
}

// removePIDFile deletes the pid file unless another launch has rewritten it.
func removePIDFile(layout installation.Layout, pid int) {
	if recorded, err := readPIDFile(layout); err == nil && recorded == pid {
		_ = os.Remove(layout.PIDPath())
	}
}

func readPIDFile(layout installation.Layout) (int, error) {
	data, err := os.ReadFile(layout.PIDPath())
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// RecordedPID reports the server started in layout by any crafthost process,
// as long as that PID is still alive. A Supervisor only tracks the servers it
// started itself; this is how other processes see them.
func RecordedPID(layout installation.Layout) (int, bool) {
	pid, err := readPIDFile(layout)
	if err != nil || pid <= 0 {
		return 0, false
	}
	alive, err := process.PidExists(int32(pid))
	if err != nil || !alive {
		return 0, false
	}
	return pid, true
}
