package installation

import (
	"fmt"
	"net"
)

// PortAvailable reports whether a TCP listener can bind the port right now.
func PortAvailable(port int) bool {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false
	}
	_ = ln.Close()
	return true
}

// NextFreePort scans [start, end] and returns the first bindable port.
func NextFreePort(start, end int) (int, error) {
	for port := start; port <= end; port++ {
		if PortAvailable(port) {
			return port, nil
		}
	}
	return 0, fmt.Errorf("no free ports in range %d-%d", start, end)
}
