package port

import (
	"fmt"
	"net"
	"strconv"
)

// maxPort is the highest valid TCP port.
const maxPort = 65535

// Scanner checks whether TCP ports are available on the host by binding
// to them, which asks the OS directly instead of parsing /proc or calling
// lsof.
type Scanner struct {
	// Host is the bind address to probe; empty means all interfaces,
	// which is what the Node server uses when HOST is unset.
	Host string
}

// NewScanner creates a Scanner probing the given bind host.
func NewScanner(host string) *Scanner {
	return &Scanner{Host: host}
}

// IsPortAvailable reports whether port can be bound right now. The probe
// listener is closed immediately.
func (s *Scanner) IsPortAvailable(port int) bool {
	if port < 1 || port > maxPort {
		return false
	}
	listener, err := net.Listen("tcp", net.JoinHostPort(s.Host, strconv.Itoa(port)))
	if err != nil {
		return false
	}
	_ = listener.Close()
	return true
}

// FindAvailablePort returns the first free port in [startPort, endPort].
func (s *Scanner) FindAvailablePort(startPort, endPort int) (int, error) {
	if endPort > maxPort {
		endPort = maxPort
	}
	for port := startPort; port <= endPort; port++ {
		if s.IsPortAvailable(port) {
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available port found in range %d-%d", startPort, endPort)
}
