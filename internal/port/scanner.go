// Package port implements bind-port availability probing for the
// preflight check command.
//
// The probe asks the OS directly by attempting a real net.Listen on the
// address the server would bind, rather than parsing /proc/net/* or
// shelling out to lsof/ss which may require elevated permissions.
//
// The launch path never consults this package: bind failures during a
// real launch are the server-runner's to report, and the launcher does
// not pick an alternative port on its own. Suggestions produced here are
// advisory output of `hookrunner check` only.
package port

import (
	"fmt"
	"net"
	"strconv"
)

// Scanner checks whether specific TCP ports can be bound on the host.
//
// BindHost is the address the probe binds, which must match the address
// space the server will use: a port free on 127.0.0.1 can still be taken
// on 0.0.0.0. The zero value probes all interfaces, matching the
// development default bind of 0.0.0.0.
type Scanner struct {
	// BindHost is the host part of the probe address. "0.0.0.0" and ""
	// both probe all interfaces.
	BindHost string
}

// NewScanner creates a Scanner probing the given bind host.
func NewScanner(bindHost string) *Scanner {
	return &Scanner{BindHost: bindHost}
}

// addr builds the probe address for a port. A 0.0.0.0 bind host is
// normalized to the empty host form net.Listen expects for "all
// interfaces".
func (s *Scanner) addr(port int) string {
	host := s.BindHost
	if host == "0.0.0.0" {
		host = ""
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// IsAvailable reports whether the port can currently be bound.
//
// It attempts net.Listen on the probe address; success means the port is
// free, and the listener is closed immediately. A bind error (typically
// "address already in use") means some process already holds the port.
func (s *Scanner) IsAvailable(port int) bool {
	listener, err := net.Listen("tcp", s.addr(port))
	if err != nil {
		return false
	}
	defer func() { _ = listener.Close() }()
	return true
}

// FindAvailable scans [startPort, endPort] (inclusive) and returns the
// first port that can be bound. The search is sequential from startPort
// upward, so the same free port is selected consistently across runs.
//
// Returns an error if every port in the range is occupied.
func (s *Scanner) FindAvailable(startPort, endPort int) (int, error) {
	for port := startPort; port <= endPort; port++ {
		if s.IsAvailable(port) {
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available port found in range %d-%d", startPort, endPort)
}

// SuggestAlternative returns a free port near the occupied one, searching
// the span ports above it. The result is for diagnostic output only —
// the launcher never substitutes it automatically.
func (s *Scanner) SuggestAlternative(occupied, span int) (int, error) {
	end := occupied + span
	if end > 65535 {
		end = 65535
	}
	return s.FindAvailable(occupied+1, end)
}
