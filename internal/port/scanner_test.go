package port

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// occupyPort starts a TCP listener on an OS-assigned port (":0" lets the
// OS pick a free one, avoiding flakiness from hardcoded ports) and
// returns the port. The listener is closed via t.Cleanup.
func occupyPort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", ":0")
	require.NoError(t, err, "failed to start test listener")
	t.Cleanup(func() { _ = listener.Close() })

	tcpAddr, ok := listener.Addr().(*net.TCPAddr)
	require.True(t, ok)
	return tcpAddr.Port
}

// TestIsAvailable_FreePort verifies that IsAvailable returns true for a
// port no process is using.
func TestIsAvailable_FreePort(t *testing.T) {
	scanner := NewScanner("0.0.0.0")

	// Use FindAvailable to get a port we know is free rather than
	// hardcoding one that might be in use on a CI machine.
	freePort, err := scanner.FindAvailable(50000, 50100)
	require.NoError(t, err, "should find at least one free port in 50000-50100")

	assert.True(t, scanner.IsAvailable(freePort), "port %d should be available", freePort)
}

// TestIsAvailable_UsedPort verifies that IsAvailable returns false when a
// port is already bound by another listener. This is the scenario the
// check command exists for: something else already holds the webhook port.
func TestIsAvailable_UsedPort(t *testing.T) {
	port := occupyPort(t)

	scanner := NewScanner("0.0.0.0")
	assert.False(t, scanner.IsAvailable(port), "port %d should be in use (we have a listener on it)", port)
}

// TestIsAvailable_LoopbackBindHost verifies that the probe honors the
// configured bind host rather than always probing all interfaces.
func TestIsAvailable_LoopbackBindHost(t *testing.T) {
	// Occupy a port on loopback only.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = listener.Close() }()

	tcpAddr, ok := listener.Addr().(*net.TCPAddr)
	require.True(t, ok)
	port := tcpAddr.Port

	scanner := NewScanner("127.0.0.1")
	assert.False(t, scanner.IsAvailable(port), "loopback probe should see the loopback listener")
}

// TestFindAvailable verifies that FindAvailable returns a port inside the
// requested range and that the port is genuinely free.
func TestFindAvailable(t *testing.T) {
	scanner := NewScanner("")

	port, err := scanner.FindAvailable(50000, 50100)
	require.NoError(t, err, "should find an available port in range 50000-50100")

	assert.GreaterOrEqual(t, port, 50000)
	assert.LessOrEqual(t, port, 50100)
	assert.True(t, scanner.IsAvailable(port))
}

// TestFindAvailable_NoneAvailable verifies the error path when every port
// in the range is occupied. We bind the whole (tiny) range ourselves.
func TestFindAvailable_NoneAvailable(t *testing.T) {
	scanner := NewScanner("")

	basePort, err := scanner.FindAvailable(51000, 51100)
	require.NoError(t, err)

	rangeSize := 3
	listeners := make([]net.Listener, 0, rangeSize)
	actualEnd := basePort

	for i := 0; i < rangeSize; i++ {
		ln, listenErr := net.Listen("tcp", scanner.addr(basePort+i))
		if listenErr != nil {
			// Something else grabbed the port between the scan and now.
			if i == 0 {
				t.Skip("could not bind base port, skipping")
			}
			break
		}
		listeners = append(listeners, ln)
		actualEnd = basePort + i
	}
	defer func() {
		for _, ln := range listeners {
			_ = ln.Close()
		}
	}()

	_, err = scanner.FindAvailable(basePort, actualEnd)
	assert.Error(t, err, "should fail when all ports in range are occupied")
	assert.Contains(t, err.Error(), "no available")
}

// TestSuggestAlternative verifies that a suggestion is above the occupied
// port and currently free.
func TestSuggestAlternative(t *testing.T) {
	port := occupyPort(t)

	scanner := NewScanner("0.0.0.0")
	suggestion, err := scanner.SuggestAlternative(port, 200)
	require.NoError(t, err)

	assert.Greater(t, suggestion, port)
	assert.True(t, scanner.IsAvailable(suggestion))
}
