// client.go implements Docker client construction with automatic socket
// detection across platforms.
package docker

import (
	"context"
	"fmt"
	"net"
	"os"
	"runtime"
	"time"

	"github.com/docker/docker/client"

	"github.com/artclub/hookrunner/internal/model"
)

// pingTimeout bounds how long a daemon liveness probe may take. Docker
// Desktop on macOS can be slow to answer the first request after idling.
const pingTimeout = 5 * time.Second

// Client wraps the Docker Engine SDK client. Wrapping (rather than
// embedding) keeps the exposed surface small: the launcher only needs
// create/start/wait/stop plus a liveness probe.
type Client struct {
	inner *client.Client
}

// NewClient creates a Docker client with automatic socket detection.
//
// Detection order:
//  1. DOCKER_HOST, used as-is when set.
//  2. Platform defaults: /var/run/docker.sock on Linux, the same plus
//     ~/.docker/run/docker.sock on macOS, the named pipe on Windows.
//
// Returns a CLIError with ExitDockerNotRunning when no socket is found.
func NewClient() (*Client, error) {
	if host := os.Getenv("DOCKER_HOST"); host != "" {
		return newClientWithHost(host)
	}

	host, err := detectHost()
	if err != nil {
		return nil, model.WrapCLIError(model.ExitDockerNotRunning, "Docker socket not found", err)
	}
	return newClientWithHost(host)
}

// newClientWithHost connects to the given Docker host string. API version
// negotiation keeps the launcher compatible with whatever daemon version
// the developer machine runs.
func newClientWithHost(host string) (*Client, error) {
	c, err := client.NewClientWithOpts(
		client.WithHost(host),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitDockerNotRunning,
			fmt.Sprintf("failed to create Docker client for host %q", host), err)
	}
	return &Client{inner: c}, nil
}

// detectHost returns the Docker connection string for this platform.
// Socket existence is checked with os.Stat; actual daemon liveness is
// Ping's job.
func detectHost() (string, error) {
	switch runtime.GOOS {
	case "linux":
		return probeUnixSockets([]string{"/var/run/docker.sock"})

	case "darwin":
		paths := []string{"/var/run/docker.sock"}
		if home, err := os.UserHomeDir(); err == nil {
			paths = append(paths, home+"/.docker/run/docker.sock")
		}
		return probeUnixSockets(paths)

	case "windows":
		// os.Stat does not work on Windows named pipes; a short dial is
		// the only existence check available.
		pipePath := `//./pipe/docker_engine`
		conn, err := net.DialTimeout("pipe", pipePath, 1*time.Second)
		if err != nil {
			return "", fmt.Errorf("Docker named pipe not found at %s: %w", pipePath, err)
		}
		conn.Close()
		return "npipe://" + pipePath, nil

	default:
		return "", fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// probeUnixSockets returns the host URI for the first socket path that
// exists, checked in preference order.
func probeUnixSockets(paths []string) (string, error) {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return "unix://" + path, nil
		}
	}
	return "", fmt.Errorf("Docker socket not found at any of: %v — is Docker running?", paths)
}

// Ping verifies the Docker daemon is reachable and responsive within
// pingTimeout. Returns a CLIError with ExitDockerNotRunning on failure.
func (c *Client) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if _, err := c.inner.Ping(pingCtx); err != nil {
		return model.WrapCLIError(model.ExitDockerNotRunning,
			"Docker daemon is not responding — is Docker running?", err)
	}
	return nil
}

// Close releases the client's resources. Safe to call multiple times.
func (c *Client) Close() error {
	if c.inner != nil {
		return c.inner.Close()
	}
	return nil
}

// Inner exposes the underlying SDK client for the container lifecycle
// calls in server.go.
func (c *Client) Inner() *client.Client {
	return c.inner
}
