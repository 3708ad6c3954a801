package cli

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artclub/hookrunner/internal/config"
	"github.com/artclub/hookrunner/internal/model"
)

// TestCheckWorkdir covers the three working-directory outcomes: present,
// missing, and present-but-not-a-directory.
func TestCheckWorkdir(t *testing.T) {
	dir := t.TempDir()

	res := checkWorkdir(dir)
	assert.True(t, res.OK)

	res = checkWorkdir(filepath.Join(dir, "missing"))
	assert.False(t, res.OK)
	assert.Equal(t, model.ExitWorkdirNotFound, res.code)

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	res = checkWorkdir(file)
	assert.False(t, res.OK)
	assert.Equal(t, model.ExitWorkdirNotFound, res.code)
}

// TestCheckRunnerCommand probes PATH resolution with a binary every test
// environment has and one that cannot exist.
func TestCheckRunnerCommand(t *testing.T) {
	res := checkRunnerCommand("sh")
	assert.True(t, res.OK)
	assert.NotEmpty(t, res.Detail)

	res = checkRunnerCommand("hookrunner-test-no-such-binary")
	assert.False(t, res.OK)
	assert.Equal(t, model.ExitRunnerNotFound, res.code)
}

// TestCheckPortOccupied verifies that an occupied port fails the probe
// with the dedicated exit code and suggests an alternative.
func TestCheckPortOccupied(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	occupied := ln.Addr().(*net.TCPAddr).Port

	res := checkPort("127.0.0.1", occupied)
	assert.False(t, res.OK)
	assert.Equal(t, model.ExitPortInUse, res.code)
	assert.Contains(t, res.Detail, "already in use")
	assert.Contains(t, res.Detail, "SERVER_PORT=")
}

// TestCheckPortFree verifies the passing probe on a port nothing holds.
func TestCheckPortFree(t *testing.T) {
	// Grab an ephemeral port and release it; the immediate re-probe is
	// the closest a test can get to a known-free port.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	free := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	res := checkPort("127.0.0.1", free)
	assert.True(t, res.OK)
	assert.Contains(t, res.Detail, fmt.Sprintf(":%d", free))
}

// TestInstructionsFromConfig pins the mapping from configuration to the
// printed instruction values.
func TestInstructionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Port = 9100
	cfg.Tunnel.Tool = "cloudflared"

	in := instructionsFromConfig(cfg)
	assert.Equal(t, "webhook.prodamus:app", in.App)
	assert.Equal(t, "0.0.0.0", in.Host)
	assert.Equal(t, 9100, in.Port)
	assert.Equal(t, "cloudflared", in.TunnelTool)
	assert.Equal(t, "PRODAMUS_WEBHOOK_URL", in.EnvVar)
	assert.Equal(t, "/webhook/prodamus", in.WebhookPath)
}
