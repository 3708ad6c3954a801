package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artclub/hookrunner/internal/config"
	"github.com/artclub/hookrunner/internal/model"
)

// captureStdout redirects os.Stdout around fn and returns what was
// written. runUp prints the instruction block to the real stdout, so a
// pipe swap is the only way to observe it from a test.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	old := os.Stdout
	rp, wp, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = wp
	defer func() { os.Stdout = old }()

	fn()

	require.NoError(t, wp.Close())
	out, err := io.ReadAll(rp)
	require.NoError(t, err)
	return string(out)
}

// TestUpPrintsInstructionsBeforeFailedLaunch verifies the sequencing
// contract of the up command: the complete instruction block reaches
// stdout before the working directory is validated, so an operator sees
// the tunnel steps even when the launch then aborts.
func TestUpPrintsInstructionsBeforeFailedLaunch(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("WORKDIR", filepath.Join(t.TempDir(), "does", "not", "exist"))

	var runErr error
	out := captureStdout(t, func() {
		runErr = runUp(context.Background(), false)
	})

	require.Error(t, runErr)
	var cliErr *model.CLIError
	require.True(t, errors.As(runErr, &cliErr))
	assert.Equal(t, model.ExitWorkdirNotFound, cliErr.Code)

	// The full block, not a truncated prefix, must have been emitted
	// despite the failed launch.
	var want bytes.Buffer
	require.NoError(t, instructionsFromConfig(config.Default()).Fprint(&want))
	assert.Contains(t, out, want.String())
}
