package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validSpec returns a LaunchSpec that passes validation. Tests mutate
// individual fields to exercise specific failure paths.
func validSpec() LaunchSpec {
	return LaunchSpec{
		App:     "webhook.prodamus:app",
		Host:    "0.0.0.0",
		Port:    8000,
		Reload:  true,
		Workdir: "/srv/artclub",
		Mode:    ModeProcess,
		Command: "uvicorn",
	}
}

// TestParseRunnerMode verifies that mode strings are parsed
// case-insensitively and unknown values are rejected.
func TestParseRunnerMode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    RunnerMode
		wantErr bool
	}{
		{name: "process", input: "process", want: ModeProcess},
		{name: "container", input: "container", want: ModeContainer},
		{name: "uppercase is normalized", input: "PROCESS", want: ModeProcess},
		{name: "unknown mode rejected", input: "compose", wantErr: true},
		{name: "empty string rejected", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRunnerMode(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestLaunchSpecValidate covers the per-field validation rules, including
// the mode-dependent requirements (command for process, image for container).
func TestLaunchSpecValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*LaunchSpec)
		wantErr string
	}{
		{
			name:   "valid process spec",
			mutate: func(s *LaunchSpec) {},
		},
		{
			name: "valid container spec",
			mutate: func(s *LaunchSpec) {
				s.Mode = ModeContainer
				s.Command = ""
				s.Image = "artclub/webhook:dev"
			},
		},
		{
			name:    "empty app",
			mutate:  func(s *LaunchSpec) { s.App = "" },
			wantErr: "application reference",
		},
		{
			name:    "empty host",
			mutate:  func(s *LaunchSpec) { s.Host = "" },
			wantErr: "bind host",
		},
		{
			name:    "port zero",
			mutate:  func(s *LaunchSpec) { s.Port = 0 },
			wantErr: "out of range",
		},
		{
			name:    "port too large",
			mutate:  func(s *LaunchSpec) { s.Port = 70000 },
			wantErr: "out of range",
		},
		{
			name:    "empty workdir",
			mutate:  func(s *LaunchSpec) { s.Workdir = "" },
			wantErr: "working directory",
		},
		{
			name:    "invalid mode",
			mutate:  func(s *LaunchSpec) { s.Mode = "chroot" },
			wantErr: "invalid runner mode",
		},
		{
			name:    "process mode requires command",
			mutate:  func(s *LaunchSpec) { s.Command = "" },
			wantErr: "runner command",
		},
		{
			name: "container mode requires image",
			mutate: func(s *LaunchSpec) {
				s.Mode = ModeContainer
				s.Image = ""
			},
			wantErr: "runner image",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validSpec()
			tt.mutate(&spec)
			err := spec.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// TestLaunchSpecAddr verifies the host:port formatting used in both the
// instruction text and runner argv construction.
func TestLaunchSpecAddr(t *testing.T) {
	spec := validSpec()
	assert.Equal(t, "0.0.0.0:8000", spec.Addr())

	spec.Host = "127.0.0.1"
	spec.Port = 9100
	assert.Equal(t, "127.0.0.1:9100", spec.Addr())
}

// TestLaunchSpecString verifies the human-readable summary, including the
// reload on/off rendering.
func TestLaunchSpecString(t *testing.T) {
	spec := validSpec()
	assert.Equal(t, "webhook.prodamus:app @ 0.0.0.0:8000 (process, reload=on)", spec.String())

	spec.Reload = false
	assert.Contains(t, spec.String(), "reload=off")
}

// TestCLIError verifies error formatting, unwrapping, and that exit codes
// survive the round trip through the error interface.
func TestCLIError(t *testing.T) {
	t.Run("message only", func(t *testing.T) {
		err := NewCLIError(ExitWorkdirNotFound, "working directory missing")
		assert.Equal(t, "working directory missing", err.Error())
		assert.Equal(t, ExitWorkdirNotFound, err.Code)
		assert.Nil(t, err.Unwrap())
	})

	t.Run("wrapped error included", func(t *testing.T) {
		inner := errors.New("stat /nope: no such file or directory")
		err := WrapCLIError(ExitWorkdirNotFound, "working directory missing", inner)
		assert.Contains(t, err.Error(), "working directory missing")
		assert.Contains(t, err.Error(), "no such file")
		assert.True(t, errors.Is(err, inner))
	})

	t.Run("errors.As recovers the code", func(t *testing.T) {
		var cliErr *CLIError
		err := error(NewCLIError(ExitRunnerNotFound, "uvicorn not on PATH"))
		require.True(t, errors.As(err, &cliErr))
		assert.Equal(t, ExitRunnerNotFound, cliErr.Code)
	})
}
