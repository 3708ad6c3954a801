// Package model defines the domain types for the hookrunner CLI.
//
// The central entity is LaunchSpec: the full set of parameters needed to
// start the local webhook receiver. A LaunchSpec is always produced by the
// config layer (which supplies defaults matching the historical hard-coded
// launch script) and consumed by the runner or docker packages — it is
// never read from the environment directly.
package model

import (
	"fmt"
	"strings"
)

// RunnerMode selects how the webhook receiver process is launched.
type RunnerMode string

const (
	// ModeProcess launches the server-runner binary directly on the host
	// via os/exec. This is the default and matches the original workflow
	// of running uvicorn in a terminal.
	ModeProcess RunnerMode = "process"

	// ModeContainer launches the receiver inside a Docker container with
	// the bind port published on the host. Useful when the receiver's
	// runtime is not installed locally.
	ModeContainer RunnerMode = "container"
)

// String returns the string representation of RunnerMode.
func (m RunnerMode) String() string {
	return string(m)
}

// IsValid checks whether the RunnerMode value is one of the predefined modes.
func (m RunnerMode) IsValid() bool {
	switch m {
	case ModeProcess, ModeContainer:
		return true
	default:
		return false
	}
}

// ParseRunnerMode converts a string to a RunnerMode.
// Returns an error if the string does not match any valid mode.
func ParseRunnerMode(s string) (RunnerMode, error) {
	mode := RunnerMode(strings.ToLower(s))
	if !mode.IsValid() {
		return "", fmt.Errorf("invalid runner mode: %q (valid: process, container)", s)
	}
	return mode, nil
}

// LaunchSpec describes a single webhook receiver launch: which application
// to run, where to bind it, and how to start it.
//
// The launcher passes every field through to the server-runner unchanged.
// There is no mutation after construction — a failed launch is never
// retried with adjusted parameters (in particular, no automatic port
// increment on bind failure).
type LaunchSpec struct {
	// App is the application reference handed to the server-runner,
	// e.g. "webhook.prodamus:app" for an ASGI app path.
	App string `json:"app"`

	// Host is the bind address for the receiver. The development default
	// is "0.0.0.0" so a tunneling tool on the same machine can reach it.
	Host string `json:"host"`

	// Port is the bind port (1-65535). The receiver itself reports bind
	// failures; the launcher does not pre-claim the port.
	Port int `json:"port"`

	// Reload enables the server-runner's own reload-on-source-change flag.
	Reload bool `json:"reload"`

	// Workdir is the directory the receiver process runs in. Must exist;
	// a missing directory is fatal before any launch attempt.
	Workdir string `json:"workdir"`

	// Mode selects process or container launch.
	Mode RunnerMode `json:"mode"`

	// Command is the server-runner binary (process mode), e.g. "uvicorn".
	Command string `json:"command"`

	// Image is the container image (container mode). Its entrypoint must
	// accept the same argv the process mode would build.
	Image string `json:"image,omitempty"`
}

// Validate checks whether the LaunchSpec field values form a launchable
// configuration. It does not touch the filesystem or the network —
// existence checks happen at launch time so the error maps to the
// launch attempt that triggered it.
func (s *LaunchSpec) Validate() error {
	if s.App == "" {
		return fmt.Errorf("launch spec: application reference must not be empty")
	}
	if s.Host == "" {
		return fmt.Errorf("launch spec: bind host must not be empty")
	}
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("launch spec: bind port %d out of range (1-65535)", s.Port)
	}
	if s.Workdir == "" {
		return fmt.Errorf("launch spec: working directory must not be empty")
	}
	if !s.Mode.IsValid() {
		return fmt.Errorf("launch spec: invalid runner mode %q (valid: process, container)", s.Mode)
	}
	switch s.Mode {
	case ModeProcess:
		if s.Command == "" {
			return fmt.Errorf("launch spec: runner command must not be empty in process mode")
		}
	case ModeContainer:
		if s.Image == "" {
			return fmt.Errorf("launch spec: runner image must not be empty in container mode")
		}
	}
	return nil
}

// Addr returns the host:port string the receiver will bind to.
func (s *LaunchSpec) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// String returns a human-readable summary of the launch.
// Format: "app @ host:port (mode, reload=on|off)"
func (s *LaunchSpec) String() string {
	reload := "off"
	if s.Reload {
		reload = "on"
	}
	return fmt.Sprintf("%s @ %s (%s, reload=%s)", s.App, s.Addr(), s.Mode, reload)
}

// ExitCode defines the CLI exit codes. The `up` command is special: it
// exits with whatever status the launched server-runner returned, so the
// codes below only apply to failures the launcher itself detects before
// (or instead of) a launch.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully. For `up`
	// this includes operator-interrupted shutdown, which is normal.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitConfigError indicates the configuration could not be loaded
	// or failed validation.
	ExitConfigError ExitCode = 2

	// ExitWorkdirNotFound indicates the configured working directory
	// does not exist or is not accessible. The server is never launched
	// in this case.
	ExitWorkdirNotFound ExitCode = 3

	// ExitRunnerNotFound indicates the server-runner binary is not on
	// PATH (process mode).
	ExitRunnerNotFound ExitCode = 4

	// ExitPortInUse indicates a preflight probe found the bind port
	// already occupied. Only the `check` command exits with this code;
	// `up` leaves bind failures to the server-runner's own diagnostics.
	ExitPortInUse ExitCode = 5

	// ExitDockerNotRunning indicates the Docker daemon is not accessible
	// (container mode).
	ExitDockerNotRunning ExitCode = 6
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
