// Package runner launches and supervises the webhook receiver process.
//
// The launch sequence is strictly linear: validate the spec, verify the
// working directory, resolve the server-runner binary, start the child
// with stdio passed through, then block until it exits. Failures before
// the child starts map to launcher exit codes (CLIError); anything that
// happens after the child starts is the child's to report — the launcher
// propagates its exit status verbatim and never retries.
//
// An operator interrupt (SIGINT/SIGTERM) is forwarded to the child and
// the resulting shutdown is treated as normal, not as an error.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"syscall"

	"go.uber.org/zap"

	"github.com/artclub/hookrunner/internal/model"
)

// Runner launches the webhook receiver in process mode. The zero value is
// not usable; construct with New.
type Runner struct {
	log *zap.Logger

	// stdio of the child process. Defaults to the launcher's own streams
	// so the server's output lands in the operator's terminal unmodified.
	stdout io.Writer
	stderr io.Writer
	stdin  io.Reader
}

// New creates a Runner whose child inherits the launcher's stdio.
func New(log *zap.Logger) *Runner {
	return &Runner{
		log:    log,
		stdout: os.Stdout,
		stderr: os.Stderr,
		stdin:  os.Stdin,
	}
}

// Argv builds the server-runner command line for a LaunchSpec:
//
//	<command> <app> --host <host> --port <port> [--reload]
//
// Every parameter is passed through unchanged; the launcher never
// rewrites what the operator configured.
func Argv(spec model.LaunchSpec) []string {
	args := []string{spec.Command, spec.App, "--host", spec.Host, "--port", strconv.Itoa(spec.Port)}
	if spec.Reload {
		args = append(args, "--reload")
	}
	return args
}

// Run launches the receiver and blocks until it exits or the operator
// interrupts. It returns the exit status to terminate the launcher with.
//
// When err is non-nil the launch itself failed (bad spec, missing
// working directory, runner not found) and the returned code is
// meaningless; otherwise code is the child's exit status, with an
// interrupted shutdown normalized to 0.
func (r *Runner) Run(ctx context.Context, spec model.LaunchSpec) (int, error) {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	return r.run(ctx, spec, sigs)
}

// run is Run with an injectable signal source, which keeps interrupt
// handling testable without signalling the test process.
func (r *Runner) run(ctx context.Context, spec model.LaunchSpec, sigs <-chan os.Signal) (int, error) {
	cmd, err := r.launch(spec)
	if err != nil {
		return 0, err
	}
	return r.wait(ctx, cmd, sigs)
}

// launch validates the spec, verifies the working directory and runner
// binary, and starts the child. The directory check happens before any
// process is created: a missing directory means no launch at all.
func (r *Runner) launch(spec model.LaunchSpec) (*exec.Cmd, error) {
	if err := spec.Validate(); err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError, "invalid launch parameters", err)
	}

	info, err := os.Stat(spec.Workdir)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitWorkdirNotFound,
			fmt.Sprintf("working directory %q does not exist", spec.Workdir), err)
	}
	if !info.IsDir() {
		return nil, model.NewCLIError(model.ExitWorkdirNotFound,
			fmt.Sprintf("working directory %q is not a directory", spec.Workdir))
	}

	if _, err := exec.LookPath(spec.Command); err != nil {
		return nil, model.WrapCLIError(model.ExitRunnerNotFound,
			fmt.Sprintf("server runner %q not found on PATH", spec.Command), err)
	}

	argv := Argv(spec)
	// #nosec G204 — argv comes from validated configuration, not request input
	cmd := exec.Command(argv[0], argv[1:]...)

	// The working directory applies to the child, not the launcher.
	// Observable behavior matches a chdir-then-exec script: the server
	// runs in the configured directory.
	cmd.Dir = spec.Workdir
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr
	cmd.Stdin = r.stdin
	cmd.Env = os.Environ()

	if err := cmd.Start(); err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to start server runner %q", spec.Command), err)
	}

	r.log.Info("server runner started",
		zap.Int("pid", cmd.Process.Pid),
		zap.Strings("argv", argv),
		zap.String("workdir", spec.Workdir))

	return cmd, nil
}

// wait blocks until the child exits, forwarding any operator signal to
// it. A shutdown that follows a forwarded signal (or context
// cancellation) is normal: exit 0.
func (r *Runner) wait(ctx context.Context, cmd *exec.Cmd, sigs <-chan os.Signal) (int, error) {
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	interrupted := false
	ctxDone := ctx.Done()
	for {
		select {
		case sig := <-sigs:
			interrupted = true
			r.log.Info("forwarding signal to server runner", zap.String("signal", sig.String()))
			_ = cmd.Process.Signal(sig)

		case <-ctxDone:
			// A done context stays selectable; nil the local copy so the
			// loop blocks on the child instead of spinning.
			ctxDone = nil
			interrupted = true
			_ = cmd.Process.Signal(syscall.SIGTERM)

		case err := <-done:
			return exitStatus(err, interrupted)
		}
	}
}

// exitStatus converts cmd.Wait's result into the launcher's exit status.
//
// The child's non-zero exit codes are propagated verbatim (the launcher
// adds no translation for bind failures or crashes). When the launcher
// forwarded an interrupt, the resulting exit is normalized to 0. A child
// killed by an external signal the launcher never saw has no exit code,
// which maps to the general error code.
func exitStatus(err error, interrupted bool) (int, error) {
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if interrupted {
			return 0, nil
		}
		code := exitErr.ExitCode()
		if code < 0 {
			code = int(model.ExitGeneralError)
		}
		return code, nil
	}

	return 0, model.WrapCLIError(model.ExitGeneralError, "server runner failed", err)
}
