// Package cli — check.go implements the "hookrunner check" command.
//
// The check command is a preflight doctor: it verifies everything the up
// command will need — configuration, working directory, server-runner
// availability, bind port, and (in container mode) the Docker daemon —
// without launching anything. Each probe maps to the exit code the up
// command would eventually fail with, so CI can gate on check alone.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/artclub/hookrunner/internal/docker"
	"github.com/artclub/hookrunner/internal/model"
	"github.com/artclub/hookrunner/internal/port"
)

// checkResult is the outcome of a single preflight probe.
type checkResult struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`

	// code is the exit code this probe's failure maps to. Not serialized;
	// the overall command exit uses the first failing probe's code.
	code model.ExitCode
}

// NewCheckCommand creates the "check" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the environment is ready for launch",
		Long: `Run every preflight probe the up command depends on and report the
results without launching the server.

Exit codes match what up would fail with: 3 when the working directory
is missing, 4 when the server-runner is not on PATH, 5 when the bind
port is occupied, 6 when the Docker daemon is unreachable.

Examples:
  hookrunner check
  hookrunner check --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context())
		},
	}

	return cmd
}

// runCheck is the main logic function for the check command.
func runCheck(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	results := []checkResult{
		checkWorkdir(cfg.Workdir),
	}

	spec := cfg.LaunchSpec()
	if spec.Mode == model.ModeContainer {
		results = append(results, checkDocker(ctx)...)
	} else {
		results = append(results, checkRunnerCommand(spec.Command))
	}

	results = append(results, checkPort(cfg.Server.Host, cfg.Server.Port))

	printCheckResults(results)

	for _, res := range results {
		if !res.OK {
			return model.NewCLIError(res.code, "preflight check failed: "+res.Name)
		}
	}
	return nil
}

// checkWorkdir probes the configured working directory.
func checkWorkdir(dir string) checkResult {
	res := checkResult{Name: "working directory", code: model.ExitWorkdirNotFound}

	info, err := os.Stat(dir)
	switch {
	case err != nil:
		res.Detail = fmt.Sprintf("%q does not exist", dir)
	case !info.IsDir():
		res.Detail = fmt.Sprintf("%q is not a directory", dir)
	default:
		res.OK = true
		res.Detail = dir
	}
	return res
}

// checkRunnerCommand probes for the server-runner binary on PATH.
func checkRunnerCommand(command string) checkResult {
	res := checkResult{Name: "server runner", code: model.ExitRunnerNotFound}

	path, err := exec.LookPath(command)
	if err != nil {
		res.Detail = fmt.Sprintf("%q not found on PATH", command)
		return res
	}
	res.OK = true
	res.Detail = path
	return res
}

// checkPort probes whether the configured bind port is free. The probe is
// inherently racy (the port can be taken between check and up), which is
// why only check reports it — up leaves bind failures to the server's own
// diagnostics.
func checkPort(host string, portNum int) checkResult {
	res := checkResult{Name: "bind port", code: model.ExitPortInUse}

	scanner := port.NewScanner(host)
	if scanner.IsAvailable(portNum) {
		res.OK = true
		res.Detail = fmt.Sprintf("%s:%d is free", host, portNum)
		return res
	}

	res.Detail = fmt.Sprintf("%s:%d is already in use", host, portNum)
	if alt, err := scanner.SuggestAlternative(portNum, 100); err == nil {
		res.Detail += fmt.Sprintf(" (try SERVER_PORT=%d)", alt)
	}
	return res
}

// checkDocker probes the Docker daemon and reports any receiver
// containers left behind by earlier runs.
func checkDocker(ctx context.Context) []checkResult {
	res := checkResult{Name: "docker daemon", code: model.ExitDockerNotRunning}

	cli, err := docker.NewClient()
	if err != nil {
		res.Detail = err.Error()
		return []checkResult{res}
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		res.Detail = "not responding"
		return []checkResult{res}
	}
	res.OK = true
	res.Detail = "responding"

	// Stray containers are informational: a stopped receiver is harmless,
	// a running one will collide on the port at create time.
	stray := checkResult{Name: "managed containers", OK: true, code: model.ExitDockerNotRunning}
	managed, err := docker.ListManaged(ctx, cli)
	switch {
	case err != nil:
		stray.Detail = "could not list containers"
	case len(managed) == 0:
		stray.Detail = "none"
	default:
		for i, c := range managed {
			if i > 0 {
				stray.Detail += ", "
			}
			stray.Detail += fmt.Sprintf("%s (%s, port %d)", c.Name, c.Status, c.Port)
		}
	}

	return []checkResult{res, stray}
}

// printCheckResults outputs the probe results in text or JSON format.
func printCheckResults(results []checkResult) {
	if IsJSONOutput() {
		printCheckResultsJSON(results)
	} else {
		printCheckResultsText(results)
	}
}

// printCheckResultsJSON outputs the probe results as structured JSON.
func printCheckResultsJSON(results []checkResult) {
	ok := true
	for _, res := range results {
		if !res.OK {
			ok = false
		}
	}

	report := struct {
		OK     bool          `json:"ok"`
		Checks []checkResult `json:"checks"`
	}{OK: ok, Checks: results}

	data, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(data))
}

// printCheckResultsText outputs the probe results as a human-readable
// status table.
func printCheckResultsText(results []checkResult) {
	for _, res := range results {
		status := "ok"
		if !res.OK {
			status = "FAIL"
		}
		fmt.Printf("  %-4s  %-20s %s\n", status, res.Name, res.Detail)
	}
}
