// Package cli — up.go implements the "hookrunner up" command.
//
// The up command is the everyday entry point: it prints the tunnel setup
// instructions, validates the working directory, launches the webhook
// receiver, and blocks until the server exits. The launcher is
// transparent — the server's exit status becomes hookrunner's own, and
// an operator interrupt (Ctrl-C) is a normal shutdown with status 0.
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/artclub/hookrunner/internal/config"
	"github.com/artclub/hookrunner/internal/docker"
	"github.com/artclub/hookrunner/internal/logger"
	"github.com/artclub/hookrunner/internal/model"
	"github.com/artclub/hookrunner/internal/runner"
	"github.com/artclub/hookrunner/internal/setup"
	"github.com/artclub/hookrunner/internal/watch"
)

// NewUpCommand creates the "up" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewUpCommand() *cobra.Command {
	var watchFlag bool

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Print setup instructions and launch the webhook receiver",
		Long: `Print the tunnel setup instructions, then launch the webhook receiver
in the configured working directory and block until it exits.

The server's exit status is propagated verbatim. Stopping the server
with Ctrl-C is a normal shutdown and exits with status 0.

Examples:
  hookrunner up
  hookrunner up --watch
  SERVER_PORT=9100 hookrunner up`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runUp(cmd.Context(), watchFlag)
		},
	}

	cmd.Flags().BoolVarP(&watchFlag, "watch", "w", false,
		"Restart the server when source files change")

	return cmd
}

// runUp is the main logic function for the up command.
func runUp(ctx context.Context, watchFlag bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if watchFlag {
		cfg.Watch.Enabled = true
	}

	log, err := logger.New(&cfg.Log)
	if err != nil {
		return model.WrapCLIError(model.ExitConfigError, "failed to configure logging", err)
	}
	defer func() { _ = log.Sync() }()

	// Instructions go out before anything can fail: the operator needs
	// the tunnel command and env var even if the launch then aborts.
	instructions := instructionsFromConfig(cfg)
	if err := instructions.Fprint(os.Stdout); err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to print setup instructions", err)
	}

	spec := cfg.LaunchSpec()

	// With launcher-level watch the runner's own reload would double up:
	// both would react to the same save. The supervisor wins.
	if cfg.Watch.Enabled && spec.Reload {
		log.Info("watch mode supervises restarts; disabling the runner's reload flag")
		spec.Reload = false
	}

	var code int
	switch spec.Mode {
	case model.ModeContainer:
		code, err = upContainer(ctx, spec, log)
	default:
		code, err = upProcess(ctx, cfg, spec, log)
	}
	if err != nil {
		return err
	}

	if code != 0 {
		// The server already wrote its own diagnostics to stderr; adding
		// a launcher message would only bury them.
		exitWithServerStatus(code)
	}
	return nil
}

// upProcess launches the receiver as a host process, supervised when
// watch mode is enabled.
func upProcess(ctx context.Context, cfg *config.Config, spec model.LaunchSpec, log *zap.Logger) (int, error) {
	r := runner.New(log)

	if !cfg.Watch.Enabled {
		return r.Run(ctx, spec)
	}

	w, err := watch.New(spec.Workdir, cfg.Watch.Debounce, log)
	if err != nil {
		return 0, model.WrapCLIError(model.ExitWorkdirNotFound,
			"failed to watch working directory "+spec.Workdir, err)
	}
	defer func() { _ = w.Close() }()

	log.Info("watching for changes",
		zap.String("dir", spec.Workdir),
		zap.Duration("debounce", cfg.Watch.Debounce))

	return r.Supervise(ctx, spec, w.Batches())
}

// upContainer launches the receiver inside a container via the Docker
// daemon.
func upContainer(ctx context.Context, spec model.LaunchSpec, log *zap.Logger) (int, error) {
	cli, err := docker.NewClient()
	if err != nil {
		return 0, err
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return 0, err
	}

	VerboseLog("Connected to Docker daemon")

	return docker.RunServer(ctx, cli, spec, log, os.Stdout, os.Stderr)
}

// loadConfig loads the configuration honoring the global --config and
// --verbose flags. Verbose mode forces debug-level logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// instructionsFromConfig maps the loaded configuration onto the printed
// instruction values.
func instructionsFromConfig(cfg *config.Config) setup.Instructions {
	return setup.Instructions{
		App:         cfg.Server.App,
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		TunnelTool:  cfg.Tunnel.Tool,
		EnvVar:      cfg.Tunnel.EnvVar,
		WebhookPath: cfg.Tunnel.Path,
	}
}
