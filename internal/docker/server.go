// server.go implements the container lifecycle for container runner mode:
// create the receiver container with its port published, stream its logs,
// wait for it to exit, and clean up on every exit path.
package docker

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"
	"go.uber.org/zap"

	"github.com/artclub/hookrunner/internal/model"
)

// stopGraceSeconds is how long a stopping container gets before the
// daemon kills it.
const stopGraceSeconds = 10

// containerWorkdir is where the working directory is mounted inside the
// receiver container.
const containerWorkdir = "/app"

// containerCmd builds the command handed to the image. The image's
// entrypoint is expected to be the server-runner binary, so the argv
// matches process mode minus the command itself. Inside the container
// the server always binds all interfaces; the requested bind host is
// applied on the published side of the port mapping.
func containerCmd(spec model.LaunchSpec) []string {
	args := []string{spec.App, "--host", "0.0.0.0", "--port", strconv.Itoa(spec.Port)}
	if spec.Reload {
		args = append(args, "--reload")
	}
	return args
}

// containerName derives a stable name for the receiver container so a
// second launch fails loudly instead of silently running twice.
func containerName(spec model.LaunchSpec) string {
	return fmt.Sprintf("hookrunner-%d", spec.Port)
}

// RunServer launches the receiver container and blocks until it exits or
// the operator interrupts. The working directory is bind-mounted into the
// container, logs stream to the given writers, and the container is
// removed on all exit paths.
//
// Exit semantics match the process runner: the container's exit status is
// returned verbatim, and an interrupted shutdown is normalized to 0.
func RunServer(ctx context.Context, cli *Client, spec model.LaunchSpec, log *zap.Logger, stdout, stderr io.Writer) (int, error) {
	if err := spec.Validate(); err != nil {
		return 0, model.WrapCLIError(model.ExitConfigError, "invalid launch parameters", err)
	}

	workdir, err := resolveWorkdir(spec.Workdir)
	if err != nil {
		return 0, err
	}

	port, err := nat.NewPort("tcp", strconv.Itoa(spec.Port))
	if err != nil {
		return 0, model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("invalid port %d", spec.Port), err)
	}

	resp, err := cli.Inner().ContainerCreate(ctx,
		&container.Config{
			Image:        spec.Image,
			Cmd:          containerCmd(spec),
			WorkingDir:   containerWorkdir,
			ExposedPorts: nat.PortSet{port: struct{}{}},
			Labels:       BuildLabels(spec),
		},
		&container.HostConfig{
			Binds: []string{workdir + ":" + containerWorkdir},
			PortBindings: nat.PortMap{
				port: []nat.PortBinding{{
					HostIP:   spec.Host,
					HostPort: strconv.Itoa(spec.Port),
				}},
			},
		},
		nil, nil, containerName(spec))
	if err != nil {
		return 0, model.WrapCLIError(model.ExitDockerNotRunning,
			fmt.Sprintf("failed to create container from image %q", spec.Image), err)
	}

	// Remove the container on every exit path. A fresh container per
	// launch keeps re-runs idempotent.
	defer func() {
		_ = cli.Inner().ContainerRemove(context.Background(), resp.ID,
			container.RemoveOptions{Force: true})
	}()

	if err := cli.Inner().ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return 0, model.WrapCLIError(model.ExitDockerNotRunning, "failed to start container", err)
	}

	log.Info("receiver container started",
		zap.String("container", containerName(spec)),
		zap.String("id", shortID(resp.ID)),
		zap.String("addr", spec.Addr()))

	streamLogs(ctx, cli, resp.ID, log, stdout, stderr)

	return waitForExit(ctx, cli, resp.ID, log)
}

// resolveWorkdir validates the working directory and returns it in
// absolute form for the bind mount.
func resolveWorkdir(dir string) (string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return "", model.WrapCLIError(model.ExitWorkdirNotFound,
			fmt.Sprintf("working directory %q does not exist", dir), err)
	}
	if !info.IsDir() {
		return "", model.NewCLIError(model.ExitWorkdirNotFound,
			fmt.Sprintf("working directory %q is not a directory", dir))
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to resolve working directory %q", dir), err)
	}
	return abs, nil
}

// streamLogs follows the container's output and demultiplexes it onto the
// given writers. Streaming is best-effort: a log failure must not take
// the server down.
func streamLogs(ctx context.Context, cli *Client, id string, log *zap.Logger, stdout, stderr io.Writer) {
	rc, err := cli.Inner().ContainerLogs(ctx, id, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	})
	if err != nil {
		log.Warn("failed to attach to container logs", zap.Error(err))
		return
	}

	go func() {
		defer func() { _ = rc.Close() }()
		// Docker multiplexes stdout/stderr into one stream; stdcopy
		// splits them back out.
		if _, copyErr := stdcopy.StdCopy(stdout, stderr, rc); copyErr != nil && ctx.Err() == nil {
			log.Debug("container log stream ended", zap.Error(copyErr))
		}
	}()
}

// waitForExit blocks until the container stops, stopping it gracefully on
// operator interrupt or context cancellation.
func waitForExit(ctx context.Context, cli *Client, id string, log *zap.Logger) (int, error) {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	// Wait against the background context so an operator interrupt
	// (which may cancel ctx upstream) still lets us observe the stop.
	statusCh, errCh := cli.Inner().ContainerWait(context.Background(), id, container.WaitConditionNotRunning)

	interrupted := false
	ctxDone := ctx.Done()
	for {
		select {
		case sig := <-sigs:
			interrupted = true
			log.Info("stopping receiver container", zap.String("signal", sig.String()))
			stopContainer(cli, id, log)

		case <-ctxDone:
			// A done context stays selectable; nil the local copy so the
			// loop blocks on the wait channels instead of spinning.
			ctxDone = nil
			if !interrupted {
				interrupted = true
				stopContainer(cli, id, log)
			}

		case err := <-errCh:
			return 0, model.WrapCLIError(model.ExitDockerNotRunning, "failed waiting for container", err)

		case status := <-statusCh:
			if interrupted {
				return 0, nil
			}
			return int(status.StatusCode), nil
		}
	}
}

// stopContainer asks the daemon to stop the container with the standard
// grace period.
func stopContainer(cli *Client, id string, log *zap.Logger) {
	grace := stopGraceSeconds
	if err := cli.Inner().ContainerStop(context.Background(), id,
		container.StopOptions{Timeout: &grace}); err != nil {
		log.Warn("failed to stop container", zap.Error(err))
	}
}

// ManagedContainer describes a receiver container found by label.
type ManagedContainer struct {
	// ID is the shortened container identifier.
	ID string `json:"id"`

	// Name is the container name without the leading slash the API adds.
	Name string `json:"name"`

	// Status is the daemon-reported state, e.g. "running" or "exited".
	Status string `json:"status"`

	// App is the application reference from the container's labels.
	App string `json:"app"`

	// Port is the published host port from the container's labels.
	Port int `json:"port"`
}

// ListManaged returns every container (running or not) carrying the
// hookrunner managed-by label. The check command reports these so stale
// receivers from interrupted runs are visible to the operator.
func ListManaged(ctx context.Context, cli *Client) ([]ManagedContainer, error) {
	filterArgs := filters.NewArgs(
		filters.Arg("label", LabelManagedBy+"="+ManagedByValue),
	)

	containers, err := cli.Inner().ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return nil, model.WrapCLIError(model.ExitDockerNotRunning, "failed to list containers", err)
	}

	result := make([]ManagedContainer, 0, len(containers))
	for _, c := range containers {
		app, port, parseErr := ParseLabels(c.Labels)
		if parseErr != nil {
			// The daemon-side filter should prevent this; skip rather
			// than fail the whole report over one odd container.
			continue
		}

		name := ""
		if len(c.Names) > 0 {
			name = trimSlash(c.Names[0])
		}

		result = append(result, ManagedContainer{
			ID:     shortID(c.ID),
			Name:   name,
			Status: c.State,
			App:    app,
			Port:   port,
		})
	}
	return result, nil
}

// shortID shortens a container ID to the customary 12 characters.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// trimSlash strips the leading "/" the Docker API prepends to names.
func trimSlash(name string) string {
	if len(name) > 0 && name[0] == '/' {
		return name[1:]
	}
	return name
}
