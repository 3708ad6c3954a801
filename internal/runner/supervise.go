package runner

import (
	"context"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/artclub/hookrunner/internal/model"
	"github.com/artclub/hookrunner/internal/watch"
)

// stopGrace is how long a restarting child gets to exit after SIGTERM
// before it is killed. Restart latency matters more than a perfectly
// graceful shutdown in a dev loop.
const stopGrace = 5 * time.Second

// Supervise launches the receiver and restarts it whenever a change batch
// arrives, until the operator interrupts or the child exits on its own.
//
// Exit semantics match Run: an interrupt (or context cancellation) is a
// normal shutdown with exit 0; a child that dies without a pending
// restart propagates its exit status and ends supervision — the launcher
// does not resurrect a crashed server.
func (r *Runner) Supervise(ctx context.Context, spec model.LaunchSpec, batches <-chan watch.Batch) (int, error) {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	return r.supervise(ctx, spec, sigs, batches)
}

// supervise is Supervise with an injectable signal source.
func (r *Runner) supervise(ctx context.Context, spec model.LaunchSpec, sigs <-chan os.Signal, batches <-chan watch.Batch) (int, error) {
	for {
		cmd, err := r.launch(spec)
		if err != nil {
			return 0, err
		}

		code, restart, err := r.superviseOnce(ctx, cmd, sigs, batches)
		if err != nil || !restart {
			return code, err
		}

		r.log.Info("restarting server runner")
	}
}

// superviseOnce waits on a single child generation. It returns
// restart=true when a change batch triggered a stop and the caller
// should launch the next generation.
func (r *Runner) superviseOnce(ctx context.Context, cmd *exec.Cmd, sigs <-chan os.Signal, batches <-chan watch.Batch) (code int, restart bool, err error) {
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	for {
		select {
		case batch, ok := <-batches:
			if !ok {
				// Watcher gone; fall back to plain waiting.
				batches = nil
				continue
			}
			r.log.Info("source change detected",
				zap.Int("changes", len(batch)),
				zap.String("first", batch[0]))
			r.stop(cmd, done)
			return 0, true, nil

		case sig := <-sigs:
			r.log.Info("forwarding signal to server runner", zap.String("signal", sig.String()))
			_ = cmd.Process.Signal(sig)
			<-done
			return 0, false, nil

		case <-ctx.Done():
			r.stop(cmd, done)
			return 0, false, nil

		case waitErr := <-done:
			// The child exited without being asked to. Propagate.
			code, err = exitStatus(waitErr, false)
			return code, false, err
		}
	}
}

// stop terminates the child: SIGTERM first, SIGKILL after the grace
// period. It consumes the child's Wait result.
func (r *Runner) stop(cmd *exec.Cmd, done <-chan error) {
	_ = cmd.Process.Signal(syscall.SIGTERM)
	select {
	case <-done:
	case <-time.After(stopGrace):
		r.log.Warn("server runner did not stop in time, killing",
			zap.Int("pid", cmd.Process.Pid))
		_ = cmd.Process.Kill()
		<-done
	}
}
