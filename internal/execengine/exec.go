// Package execengine runs shell commands inside a user's container with
// timeout and cancellation semantics, capturing stdout/stderr in full.
package execengine

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"syscall"
	"time"

	"github.com/containerd/containerd"
	"github.com/containerd/containerd/cio"
	"github.com/google/uuid"
	specs "github.com/opencontainers/runtime-spec/specs-go"

	"github.com/mcpexec/backend/internal/containers"
	"github.com/mcpexec/backend/internal/observability"
)

// TimeoutExitCode is the distinguished, documented exit code returned
// when a command is killed for exceeding its timeout.
const TimeoutExitCode = 124

// ErrorKindTimeout marks a Result produced by a timeout, as opposed to
// a normal non-zero exit from the command itself.
const ErrorKindTimeout = "Timeout"

// DefaultTimeout is used when the caller does not specify one.
const DefaultTimeout = 30 * time.Second

// Result is the outcome of a single execute_bash invocation.
type Result struct {
	ExitCode  int
	Stdout    string
	Stderr    string
	ErrorKind string
}

// Engine runs commands inside containers managed by a containers.Manager.
type Engine struct {
	manager *containers.Manager
	metrics *observability.Metrics
	logger  *slog.Logger
}

// New returns an Engine backed by the given Container Manager.
func New(manager *containers.Manager, metrics *observability.Metrics, logger *slog.Logger) *Engine {
	return &Engine{manager: manager, metrics: metrics, logger: logger}
}

// Execute runs command as a non-login shell invocation inside the
// user's container. command is passed through verbatim; the engine
// performs no shell escaping — that is the caller's responsibility.
// Concurrent calls for the same user id are allowed and run
// concurrently inside that container.
func (e *Engine) Execute(ctx context.Context, userID, command string, timeout time.Duration) (Result, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	start := time.Now()
	nsCtx, task, err := e.manager.Task(ctx, userID)
	if err != nil {
		e.observe("error", time.Since(start))
		return Result{}, err
	}

	var stdout, stderr bytes.Buffer
	execID := "exec-" + uuid.NewString()
	spec := &specs.Process{
		Args: []string{"/bin/bash", "-c", command},
		Cwd:  "/workspace",
		Env:  []string{"PATH=/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin"},
	}

	process, err := task.Exec(nsCtx, execID, spec, cio.NewCreator(cio.WithStreams(nil, &stdout, &stderr)))
	if err != nil {
		e.observe("error", time.Since(start))
		return Result{}, &containers.ContainerUnavailableError{UserID: userID, Cause: fmt.Errorf("exec: %w", err)}
	}

	exitCh, err := process.Wait(nsCtx)
	if err != nil {
		e.observe("error", time.Since(start))
		return Result{}, &containers.ContainerUnavailableError{UserID: userID, Cause: fmt.Errorf("wait: %w", err)}
	}

	if err := process.Start(nsCtx); err != nil {
		e.observe("error", time.Since(start))
		return Result{}, &containers.ContainerUnavailableError{UserID: userID, Cause: fmt.Errorf("start exec: %w", err)}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case status := <-exitCh:
		_, _ = process.Delete(nsCtx)
		e.observe(outcomeFor(int(status.ExitCode())), time.Since(start))
		return Result{
			ExitCode: int(status.ExitCode()),
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
		}, nil

	case <-timer.C:
		if killErr := process.Kill(nsCtx, syscall.SIGKILL); killErr != nil {
			e.logger.Warn("exec: failed to kill timed-out process", "user_id", userID, "error", killErr)
		}
		<-exitCh
		_, _ = process.Delete(nsCtx, containerd.WithProcessKill)
		e.observe("timeout", time.Since(start))
		return Result{
			ExitCode:  TimeoutExitCode,
			Stdout:    stdout.String(),
			Stderr:    stderr.String(),
			ErrorKind: ErrorKindTimeout,
		}, nil

	case <-ctx.Done():
		_, _ = process.Delete(nsCtx, containerd.WithProcessKill)
		e.observe("error", time.Since(start))
		return Result{}, ctx.Err()
	}
}

func outcomeFor(exitCode int) string {
	if exitCode == 0 {
		return "success"
	}
	return "error"
}

func (e *Engine) observe(outcome string, d time.Duration) {
	if e.metrics == nil {
		return
	}
	e.metrics.ExecInvocations.WithLabelValues(outcome).Inc()
	e.metrics.ExecDuration.Observe(d.Seconds())
}
