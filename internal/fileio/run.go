package fileio

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/containerd/containerd"
	"github.com/containerd/containerd/cio"
	"github.com/google/uuid"
	specs "github.com/opencontainers/runtime-spec/specs-go"

	"github.com/mcpexec/backend/internal/containers"
)

// internalTimeout bounds the helper commands File I/O runs on the
// caller's behalf (mkdir/cat/sed/stat/find/python3). It is independent
// of the Exec Engine's per-call timeout.
const internalTimeout = 30 * time.Second

type execOutcome struct {
	exitCode int
	stdout   []byte
	stderr   []byte
}

// runShell runs a shell command inside the user's container, optionally
// piping stdin, and returns captured stdout/stderr and the exit code.
func runShell(ctx context.Context, manager *containers.Manager, userID, script string, stdin io.Reader) (execOutcome, error) {
	nsCtx, task, err := manager.Task(ctx, userID)
	if err != nil {
		return execOutcome{}, err
	}

	var stdout, stderr bytes.Buffer
	execID := "fileio-" + uuid.NewString()
	spec := &specs.Process{
		Args: []string{"/bin/bash", "-c", script},
		Cwd:  "/workspace",
		Env:  []string{"PATH=/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin"},
	}

	creator := cio.NewCreator(cio.WithStreams(stdin, &stdout, &stderr))
	process, err := task.Exec(nsCtx, execID, spec, creator)
	if err != nil {
		return execOutcome{}, &containers.ContainerUnavailableError{UserID: userID, Cause: err}
	}

	exitCh, err := process.Wait(nsCtx)
	if err != nil {
		return execOutcome{}, &containers.ContainerUnavailableError{UserID: userID, Cause: err}
	}
	if err := process.Start(nsCtx); err != nil {
		return execOutcome{}, &containers.ContainerUnavailableError{UserID: userID, Cause: err}
	}

	timeoutCtx, cancel := context.WithTimeout(nsCtx, internalTimeout)
	defer cancel()

	select {
	case status := <-exitCh:
		_, _ = process.Delete(nsCtx)
		return execOutcome{exitCode: int(status.ExitCode()), stdout: stdout.Bytes(), stderr: stderr.Bytes()}, nil
	case <-timeoutCtx.Done():
		_, _ = process.Delete(nsCtx, containerd.WithProcessKill)
		return execOutcome{}, &containers.ContainerUnavailableError{UserID: userID, Cause: timeoutCtx.Err()}
	}
}
