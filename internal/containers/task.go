package containers

import (
	"context"
	"fmt"

	"github.com/containerd/containerd"
)

// Task acquires (creating or restarting as needed) the user's container
// and returns its running containerd task plus a context carrying the
// manager's namespace. The Exec Engine and File I/O packages use the
// task to run additional processes inside the container via task.Exec.
func (m *Manager) Task(ctx context.Context, userID string) (context.Context, containerd.Task, error) {
	if _, err := m.Acquire(ctx, userID); err != nil {
		return ctx, nil, err
	}

	lock := m.lockFor(userID)
	lock.Lock()
	rec := m.recordFor(userID)
	containerID := rec.containerID
	lock.Unlock()

	nsCtx := m.nsCtx(ctx)
	ctr, err := m.client.LoadContainer(nsCtx, containerID)
	if err != nil {
		return ctx, nil, &ContainerUnavailableError{UserID: userID, Cause: err}
	}
	task, err := ctr.Task(nsCtx, nil)
	if err != nil {
		return ctx, nil, &ContainerUnavailableError{UserID: userID, Cause: fmt.Errorf("load task: %w", err)}
	}
	return nsCtx, task, nil
}
