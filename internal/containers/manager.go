// Package containers implements the Container Manager: one containerd
// container per user id, created lazily, reused across calls, and torn
// down on explicit removal or process shutdown.
package containers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/containerd/containerd"
	"github.com/containerd/containerd/cio"
	"github.com/containerd/containerd/namespaces"
	"github.com/containerd/containerd/oci"
	specs "github.com/opencontainers/runtime-spec/specs-go"

	"github.com/mcpexec/backend/internal/backoff"
	"github.com/mcpexec/backend/internal/observability"
)

// Config holds the settings the manager needs to create and mount
// containers. Populated from config.ContainerConfig.
type Config struct {
	ContainerdSocket   string
	Namespace          string
	ExecutorImage      string
	ToolsPath          string
	SkillsPath         string
	NamePrefix         string
	MemoryLimitBytes   int64
	CPUShares          uint64
	StartRetryAttempts int
}

// Manager owns every Container Record for the process lifetime.
type Manager struct {
	client *containerd.Client
	cfg    Config
	logger *slog.Logger
	metrics *observability.Metrics

	mu       sync.Mutex
	records  map[string]*Record
	userLock map[string]*sync.Mutex
}

// New connects to containerd and returns a Manager. The connection is
// established eagerly so that a misconfigured socket fails at startup.
func New(ctx context.Context, cfg Config, logger *slog.Logger, metrics *observability.Metrics) (*Manager, error) {
	client, err := containerd.New(cfg.ContainerdSocket)
	if err != nil {
		return nil, fmt.Errorf("connect to containerd at %s: %w", cfg.ContainerdSocket, err)
	}
	return &Manager{
		client:   client,
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
		records:  make(map[string]*Record),
		userLock: make(map[string]*sync.Mutex),
	}, nil
}

// Close closes the containerd connection without touching any running
// containers.
func (m *Manager) Close() error {
	return m.client.Close()
}

func (m *Manager) nsCtx(ctx context.Context) context.Context {
	return namespaces.WithNamespace(ctx, m.cfg.Namespace)
}

func (m *Manager) lockFor(userID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.userLock[userID]
	if !ok {
		l = &sync.Mutex{}
		m.userLock[userID] = l
	}
	return l
}

func (m *Manager) recordFor(userID string) *Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[userID]
	if !ok {
		r = &Record{UserID: userID, State: StateAbsent}
		m.records[userID] = r
	}
	return r
}

// Snapshot returns a copy of the current record for a user id, or a
// zero-value Absent record if none exists. Safe to call without the
// per-user critical section.
func (m *Manager) Snapshot(userID string) Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.records[userID]; ok {
		return r.snapshot()
	}
	return Record{UserID: userID, State: StateAbsent}
}

// ActiveCount returns the number of records not in the Absent state.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.records {
		if r.State != StateAbsent {
			n++
		}
	}
	return n
}

var unsafeHostnameChars = regexp.MustCompile(`[^a-z0-9-]`)

// sanitizeHostname derives a valid container hostname from an opaque
// user id: lowercased, unsafe characters stripped, and truncated to a
// stable length using a hash suffix so collisions after truncation
// remain vanishingly unlikely.
func sanitizeHostname(userID string) string {
	lower := strings.ToLower(userID)
	clean := unsafeHostnameChars.ReplaceAllString(lower, "-")
	clean = strings.Trim(clean, "-")
	if clean == "" {
		clean = "user"
	}
	sum := sha256.Sum256([]byte(userID))
	suffix := hex.EncodeToString(sum[:])[:8]
	if len(clean) > 40 {
		clean = clean[:40]
	}
	return clean + "-" + suffix
}

func (m *Manager) containerName(userID string) string {
	return m.cfg.NamePrefix + sanitizeHostname(userID)
}

// Acquire returns a Running container for the user id, creating or
// restarting it as needed. Concurrent Acquire calls for the same user
// id are serialized by a per-key mutex.
func (m *Manager) Acquire(ctx context.Context, userID string) (Record, error) {
	lock := m.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	rec := m.recordFor(userID)

	switch rec.State {
	case StateRunning:
		rec.LastUse = time.Now()
		m.observeAcquire("hit")
		return rec.snapshot(), nil
	case StateStopped:
		if err := m.startExisting(ctx, rec); err != nil {
			m.observeAcquire("error")
			return Record{}, err
		}
		rec.LastUse = time.Now()
		m.observeAcquire("restarted")
		return rec.snapshot(), nil
	case StateStarting, StateRemoving:
		m.observeAcquire("error")
		return Record{}, &ContainerUnavailableError{UserID: userID, Cause: fmt.Errorf("record in state %s", rec.State)}
	}

	if err := m.createAndStart(ctx, rec); err != nil {
		m.observeAcquire("error")
		return Record{}, err
	}
	rec.LastUse = time.Now()
	m.observeAcquire("started")
	return rec.snapshot(), nil
}

func (m *Manager) observeAcquire(outcome string) {
	if m.metrics != nil {
		m.metrics.ContainerAcquires.WithLabelValues(outcome).Inc()
		m.metrics.ContainerActive.Set(float64(m.ActiveCount()))
	}
}

func (m *Manager) createAndStart(ctx context.Context, rec *Record) error {
	rec.State = StateStarting
	name := m.containerName(rec.UserID)
	ctx = m.nsCtx(ctx)

	// Image resolution happens once, outside the retry loop: a missing
	// image is not a transient daemon error, so it must never be retried
	// (spec requires it surfaced as-is, not masked by retry exhaustion).
	image, err := m.client.GetImage(ctx, m.cfg.ExecutorImage)
	if err != nil {
		image, err = m.client.Pull(ctx, m.cfg.ExecutorImage, containerd.WithPullUnpack)
		if err != nil {
			rec.State = StateAbsent
			return &ImageUnavailableError{Image: m.cfg.ExecutorImage, Cause: err}
		}
	}

	result, err := backoff.RetryWithBackoff(ctx, backoff.DefaultPolicy(), m.retryAttempts(), func(attempt int) (struct{}, error) {
		opts := []oci.SpecOpts{
			oci.WithImageConfig(image),
			oci.WithHostname(sanitizeHostname(rec.UserID)),
			oci.WithProcessCwd("/workspace"),
			oci.WithProcessArgs("/bin/bash", "-c", "tail -f /dev/null"),
			oci.WithMounts(m.hostMounts()),
		}
		if m.cfg.MemoryLimitBytes > 0 {
			opts = append(opts, oci.WithMemoryLimit(uint64(m.cfg.MemoryLimitBytes)))
		}
		if m.cfg.CPUShares > 0 {
			opts = append(opts, oci.WithCPUShares(m.cfg.CPUShares))
		}

		ctr, err := m.client.NewContainer(
			ctx,
			name,
			containerd.WithImage(image),
			containerd.WithNewSnapshot(name+"-snapshot", image),
			containerd.WithNewSpec(opts...),
		)
		if err != nil {
			return struct{}{}, fmt.Errorf("create container: %w", err)
		}

		task, err := ctr.NewTask(ctx, cio.NullIO)
		if err != nil {
			_ = ctr.Delete(ctx, containerd.WithSnapshotCleanup)
			return struct{}{}, fmt.Errorf("create task: %w", err)
		}
		if err := task.Start(ctx); err != nil {
			_, _ = task.Delete(ctx)
			_ = ctr.Delete(ctx, containerd.WithSnapshotCleanup)
			return struct{}{}, &StartFailedError{UserID: rec.UserID, Cause: err}
		}
		return struct{}{}, nil
	})

	if err != nil {
		rec.State = StateAbsent
		return classifyStartError(rec.UserID, err, result.LastError)
	}

	rec.Image = m.cfg.ExecutorImage
	rec.CreatedAt = time.Now()
	rec.containerID = name
	rec.State = StateRunning
	return nil
}

// classifyStartError turns a failed retry loop into the typed error the
// rest of the system expects. loopErr is RetryWithBackoff's own return
// value, which on exhaustion is the bare ErrMaxAttemptsExhausted
// sentinel carrying no detail — the real cause lives in lastErr
// (RetryResult.LastError), so that's what must be classified.
func classifyStartError(userID string, loopErr, lastErr error) error {
	classifyErr := lastErr
	if classifyErr == nil {
		classifyErr = loopErr
	}
	var startErr *StartFailedError
	if errors.As(classifyErr, &startErr) {
		return startErr
	}
	return &StartFailedError{UserID: userID, Cause: classifyErr}
}

func (m *Manager) startExisting(ctx context.Context, rec *Record) error {
	ctx = m.nsCtx(ctx)
	ctr, err := m.client.LoadContainer(ctx, rec.containerID)
	if err != nil {
		rec.State = StateAbsent
		return &ContainerUnavailableError{UserID: rec.UserID, Cause: err}
	}
	task, err := ctr.NewTask(ctx, cio.NullIO)
	if err != nil {
		rec.State = StateAbsent
		return &StartFailedError{UserID: rec.UserID, Cause: err}
	}
	if err := task.Start(ctx); err != nil {
		rec.State = StateAbsent
		return &StartFailedError{UserID: rec.UserID, Cause: err}
	}
	rec.State = StateRunning
	return nil
}

func (m *Manager) retryAttempts() int {
	if m.cfg.StartRetryAttempts > 0 {
		return m.cfg.StartRetryAttempts
	}
	return 3
}

func (m *Manager) hostMounts() []specs.Mount {
	var mounts []specs.Mount
	if m.cfg.ToolsPath != "" {
		mounts = append(mounts, specs.Mount{
			Source:      m.cfg.ToolsPath,
			Destination: "/tools",
			Type:        "bind",
			Options:     []string{"ro", "bind"},
		})
	}
	if m.cfg.SkillsPath != "" {
		mounts = append(mounts, specs.Mount{
			Source:      m.cfg.SkillsPath,
			Destination: "/skills",
			Type:        "bind",
			Options:     []string{"ro", "bind"},
		})
	}
	return mounts
}

// Remove best-effort stops and removes a single user's container. The
// record becomes Absent regardless of outcome.
func (m *Manager) Remove(ctx context.Context, userID string) error {
	lock := m.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	rec := m.recordFor(userID)
	if rec.State == StateAbsent {
		return nil
	}
	rec.State = StateRemoving
	ctx = m.nsCtx(ctx)

	m.stopAndDelete(ctx, rec.containerID)
	rec.State = StateAbsent
	rec.containerID = ""
	if m.metrics != nil {
		m.metrics.ContainerActive.Set(float64(m.ActiveCount()))
	}
	return nil
}

func (m *Manager) stopAndDelete(ctx context.Context, containerID string) {
	ctr, err := m.client.LoadContainer(ctx, containerID)
	if err != nil {
		return
	}
	if task, err := ctr.Task(ctx, nil); err == nil {
		stopCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := task.Kill(stopCtx, syscall.SIGTERM); err == nil {
			statusC, err := task.Wait(stopCtx)
			if err == nil {
				select {
				case <-statusC:
				case <-stopCtx.Done():
					_ = task.Kill(ctx, syscall.SIGKILL)
				}
			}
		}
		cancel()
		_, _ = task.Delete(ctx)
	}
	_ = ctr.Delete(ctx, containerd.WithSnapshotCleanup)
}

// ReleaseAll stops and removes every known container. Idempotent;
// invoked once at process shutdown.
func (m *Manager) ReleaseAll(ctx context.Context) error {
	m.mu.Lock()
	ids := make([]string, 0, len(m.records))
	for uid := range m.records {
		ids = append(ids, uid)
	}
	m.mu.Unlock()

	for _, uid := range ids {
		if err := m.Remove(ctx, uid); err != nil {
			m.logger.Warn("release_all: failed to remove container", "user_id", uid, "error", err)
		}
	}
	return nil
}

// SweepOrphans removes any containerd container matching this
// process's naming convention that is not already tracked, left
// behind by a prior crash. Intended to run once at startup.
func (m *Manager) SweepOrphans(ctx context.Context) error {
	ctx = m.nsCtx(ctx)
	existing, err := m.client.Containers(ctx)
	if err != nil {
		return fmt.Errorf("list containers: %w", err)
	}
	for _, ctr := range existing {
		id := ctr.ID()
		if !strings.HasPrefix(id, m.cfg.NamePrefix) {
			continue
		}
		if m.isTracked(id) {
			continue
		}
		m.logger.Info("sweeping orphan container", "container_id", id)
		m.stopAndDelete(ctx, id)
	}
	return nil
}

func (m *Manager) isTracked(containerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.containerID == containerID {
			return true
		}
	}
	return false
}
