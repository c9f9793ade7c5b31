package containers

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeHostnameStable(t *testing.T) {
	a := sanitizeHostname("user-123")
	b := sanitizeHostname("user-123")
	require.Equal(t, a, b)
}

func TestSanitizeHostnameDiffersByUser(t *testing.T) {
	require.NotEqual(t, sanitizeHostname("alice"), sanitizeHostname("bob"))
}

func TestSanitizeHostnameStripsUnsafeChars(t *testing.T) {
	got := sanitizeHostname("Weird User!@#$")
	require.Regexp(t, `^[a-z0-9-]+$`, got)
}

func TestSanitizeHostnameHandlesAllUnsafeInput(t *testing.T) {
	got := sanitizeHostname("###")
	require.True(t, len(got) > 0)
	require.Regexp(t, `^user-[0-9a-f]{8}$`, got)
}

func TestContainerNameUsesPrefix(t *testing.T) {
	m := &Manager{cfg: Config{NamePrefix: "mcp-executor-"}}
	name := m.containerName("alice")
	require.Contains(t, name, "mcp-executor-")
	require.Contains(t, name, sanitizeHostname("alice"))
}

func TestStateStringKnownValues(t *testing.T) {
	require.Equal(t, "absent", StateAbsent.String())
	require.Equal(t, "starting", StateStarting.String())
	require.Equal(t, "running", StateRunning.String())
	require.Equal(t, "stopped", StateStopped.String())
	require.Equal(t, "removing", StateRemoving.String())
}

func TestRecordForCreatesAbsentRecord(t *testing.T) {
	m := &Manager{records: make(map[string]*Record), userLock: make(map[string]*sync.Mutex)}
	rec := m.recordFor("alice")
	require.Equal(t, StateAbsent, rec.State)
	require.Equal(t, "alice", rec.UserID)

	// Calling again returns the same record.
	rec2 := m.recordFor("alice")
	require.Same(t, rec, rec2)
}

func TestSnapshotAbsentForUnknownUser(t *testing.T) {
	m := &Manager{records: make(map[string]*Record), userLock: make(map[string]*sync.Mutex)}
	snap := m.Snapshot("nobody")
	require.Equal(t, StateAbsent, snap.State)
}

func TestLockForReturnsSameMutexPerUser(t *testing.T) {
	m := &Manager{records: make(map[string]*Record), userLock: make(map[string]*sync.Mutex)}
	l1 := m.lockFor("alice")
	l2 := m.lockFor("alice")
	require.Same(t, l1, l2)

	l3 := m.lockFor("bob")
	require.NotSame(t, l1, l3)
}

func TestClassifyStartErrorPrefersLastErrorOverLoopSentinel(t *testing.T) {
	// backoff.ErrMaxAttemptsExhausted carries no detail; the real cause
	// must come from RetryResult.LastError, not the loop's own return.
	sentinel := errors.New("max retry attempts exhausted")
	lastErr := &StartFailedError{UserID: "alice", Cause: errors.New("task start failed")}

	got := classifyStartError("alice", sentinel, lastErr)

	var startErr *StartFailedError
	require.True(t, errors.As(got, &startErr))
	require.Same(t, lastErr, startErr)
}

func TestClassifyStartErrorWrapsNonStartFailedCause(t *testing.T) {
	cause := errors.New("create container: boom")

	got := classifyStartError("bob", errors.New("max retry attempts exhausted"), cause)

	var startErr *StartFailedError
	require.True(t, errors.As(got, &startErr))
	require.Equal(t, "bob", startErr.UserID)
	require.Equal(t, cause, startErr.Cause)
}

func TestClassifyStartErrorFallsBackToLoopErrorWhenLastErrorNil(t *testing.T) {
	loopErr := errors.New("context canceled")

	got := classifyStartError("carol", loopErr, nil)

	var startErr *StartFailedError
	require.True(t, errors.As(got, &startErr))
	require.Equal(t, loopErr, startErr.Cause)
}
