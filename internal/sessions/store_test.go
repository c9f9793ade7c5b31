package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEnsureSessionCreatesOnFirstCall(t *testing.T) {
	s := New(time.Hour)
	id, err := s.EnsureSession(context.Background(), "user-1", "agent")
	require.NoError(t, err)
	require.NotEmpty(t, id)
}

func TestEnsureSessionReturnsSameIDWithinTTL(t *testing.T) {
	s := New(time.Hour)
	first, err := s.EnsureSession(context.Background(), "user-1", "agent")
	require.NoError(t, err)
	second, err := s.EnsureSession(context.Background(), "user-1", "agent")
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestEnsureSessionIssuesNewIDAfterIdleExpiry(t *testing.T) {
	s := New(5 * time.Millisecond)
	first, err := s.EnsureSession(context.Background(), "user-1", "agent")
	require.NoError(t, err)
	time.Sleep(15 * time.Millisecond)
	second, err := s.EnsureSession(context.Background(), "user-1", "agent")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestEnsureSessionDoesNotShareAcrossUsers(t *testing.T) {
	s := New(time.Hour)
	a, err := s.EnsureSession(context.Background(), "user-a", "agent")
	require.NoError(t, err)
	b, err := s.EnsureSession(context.Background(), "user-b", "agent")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestEnsureSessionDoesNotShareAcrossAppNames(t *testing.T) {
	s := New(time.Hour)
	a, err := s.EnsureSession(context.Background(), "user-1", "app-a")
	require.NoError(t, err)
	b, err := s.EnsureSession(context.Background(), "user-1", "app-b")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestGetReturnsFalseForUnknownSession(t *testing.T) {
	s := New(time.Hour)
	_, ok := s.Get("nobody", "agent")
	require.False(t, ok)
}

func TestGetReturnsFalseAfterExpiry(t *testing.T) {
	s := New(5 * time.Millisecond)
	_, err := s.EnsureSession(context.Background(), "user-1", "agent")
	require.NoError(t, err)
	time.Sleep(15 * time.Millisecond)
	_, ok := s.Get("user-1", "agent")
	require.False(t, ok)
}

func TestCleanupExpiredRemovesOnlyIdleSessions(t *testing.T) {
	s := New(10 * time.Millisecond)
	_, err := s.EnsureSession(context.Background(), "stale", "agent")
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	_, err = s.EnsureSession(context.Background(), "fresh", "agent")
	require.NoError(t, err)

	removed := s.CleanupExpired()
	require.Equal(t, 1, removed)
	require.Equal(t, 1, s.Count())
}
