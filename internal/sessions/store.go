// Package sessions implements the Session Store: a single idle-TTL
// keyed by (user_id, app_name), held entirely in memory with no
// persistence and no sharing across user ids.
package sessions

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is a conversation thread scoped to one user id and one
// calling application.
type Session struct {
	ID         string
	UserID     string
	AppName    string
	CreatedAt  time.Time
	LastActive time.Time
}

func (s Session) clone() Session { return s }

// Store holds sessions in memory behind a single mutex, keyed by
// (user_id, app_name). There is no cross-user sharing: two different
// user ids never resolve to the same session even if they pass the
// same app_name.
type Store struct {
	mu      sync.Mutex
	idleTTL time.Duration
	byKey   map[string]*Session
}

// New returns a Store that expires sessions idle for longer than
// idleTTL (30 minutes if zero or negative).
func New(idleTTL time.Duration) *Store {
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	return &Store{idleTTL: idleTTL, byKey: make(map[string]*Session)}
}

func sessionKey(userID, appName string) string {
	return userID + "\x00" + appName
}

// EnsureSession returns the live session id for (userID, appName),
// creating one if none exists or the existing one has gone idle past
// the configured TTL. Touching a session's LastActive is the only
// mutation this method performs on a hit.
func (s *Store) EnsureSession(ctx context.Context, userID, appName string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sessionKey(userID, appName)
	now := time.Now()

	if existing, ok := s.byKey[key]; ok && now.Sub(existing.LastActive) < s.idleTTL {
		existing.LastActive = now
		return existing.ID, nil
	}

	sess := &Session{
		ID:         uuid.NewString(),
		UserID:     userID,
		AppName:    appName,
		CreatedAt:  now,
		LastActive: now,
	}
	s.byKey[key] = sess
	return sess.ID, nil
}

// Get returns a snapshot of the session for (userID, appName), if one
// is currently live (not yet expired).
func (s *Store) Get(userID, appName string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byKey[sessionKey(userID, appName)]
	if !ok || time.Since(existing.LastActive) >= s.idleTTL {
		return Session{}, false
	}
	return existing.clone(), true
}

// CleanupExpired removes every session idle past the configured TTL
// and returns how many were removed.
func (s *Store) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, sess := range s.byKey {
		if now.Sub(sess.LastActive) >= s.idleTTL {
			delete(s.byKey, key)
			removed++
		}
	}
	return removed
}

// Count returns the number of currently tracked sessions, expired or
// not; callers that need only live sessions should call
// CleanupExpired first.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byKey)
}

// StartJanitor runs CleanupExpired on interval until ctx is canceled.
func (s *Store) StartJanitor(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.CleanupExpired(); n > 0 && logger != nil {
					logger.Debug("session store: expired sessions reaped", "count", n)
				}
			}
		}
	}()
}
