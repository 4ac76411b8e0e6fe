// Package session keeps per-sender trust sessions.
//
// A trust session lets a sender bypass the approval gate until it expires.
// Expiry is a pure function of the time passed in; there is no background
// sweep. Expired entries are dropped the next time they are read.
package session

import (
	"sort"
	"sync"
	"time"

	"github.com/alfredjeanlab/secretary/internal/model"
)

// DefaultDuration is how long a granted session lasts.
const DefaultDuration = 600 * time.Second

// Store is an in-memory map of trust sessions keyed by sender.
type Store struct {
	mu       sync.Mutex
	duration time.Duration
	sessions map[string]model.TrustSession
}

// New creates a store whose grants last for duration. A non-positive
// duration falls back to DefaultDuration.
func New(duration time.Duration) *Store {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Store{
		duration: duration,
		sessions: make(map[string]model.TrustSession),
	}
}

// Duration returns the configured session length.
func (s *Store) Duration() time.Duration {
	return s.duration
}

// IsTrusted reports whether senderID holds a session valid at now.
func (s *Store) IsTrusted(senderID string, now time.Time) bool {
	_, ok := s.Get(senderID, now)
	return ok
}

// Get returns the session for senderID if it is valid at now.
func (s *Store) Get(senderID string, now time.Time) (model.TrustSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[senderID]
	if !ok {
		return model.TrustSession{}, false
	}
	if !sess.ValidAt(now) {
		delete(s.sessions, senderID)
		return model.TrustSession{}, false
	}
	return sess, true
}

// Grant creates or overwrites the session for senderID, starting at now.
func (s *Store) Grant(senderID string, now time.Time, origin model.SessionOrigin) model.TrustSession {
	sess := model.TrustSession{
		SenderID:  senderID,
		GrantedAt: now,
		ExpiresAt: now.Add(s.duration),
		Origin:    origin,
	}
	s.mu.Lock()
	s.sessions[senderID] = sess
	s.mu.Unlock()
	return sess
}

// Revoke removes any session for senderID. It reports whether one existed.
func (s *Store) Revoke(senderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[senderID]
	delete(s.sessions, senderID)
	return ok
}

// List returns every session valid at now, soonest expiry first.
func (s *Store) List(now time.Time) []model.TrustSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.TrustSession, 0, len(s.sessions))
	for id, sess := range s.sessions {
		if !sess.ValidAt(now) {
			delete(s.sessions, id)
			continue
		}
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ExpiresAt.Before(out[j].ExpiresAt)
	})
	return out
}
