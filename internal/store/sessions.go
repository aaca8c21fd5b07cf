package store

import (
	"errors"
	"sync"
	"time"

	"github.com/calvinwijaya/blackjack/internal/game"
	"github.com/coder/quartz"
)

// ErrSessionNotFound is returned for an unknown session ID.
var ErrSessionNotFound = errors.New("session not found")

type sessionEntry struct {
	session  *game.Session
	lastSeen time.Time
}

// Sessions is the in-memory registry of live game sessions
type Sessions struct {
	clock    quartz.Clock
	sessions map[string]*sessionEntry
	mu       sync.RWMutex
}

// NewSessions creates an empty registry. A nil clock uses the real clock.
func NewSessions(clock quartz.Clock) *Sessions {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Sessions{
		clock:    clock,
		sessions: make(map[string]*sessionEntry),
	}
}

// Save registers s
func (r *Sessions) Save(s *game.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = &sessionEntry{session: s, lastSeen: r.clock.Now()}
}

// Get returns a session by ID and marks it as used
func (r *Sessions) Get(id string) (*game.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.sessions[id]
	if !exists {
		return nil, ErrSessionNotFound
	}
	e.lastSeen = r.clock.Now()
	return e.session, nil
}

// Delete closes and removes a session
func (r *Sessions) Delete(id string) error {
	r.mu.Lock()
	e, exists := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !exists {
		return ErrSessionNotFound
	}
	e.session.Close()
	return nil
}

// Len returns the number of live sessions
func (r *Sessions) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep closes and removes sessions unused for longer than maxIdle and
// returns their IDs.
func (r *Sessions) Sweep(maxIdle time.Duration) []string {
	cutoff := r.clock.Now().Add(-maxIdle)

	r.mu.Lock()
	var idle []*game.Session
	for id, e := range r.sessions {
		if e.lastSeen.Before(cutoff) {
			idle = append(idle, e.session)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	ids := make([]string, 0, len(idle))
	for _, s := range idle {
		s.Close()
		ids = append(ids, s.ID)
	}
	return ids
}
