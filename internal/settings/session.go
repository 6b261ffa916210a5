package settings

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Azure/cosmos-explorer-sub003/internal/metrics"
	"github.com/Azure/cosmos-explorer-sub003/internal/offer"
)

// ErrSessionNotFound is returned when a session id is unknown or expired.
var ErrSessionNotFound = errors.New("settings session not found")

// Session is one open settings view over a resource's offer.
type Session struct {
	ID        uuid.UUID
	Resource  offer.Resource
	Tracker   *Tracker
	CreatedAt time.Time

	lastUsed time.Time
}

// Store keeps open sessions in memory. Sessions idle longer than the TTL are
// dropped on the next access.
type Store struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	ttl      time.Duration
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewStore creates a session store. A zero ttl keeps sessions until deleted.
func NewStore(ttl time.Duration, m *metrics.Metrics) *Store {
	return &Store{
		sessions: make(map[uuid.UUID]*Session),
		ttl:      ttl,
		metrics:  m,
		now:      time.Now,
	}
}

// Open registers a tracker for res and returns the new session.
func (s *Store) Open(res offer.Resource, tracker *Tracker) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess := &Session{
		ID:        uuid.New(),
		Resource:  res,
		Tracker:   tracker,
		CreatedAt: now,
		lastUsed:  now,
	}
	s.sessions[sess.ID] = sess
	s.expireLocked(now)
	return sess
}

// Get returns the session and marks it used.
func (s *Store) Get(id uuid.UUID) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.expireLocked(now)
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.lastUsed = now
	return sess, nil
}

// Close removes a session.
func (s *Store) Close(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	s.metrics.SetSessions(len(s.sessions))
	return nil
}

// Len returns the number of open sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) expireLocked(now time.Time) {
	if s.ttl > 0 {
		for id, sess := range s.sessions {
			// Executing sessions are kept so the commit can finish.
			if now.Sub(sess.lastUsed) > s.ttl && !sess.Tracker.State().Executing {
				delete(s.sessions, id)
			}
		}
	}
	s.metrics.SetSessions(len(s.sessions))
}
