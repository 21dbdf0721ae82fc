// Package session implements the spec §4.L Session Memory: a bounded
// per-conversation FIFO of turns, evicted both by turn count and by
// wall-clock age. Grounded on the general bounded-cache idiom the teacher
// applies elsewhere with hashicorp/golang-lru/v2; a plain in-memory map
// protected by a mutex is used here since golang-lru's fixed-capacity
// eviction doesn't express the two-bound (count and age) policy this
// component needs without an outer wrapper anyway.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"rag-orchestrator/internal/domain"
)

const (
	defaultMaxTurns = 20
	defaultMaxAge   = 2 * time.Hour
)

var _ domain.SessionStore = (*Store)(nil)

type Store struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	maxTurns int
	maxAge   time.Duration
	now      func() time.Time
}

// Option configures New away from its defaults.
type Option func(*Store)

func WithMaxTurns(n int) Option { return func(s *Store) { s.maxTurns = n } }
func WithMaxAge(d time.Duration) Option { return func(s *Store) { s.maxAge = d } }

// withClock overrides the store's time source, used by tests to exercise
// age-based eviction deterministically.
func withClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

func New(opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*domain.Session),
		maxTurns: defaultMaxTurns,
		maxAge:   defaultMaxAge,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) NewSession(ctx context.Context) (string, error) {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &domain.Session{SessionID: id, LastTouched: s.now()}
	return id, nil
}

func (s *Store) Append(ctx context.Context, sessionID, role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &domain.Session{SessionID: sessionID}
		s.sessions[sessionID] = sess
	}

	now := s.now()
	sess.Turns = append(sess.Turns, domain.Turn{Role: role, Content: content, At: now})
	sess.LastTouched = now

	if len(sess.Turns) > s.maxTurns {
		sess.Turns = sess.Turns[len(sess.Turns)-s.maxTurns:]
	}
	return nil
}

// History returns up to maxTurns turns, oldest first, dropping any turn
// older than the store's age bound and dropping the session entirely once
// every turn has aged out.
func (s *Store) History(ctx context.Context, sessionID string, maxTurns int) ([]domain.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}

	cutoff := s.now().Add(-s.maxAge)
	live := sess.Turns[:0:0]
	for _, t := range sess.Turns {
		if t.At.After(cutoff) {
			live = append(live, t)
		}
	}
	sess.Turns = live
	if len(live) == 0 {
		delete(s.sessions, sessionID)
		return nil, nil
	}

	if maxTurns > 0 && len(live) > maxTurns {
		live = live[len(live)-maxTurns:]
	}
	out := make([]domain.Turn, len(live))
	copy(out, live)
	return out, nil
}
