package service

import (
	"sync"
	"time"

	"cf_finder/internal/domain/model"
)

// DefaultMaxSessions bounds how many sessions the sequencer remembers.
const DefaultMaxSessions = 1024

// Ticket identifies one issued request within a session.
type Ticket struct {
	Session string
	Seq     uint64
}

// Snapshot is the latest committed result of a session. Exactly one of
// Finder and Revision is set.
type Snapshot struct {
	Seq      uint64
	Finder   *model.AggregateResult
	Revision *model.RevisionResult
}

type sessionState struct {
	issued    uint64
	snapshot  *Snapshot
	touchedAt time.Time
}

// Sequencer numbers requests per session and only lets the most recently
// issued request commit its result. A completion whose ticket is no longer
// the latest is discarded.
type Sequencer struct {
	mu          sync.Mutex
	sessions    map[string]*sessionState
	maxSessions int
	now         func() time.Time
}

func NewSequencer(maxSessions int) *Sequencer {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &Sequencer{
		sessions:    make(map[string]*sessionState),
		maxSessions: maxSessions,
		now:         time.Now,
	}
}

// Begin issues a new ticket, superseding any request still pending in session.
func (s *Sequencer) Begin(session string) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[session]
	if !ok {
		s.evictLocked()
		st = &sessionState{}
		s.sessions[session] = st
	}
	st.issued++
	st.touchedAt = s.now()
	return Ticket{Session: session, Seq: st.issued}
}

// IsLatest reports whether t is still the newest ticket of its session.
func (s *Sequencer) IsLatest(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[t.Session]
	return ok && st.issued == t.Seq
}

func (s *Sequencer) CommitFinder(t Ticket, res *model.AggregateResult) bool {
	return s.commit(t, &Snapshot{Seq: t.Seq, Finder: res})
}

func (s *Sequencer) CommitRevision(t Ticket, res *model.RevisionResult) bool {
	return s.commit(t, &Snapshot{Seq: t.Seq, Revision: res})
}

func (s *Sequencer) commit(t Ticket, snap *Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[t.Session]
	if !ok || st.issued != t.Seq {
		return false
	}
	st.snapshot = snap
	st.touchedAt = s.now()
	return true
}

// Latest returns the session's committed snapshot, if any.
func (s *Sequencer) Latest(session string) (*Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[session]
	if !ok || st.snapshot == nil {
		return nil, false
	}
	st.touchedAt = s.now()
	return st.snapshot, true
}

// evictLocked drops the least recently touched session when full.
func (s *Sequencer) evictLocked() {
	if len(s.sessions) < s.maxSessions {
		return
	}
	var (
		oldestKey string
		oldestAt  time.Time
		found     bool
	)
	for k, st := range s.sessions {
		if !found || st.touchedAt.Before(oldestAt) {
			oldestKey, oldestAt, found = k, st.touchedAt, true
		}
	}
	delete(s.sessions, oldestKey)
}
