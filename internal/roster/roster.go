// Package roster is the single owned store for connection and room
// membership state. All mutation funnels through its methods; there is
// no ambient global access, so the fan-out layer can be unit tested
// without a live network.
package roster

import (
	"sync"

	"pulse/internal/models"

	"github.com/samber/lo"
)

type session struct {
	id       string
	identity models.Identity
	rooms    map[models.RoomID]struct{}
	out      chan<- models.ServerEvent
}

// Store tracks live sessions and the bidirectional session<->room
// mapping. One mutex covers both sides so snapshot-then-add and
// remove-then-cascade are single critical sections per room.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session
	rooms    map[models.RoomID]map[string]struct{}

	// Rooms emptied by a leave are pruned on the next write, not at
	// the moment they empty out.
	empties []models.RoomID
}

func New() *Store {
	return &Store{
		sessions: make(map[string]*session),
		rooms:    make(map[models.RoomID]map[string]struct{}),
	}
}

// Register adds a new live session. Registering the same session id
// twice is a programming error and returns ErrDuplicateSession.
func (s *Store) Register(sessionID string, identity models.Identity, out chan<- models.ServerEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; ok {
		return models.ErrDuplicateSession
	}
	s.sessions[sessionID] = &session{
		id:       sessionID,
		identity: identity,
		rooms:    make(map[models.RoomID]struct{}),
		out:      out,
	}
	return nil
}

// Unregister removes the session and cascades the removal into every
// room it was a member of. It returns the rooms the session belonged
// to, in no particular order. Unknown sessions are a no-op returning
// nil, so disconnect cleanup is safe to invoke twice.
func (s *Store) Unregister(sessionID string) []models.RoomID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}

	rooms := lo.Keys(sess.rooms)
	for _, room := range rooms {
		s.removeMember(room, sessionID)
	}
	delete(s.sessions, sessionID)
	return rooms
}

// Lookup returns a copy of the session record.
func (s *Store) Lookup(sessionID string) (models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return models.Session{}, false
	}
	return sess.view(), true
}

// Identity resolves a session id to its cached identity.
func (s *Store) Identity(sessionID string) (models.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return models.Identity{}, false
	}
	return sess.identity, true
}

// SendChan returns the outbound channel registered for a session.
func (s *Store) SendChan(sessionID string) (chan<- models.ServerEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return sess.out, true
}

// Sessions returns a snapshot of every live session.
func (s *Store) Sessions() []models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return lo.MapToSlice(s.sessions, func(_ string, sess *session) models.Session {
		return sess.view()
	})
}

func (sess *session) view() models.Session {
	return models.Session{
		SessionID: sess.id,
		Identity:  sess.identity,
		Rooms:     lo.Keys(sess.rooms),
	}
}

// removeMember detaches a session from a room on both sides of the
// mapping. Caller holds the write lock.
func (s *Store) removeMember(room models.RoomID, sessionID string) {
	if sess, ok := s.sessions[sessionID]; ok {
		delete(sess.rooms, room)
	}
	members, ok := s.rooms[room]
	if !ok {
		return
	}
	delete(members, sessionID)
	if len(members) == 0 {
		s.empties = append(s.empties, room)
	}
}

// prune drops room entries that emptied out earlier. Caller holds the
// write lock.
func (s *Store) prune() {
	for _, room := range s.empties {
		if members, ok := s.rooms[room]; ok && len(members) == 0 {
			delete(s.rooms, room)
		}
	}
	s.empties = s.empties[:0]
}
