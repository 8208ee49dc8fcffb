package roster

import (
	"pulse/internal/models"

	"github.com/samber/lo"
)

// Join adds the session to the room's member set and the room to the
// session's joined set. The room is created implicitly on first join.
// It reports whether membership actually changed; joining twice is a
// no-op, not an error.
func (s *Store) Join(sessionID string, room models.RoomID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()
	return s.join(sessionID, room)
}

func (s *Store) join(sessionID string, room models.RoomID) bool {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return false
	}
	if _, member := sess.rooms[room]; member {
		return false
	}
	sess.rooms[room] = struct{}{}
	members, ok := s.rooms[room]
	if !ok {
		members = make(map[string]struct{})
		s.rooms[room] = members
	}
	members[sessionID] = struct{}{}
	return true
}

// Leave is the symmetric removal; absent membership is a no-op.
func (s *Store) Leave(sessionID string, room models.RoomID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return false
	}
	if _, member := sess.rooms[room]; !member {
		return false
	}
	s.removeMember(room, sessionID)
	return true
}

// SnapshotJoin atomically computes the identities of the room's current
// members, excluding the joiner, and then adds the joiner. The snapshot
// therefore reflects membership before the join: the joiner never sees
// itself. joined reports whether this was a non-member-to-member
// transition (a repeat join still returns the snapshot).
func (s *Store) SnapshotJoin(sessionID string, room models.RoomID) (peers []models.Identity, joined bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()

	if _, ok := s.sessions[sessionID]; !ok {
		return nil, false, models.ErrUnknownSession
	}

	peers = make([]models.Identity, 0)
	for memberID := range s.rooms[room] {
		if memberID == sessionID {
			continue
		}
		if member, ok := s.sessions[memberID]; ok {
			peers = append(peers, member.identity)
		}
	}
	return peers, s.join(sessionID, room), nil
}

// MembersOf returns the session ids currently in the room.
func (s *Store) MembersOf(room models.RoomID) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Keys(s.rooms[room])
}

// RoomsOf returns the rooms the session currently belongs to.
func (s *Store) RoomsOf(sessionID string) []models.RoomID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	return lo.Keys(sess.rooms)
}

// Recipients returns the outbound channels of the room's members,
// excluding at most one session (typically the sender). The slice is a
// copy; callers send outside the lock.
func (s *Store) Recipients(room models.RoomID, exclude string) []chan<- models.ServerEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	members := s.rooms[room]
	if len(members) == 0 {
		return nil
	}
	out := make([]chan<- models.ServerEvent, 0, len(members))
	for memberID := range members {
		if memberID == exclude {
			continue
		}
		if sess, ok := s.sessions[memberID]; ok {
			out = append(out, sess.out)
		}
	}
	return out
}

// RoomCounts reports member counts per live room, for introspection.
func (s *Store) RoomCounts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int, len(s.rooms))
	for room, members := range s.rooms {
		if len(members) > 0 {
			counts[room.String()] = len(members)
		}
	}
	return counts
}
