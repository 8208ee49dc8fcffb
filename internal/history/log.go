package history

import (
	"sync"

	"pulse/internal/models"
)

// Log is the per-room collection of recent-message rings. Rooms get a
// ring lazily on first append.
type Log struct {
	mu         sync.RWMutex
	rooms      map[models.RoomID]*Ring
	maxRecords int
}

func NewLog(maxRecords int) *Log {
	return &Log{
		rooms:      make(map[models.RoomID]*Ring),
		maxRecords: maxRecords,
	}
}

func (l *Log) ring(room models.RoomID, create bool) *Ring {
	l.mu.RLock()
	r, ok := l.rooms[room]
	l.mu.RUnlock()
	if ok || !create {
		return r
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if r, ok = l.rooms[room]; ok {
		return r
	}
	r = NewRing(l.maxRecords)
	l.rooms[room] = r
	return r
}

func (l *Log) Append(msg models.Message) {
	l.ring(msg.Room, true).Append(msg)
}

// Last returns up to count recent messages for the room, oldest first.
// An unknown room yields an empty slice.
func (l *Log) Last(room models.RoomID, count int) []models.Message {
	r := l.ring(room, false)
	if r == nil {
		return []models.Message{}
	}
	return r.Last(count)
}

func (l *Log) Update(room models.RoomID, messageID int64, content string, editedAt int64) bool {
	r := l.ring(room, false)
	if r == nil {
		return false
	}
	return r.Update(messageID, content, editedAt)
}

func (l *Log) Remove(room models.RoomID, messageID int64) bool {
	r := l.ring(room, false)
	if r == nil {
		return false
	}
	return r.Remove(messageID)
}
