// Package history keeps a bounded in-memory ring of the most recently
// relayed messages per room. The relay appends after persistence; hot
// history reads are served from here, with the durable store as the
// fallback for rooms that aged out.
package history

import (
	"sync"

	"pulse/internal/models"
)

// Ring is a fixed-capacity ring buffer of messages in relay order.
type Ring struct {
	records    []models.Message
	maxRecords int
	lastIndex  int

	mux sync.RWMutex
}

func NewRing(maxRecords int) *Ring {
	return &Ring{
		maxRecords: maxRecords,
		lastIndex:  -1,
	}
}

// Append adds a message, evicting the oldest once the ring is full.
func (r *Ring) Append(msg models.Message) {
	r.mux.Lock()
	defer r.mux.Unlock()

	if len(r.records) < r.maxRecords {
		r.records = append(r.records, msg)
		r.lastIndex++
		return
	}
	i := (r.lastIndex + 1) % r.maxRecords
	r.records[i] = msg
	r.lastIndex = i
}

// Last returns up to count most recent messages, oldest first.
func (r *Ring) Last(count int) []models.Message {
	r.mux.RLock()
	defer r.mux.RUnlock()

	total := len(r.records)
	if count > total {
		count = total
	}
	if count <= 0 {
		return []models.Message{}
	}

	// Head index (oldest record).
	head := 0
	if total == r.maxRecords {
		head = (r.lastIndex + 1) % r.maxRecords
	}

	offset := total - count
	startIdx := (head + offset) % total

	result := make([]models.Message, count)
	if startIdx+count <= total {
		copy(result, r.records[startIdx:startIdx+count])
	} else {
		n1 := total - startIdx
		copy(result, r.records[startIdx:])
		copy(result[n1:], r.records[:count-n1])
	}
	return result
}

// Update rewrites the content of a buffered message in place. It
// reports whether the message was still in the ring.
func (r *Ring) Update(messageID int64, content string, editedAt int64) bool {
	r.mux.Lock()
	defer r.mux.Unlock()

	for i := range r.records {
		if r.records[i].ID == messageID {
			r.records[i].Content = content
			r.records[i].EditedAt = editedAt
			return true
		}
	}
	return false
}

// Remove drops a deleted message from the ring, compacting it back
// into relay order.
func (r *Ring) Remove(messageID int64) bool {
	r.mux.Lock()
	defer r.mux.Unlock()

	ordered := r.orderedLocked()
	kept := ordered[:0]
	found := false
	for _, msg := range ordered {
		if msg.ID == messageID {
			found = true
			continue
		}
		kept = append(kept, msg)
	}
	if !found {
		return false
	}
	r.records = kept
	r.lastIndex = len(kept) - 1
	return true
}

func (r *Ring) orderedLocked() []models.Message {
	total := len(r.records)
	if total < r.maxRecords {
		return r.records
	}
	head := (r.lastIndex + 1) % r.maxRecords
	ordered := make([]models.Message, 0, total)
	ordered = append(ordered, r.records[head:]...)
	ordered = append(ordered, r.records[:head]...)
	return ordered
}
