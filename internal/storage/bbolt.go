package storage

import (
	"context"
	"fmt"
	"time"

	"pulse/internal/models"

	"go.etcd.io/bbolt"
)

var bucketMessages = []byte("messages")

// BboltStore persists chat messages in a local bbolt file, one nested
// bucket per room. It assigns authoritative message ids from the room
// bucket's sequence and enforces author-only edits and deletes.
type BboltStore struct {
	db  *bbolt.DB
	now func() time.Time
}

func NewBboltStore(path string) (*BboltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketMessages)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &BboltStore{db: db, now: time.Now}, nil
}

func (s *BboltStore) Close() error {
	return s.db.Close()
}

// CreateMessage persists a new message and returns it with the
// store-assigned id and creation timestamp filled in.
func (s *BboltStore) CreateMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	if err := ctx.Err(); err != nil {
		return models.Message{}, err
	}
	if msg.Room.IsZero() {
		return models.Message{}, fmt.Errorf("message missing room")
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		roomBucket, err := tx.Bucket(bucketMessages).CreateBucketIfNotExists([]byte(msg.Room.String()))
		if err != nil {
			return fmt.Errorf("failed to create room bucket: %w", err)
		}

		seq, err := roomBucket.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate message id: %w", err)
		}
		msg.ID = int64(seq)
		msg.CreatedAt = s.now().Unix()

		dbMsg := &DBMessage{
			ID:         msg.ID,
			RoomKey:    msg.Room.String(),
			StreamID:   msg.StreamID,
			AuthorID:   msg.AuthorID,
			AuthorName: msg.AuthorName,
			Content:    msg.Content,
			CreatedAt:  msg.CreatedAt,
		}
		data, err := dbMsg.MarshalBinary()
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		return roomBucket.Put(dbMsg.Key(), data)
	})
	if err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// UpdateMessage rewrites the content of an existing message. Only the
// author may edit; anyone else gets ErrNotAuthor.
func (s *BboltStore) UpdateMessage(ctx context.Context, room models.RoomID, messageID int64, authorID, content string) (models.Message, error) {
	if err := ctx.Err(); err != nil {
		return models.Message{}, err
	}

	var updated models.Message
	err := s.db.Update(func(tx *bbolt.Tx) error {
		dbMsg, roomBucket, err := getMessage(tx, room, messageID)
		if err != nil {
			return err
		}
		if dbMsg.AuthorID != authorID {
			return models.ErrNotAuthor
		}

		dbMsg.Content = content
		dbMsg.EditedAt = s.now().Unix()
		data, err := dbMsg.MarshalBinary()
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		if err := roomBucket.Put(dbMsg.Key(), data); err != nil {
			return err
		}
		updated = dbMsg.toModel(room)
		return nil
	})
	if err != nil {
		return models.Message{}, err
	}
	return updated, nil
}

// DeleteMessage removes a message, author-only like UpdateMessage.
func (s *BboltStore) DeleteMessage(ctx context.Context, room models.RoomID, messageID int64, authorID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		dbMsg, roomBucket, err := getMessage(tx, room, messageID)
		if err != nil {
			return err
		}
		if dbMsg.AuthorID != authorID {
			return models.ErrNotAuthor
		}
		return roomBucket.Delete(dbMsg.Key())
	})
}

// ListMessages returns up to limit most recent messages of a room,
// oldest first. Unknown rooms yield an empty slice.
func (s *BboltStore) ListMessages(ctx context.Context, room models.RoomID, limit int) ([]models.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	messages := []models.Message{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		roomBucket := tx.Bucket(bucketMessages).Bucket([]byte(room.String()))
		if roomBucket == nil {
			return nil // No messages for this room
		}

		c := roomBucket.Cursor()
		for k, v := c.Last(); k != nil && len(messages) < limit; k, v = c.Prev() {
			var dbMsg DBMessage
			if err := dbMsg.UnmarshalBinary(v); err != nil {
				return err
			}
			messages = append(messages, dbMsg.toModel(room))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Cursor walked newest-first; flip back to relay order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func getMessage(tx *bbolt.Tx, room models.RoomID, messageID int64) (*DBMessage, *bbolt.Bucket, error) {
	roomBucket := tx.Bucket(bucketMessages).Bucket([]byte(room.String()))
	if roomBucket == nil {
		return nil, nil, models.ErrNotFound
	}

	probe := DBMessage{ID: messageID}
	data := roomBucket.Get(probe.Key())
	if data == nil {
		return nil, nil, models.ErrNotFound
	}

	var dbMsg DBMessage
	if err := dbMsg.UnmarshalBinary(data); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	return &dbMsg, roomBucket, nil
}

func (m *DBMessage) toModel(room models.RoomID) models.Message {
	return models.Message{
		ID:         m.ID,
		Room:       room,
		StreamID:   m.StreamID,
		AuthorID:   m.AuthorID,
		AuthorName: m.AuthorName,
		Content:    m.Content,
		CreatedAt:  m.CreatedAt,
		EditedAt:   m.EditedAt,
	}
}
