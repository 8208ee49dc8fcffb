package models

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrNotAuthor is returned by the message store when a caller tries
	// to edit or delete a message it does not own.
	ErrNotAuthor = errors.New("not the message author")

	// ErrDuplicateSession means a session id was registered twice.
	// This is a programming error, not a recoverable condition.
	ErrDuplicateSession = errors.New("session already registered")

	ErrEmptyContent = errors.New("message content is empty")

	ErrUnknownSession = errors.New("unknown session")
)

// Identity holds the presentation fields of an authenticated user,
// supplied once at connection time and cached on the session.
type Identity struct {
	UserID      string `json:"userId"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	AccentColor string `json:"accentColor,omitempty"`
}

// Session is a read-only view of one live connection. The roster owns
// the mutable record; callers always get copies.
type Session struct {
	SessionID string   `json:"sessionId"`
	Identity  Identity `json:"identity"`
	Rooms     []RoomID `json:"rooms"`
}

// Message is a persisted chat message. ID and CreatedAt are assigned by
// the store on create; client-supplied ids are never authoritative.
type Message struct {
	ID         int64  `json:"id"`
	Room       RoomID `json:"room"`
	StreamID   string `json:"streamId,omitempty"`
	AuthorID   string `json:"authorId"`
	AuthorName string `json:"authorName,omitempty"`
	Content    string `json:"content"`
	CreatedAt  int64  `json:"createdAt"` // Unix timestamp (seconds)
	EditedAt   int64  `json:"editedAt,omitempty"`
}
