package models

import (
	"fmt"
	"strings"
)

type RoomKind string

const (
	RoomKindServer       RoomKind = "server"
	RoomKindConversation RoomKind = "conversation"
	RoomKindVideo        RoomKind = "video"
)

// RoomID names one scope of event fan-out. A session belongs to zero or
// more rooms; rooms are created implicitly on first join.
type RoomID struct {
	Kind RoomKind `json:"kind"`
	ID   string   `json:"id"`
}

func ServerRoom(serverID string) RoomID {
	return RoomID{Kind: RoomKindServer, ID: serverID}
}

func ConversationRoom(conversationID string) RoomID {
	return RoomID{Kind: RoomKindConversation, ID: conversationID}
}

func VideoRoom(channelID string) RoomID {
	return RoomID{Kind: RoomKindVideo, ID: channelID}
}

// String renders the room as "kind:id". The form is stable and is used
// as a storage bucket key.
func (r RoomID) String() string {
	return string(r.Kind) + ":" + r.ID
}

func (r RoomID) IsZero() bool {
	return r.Kind == "" && r.ID == ""
}

func ParseRoomID(s string) (RoomID, error) {
	kind, id, ok := strings.Cut(s, ":")
	if !ok || id == "" {
		return RoomID{}, fmt.Errorf("malformed room id %q", s)
	}
	switch RoomKind(kind) {
	case RoomKindServer, RoomKindConversation, RoomKindVideo:
		return RoomID{Kind: RoomKind(kind), ID: id}, nil
	default:
		return RoomID{}, fmt.Errorf("unknown room kind %q", kind)
	}
}
