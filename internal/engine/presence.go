package engine

import (
	"pulse/internal/models"
)

// joinRoom runs the snapshot-then-join sequence: the joiner always gets
// the snapshot of peers already present, and the peers get exactly one
// online event, only when the session crossed from non-member to member.
// Snapshot and membership change are one atomic step in the roster, so
// a concurrent joiner is either in the snapshot or gets the broadcast,
// never both and never neither.
func (e *Engine) joinRoom(sessionID string, room models.RoomID) {
	identity, ok := e.roster.Identity(sessionID)
	if !ok {
		return
	}
	peers, joined, err := e.roster.SnapshotJoin(sessionID, room)
	if err != nil {
		return
	}

	snap := models.ServerEvent{Event: models.ServerPreviousOnline, Users: peers}
	tagRoom(&snap, room)
	e.sendTo(sessionID, snap)

	if joined {
		e.broadcast(room, sessionID, onlineEvent(room, identity))
	}
}

// leaveRoom removes membership and, if the session actually was a
// member, tells the remaining members it left.
func (e *Engine) leaveRoom(sessionID string, room models.RoomID, identity models.Identity) {
	if !e.roster.Leave(sessionID, room) {
		return
	}
	e.broadcast(room, sessionID, offlineEvent(room, identity))
	if room.Kind == models.RoomKindVideo {
		e.videoNotifyAsync(videoLeave, room.ID)
	}
}

func (e *Engine) handleJoinServer(sessionID string, serverIDs []string) {
	for _, id := range serverIDs {
		if id == "" {
			continue
		}
		e.joinRoom(sessionID, models.ServerRoom(id))
	}
	e.sendTo(sessionID, models.ServerEvent{Event: models.ServerJoined, ServerIDs: serverIDs})
}

func (e *Engine) handleUserOnline(sessionID, serverID string) {
	if serverID == "" {
		return
	}
	e.joinRoom(sessionID, models.ServerRoom(serverID))
}

func (e *Engine) handleUserOnlineDM(sessionID, conversationID string) {
	if conversationID == "" {
		return
	}
	e.joinRoom(sessionID, models.ConversationRoom(conversationID))
}

func (e *Engine) handleUserOfflineDM(sessionID, conversationID string) {
	if conversationID == "" {
		return
	}
	identity, ok := e.roster.Identity(sessionID)
	if !ok {
		return
	}
	e.leaveRoom(sessionID, models.ConversationRoom(conversationID), identity)
}

// handleServerChange is a presence reset: the session leaves every room
// it is in, with the same per-room offline fan-out a disconnect would
// produce, but stays registered so it can join the next server's rooms.
func (e *Engine) handleServerChange(sessionID string) {
	identity, ok := e.roster.Identity(sessionID)
	if !ok {
		return
	}
	e.stopAllTyping(sessionID)
	for _, room := range e.roster.RoomsOf(sessionID) {
		e.leaveRoom(sessionID, room, identity)
	}
}

// tagRoom sets the id field matching the room kind, keeping server and
// conversation ids in separate wire fields.
func tagRoom(ev *models.ServerEvent, room models.RoomID) {
	switch room.Kind {
	case models.RoomKindServer:
		ev.ServerID = room.ID
	case models.RoomKindConversation:
		ev.ConversationID = room.ID
	case models.RoomKindVideo:
		ev.Room = room.ID
	}
}

func onlineEvent(room models.RoomID, identity models.Identity) models.ServerEvent {
	ev := models.ServerEvent{UserID: identity.UserID, User: &identity}
	tagRoom(&ev, room)
	switch room.Kind {
	case models.RoomKindConversation:
		ev.Event = models.ServerUserGotOnlineDM
	case models.RoomKindVideo:
		// Video membership announcements carry the room only.
		ev = models.ServerEvent{Event: models.ServerNotifyUserJoined, Room: room.ID}
	default:
		ev.Event = models.ServerUserGotOnline
	}
	return ev
}

func offlineEvent(room models.RoomID, identity models.Identity) models.ServerEvent {
	ev := models.ServerEvent{UserID: identity.UserID}
	tagRoom(&ev, room)
	switch room.Kind {
	case models.RoomKindConversation:
		ev.Event = models.ServerUserGotOfflineDM
	case models.RoomKindVideo:
		ev = models.ServerEvent{Event: models.ServerNotifyUserLeft, Room: room.ID}
	default:
		ev.Event = models.ServerUserGotOffline
	}
	return ev
}
