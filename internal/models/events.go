package models

// ClientEventKind enumerates every inbound event. Dispatch is a switch
// over this type with one handler per kind, not string-keyed callbacks.
type ClientEventKind string

const (
	ClientJoinServer    ClientEventKind = "joinServer"
	ClientUserOnline    ClientEventKind = "userOnline"
	ClientUserOnlineDM  ClientEventKind = "userOnlineDM"
	ClientUserOfflineDM ClientEventKind = "userGotOfflineDM"
	ClientMessage       ClientEventKind = "message"
	ClientUpdateMessage ClientEventKind = "updateMessage"
	ClientDeleteMessage ClientEventKind = "deleteMessage"
	ClientTyping        ClientEventKind = "typing"
	ClientStopTyping    ClientEventKind = "stop_typing"
	ClientVideoJoined   ClientEventKind = "userJoined"
	ClientVideoLeft     ClientEventKind = "userLeft"
	ClientListRooms     ClientEventKind = "listRooms"
	ClientServerChange  ClientEventKind = "serverChange"
)

// ClientEvent is one inbound frame. Only the fields relevant to the
// event kind are set; server and conversation ids travel in their own
// fields, never folded into each other.
type ClientEvent struct {
	Event          ClientEventKind `json:"event"`
	ServerIDs      []string        `json:"serverIds,omitempty"`
	ServerID       string          `json:"serverId,omitempty"`
	ConversationID string          `json:"conversationId,omitempty"`
	ChannelID      string          `json:"channelId,omitempty"`
	Room           string          `json:"room,omitempty"`
	Rooms          []string        `json:"rooms,omitempty"`
	MessageID      int64           `json:"messageId,omitempty"`
	StreamID       string          `json:"streamId,omitempty"`
	Content        string          `json:"content,omitempty"`
}

type ServerEventKind string

const (
	ServerJoined           ServerEventKind = "serverJoined"
	ServerPreviousOnline   ServerEventKind = "previousOnlineUsers"
	ServerUserGotOnline    ServerEventKind = "userGotOnline"
	ServerUserGotOffline   ServerEventKind = "userGotOffline"
	ServerUserGotOnlineDM  ServerEventKind = "userGotOnlineDM"
	ServerUserGotOfflineDM ServerEventKind = "userGotOfflineDM"
	ServerMessage          ServerEventKind = "message"
	ServerUpdateMessage    ServerEventKind = "updateMessage"
	ServerDeleteMessage    ServerEventKind = "deleteMessage"
	ServerUserTyping       ServerEventKind = "user_typing"
	ServerUserStopTyping   ServerEventKind = "user_stop_typing"
	ServerNotifyUserJoined ServerEventKind = "notifyUserJoined"
	ServerNotifyUserLeft   ServerEventKind = "notifyUserLeft"
	ServerRoomsList        ServerEventKind = "roomsList"
	ServerMessageError     ServerEventKind = "messageError"
)

// ServerEvent is one outbound frame.
type ServerEvent struct {
	Event          ServerEventKind `json:"event"`
	ServerIDs      []string        `json:"serverIds,omitempty"`
	ServerID       string          `json:"serverId,omitempty"`
	ConversationID string          `json:"conversationId,omitempty"`
	ChannelID      string          `json:"channelId,omitempty"`
	Room           string          `json:"room,omitempty"`
	UserID         string          `json:"userId,omitempty"`
	User           *Identity       `json:"user,omitempty"`
	Users          []Identity      `json:"users,omitempty"`
	Message        *Message        `json:"message,omitempty"`
	MessageID      int64           `json:"messageId,omitempty"`
	StreamID       string          `json:"streamId,omitempty"`
	Content        string          `json:"content,omitempty"`
	Counts         map[string]int  `json:"counts,omitempty"`
	Error          string          `json:"error,omitempty"`
}
