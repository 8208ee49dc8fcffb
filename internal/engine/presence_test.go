package engine

import (
	"testing"

	"pulse/internal/models"
)

func TestUserOnlineSnapshotAndBroadcast(t *testing.T) {
	te := newTestEngine(t)

	a := te.connect(t, "alice")
	a.Handle(models.ClientEvent{Event: models.ClientUserOnline, ServerID: "s1"})

	snap := recv(t, a, models.ServerPreviousOnline)
	if snap.ServerID != "s1" {
		t.Fatalf("snapshot serverId = %q, want s1", snap.ServerID)
	}
	if len(snap.Users) != 0 {
		t.Fatalf("first joiner snapshot has %d users, want 0", len(snap.Users))
	}

	b := te.connect(t, "bob")
	b.Handle(models.ClientEvent{Event: models.ClientUserOnline, ServerID: "s1"})

	snap = recv(t, b, models.ServerPreviousOnline)
	if len(snap.Users) != 1 || snap.Users[0].UserID != "alice" {
		t.Fatalf("second joiner snapshot = %+v, want just alice", snap.Users)
	}

	online := recv(t, a, models.ServerUserGotOnline)
	if online.UserID != "bob" || online.ServerID != "s1" {
		t.Fatalf("online event = %+v", online)
	}
	if online.User == nil || online.User.DisplayName != "user bob" {
		t.Fatalf("online event user = %+v", online.User)
	}
}

func TestUserOnlineRepeatDoesNotRebroadcast(t *testing.T) {
	te := newTestEngine(t)

	a := te.connect(t, "alice")
	b := te.connect(t, "bob")
	a.Handle(models.ClientEvent{Event: models.ClientUserOnline, ServerID: "s1"})
	b.Handle(models.ClientEvent{Event: models.ClientUserOnline, ServerID: "s1"})
	recv(t, a, models.ServerUserGotOnline)
	drain(a)

	// Re-announcing only refreshes bob's own snapshot.
	b.Handle(models.ClientEvent{Event: models.ClientUserOnline, ServerID: "s1"})
	snap := recv(t, b, models.ServerPreviousOnline)
	if len(snap.Users) != 1 {
		t.Fatalf("snapshot users = %d, want 1", len(snap.Users))
	}
	expectSilence(t, a, models.ServerUserGotOnline)
}

func TestJoinServerAcksAndJoinsEach(t *testing.T) {
	te := newTestEngine(t)

	a := te.connect(t, "alice")
	a.Handle(models.ClientEvent{Event: models.ClientUserOnline, ServerID: "s2"})
	drain(a)

	b := te.connect(t, "bob")
	b.Handle(models.ClientEvent{Event: models.ClientJoinServer, ServerIDs: []string{"s1", "s2"}})

	ack := recv(t, b, models.ServerJoined)
	if len(ack.ServerIDs) != 2 {
		t.Fatalf("ack serverIds = %v", ack.ServerIDs)
	}

	online := recv(t, a, models.ServerUserGotOnline)
	if online.ServerID != "s2" || online.UserID != "bob" {
		t.Fatalf("online event = %+v", online)
	}
}

func TestConversationPresence(t *testing.T) {
	te := newTestEngine(t)

	a := te.connect(t, "alice")
	b := te.connect(t, "bob")
	a.Handle(models.ClientEvent{Event: models.ClientUserOnlineDM, ConversationID: "c9"})
	b.Handle(models.ClientEvent{Event: models.ClientUserOnlineDM, ConversationID: "c9"})

	online := recv(t, a, models.ServerUserGotOnlineDM)
	if online.ConversationID != "c9" || online.UserID != "bob" {
		t.Fatalf("dm online = %+v", online)
	}
	if online.ServerID != "" {
		t.Fatalf("dm online leaked serverId %q", online.ServerID)
	}

	b.Handle(models.ClientEvent{Event: models.ClientUserOfflineDM, ConversationID: "c9"})
	offline := recv(t, a, models.ServerUserGotOfflineDM)
	if offline.ConversationID != "c9" || offline.UserID != "bob" {
		t.Fatalf("dm offline = %+v", offline)
	}
}

func TestDisconnectBroadcastsOfflinePerRoom(t *testing.T) {
	te := newTestEngine(t)

	a := te.connect(t, "alice")
	b := te.connect(t, "bob")
	a.Handle(models.ClientEvent{Event: models.ClientUserOnline, ServerID: "s1"})
	a.Handle(models.ClientEvent{Event: models.ClientUserOnlineDM, ConversationID: "c1"})
	b.Handle(models.ClientEvent{Event: models.ClientUserOnline, ServerID: "s1"})
	b.Handle(models.ClientEvent{Event: models.ClientUserOnlineDM, ConversationID: "c1"})
	drain(a)

	b.Close()

	offline := recv(t, a, models.ServerUserGotOffline)
	if offline.ServerID != "s1" || offline.UserID != "bob" {
		t.Fatalf("server offline = %+v", offline)
	}
	dmOffline := recv(t, a, models.ServerUserGotOfflineDM)
	if dmOffline.ConversationID != "c1" || dmOffline.UserID != "bob" {
		t.Fatalf("dm offline = %+v", dmOffline)
	}
}

func TestServerChangeLeavesAllRoomsButStaysRegistered(t *testing.T) {
	te := newTestEngine(t)

	a := te.connect(t, "alice")
	b := te.connect(t, "bob")
	a.Handle(models.ClientEvent{Event: models.ClientUserOnline, ServerID: "s1"})
	b.Handle(models.ClientEvent{Event: models.ClientUserOnline, ServerID: "s1"})
	drain(a)

	b.Handle(models.ClientEvent{Event: models.ClientServerChange})

	offline := recv(t, a, models.ServerUserGotOffline)
	if offline.UserID != "bob" {
		t.Fatalf("offline = %+v", offline)
	}

	// The session survives and can join the next server.
	b.Handle(models.ClientEvent{Event: models.ClientUserOnline, ServerID: "s2"})
	snap := recv(t, b, models.ServerPreviousOnline)
	if snap.ServerID != "s2" {
		t.Fatalf("rejoin snapshot = %+v", snap)
	}
}

func TestPresenceScopedToRoom(t *testing.T) {
	te := newTestEngine(t)

	a := te.connect(t, "alice")
	b := te.connect(t, "bob")
	a.Handle(models.ClientEvent{Event: models.ClientUserOnline, ServerID: "s1"})
	b.Handle(models.ClientEvent{Event: models.ClientUserOnline, ServerID: "s2"})

	expectSilence(t, a, models.ServerUserGotOnline)
}
