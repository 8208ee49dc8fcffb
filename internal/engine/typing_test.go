package engine

import (
	"testing"
	"time"

	"pulse/internal/models"
)

func TestTypingBroadcastOnce(t *testing.T) {
	te := newTestEngine(t)

	a := te.connect(t, "alice")
	b := te.connect(t, "bob")
	joinServerRoom(t, "s1", a, b)

	a.Handle(models.ClientEvent{Event: models.ClientTyping, ServerID: "s1", ChannelID: "general"})

	got := recv(t, b, models.ServerUserTyping)
	if got.UserID != "alice" || got.ServerID != "s1" || got.ChannelID != "general" {
		t.Fatalf("typing event = %+v", got)
	}
	expectSilence(t, a, models.ServerUserTyping)

	// Further keystrokes refresh the indicator silently.
	a.Handle(models.ClientEvent{Event: models.ClientTyping, ServerID: "s1", ChannelID: "general"})
	a.Handle(models.ClientEvent{Event: models.ClientTyping, ServerID: "s1", ChannelID: "general"})
	expectSilence(t, b, models.ServerUserTyping)
}

func TestTypingExpiresAfterQuietPeriod(t *testing.T) {
	te := newTestEngine(t)

	a := te.connect(t, "alice")
	b := te.connect(t, "bob")
	joinServerRoom(t, "s1", a, b)

	a.Handle(models.ClientEvent{Event: models.ClientTyping, ServerID: "s1", ChannelID: "general"})
	recv(t, b, models.ServerUserTyping)

	stop := recv(t, b, models.ServerUserStopTyping)
	if stop.UserID != "alice" || stop.ChannelID != "general" {
		t.Fatalf("stop event = %+v", stop)
	}

	// A fresh keystroke after expiry announces typing again.
	a.Handle(models.ClientEvent{Event: models.ClientTyping, ServerID: "s1", ChannelID: "general"})
	recv(t, b, models.ServerUserTyping)
}

func TestExplicitStopTyping(t *testing.T) {
	te := newTestEngine(t)

	a := te.connect(t, "alice")
	b := te.connect(t, "bob")
	joinServerRoom(t, "s1", a, b)

	a.Handle(models.ClientEvent{Event: models.ClientTyping, ServerID: "s1", ChannelID: "general"})
	recv(t, b, models.ServerUserTyping)

	a.Handle(models.ClientEvent{Event: models.ClientStopTyping, ServerID: "s1", ChannelID: "general"})
	recv(t, b, models.ServerUserStopTyping)

	// Stopping an indicator that is not running broadcasts nothing.
	a.Handle(models.ClientEvent{Event: models.ClientStopTyping, ServerID: "s1", ChannelID: "general"})
	expectSilence(t, b, models.ServerUserStopTyping)
}

func TestTypingIndicatorsIndependentPerChannel(t *testing.T) {
	te := newTestEngine(t)

	a := te.connect(t, "alice")
	b := te.connect(t, "bob")
	joinServerRoom(t, "s1", a, b)

	a.Handle(models.ClientEvent{Event: models.ClientTyping, ServerID: "s1", ChannelID: "general"})
	a.Handle(models.ClientEvent{Event: models.ClientTyping, ServerID: "s1", ChannelID: "random"})

	first := recv(t, b, models.ServerUserTyping)
	second := recv(t, b, models.ServerUserTyping)
	channels := map[string]bool{first.ChannelID: true, second.ChannelID: true}
	if !channels["general"] || !channels["random"] {
		t.Fatalf("channels = %v", channels)
	}

	a.Handle(models.ClientEvent{Event: models.ClientStopTyping, ServerID: "s1", ChannelID: "general"})
	stop := recv(t, b, models.ServerUserStopTyping)
	if stop.ChannelID != "general" {
		t.Fatalf("stop channel = %q", stop.ChannelID)
	}
}

func TestDisconnectForceStopsTyping(t *testing.T) {
	te := newTestEngine(t)

	a := te.connect(t, "alice")
	b := te.connect(t, "bob")
	joinServerRoom(t, "s1", a, b)

	a.Handle(models.ClientEvent{Event: models.ClientTyping, ServerID: "s1", ChannelID: "general"})
	recv(t, b, models.ServerUserTyping)

	a.Close()

	stop := recv(t, b, models.ServerUserStopTyping)
	if stop.ServerID != "s1" || stop.ChannelID != "general" || stop.UserID != "alice" {
		t.Fatalf("stop event = %+v", stop)
	}
	// The quiet timer was cancelled, so no second stop follows.
	time.Sleep(te.cfg.TypingQuiet * 2)
	expectSilence(t, b, models.ServerUserStopTyping)
}
