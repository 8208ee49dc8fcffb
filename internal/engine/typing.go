package engine

import (
	"time"

	"pulse/internal/models"
)

// typingKey identifies one typing indicator: a session typing in one
// channel of one server. One session can hold several at once.
type typingKey struct {
	sessionID string
	serverID  string
	channelID string
}

func (e *Engine) handleTyping(sessionID string, ev models.ClientEvent) {
	if ev.ServerID == "" {
		return
	}
	identity, ok := e.roster.Identity(sessionID)
	if !ok {
		return
	}
	key := typingKey{sessionID: sessionID, serverID: ev.ServerID, channelID: ev.ChannelID}

	e.typingMu.Lock()
	_, refresh := e.typing[key]
	if refresh {
		e.typing[key].Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(e.cfg.TypingQuiet, func() {
		e.expireTyping(key, t)
	})
	e.typing[key] = t
	e.typingMu.Unlock()

	// Repeat keystrokes only push the expiry; peers already see the
	// indicator, so nothing is broadcast again.
	if refresh {
		return
	}
	e.broadcast(models.ServerRoom(key.serverID), sessionID, models.ServerEvent{
		Event:     models.ServerUserTyping,
		ServerID:  key.serverID,
		ChannelID: key.channelID,
		UserID:    identity.UserID,
		User:      &identity,
	})
}

func (e *Engine) handleStopTyping(sessionID string, ev models.ClientEvent) {
	if ev.ServerID == "" {
		return
	}
	key := typingKey{sessionID: sessionID, serverID: ev.ServerID, channelID: ev.ChannelID}

	e.typingMu.Lock()
	t, ok := e.typing[key]
	if ok {
		t.Stop()
		delete(e.typing, key)
	}
	e.typingMu.Unlock()

	if ok {
		e.broadcastStopTyping(key)
	}
}

// expireTyping fires when the quiet period passes without a keystroke.
// The timer pointer check discards stale fires: if a keystroke replaced
// the timer between the fire and this lock, the indicator is still live.
func (e *Engine) expireTyping(key typingKey, t *time.Timer) {
	e.typingMu.Lock()
	cur, ok := e.typing[key]
	if !ok || cur != t {
		e.typingMu.Unlock()
		return
	}
	delete(e.typing, key)
	e.typingMu.Unlock()

	e.broadcastStopTyping(key)
}

// stopAllTyping force-clears every indicator a session holds, with the
// same stop broadcasts an explicit stop would produce. Runs before the
// session is unregistered so its identity is still resolvable.
func (e *Engine) stopAllTyping(sessionID string) {
	e.typingMu.Lock()
	var keys []typingKey
	for key, t := range e.typing {
		if key.sessionID != sessionID {
			continue
		}
		t.Stop()
		delete(e.typing, key)
		keys = append(keys, key)
	}
	e.typingMu.Unlock()

	for _, key := range keys {
		e.broadcastStopTyping(key)
	}
}

func (e *Engine) broadcastStopTyping(key typingKey) {
	ev := models.ServerEvent{
		Event:     models.ServerUserStopTyping,
		ServerID:  key.serverID,
		ChannelID: key.channelID,
	}
	if identity, ok := e.roster.Identity(key.sessionID); ok {
		ev.UserID = identity.UserID
	}
	e.broadcast(models.ServerRoom(key.serverID), key.sessionID, ev)
}
