// Package engine is the event actor of the fan-out core. It owns no
// network: inbound events arrive through Session.Handle, outbound
// events leave through per-session buffered channels, and all durable
// or external work goes through the collaborator interfaces below.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"pulse/internal/history"
	"pulse/internal/models"
	"pulse/internal/roster"

	"github.com/google/uuid"
)

// MessageStore is the persistence collaborator. It assigns
// authoritative message ids and enforces author-only mutation.
type MessageStore interface {
	CreateMessage(ctx context.Context, msg models.Message) (models.Message, error)
	UpdateMessage(ctx context.Context, room models.RoomID, messageID int64, authorID, content string) (models.Message, error)
	DeleteMessage(ctx context.Context, room models.RoomID, messageID int64, authorID string) error
}

// VideoService is the external audio/video room collaborator. Calls
// are best-effort; failures degrade, they never break chat.
type VideoService interface {
	JoinNotify(ctx context.Context, room string) error
	LeaveNotify(ctx context.Context, room string) error
	ListParticipantCounts(ctx context.Context, rooms []string) (map[string]int, error)
}

type Config struct {
	// TypingQuiet is how long after the last keystroke a typing
	// indicator expires on its own.
	TypingQuiet time.Duration
	// StoreTimeout bounds every persistence round-trip.
	StoreTimeout time.Duration
	// VideoTimeout bounds every call to the video service.
	VideoTimeout time.Duration
	// SendBuffer is the outbound event buffer per session; slow
	// consumers drop events rather than stall fan-out.
	SendBuffer int
	// RelayBuffer is the per-room relay inbox size.
	RelayBuffer int
}

func (c *Config) withDefaults() {
	if c.TypingQuiet <= 0 {
		c.TypingQuiet = 2 * time.Second
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = 5 * time.Second
	}
	if c.VideoTimeout <= 0 {
		c.VideoTimeout = 2 * time.Second
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = 100
	}
	if c.RelayBuffer <= 0 {
		c.RelayBuffer = 16
	}
}

type Engine struct {
	log    *slog.Logger
	cfg    Config
	ctx    context.Context
	roster *roster.Store
	store  MessageStore
	video  VideoService
	hist   *history.Log

	relayMu sync.Mutex
	relays  map[models.RoomID]chan relayJob

	typingMu sync.Mutex
	typing   map[typingKey]*time.Timer
}

// New builds the engine. ctx outlives individual connections and
// bounds background work (relay workers, video notifications); cancel
// it to wind the engine down.
func New(ctx context.Context, log *slog.Logger, cfg Config, ro *roster.Store, store MessageStore, video VideoService, hist *history.Log) *Engine {
	cfg.withDefaults()
	return &Engine{
		log:    log,
		cfg:    cfg,
		ctx:    ctx,
		roster: ro,
		store:  store,
		video:  video,
		hist:   hist,
		relays: make(map[models.RoomID]chan relayJob),
		typing: make(map[typingKey]*time.Timer),
	}
}

// Session is the live handle the gateway holds for one connection.
type Session struct {
	ID       string
	Identity models.Identity

	engine *Engine
	out    chan models.ServerEvent
}

// Connect registers a new session for an already-authenticated
// identity and returns its handle.
func (e *Engine) Connect(identity models.Identity) (*Session, error) {
	sessionID := uuid.NewString()
	out := make(chan models.ServerEvent, e.cfg.SendBuffer)
	if err := e.roster.Register(sessionID, identity, out); err != nil {
		return nil, err
	}
	e.log.Info("session connected", "session_id", sessionID, "user_id", identity.UserID)
	return &Session{ID: sessionID, Identity: identity, engine: e, out: out}, nil
}

// Events is the outbound stream for this session. The channel is never
// closed; the gateway stops reading when the connection dies.
func (s *Session) Events() <-chan models.ServerEvent {
	return s.out
}

// Handle processes one inbound event on behalf of this session.
func (s *Session) Handle(ev models.ClientEvent) {
	s.engine.handle(s.ID, ev)
}

// Close runs disconnect cleanup. Safe to call more than once.
func (s *Session) Close() {
	s.engine.Disconnect(s.ID)
}

// Disconnect is the designated cancellation point: it force-stops
// typing indicators, fans out one offline event per room the session
// belonged to, and removes all registry and membership state. Invoking
// it for an already-unregistered session is a no-op.
func (e *Engine) Disconnect(sessionID string) {
	identity, ok := e.roster.Identity(sessionID)
	if !ok {
		return
	}

	e.stopAllTyping(sessionID)

	rooms := e.roster.Unregister(sessionID)
	for _, room := range rooms {
		e.broadcast(room, sessionID, offlineEvent(room, identity))
		if room.Kind == models.RoomKindVideo {
			e.videoNotifyAsync(videoLeave, room.ID)
		}
	}
	e.log.Info("session disconnected", "session_id", sessionID, "user_id", identity.UserID, "rooms", len(rooms))
}

func (e *Engine) handle(sessionID string, ev models.ClientEvent) {
	switch ev.Event {
	case models.ClientJoinServer:
		e.handleJoinServer(sessionID, ev.ServerIDs)
	case models.ClientUserOnline:
		e.handleUserOnline(sessionID, ev.ServerID)
	case models.ClientUserOnlineDM:
		e.handleUserOnlineDM(sessionID, ev.ConversationID)
	case models.ClientUserOfflineDM:
		e.handleUserOfflineDM(sessionID, ev.ConversationID)
	case models.ClientServerChange:
		e.handleServerChange(sessionID)
	case models.ClientMessage:
		e.handleMessage(sessionID, ev)
	case models.ClientUpdateMessage:
		e.handleUpdateMessage(sessionID, ev)
	case models.ClientDeleteMessage:
		e.handleDeleteMessage(sessionID, ev)
	case models.ClientTyping:
		e.handleTyping(sessionID, ev)
	case models.ClientStopTyping:
		e.handleStopTyping(sessionID, ev)
	case models.ClientVideoJoined:
		e.handleVideoJoined(sessionID, ev)
	case models.ClientVideoLeft:
		e.handleVideoLeft(sessionID, ev)
	case models.ClientListRooms:
		e.handleListRooms(sessionID, ev.Rooms)
	default:
		e.log.Warn("unknown client event", "event", ev.Event, "session_id", sessionID)
	}
}

// broadcast fans an event out to the room's members, excluding at most
// one session. Sends never block: a full consumer buffer drops the
// event instead of stalling every other room member.
func (e *Engine) broadcast(room models.RoomID, exclude string, ev models.ServerEvent) {
	for _, ch := range e.roster.Recipients(room, exclude) {
		e.send(ch, ev)
	}
}

func (e *Engine) sendTo(sessionID string, ev models.ServerEvent) {
	if ch, ok := e.roster.SendChan(sessionID); ok {
		e.send(ch, ev)
	}
}

func (e *Engine) send(ch chan<- models.ServerEvent, ev models.ServerEvent) {
	select {
	case ch <- ev:
	default:
		e.log.Debug("dropping event for slow consumer", "event", ev.Event)
	}
}
