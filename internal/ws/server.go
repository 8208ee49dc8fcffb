package ws

import (
	"log/slog"
	"net/http"

	"pulse/internal/engine"
	"pulse/internal/models"

	"github.com/gorilla/websocket"
)

// IdentityResolver turns an upgrade request into the caller's identity.
// Authentication happens upstream; this only extracts who the caller
// already is.
type IdentityResolver interface {
	Resolve(r *http.Request) (models.Identity, error)
}

type Server struct {
	log      *slog.Logger
	engine   *engine.Engine
	resolver IdentityResolver
	upgrader *websocket.Upgrader
}

func NewServer(log *slog.Logger, eng *engine.Engine, resolver IdentityResolver) *Server {
	return &Server{
		log:      log,
		engine:   eng,
		resolver: resolver,
		upgrader: &websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for now
			},
		},
	}
}

func (s *Server) HandleConnections(w http.ResponseWriter, r *http.Request) {
	identity, err := s.resolver.Resolve(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("websocket upgrade failed", "error", err)
		return
	}

	session, err := s.engine.Connect(identity)
	if err != nil {
		s.log.Error("session registration failed", "user_id", identity.UserID, "error", err)
		conn.Close()
		return
	}

	if err := NewConnection(session, conn).Handle(r.Context()); err != nil {
		s.log.Debug("connection closed", "user_id", identity.UserID, "error", err)
	}
}
